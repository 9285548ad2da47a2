package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/library"
)

// Manifest lists the native libraries to open and the imports to bind.
type Manifest struct {
	Engine    EngineSpec    `yaml:"engine,omitempty" json:"engine,omitempty" jsonschema:"description=Engine settings"`
	Libraries []LibrarySpec `yaml:"libraries" json:"libraries" validate:"dive" jsonschema:"description=Native libraries to open"`
	Imports   []ImportSpec  `yaml:"imports" json:"imports" validate:"required,min=1,dive" jsonschema:"description=Imports to bind to native symbols"`
}

// EngineSpec configures the WebAssembly engine.
type EngineSpec struct {
	MemoryLimitPages uint32 `yaml:"memory_limit_pages,omitempty" json:"memory_limit_pages,omitempty" validate:"lte=65536" jsonschema:"maximum=65536"`
	WASI             bool   `yaml:"wasi,omitempty" json:"wasi,omitempty" jsonschema:"description=Provide wasi_snapshot_preview1"`
}

// LibrarySpec names a shared library. Path may be omitted for the well
// known names libc and libm.
type LibrarySpec struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Path string `yaml:"path,omitempty" json:"path,omitempty" validate:"required_unless=Name libc Name libm"`
}

// ImportSpec binds one guest import to a library symbol. The signature is
// given either as params/result or as signature text, not both.
type ImportSpec struct {
	Namespace string          `yaml:"namespace" json:"namespace" validate:"required"`
	Name      string          `yaml:"name" json:"name" validate:"required"`
	Library   string          `yaml:"library" json:"library" validate:"required"`
	Symbol    string          `yaml:"symbol,omitempty" json:"symbol,omitempty" jsonschema:"description=Native symbol; defaults to name"`
	Params    []abi.ParamType `yaml:"params,omitempty" json:"params,omitempty" validate:"dive,param"`
	Result    abi.ParamType   `yaml:"result,omitempty" json:"result,omitempty"`
	Signature string          `yaml:"signature,omitempty" json:"signature,omitempty" jsonschema:"description=Signature in compact or WIT function form"`
}

// ResolvedPath returns the path to open for l.
func (l LibrarySpec) ResolvedPath() string {
	if l.Path != "" {
		return l.Path
	}
	switch l.Name {
	case "libc":
		return library.LibCPath()
	case "libm":
		return library.LibMPath()
	}
	return ""
}

// Sig returns the import's signature, parsing Signature when set.
func (i ImportSpec) Sig() (abi.Signature, error) {
	if i.Signature != "" {
		return abi.ParseAny(i.Signature)
	}
	sig := abi.Signature{Params: i.Params, Result: i.Result}
	if err := sig.Validate(); err != nil {
		return abi.Signature{}, err
	}
	return sig, nil
}

// SymbolName returns Symbol, or Name when Symbol is empty.
func (i ImportSpec) SymbolName() string {
	if i.Symbol != "" {
		return i.Symbol
	}
	return i.Name
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("param", func(fl validator.FieldLevel) bool {
		p, ok := fl.Field().Interface().(abi.ParamType)
		return ok && p.Valid()
	})
	v.RegisterStructValidation(validateImport, ImportSpec{})
	v.RegisterStructValidation(validateManifest, Manifest{})
	return v
}

func validateImport(sl validator.StructLevel) {
	imp := sl.Current().Interface().(ImportSpec)
	if imp.Signature != "" && (len(imp.Params) > 0 || imp.Result != abi.Void) {
		sl.ReportError(imp.Signature, "Signature", "signature", "excluded_with", "Params Result")
		return
	}
	if imp.Signature != "" {
		if _, err := abi.ParseAny(imp.Signature); err != nil {
			sl.ReportError(imp.Signature, "Signature", "signature", "signature", "")
		}
	}
	if imp.Result != abi.Void && !imp.Result.Valid() {
		sl.ReportError(imp.Result, "Result", "result", "param", "")
	}
}

func validateManifest(sl validator.StructLevel) {
	m := sl.Current().Interface().(Manifest)

	libs := make(map[string]bool, len(m.Libraries))
	for _, l := range m.Libraries {
		if libs[l.Name] {
			sl.ReportError(l.Name, "Libraries", "libraries", "unique", l.Name)
		}
		libs[l.Name] = true
	}

	seen := make(map[string]bool, len(m.Imports))
	for _, imp := range m.Imports {
		if imp.Library != "" && !libs[imp.Library] {
			sl.ReportError(imp.Library, "Imports", "imports", "library", imp.Library)
		}
		key := imp.Namespace + "#" + imp.Name
		if seen[key] {
			sl.ReportError(key, "Imports", "imports", "unique", key)
		}
		seen[key] = true
	}
}

// Validate checks m and reports every violation in one error.
func Validate(m *Manifest) error {
	if m == nil {
		return errors.InvalidInput(errors.PhaseConfig, "nil manifest")
	}
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate manifest")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Cause(err).
		Detail("invalid manifest: %s", strings.Join(msgs, "; ")).
		Build()
}

// Parse decodes and validates a YAML manifest. Unknown fields are errors.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, errors.InvalidInput(errors.PhaseConfig, "empty manifest")
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode manifest")
	}
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read manifest "+path)
	}
	return Parse(data)
}
