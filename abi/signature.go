package abi

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-native/errors"
)

// Signature is the runtime description of a bound import.
type Signature struct {
	Params []ParamType
	Result ParamType
}

// Arity returns the number of parameters.
func (s Signature) Arity() int {
	return len(s.Params)
}

// HasResult reports whether the import returns a value.
func (s Signature) HasResult() bool {
	return s.Result != Void
}

// HasPointer reports whether any parameter or the result is a Pointer.
// Only such signatures need the caller's memory base.
func (s Signature) HasPointer() bool {
	if s.Result == Pointer {
		return true
	}
	for _, p := range s.Params {
		if p == Pointer {
			return true
		}
	}
	return false
}

// Counts returns how many parameters travel in integer and float registers.
func (s Signature) Counts() (ints, floats int) {
	for _, p := range s.Params {
		if p.Class() == ClassFloat {
			floats++
		} else {
			ints++
		}
	}
	return ints, floats
}

// Validate checks every parameter is a value kind and the result is a value
// kind or Void.
func (s Signature) Validate() error {
	for i, p := range s.Params {
		if !p.Valid() {
			return errors.New(errors.PhaseBind, errors.KindInvalidInput).
				Value(p).
				Detail("parameter %d has invalid kind %d", i, uint8(p)).
				Build()
		}
	}
	if s.Result != Void && !s.Result.Valid() {
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Value(s.Result).
			Detail("result has invalid kind %d", uint8(s.Result)).
			Build()
	}
	return nil
}

// ValueTypes returns the core WebAssembly function type of the import.
func (s Signature) ValueTypes() (params, results []api.ValueType) {
	params = make([]api.ValueType, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.ValueType()
	}
	if s.HasResult() {
		results = []api.ValueType{s.Result.ValueType()}
	}
	return params, results
}

// Equal reports whether two signatures describe the same import.
func (s Signature) Equal(o Signature) bool {
	if s.Result != o.Result || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// String renders the signature as "(i32, ptr) -> f64".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if s.HasResult() {
		b.WriteString(" -> ")
		b.WriteString(s.Result.String())
	}
	return b.String()
}

// ParseSignature parses the form produced by String. A leading "func" is
// accepted and parameter names ("x: f32") are ignored, so simple WIT
// function types parse as well.
func ParseSignature(text string) (Signature, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimPrefix(s, "func"))

	if !strings.HasPrefix(s, "(") {
		return Signature{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(text).
			Detail("signature %q must start with a parameter list", text).
			Build()
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return Signature{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(text).
			Detail("unterminated parameter list in %q", text).
			Build()
	}

	var sig Signature
	if inner := strings.TrimSpace(s[1:end]); inner != "" {
		for _, part := range strings.Split(inner, ",") {
			typ := part
			if idx := strings.LastIndex(part, ":"); idx != -1 {
				typ = part[idx+1:]
			}
			p, err := ParseParamType(typ)
			if err != nil {
				return Signature{}, errors.ParseFailed("signature "+text, err)
			}
			if p == Void {
				return Signature{}, errors.InvalidInput(errors.PhaseParse, "void is not a parameter kind in "+text)
			}
			sig.Params = append(sig.Params, p)
		}
	}

	rest := strings.TrimSpace(s[end+1:])
	if rest == "" {
		return sig, nil
	}
	if !strings.HasPrefix(rest, "->") {
		return Signature{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(text).
			Detail("unexpected %q after parameter list", rest).
			Build()
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "->"))
	if rest == "()" {
		return sig, nil
	}
	r, err := ParseParamType(rest)
	if err != nil {
		return Signature{}, errors.ParseFailed("signature "+text, err)
	}
	sig.Result = r
	return sig, nil
}
