package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve     Phase = "resolve"     // symbol lookup
	PhaseDispatch    Phase = "dispatch"    // call shape selection
	PhaseMarshal     Phase = "marshal"     // sandbox value conversion
	PhaseRegister    Phase = "register"    // linker bookkeeping
	PhaseBind        Phase = "bind"        // bind request validation
	PhaseLoad        Phase = "load"        // library and module loading
	PhaseInstantiate Phase = "instantiate" // guest instantiation
	PhaseRuntime     Phase = "runtime"     // runtime operations
	PhaseConfig      Phase = "config"      // manifest handling
	PhaseParse       Phase = "parse"       // signature parsing
)

// Kind categorizes the error
type Kind string

const (
	KindSymbolNotFound   Kind = "symbol_not_found"
	KindArityUnsupported Kind = "arity_unsupported"
	KindDuplicateImport  Kind = "duplicate_import"
	KindTypeMismatch     Kind = "type_mismatch"
	KindLibraryOpen      Kind = "library_open"
	KindLibraryClosed    Kind = "library_closed"
	KindMissingImport    Kind = "missing_import"
	KindUnsupported      Kind = "unsupported"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidData      Kind = "invalid_data"
	KindNotFound         Kind = "not_found"
	KindNotInitialized   Kind = "not_initialized"
	KindRegistration     Kind = "registration"
	KindInstantiation    Kind = "instantiation"
)

// Sentinel targets for errors.Is. They carry no phase and therefore match
// an error of the same kind raised in any phase.
var (
	ErrSymbolNotFound   = &Error{Kind: KindSymbolNotFound}
	ErrArityUnsupported = &Error{Kind: KindArityUnsupported}
	ErrDuplicateImport  = &Error{Kind: KindDuplicateImport}
	ErrTypeMismatch     = &Error{Kind: KindTypeMismatch}
	ErrLibraryClosed    = &Error{Kind: KindLibraryClosed}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Namespace string
	Name      string
	Symbol    string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Namespace != "" || e.Name != "" {
		b.WriteString(" at ")
		b.WriteString(e.Namespace)
		b.WriteByte('.')
		b.WriteString(e.Name)
	}

	if e.Symbol != "" {
		b.WriteString(" (symbol ")
		b.WriteString(e.Symbol)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Import sets the (namespace, name) pair the error refers to
func (b *Builder) Import(namespace, name string) *Builder {
	b.err.Namespace = namespace
	b.err.Name = name
	return b
}

// Symbol sets the native symbol name
func (b *Builder) Symbol(s string) *Builder {
	b.err.Symbol = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SymbolNotFound reports an export missing from a native library
func SymbolNotFound(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindSymbolNotFound,
		Symbol: symbol,
		Detail: "symbol not exported by library",
		Cause:  cause,
	}
}

// ArityUnsupported reports a parameter count above the supported maximum
func ArityUnsupported(arity, maxArity int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindArityUnsupported,
		Detail: fmt.Sprintf("%d parameters exceed the supported maximum of %d", arity, maxArity),
		Value:  arity,
	}
}

// DuplicateImport reports a (namespace, name) pair that is already defined
func DuplicateImport(namespace, name string) *Error {
	return &Error{
		Phase:     PhaseRegister,
		Kind:      KindDuplicateImport,
		Namespace: namespace,
		Name:      name,
		Detail:    "import already defined",
	}
}

// TypeMismatch reports a registered signature that disagrees with the guest import
func TypeMismatch(namespace, name, want, got string) *Error {
	return &Error{
		Phase:     PhaseInstantiate,
		Kind:      KindTypeMismatch,
		Namespace: namespace,
		Name:      name,
		Detail:    fmt.Sprintf("guest imports %s, host defines %s", want, got),
	}
}

// LibraryOpen reports a native library that could not be opened
func LibraryOpen(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLibraryOpen,
		Detail: fmt.Sprintf("open %q", path),
		Cause:  cause,
	}
}

// LibraryClosed reports use of a library whose last reference was released
func LibraryClosed(path string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindLibraryClosed,
		Detail: fmt.Sprintf("library %q already closed", path),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Namespace string // e.g., "env"
	Function  string // e.g., "incr"
}

// MissingImportsError is returned when a guest imports functions nobody defined
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "namespace#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		ns, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Namespace: ns,
			Function:  fn,
		})
	}
	return result
}

func parseImportKey(key string) (namespace, function string) {
	ns, fn, found := strings.Cut(key, "#")
	if found {
		return ns, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[instantiate] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d host function(s):\n", len(e.Imports)))

	// Group by namespace for cleaner output
	byNS := make(map[string][]string)
	var nsOrder []string
	for _, imp := range e.Imports {
		if _, exists := byNS[imp.Namespace]; !exists {
			nsOrder = append(nsOrder, imp.Namespace)
		}
		byNS[imp.Namespace] = append(byNS[imp.Namespace], imp.Function)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, fn := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingImportsError:
		return true
	case *Error:
		return t.Kind == KindMissingImport
	}
	return false
}

// NotInitialized creates a not-initialized error for missing module/instance
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:     PhaseRegister,
		Kind:      KindRegistration,
		Namespace: namespace,
		Name:      name,
		Detail:    "register host function",
		Cause:     cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
// It is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// It is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
