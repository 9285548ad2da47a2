package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseResolve,
				Kind:      KindSymbolNotFound,
				Namespace: "env",
				Name:      "incr",
				Symbol:    "native_incr",
				Detail:    "missing",
			},
			contains: []string{"[resolve]", "symbol_not_found", "env.incr", "native_incr", "missing"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDispatch,
				Kind:  KindArityUnsupported,
			},
			contains: []string{"[dispatch]", "arity_unsupported"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindLibraryOpen,
				Detail: "open libfoo.so",
				Cause:  errors.New("no such file"),
			},
			contains: []string{"[load]", "library_open", "libfoo.so", "caused by", "no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, should contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Phase: PhaseLoad, Kind: KindLibraryOpen, Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhaseRegister, Kind: KindDuplicateImport}

	if !errors.Is(err, &Error{Phase: PhaseRegister, Kind: KindDuplicateImport}) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(err, &Error{Phase: PhaseBind, Kind: KindDuplicateImport}) {
		t.Error("different phase should not match")
	}
	if errors.Is(err, &Error{Phase: PhaseRegister, Kind: KindRegistration}) {
		t.Error("different kind should not match")
	}
	if errors.Is(err, errors.New("other")) {
		t.Error("foreign error should not match")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"symbol not found", SymbolNotFound("foo", nil), ErrSymbolNotFound},
		{"arity", ArityUnsupported(7, 6), ErrArityUnsupported},
		{"duplicate", DuplicateImport("env", "incr"), ErrDuplicateImport},
		{"type mismatch", TypeMismatch("env", "incr", "(i32)", "(f32)"), ErrTypeMismatch},
		{"library closed", LibraryClosed("libm.so.6"), ErrLibraryClosed},
		{"unsupported", Unsupported(PhaseLoad, "dlopen"), ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v should match sentinel", tt.err)
			}
		})
	}

	if errors.Is(SymbolNotFound("foo", nil), ErrDuplicateImport) {
		t.Error("sentinels of other kinds must not match")
	}
}

func TestSentinelThroughWrap(t *testing.T) {
	inner := DuplicateImport("env", "incr")
	outer := Wrap(PhaseBind, KindRegistration, inner, "bind env.incr")

	if !errors.Is(outer, ErrDuplicateImport) {
		t.Error("sentinel should match through the cause chain")
	}

	var e *Error
	if !errors.As(outer, &e) || e.Kind != KindRegistration {
		t.Error("errors.As should yield the outer error first")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("cause")
	err := New(PhaseBind, KindInvalidInput).
		Import("env", "print").
		Symbol("print_f32").
		Value(3).
		Cause(cause).
		Detail("bad param %d", 3).
		Build()

	if err.Phase != PhaseBind {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseBind)
	}
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
	}
	if err.Namespace != "env" || err.Name != "print" {
		t.Errorf("import = %s.%s, want env.print", err.Namespace, err.Name)
	}
	if err.Symbol != "print_f32" {
		t.Errorf("Symbol = %v, want print_f32", err.Symbol)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "bad param 3" {
		t.Errorf("Detail = %q, want 'bad param 3'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("ArityUnsupported", func(t *testing.T) {
		err := ArityUnsupported(7, 6)
		if err.Phase != PhaseDispatch {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseDispatch)
		}
		if err.Value != 7 {
			t.Errorf("Value = %v, want 7", err.Value)
		}
		if !strings.Contains(err.Detail, "6") {
			t.Errorf("Detail = %v, should contain the maximum", err.Detail)
		}
	})

	t.Run("DuplicateImport", func(t *testing.T) {
		err := DuplicateImport("env", "incr")
		if err.Namespace != "env" || err.Name != "incr" {
			t.Errorf("import = %s.%s", err.Namespace, err.Name)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch("env", "incr", "(i32)", "(f64)")
		if err.Phase != PhaseInstantiate {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseInstantiate)
		}
		if !strings.Contains(err.Detail, "(i32)") || !strings.Contains(err.Detail, "(f64)") {
			t.Errorf("Detail = %v, should contain both signatures", err.Detail)
		}
	})

	t.Run("LibraryOpen", func(t *testing.T) {
		cause := errors.New("dlopen failed")
		err := LibraryOpen("libnope.so", cause)
		if err.Kind != KindLibraryOpen {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLibraryOpen)
		}
		if !errors.Is(err, cause) {
			t.Error("cause should be reachable")
		}
	})

	t.Run("Registration", func(t *testing.T) {
		err := Registration("env", "f", nil)
		if err.Kind != KindRegistration || err.Phase != PhaseRegister {
			t.Errorf("got [%v] %v", err.Phase, err.Kind)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRuntime, "export", "call")
		if !strings.Contains(err.Detail, `"call"`) {
			t.Errorf("Detail = %v", err.Detail)
		}
	})
}

func TestMissingImportsError(t *testing.T) {
	t.Run("single import", func(t *testing.T) {
		err := NewMissingImportsError([]string{"env#incr"})
		if len(err.Imports) != 1 {
			t.Fatalf("expected 1 import, got %d", len(err.Imports))
		}
		if err.Imports[0].Namespace != "env" {
			t.Errorf("namespace = %q, want env", err.Imports[0].Namespace)
		}
		if err.Imports[0].Function != "incr" {
			t.Errorf("function = %q, want incr", err.Imports[0].Function)
		}
	})

	t.Run("multiple namespaces grouped", func(t *testing.T) {
		err := NewMissingImportsError([]string{"env#incr", "libm#sqrt", "env#print"})
		msg := err.Error()
		if !strings.Contains(msg, "missing 3") {
			t.Errorf("error should contain count, got: %s", msg)
		}
		if !strings.Contains(msg, "env:") || !strings.Contains(msg, "libm:") {
			t.Errorf("error should group by namespace, got: %s", msg)
		}
		if strings.Index(msg, "incr") > strings.Index(msg, "libm:") {
			t.Errorf("env entries should be grouped before libm, got: %s", msg)
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := NewMissingImportsError(nil)
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingImportsError([]string{"ns#fn"})
		if !errors.Is(err, &MissingImportsError{}) {
			t.Error("errors.Is should match MissingImportsError")
		}
		if !errors.Is(err, &Error{Kind: KindMissingImport}) {
			t.Error("errors.Is should match the missing_import kind")
		}
	})
}
