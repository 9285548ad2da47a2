package abi

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-native/errors"
)

var witFuncPattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*\s*:\s*)?func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?;?\s*$`)

// ParseWIT parses a WIT function type such as "func(x: f32, p: ptr) -> s64".
// WIT primitives are flattened to core kinds the way the canonical ABI
// flattens them. The extra keyword ptr (or pointer) marks a memory offset.
func ParseWIT(text string) (Signature, error) {
	match := witFuncPattern.FindStringSubmatch(text)
	if match == nil {
		return Signature{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(text).
			Detail("%q is not a WIT function type", text).
			Build()
	}

	var sig Signature
	if params := strings.TrimSpace(match[1]); params != "" {
		for _, part := range strings.Split(params, ",") {
			typ := part
			if idx := strings.LastIndex(part, ":"); idx != -1 {
				typ = part[idx+1:]
			}
			p, err := witKind(typ)
			if err != nil {
				return Signature{}, err
			}
			sig.Params = append(sig.Params, p)
		}
	}

	if result := strings.TrimSpace(match[2]); result != "" && result != "()" {
		r, err := witKind(result)
		if err != nil {
			return Signature{}, err
		}
		sig.Result = r
	}
	return sig, nil
}

func witKind(s string) (ParamType, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "ptr", "pointer":
		return Pointer, nil
	}

	t, err := wit.ParseType(s)
	if err != nil {
		return Void, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse WIT type "+s)
	}

	switch t.(type) {
	case wit.Bool, wit.S8, wit.U8, wit.S16, wit.U16, wit.S32, wit.U32, wit.Char:
		return Int32, nil
	case wit.S64, wit.U64:
		return Int64, nil
	case wit.F32:
		return Float32, nil
	case wit.F64:
		return Float64, nil
	}
	return Void, errors.New(errors.PhaseParse, errors.KindUnsupported).
		Value(s).
		Detail("WIT type %s does not flatten to a single core value", s).
		Build()
}

// ParseAny accepts either the compact "(i32, ptr) -> f64" form or a WIT
// function type.
func ParseAny(text string) (Signature, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "(") {
		return ParseSignature(text)
	}
	return ParseWIT(text)
}
