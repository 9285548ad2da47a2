package config

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
)

var paramTypeType = reflect.TypeOf(abi.ParamType(0))

// Schema returns the JSON schema of the manifest format.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper:         mapType,
	}
	schema := reflector.Reflect(&Manifest{})
	schema.Title = "wasm-native import manifest"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "marshal schema")
	}
	return out, nil
}

func mapType(t reflect.Type) *jsonschema.Schema {
	if t != paramTypeType {
		return nil
	}
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{
			abi.Int32.String(),
			abi.Int64.String(),
			abi.Float32.String(),
			abi.Float64.String(),
			abi.Pointer.String(),
			abi.Void.String(),
		},
	}
}
