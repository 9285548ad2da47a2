package wasmbuild

import (
	"github.com/tetratelabs/wazero/api"
)

// Forward describes one imported function and the export that calls it.
type Forward struct {
	Module  string
	Name    string
	Export  string
	Params  []api.ValueType
	Results []api.ValueType
}

// Forwarders builds a module that imports every fwd and exports, under
// fwd.Export, a function of the same type that passes its arguments straight
// to the import and returns its result. The module has one page of memory
// exported as "memory".
func Forwarders(fwds ...Forward) *Module {
	m := &Module{MemoryPages: 1}

	for _, f := range fwds {
		typ := m.AddType(FuncType{Params: f.Params, Results: f.Results})
		m.Imports = append(m.Imports, Import{Module: f.Module, Name: f.Name, Type: typ})
	}

	imported := uint32(len(m.Imports))
	for i, f := range fwds {
		typ := m.Imports[i].Type

		body := &writer{}
		for p := range f.Params {
			body.byte(OpLocalGet)
			body.u32(uint32(p))
		}
		body.byte(OpCall)
		body.u32(uint32(i))

		m.Funcs = append(m.Funcs, Func{Type: typ, Body: body.bytes()})
		m.Exports = append(m.Exports, Export{
			Name:  f.Export,
			Kind:  kindFunc,
			Index: imported + uint32(i),
		})
	}

	m.Exports = append(m.Exports, Export{Name: "memory", Kind: kindMemory, Index: 0})
	return m
}

// Forwarder is Forwarders with a single import exported as "call".
func Forwarder(module, name string, params, results []api.ValueType) []byte {
	return Forwarders(Forward{
		Module:  module,
		Name:    name,
		Export:  "call",
		Params:  params,
		Results: results,
	}).Encode()
}

// Memory builds a module with pages of exported memory and no functions.
func Memory(pages uint32) []byte {
	m := &Module{
		MemoryPages: pages,
		Exports:     []Export{{Name: "memory", Kind: kindMemory, Index: 0}},
	}
	return m.Encode()
}
