package wasmbuild

import (
	"github.com/tetratelabs/wazero/api"
)

const (
	magic   = 0x6D736100 // \0asm
	version = 0x01

	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02

	funcTypeByte = 0x60
)

// Instruction opcodes used by the generated bodies
const (
	OpEnd      = 0x0B
	OpCall     = 0x10
	OpLocalGet = 0x20
	OpI32Const = 0x41
)

// FuncType is a core function type
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Import is a function import
type Import struct {
	Module string
	Name   string
	Type   uint32
}

// Func is a defined function: a type index and its body without the
// trailing end opcode.
type Func struct {
	Type uint32
	Body []byte
}

// Export names a function or memory
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Data is an active data segment for memory 0
type Data struct {
	Offset uint32
	Init   []byte
}

// Module is the subset of a core module the builders need
type Module struct {
	Types   []FuncType
	Imports []Import
	Funcs   []Func
	// MemoryPages is the minimum size of memory 0; zero means no memory.
	MemoryPages uint32
	Exports     []Export
	Data        []Data
}

// AddType appends t unless an equal type exists and returns its index.
func (m *Module) AddType(t FuncType) uint32 {
	for i, existing := range m.Types {
		if sameTypes(existing.Params, t.Params) && sameTypes(existing.Results, t.Results) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, t)
	return uint32(len(m.Types) - 1)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Encode encodes the module to WebAssembly binary format
func (m *Module) Encode() []byte {
	w := &writer{}
	w.u32le(magic)
	w.u32le(version)

	if len(m.Types) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.byte(funcTypeByte)
			sec.u32(uint32(len(ft.Params)))
			sec.write(ft.Params)
			sec.u32(uint32(len(ft.Results)))
			sec.write(ft.Results)
		}
		w.section(sectionType, sec)
	}

	if len(m.Imports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.name(imp.Module)
			sec.name(imp.Name)
			sec.byte(kindFunc)
			sec.u32(imp.Type)
		}
		w.section(sectionImport, sec)
	}

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec.u32(f.Type)
		}
		w.section(sectionFunction, sec)
	}

	if m.MemoryPages > 0 {
		sec := &writer{}
		sec.u32(1)
		sec.byte(0x00) // limits: min only
		sec.u32(m.MemoryPages)
		w.section(sectionMemory, sec)
	}

	if len(m.Exports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.name(exp.Name)
			sec.byte(exp.Kind)
			sec.u32(exp.Index)
		}
		w.section(sectionExport, sec)
	}

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			body := &writer{}
			body.u32(0) // no locals
			body.write(f.Body)
			body.byte(OpEnd)
			sec.u32(uint32(body.buf.Len()))
			sec.write(body.bytes())
		}
		w.section(sectionCode, sec)
	}

	if len(m.Data) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Data)))
		for _, d := range m.Data {
			sec.u32(0) // active, memory 0
			sec.byte(OpI32Const)
			sec.s64(int64(int32(d.Offset)))
			sec.byte(OpEnd)
			sec.u32(uint32(len(d.Init)))
			sec.write(d.Init)
		}
		w.section(sectionData, sec)
	}

	return w.bytes()
}
