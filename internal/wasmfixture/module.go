// Package wasmfixture builds small core wasm modules for tests.
package wasmfixture

// ValType is a core wasm value type.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
	F32 ValType = 0x7D
	F64 ValType = 0x7C
)

const (
	secType     = 1
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10

	exportFunc   = 0x00
	exportMemory = 0x02
)

// Func is a function definition. Body holds the instructions including the
// final end opcode.
type Func struct {
	Export  string
	Params  []ValType
	Results []ValType
	Locals  []ValType
	Body    []byte
}

// Global is a global initialized with an i32 constant.
type Global struct {
	Init    int32
	Mutable bool
}

// Module describes a module with at most one memory.
type Module struct {
	MemoryExport string
	Globals      []Global
	Funcs        []Func
	MemoryPages  uint32
}

// Encode returns the binary module.
func (m *Module) Encode() []byte {
	w := &writer{}
	w.raw([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})

	if len(m.Funcs) > 0 {
		types := &writer{}
		types.u32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			types.byte(0x60)
			types.u32(uint32(len(f.Params)))
			for _, p := range f.Params {
				types.byte(byte(p))
			}
			types.u32(uint32(len(f.Results)))
			for _, r := range f.Results {
				types.byte(byte(r))
			}
		}
		w.section(secType, types)

		funcs := &writer{}
		funcs.u32(uint32(len(m.Funcs)))
		for i := range m.Funcs {
			funcs.u32(uint32(i))
		}
		w.section(secFunction, funcs)
	}

	if m.MemoryPages > 0 {
		mem := &writer{}
		mem.u32(1)
		mem.byte(0x00)
		mem.u32(m.MemoryPages)
		w.section(secMemory, mem)
	}

	if len(m.Globals) > 0 {
		globals := &writer{}
		globals.u32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			globals.byte(byte(I32))
			if g.Mutable {
				globals.byte(0x01)
			} else {
				globals.byte(0x00)
			}
			globals.byte(0x41)
			globals.s64(int64(g.Init))
			globals.byte(0x0B)
		}
		w.section(secGlobal, globals)
	}

	exports := &writer{}
	count := uint32(0)
	for _, f := range m.Funcs {
		if f.Export != "" {
			count++
		}
	}
	if m.MemoryPages > 0 && m.MemoryExport != "" {
		count++
	}
	if count > 0 {
		exports.u32(count)
		for i, f := range m.Funcs {
			if f.Export == "" {
				continue
			}
			exports.name(f.Export)
			exports.byte(exportFunc)
			exports.u32(uint32(i))
		}
		if m.MemoryPages > 0 && m.MemoryExport != "" {
			exports.name(m.MemoryExport)
			exports.byte(exportMemory)
			exports.u32(0)
		}
		w.section(secExport, exports)
	}

	if len(m.Funcs) > 0 {
		code := &writer{}
		code.u32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			body := &writer{}
			body.u32(uint32(len(f.Locals)))
			for _, l := range f.Locals {
				body.u32(1)
				body.byte(byte(l))
			}
			body.raw(f.Body)
			code.u32(uint32(len(body.bytes())))
			code.raw(body.bytes())
		}
		w.section(secCode, code)
	}

	return w.bytes()
}
