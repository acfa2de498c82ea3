package wasmfixture

// HeapStart is where the guest's cabi_realloc starts handing out memory.
const HeapStart = 1024

// Guest returns a module exporting "memory" (one page) and:
//
//	cabi_realloc(old, old_size, align, new_size) i32 - bump allocator; frees return 0
//	add(i64, i64) i64
//	store_u32(value, ptr, addr i32) - writes value to memory at addr
//	fail() - traps
func Guest() []byte {
	m := &Module{
		MemoryPages:  1,
		MemoryExport: "memory",
		Globals:      []Global{{Init: HeapStart, Mutable: true}},
		Funcs: []Func{
			{
				Export:  "cabi_realloc",
				Params:  []ValType{I32, I32, I32, I32},
				Results: []ValType{I32},
				Locals:  []ValType{I32},
				Body: []byte{
					0x20, 0x03, // local.get new_size
					0x45,       // i32.eqz
					0x04, 0x40, // if
					0x41, 0x00, // i32.const 0
					0x0F,       // return
					0x0B,       // end
					0x23, 0x00, // global.get heap
					0x20, 0x02, // local.get align
					0x6A,       // i32.add
					0x41, 0x01, // i32.const 1
					0x6B,       // i32.sub
					0x41, 0x00, // i32.const 0
					0x20, 0x02, // local.get align
					0x6B,       // i32.sub
					0x71,       // i32.and
					0x22, 0x04, // local.tee ptr
					0x20, 0x03, // local.get new_size
					0x6A,       // i32.add
					0x24, 0x00, // global.set heap
					0x20, 0x04, // local.get ptr
					0x0B,
				},
			},
			{
				Export:  "add",
				Params:  []ValType{I64, I64},
				Results: []ValType{I64},
				Body:    []byte{0x20, 0x00, 0x20, 0x01, 0x7C, 0x0B},
			},
			{
				Export: "store_u32",
				Params: []ValType{I32, I32, I32},
				Body: []byte{
					0x20, 0x02, // local.get addr
					0x20, 0x00, // local.get value
					0x36, 0x02, 0x00, // i32.store align=4 offset=0
					0x0B,
				},
			},
			{
				Export: "fail",
				Body:   []byte{0x00, 0x0B}, // unreachable
			},
		},
	}
	return m.Encode()
}
