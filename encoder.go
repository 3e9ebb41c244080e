package wasmcheck

import (
	"encoding/binary"
	"fmt"
)

type (
	// Encoder writes a Module in the binary format.
	// It does not validate, any well-formed Module is encoded.
	Encoder struct {
		LowEncoder
	}

	LowEncoder struct{}
)

func (e *Encoder) Module(b []byte, m *Module) []byte {
	b = append(b, Magic...)
	b = binary.LittleEndian.AppendUint32(b, Version)

	var s []byte

	if len(m.Types) != 0 {
		s = e.Int(s[:0], len(m.Types))

		for _, ft := range m.Types {
			s = e.FuncType(s, ft)
		}

		b = e.Section(b, TypeSection, s)
	}

	if len(m.Imports) != 0 {
		s = e.Int(s[:0], len(m.Imports))

		for _, im := range m.Imports {
			s = e.Import(s, im)
		}

		b = e.Section(b, ImportSection, s)
	}

	if len(m.Funcs) != 0 {
		s = e.Int(s[:0], len(m.Funcs))

		for _, f := range m.Funcs {
			s = e.Uint32(s, uint32(f.Type))
		}

		b = e.Section(b, FunctionSection, s)
	}

	if len(m.Tables) != 0 {
		s = e.Int(s[:0], len(m.Tables))

		for _, t := range m.Tables {
			s = e.TableType(s, t.Type)
		}

		b = e.Section(b, TableSection, s)
	}

	if len(m.Mems) != 0 {
		s = e.Int(s[:0], len(m.Mems))

		for _, mem := range m.Mems {
			s = e.Limits(s, mem.Type.Limits)
		}

		b = e.Section(b, MemorySection, s)
	}

	if len(m.Globals) != 0 {
		s = e.Int(s[:0], len(m.Globals))

		for _, g := range m.Globals {
			s = e.GlobalType(s, g.Type)
			s = e.Expr(s, g.Init)
		}

		b = e.Section(b, GlobalSection, s)
	}

	if len(m.Exports) != 0 {
		s = e.Int(s[:0], len(m.Exports))

		for _, ex := range m.Exports {
			s = e.Name(s, ex.Name)
			s = append(s, byte(ex.Desc.Kind))
			s = e.Uint32(s, uint32(ex.Desc.Index))
		}

		b = e.Section(b, ExportSection, s)
	}

	if m.Start != nil {
		s = e.Uint32(s[:0], uint32(m.Start.Func))

		b = e.Section(b, StartSection, s)
	}

	if len(m.Elems) != 0 {
		s = e.Int(s[:0], len(m.Elems))

		for _, el := range m.Elems {
			s = e.Uint32(s, uint32(el.Table))
			s = e.Expr(s, el.Offset)
			s = e.Int(s, len(el.Init))

			for _, x := range el.Init {
				s = e.Uint32(s, uint32(x))
			}
		}

		b = e.Section(b, ElementSection, s)
	}

	if len(m.Funcs) != 0 {
		s = e.Int(s[:0], len(m.Funcs))

		var code []byte

		for _, f := range m.Funcs {
			code = e.Func(code[:0], f)

			s = e.Int(s, len(code))
			s = append(s, code...)
		}

		b = e.Section(b, CodeSection, s)
	}

	if len(m.Data) != 0 {
		s = e.Int(s[:0], len(m.Data))

		for _, d := range m.Data {
			s = e.Uint32(s, uint32(d.Mem))
			s = e.Expr(s, d.Offset)
			s = e.Int(s, len(d.Init))
			s = append(s, d.Init...)
		}

		b = e.Section(b, DataSection, s)
	}

	for _, c := range m.Custom {
		s = e.Name(s[:0], c.Name)
		s = append(s, c.Data...)

		b = e.Section(b, CustomSection, s)
	}

	return b
}

func (e *Encoder) Import(b []byte, im Import) []byte {
	b = e.Name(b, im.Module)
	b = e.Name(b, im.Name)
	b = append(b, byte(im.Desc.Kind))

	switch im.Desc.Kind {
	case ExternFunc:
		b = e.Uint32(b, uint32(im.Desc.Type))
	case ExternTable:
		b = e.TableType(b, im.Desc.Table)
	case ExternMem:
		b = e.Limits(b, im.Desc.Mem.Limits)
	case ExternGlobal:
		b = e.GlobalType(b, im.Desc.Global)
	default:
		panic(fmt.Sprintf("unsupported import kind: %d", im.Desc.Kind))
	}

	return b
}

// Func encodes a code entry without the size prefix.
// Consecutive locals of the same type are grouped.
func (e *Encoder) Func(b []byte, f Func) []byte {
	groups := 0

	for j := range f.Locals {
		if j == 0 || f.Locals[j] != f.Locals[j-1] {
			groups++
		}
	}

	b = e.Int(b, groups)

	for j := 0; j < len(f.Locals); {
		k := j
		for k < len(f.Locals) && f.Locals[k] == f.Locals[j] {
			k++
		}

		b = e.Int(b, k-j)
		b = e.ValType(b, f.Locals[j])

		j = k
	}

	return e.Expr(b, f.Body)
}

// Expr encodes the sequence followed by end.
func (e *Encoder) Expr(b []byte, x Expr) []byte {
	for _, in := range x {
		b = e.Instr(b, in)
	}

	return append(b, OpEnd)
}

func (e *Encoder) Instr(b []byte, in Instr) []byte {
	b = append(b, byte(in.Opcode()))

	switch x := in.(type) {
	case Const:
		switch x.Type {
		case I32:
			b = e.Int64(b, int64(int32(uint32(x.Bits))))
		case I64:
			b = e.Int64(b, int64(x.Bits))
		case F32:
			b = e.Bits32(b, uint32(x.Bits))
		case F64:
			b = e.Bits64(b, x.Bits)
		}
	case Unop, Binop, Testop, Relop, Cvtop, Drop, Select, Nop, Unreachable, Return:
	case LocalGet:
		b = e.Uint32(b, uint32(x.Index))
	case LocalSet:
		b = e.Uint32(b, uint32(x.Index))
	case LocalTee:
		b = e.Uint32(b, uint32(x.Index))
	case GlobalGet:
		b = e.Uint32(b, uint32(x.Index))
	case GlobalSet:
		b = e.Uint32(b, uint32(x.Index))
	case Load:
		b = e.MemArg(b, x.MemArg)
	case Store:
		b = e.MemArg(b, x.MemArg)
	case MemorySize, MemoryGrow:
		b = append(b, 0)
	case Block:
		b = e.BlockType(b, x.Type)
		b = e.Expr(b, x.Body)
	case Loop:
		b = e.BlockType(b, x.Type)
		b = e.Expr(b, x.Body)
	case If:
		b = e.BlockType(b, x.Type)

		for _, in := range x.Then {
			b = e.Instr(b, in)
		}

		if len(x.Else) != 0 {
			b = append(b, OpElse)
		}

		b = e.Expr(b, x.Else)
	case Br:
		b = e.Uint32(b, uint32(x.Label))
	case BrIf:
		b = e.Uint32(b, uint32(x.Label))
	case BrTable:
		b = e.Int(b, len(x.Labels))

		for _, l := range x.Labels {
			b = e.Uint32(b, uint32(l))
		}

		b = e.Uint32(b, uint32(x.Default))
	case Call:
		b = e.Uint32(b, uint32(x.Func))
	case CallIndirect:
		b = e.Uint32(b, uint32(x.Type))
		b = append(b, 0)
	default:
		panic(fmt.Sprintf("unsupported instruction: %T", in))
	}

	return b
}

func (e *Encoder) BlockType(b []byte, rt ResultType) []byte {
	switch len(rt) {
	case 0:
		return append(b, EmptyBlockType)
	case 1:
		return e.ValType(b, rt[0])
	}

	panic(fmt.Sprintf("block type is not encodable: %v", rt))
}

func (e *Encoder) MemArg(b []byte, m MemArg) []byte {
	b = e.Uint32(b, m.Align)
	return e.Uint32(b, m.Offset)
}

func (e *LowEncoder) Int(b []byte, v int) []byte {
	return e.Uint64(b, uint64(v))
}

func (e *LowEncoder) Uint32(b []byte, v uint32) []byte {
	return e.Uint64(b, uint64(v))
}

func (e *LowEncoder) Uint64(b []byte, v uint64) []byte {
	for {
		x := byte(v) & 0x7f
		v >>= 7

		if v != 0 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

func (e *LowEncoder) Int64(b []byte, v int64) []byte {
	for {
		x := byte(v) & 0x7f
		s := byte(v) & 0x40
		v >>= 7

		if s == 0 && v != 0 || s != 0 && v != -1 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

// Bits32 writes f32 immediates bit exact, NaN payloads included.
func (e *LowEncoder) Bits32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func (e *LowEncoder) Bits64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func (e *LowEncoder) Name(b []byte, v string) []byte {
	b = e.Int(b, len(v))
	b = append(b, v...)

	return b
}

func (e *LowEncoder) ValType(b []byte, t ValType) []byte {
	return append(b, byte(t))
}

func (e *LowEncoder) ResultType(b []byte, ts []ValType) []byte {
	b = e.Int(b, len(ts))

	for _, t := range ts {
		b = append(b, byte(t))
	}

	return b
}

func (e *LowEncoder) FuncType(b []byte, ft FuncType) []byte {
	b = append(b, FuncTypeHeader)
	b = e.ResultType(b, ft.Params)
	b = e.ResultType(b, ft.Results)

	return b
}

func (e *LowEncoder) Limits(b []byte, l Limits) []byte {
	if !l.HasMax {
		b = append(b, LimitMin)
		return e.Uint32(b, l.Min)
	}

	b = append(b, LimitMinMax)
	b = e.Uint32(b, l.Min)
	b = e.Uint32(b, l.Max)

	return b
}

func (e *LowEncoder) TableType(b []byte, t TableType) []byte {
	b = append(b, byte(t.Elem))
	b = e.Limits(b, t.Limits)
	return b
}

func (e *LowEncoder) GlobalType(b []byte, g GlobalType) []byte {
	return append(b, byte(g.Type), byte(g.Mut))
}

func (e *LowEncoder) Section(b []byte, id byte, data []byte) []byte {
	b = append(b, id)
	b = e.Int(b, len(data))
	b = append(b, data...)

	return b
}
