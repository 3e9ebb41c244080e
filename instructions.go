package wasmcheck

import (
	"fmt"
	"math"
	"strings"
)

type (
	Opcode byte

	Index uint32

	// Instr is one instruction of the closed set below.
	// Structured instructions embed their nested sequences.
	Instr interface {
		Opcode() Opcode
		String() string

		instr()
	}

	// Expr is a flat instruction sequence without the closing end.
	Expr []Instr

	Sign byte

	MemArg struct {
		Align  uint32 // log2
		Offset uint32
	}

	// Const keeps raw bits: zero-extended integers, IEEE 754 floats.
	Const struct {
		Type ValType
		Bits uint64
	}

	Unop struct {
		Op   Opcode
		Type ValType
	}

	Binop struct {
		Op   Opcode
		Type ValType
	}

	Testop struct {
		Op   Opcode
		Type ValType
	}

	Relop struct {
		Op   Opcode
		Type ValType
	}

	Cvtop struct {
		Op  Opcode
		Dst ValType
		Src ValType
	}

	Drop   struct{}
	Select struct{}

	LocalGet  struct{ Index Index }
	LocalSet  struct{ Index Index }
	LocalTee  struct{ Index Index }
	GlobalGet struct{ Index Index }
	GlobalSet struct{ Index Index }

	// Load transfers Size bytes into a value of Type, extended by Sign if Size is smaller.
	Load struct {
		Op     Opcode
		Type   ValType
		Size   int
		Sign   Sign
		MemArg MemArg
	}

	Store struct {
		Op     Opcode
		Type   ValType
		Size   int
		MemArg MemArg
	}

	MemorySize struct{}
	MemoryGrow struct{}

	Nop         struct{}
	Unreachable struct{}
	Return      struct{}

	Block struct {
		Type ResultType
		Body Expr
	}

	Loop struct {
		Type ResultType
		Body Expr
	}

	// If without else has an empty Else.
	If struct {
		Type ResultType
		Then Expr
		Else Expr
	}

	Br   struct{ Label Index }
	BrIf struct{ Label Index }

	BrTable struct {
		Labels  []Index
		Default Index
	}

	Call         struct{ Func Index }
	CallIndirect struct{ Type Index }
)

const (
	SignNone Sign = iota
	Signed
	Unsigned
)

// Opcodes
const (
	OpUnreachable = 0x00
	OpNop         = 0x01

	OpBlock   = 0x02
	OpLoop    = 0x03
	OpIf      = 0x04
	OpElse    = 0x05
	OpEnd     = 0x0b
	OpBr      = 0x0c
	OpBrIf    = 0x0d
	OpBrTable = 0x0e
	OpReturn  = 0x0f

	OpCall         = 0x10
	OpCallIndirect = 0x11

	OpDrop   = 0x1a
	OpSelect = 0x1b

	OpLocalGet  = 0x20
	OpLocalSet  = 0x21
	OpLocalTee  = 0x22
	OpGlobalGet = 0x23
	OpGlobalSet = 0x24

	OpI32Load    = 0x28
	OpI64Load    = 0x29
	OpF32Load    = 0x2a
	OpF64Load    = 0x2b
	OpI32Load8S  = 0x2c
	OpI32Load8U  = 0x2d
	OpI32Load16S = 0x2e
	OpI32Load16U = 0x2f
	OpI64Load8S  = 0x30
	OpI64Load8U  = 0x31
	OpI64Load16S = 0x32
	OpI64Load16U = 0x33
	OpI64Load32S = 0x34
	OpI64Load32U = 0x35
	OpI32Store   = 0x36
	OpI64Store   = 0x37
	OpF32Store   = 0x38
	OpF64Store   = 0x39
	OpI32Store8  = 0x3a
	OpI32Store16 = 0x3b
	OpI64Store8  = 0x3c
	OpI64Store16 = 0x3d
	OpI64Store32 = 0x3e

	OpMemorySize = 0x3f
	OpMemoryGrow = 0x40

	OpI32Const = 0x41
	OpI64Const = 0x42
	OpF32Const = 0x43
	OpF64Const = 0x44

	OpI32EqZ = 0x45
	OpI32Eq  = 0x46
	OpI32Ne  = 0x47
	OpI32LtS = 0x48
	OpI32LtU = 0x49
	OpI32GtS = 0x4a
	OpI32GtU = 0x4b
	OpI32LeS = 0x4c
	OpI32LeU = 0x4d
	OpI32GeS = 0x4e
	OpI32GeU = 0x4f

	OpI64EqZ = 0x50
	OpI64Eq  = 0x51
	OpI64Ne  = 0x52
	OpI64LtS = 0x53
	OpI64LtU = 0x54
	OpI64GtS = 0x55
	OpI64GtU = 0x56
	OpI64LeS = 0x57
	OpI64LeU = 0x58
	OpI64GeS = 0x59
	OpI64GeU = 0x5a

	OpF32Eq = 0x5b
	OpF32Ne = 0x5c
	OpF32Lt = 0x5d
	OpF32Gt = 0x5e
	OpF32Le = 0x5f
	OpF32Ge = 0x60

	OpF64Eq = 0x61
	OpF64Ne = 0x62
	OpF64Lt = 0x63
	OpF64Gt = 0x64
	OpF64Le = 0x65
	OpF64Ge = 0x66

	OpI32Clz    = 0x67
	OpI32Ctz    = 0x68
	OpI32Popcnt = 0x69
	OpI32Add    = 0x6a
	OpI32Sub    = 0x6b
	OpI32Mul    = 0x6c
	OpI32DivS   = 0x6d
	OpI32DivU   = 0x6e
	OpI32RemS   = 0x6f
	OpI32RemU   = 0x70
	OpI32And    = 0x71
	OpI32Or     = 0x72
	OpI32Xor    = 0x73
	OpI32Shl    = 0x74
	OpI32ShrS   = 0x75
	OpI32ShrU   = 0x76
	OpI32RotL   = 0x77
	OpI32RotR   = 0x78

	OpI64Clz    = 0x79
	OpI64Ctz    = 0x7a
	OpI64Popcnt = 0x7b
	OpI64Add    = 0x7c
	OpI64Sub    = 0x7d
	OpI64Mul    = 0x7e
	OpI64DivS   = 0x7f
	OpI64DivU   = 0x80
	OpI64RemS   = 0x81
	OpI64RemU   = 0x82
	OpI64And    = 0x83
	OpI64Or     = 0x84
	OpI64Xor    = 0x85
	OpI64Shl    = 0x86
	OpI64ShrS   = 0x87
	OpI64ShrU   = 0x88
	OpI64RotL   = 0x89
	OpI64RotR   = 0x8a

	OpF32Abs      = 0x8b
	OpF32Neg      = 0x8c
	OpF32Ceil     = 0x8d
	OpF32Floor    = 0x8e
	OpF32Trunc    = 0x8f
	OpF32Nearest  = 0x90
	OpF32Sqrt     = 0x91
	OpF32Add      = 0x92
	OpF32Sub      = 0x93
	OpF32Mul      = 0x94
	OpF32Div      = 0x95
	OpF32Min      = 0x96
	OpF32Max      = 0x97
	OpF32CopySign = 0x98

	OpF64Abs      = 0x99
	OpF64Neg      = 0x9a
	OpF64Ceil     = 0x9b
	OpF64Floor    = 0x9c
	OpF64Trunc    = 0x9d
	OpF64Nearest  = 0x9e
	OpF64Sqrt     = 0x9f
	OpF64Add      = 0xa0
	OpF64Sub      = 0xa1
	OpF64Mul      = 0xa2
	OpF64Div      = 0xa3
	OpF64Min      = 0xa4
	OpF64Max      = 0xa5
	OpF64CopySign = 0xa6

	OpI32WrapI64        = 0xa7
	OpI32TruncF32S      = 0xa8
	OpI32TruncF32U      = 0xa9
	OpI32TruncF64S      = 0xaa
	OpI32TruncF64U      = 0xab
	OpI64ExtendI32S     = 0xac
	OpI64ExtendI32U     = 0xad
	OpI64TruncF32S      = 0xae
	OpI64TruncF32U      = 0xaf
	OpI64TruncF64S      = 0xb0
	OpI64TruncF64U      = 0xb1
	OpF32ConvertI32S    = 0xb2
	OpF32ConvertI32U    = 0xb3
	OpF32ConvertI64S    = 0xb4
	OpF32ConvertI64U    = 0xb5
	OpF32DemoteF64      = 0xb6
	OpF64ConvertI32S    = 0xb7
	OpF64ConvertI32U    = 0xb8
	OpF64ConvertI64S    = 0xb9
	OpF64ConvertI64U    = 0xba
	OpF64PromoteF32     = 0xbb
	OpI32ReinterpretF32 = 0xbc
	OpI64ReinterpretF64 = 0xbd
	OpF32ReinterpretI32 = 0xbe
	OpF64ReinterpretI64 = 0xbf
)

var cvtops = [...]struct{ dst, src ValType }{
	OpI32WrapI64 - OpI32WrapI64:        {I32, I64},
	OpI32TruncF32S - OpI32WrapI64:      {I32, F32},
	OpI32TruncF32U - OpI32WrapI64:      {I32, F32},
	OpI32TruncF64S - OpI32WrapI64:      {I32, F64},
	OpI32TruncF64U - OpI32WrapI64:      {I32, F64},
	OpI64ExtendI32S - OpI32WrapI64:     {I64, I32},
	OpI64ExtendI32U - OpI32WrapI64:     {I64, I32},
	OpI64TruncF32S - OpI32WrapI64:      {I64, F32},
	OpI64TruncF32U - OpI32WrapI64:      {I64, F32},
	OpI64TruncF64S - OpI32WrapI64:      {I64, F64},
	OpI64TruncF64U - OpI32WrapI64:      {I64, F64},
	OpF32ConvertI32S - OpI32WrapI64:    {F32, I32},
	OpF32ConvertI32U - OpI32WrapI64:    {F32, I32},
	OpF32ConvertI64S - OpI32WrapI64:    {F32, I64},
	OpF32ConvertI64U - OpI32WrapI64:    {F32, I64},
	OpF32DemoteF64 - OpI32WrapI64:      {F32, F64},
	OpF64ConvertI32S - OpI32WrapI64:    {F64, I32},
	OpF64ConvertI32U - OpI32WrapI64:    {F64, I32},
	OpF64ConvertI64S - OpI32WrapI64:    {F64, I64},
	OpF64ConvertI64U - OpI32WrapI64:    {F64, I64},
	OpF64PromoteF32 - OpI32WrapI64:     {F64, F32},
	OpI32ReinterpretF32 - OpI32WrapI64: {I32, F32},
	OpI64ReinterpretF64 - OpI32WrapI64: {I64, F64},
	OpF32ReinterpretI32 - OpI32WrapI64: {F32, I32},
	OpF64ReinterpretI64 - OpI32WrapI64: {F64, I64},
}

var memops = [...]struct {
	tp   ValType
	size int
	sign Sign
}{
	OpI32Load - OpI32Load:    {I32, 4, SignNone},
	OpI64Load - OpI32Load:    {I64, 8, SignNone},
	OpF32Load - OpI32Load:    {F32, 4, SignNone},
	OpF64Load - OpI32Load:    {F64, 8, SignNone},
	OpI32Load8S - OpI32Load:  {I32, 1, Signed},
	OpI32Load8U - OpI32Load:  {I32, 1, Unsigned},
	OpI32Load16S - OpI32Load: {I32, 2, Signed},
	OpI32Load16U - OpI32Load: {I32, 2, Unsigned},
	OpI64Load8S - OpI32Load:  {I64, 1, Signed},
	OpI64Load8U - OpI32Load:  {I64, 1, Unsigned},
	OpI64Load16S - OpI32Load: {I64, 2, Signed},
	OpI64Load16U - OpI32Load: {I64, 2, Unsigned},
	OpI64Load32S - OpI32Load: {I64, 4, Signed},
	OpI64Load32U - OpI32Load: {I64, 4, Unsigned},
	OpI32Store - OpI32Load:   {I32, 4, SignNone},
	OpI64Store - OpI32Load:   {I64, 8, SignNone},
	OpF32Store - OpI32Load:   {F32, 4, SignNone},
	OpF64Store - OpI32Load:   {F64, 8, SignNone},
	OpI32Store8 - OpI32Load:  {I32, 1, SignNone},
	OpI32Store16 - OpI32Load: {I32, 2, SignNone},
	OpI64Store8 - OpI32Load:  {I64, 1, SignNone},
	OpI64Store16 - OpI32Load: {I64, 2, SignNone},
	OpI64Store32 - OpI32Load: {I64, 4, SignNone},
}

func ConstI32(v int32) Const { return Const{Type: I32, Bits: uint64(uint32(v))} }
func ConstI64(v int64) Const { return Const{Type: I64, Bits: uint64(v)} }
func ConstF32(v float32) Const { return Const{Type: F32, Bits: uint64(math.Float32bits(v))} }
func ConstF64(v float64) Const { return Const{Type: F64, Bits: math.Float64bits(v)} }

func ConstBits(t ValType, bits uint64) Const {
	if t == I32 || t == F32 {
		bits = uint64(uint32(bits))
	}

	return Const{Type: t, Bits: bits}
}

// Num returns the numeric instruction for op.
// It panics if op is not a unop, binop, testop, relop or cvtop.
func Num(op Opcode) Instr {
	switch {
	case op == OpI32EqZ:
		return Testop{Op: op, Type: I32}
	case op >= OpI32Eq && op <= OpI32GeU:
		return Relop{Op: op, Type: I32}
	case op == OpI64EqZ:
		return Testop{Op: op, Type: I64}
	case op >= OpI64Eq && op <= OpI64GeU:
		return Relop{Op: op, Type: I64}
	case op >= OpF32Eq && op <= OpF32Ge:
		return Relop{Op: op, Type: F32}
	case op >= OpF64Eq && op <= OpF64Ge:
		return Relop{Op: op, Type: F64}

	case op >= OpI32Clz && op <= OpI32Popcnt:
		return Unop{Op: op, Type: I32}
	case op >= OpI32Add && op <= OpI32RotR:
		return Binop{Op: op, Type: I32}
	case op >= OpI64Clz && op <= OpI64Popcnt:
		return Unop{Op: op, Type: I64}
	case op >= OpI64Add && op <= OpI64RotR:
		return Binop{Op: op, Type: I64}
	case op >= OpF32Abs && op <= OpF32Sqrt:
		return Unop{Op: op, Type: F32}
	case op >= OpF32Add && op <= OpF32CopySign:
		return Binop{Op: op, Type: F32}
	case op >= OpF64Abs && op <= OpF64Sqrt:
		return Unop{Op: op, Type: F64}
	case op >= OpF64Add && op <= OpF64CopySign:
		return Binop{Op: op, Type: F64}

	case op >= OpI32WrapI64 && op <= OpF64ReinterpretI64:
		c := cvtops[op-OpI32WrapI64]

		return Cvtop{Op: op, Dst: c.dst, Src: c.src}
	}

	panic(fmt.Sprintf("not a numeric opcode: %v", op))
}

// MemOp returns the load or store for op.
// It panics if op is not a load or store.
func MemOp(op Opcode, m MemArg) Instr {
	if op < OpI32Load || op > OpI64Store32 {
		panic(fmt.Sprintf("not a load or store opcode: %v", op))
	}

	x := memops[op-OpI32Load]

	if op >= OpI32Store {
		return NewStore(op, x.tp, x.size, m)
	}

	return NewLoad(op, x.tp, x.size, x.sign, m)
}

// NewLoad panics if the shape could not come from a valid opcode.
func NewLoad(op Opcode, tp ValType, size int, sign Sign, m MemArg) Load {
	if size > tp.Size() {
		panic(fmt.Sprintf("%v: storage size %d exceeds %v", op, size, tp))
	}

	if (size < tp.Size()) != (sign != SignNone) {
		panic(fmt.Sprintf("%v: sign %d does not match storage size %d", op, sign, size))
	}

	return Load{Op: op, Type: tp, Size: size, Sign: sign, MemArg: m}
}

// NewStore panics if size exceeds the value type width.
func NewStore(op Opcode, tp ValType, size int, m MemArg) Store {
	if size > tp.Size() {
		panic(fmt.Sprintf("%v: storage size %d exceeds %v", op, size, tp))
	}

	return Store{Op: op, Type: tp, Size: size, MemArg: m}
}

func (x Const) Opcode() Opcode {
	switch x.Type {
	case I32:
		return OpI32Const
	case I64:
		return OpI64Const
	case F32:
		return OpF32Const
	case F64:
		return OpF64Const
	}

	panic(fmt.Sprintf("const of invalid type %v", x.Type))
}

func (x Unop) Opcode() Opcode { return x.Op }
func (x Binop) Opcode() Opcode { return x.Op }
func (x Testop) Opcode() Opcode { return x.Op }
func (x Relop) Opcode() Opcode { return x.Op }
func (x Cvtop) Opcode() Opcode { return x.Op }
func (Drop) Opcode() Opcode { return OpDrop }
func (Select) Opcode() Opcode { return OpSelect }
func (LocalGet) Opcode() Opcode { return OpLocalGet }
func (LocalSet) Opcode() Opcode { return OpLocalSet }
func (LocalTee) Opcode() Opcode { return OpLocalTee }
func (GlobalGet) Opcode() Opcode { return OpGlobalGet }
func (GlobalSet) Opcode() Opcode { return OpGlobalSet }
func (x Load) Opcode() Opcode { return x.Op }
func (x Store) Opcode() Opcode { return x.Op }
func (MemorySize) Opcode() Opcode { return OpMemorySize }
func (MemoryGrow) Opcode() Opcode { return OpMemoryGrow }
func (Nop) Opcode() Opcode { return OpNop }
func (Unreachable) Opcode() Opcode { return OpUnreachable }
func (Return) Opcode() Opcode { return OpReturn }
func (Block) Opcode() Opcode { return OpBlock }
func (Loop) Opcode() Opcode { return OpLoop }
func (If) Opcode() Opcode { return OpIf }
func (Br) Opcode() Opcode { return OpBr }
func (BrIf) Opcode() Opcode { return OpBrIf }
func (BrTable) Opcode() Opcode { return OpBrTable }
func (Call) Opcode() Opcode { return OpCall }
func (CallIndirect) Opcode() Opcode { return OpCallIndirect }

func (Const) instr() {}
func (Unop) instr() {}
func (Binop) instr() {}
func (Testop) instr() {}
func (Relop) instr() {}
func (Cvtop) instr() {}
func (Drop) instr() {}
func (Select) instr() {}
func (LocalGet) instr() {}
func (LocalSet) instr() {}
func (LocalTee) instr() {}
func (GlobalGet) instr() {}
func (GlobalSet) instr() {}
func (Load) instr() {}
func (Store) instr() {}
func (MemorySize) instr() {}
func (MemoryGrow) instr() {}
func (Nop) instr() {}
func (Unreachable) instr() {}
func (Return) instr() {}
func (Block) instr() {}
func (Loop) instr() {}
func (If) instr() {}
func (Br) instr() {}
func (BrIf) instr() {}
func (BrTable) instr() {}
func (Call) instr() {}
func (CallIndirect) instr() {}

func (x Const) String() string {
	switch x.Type {
	case I32:
		return fmt.Sprintf("i32.const %d", int32(x.Bits))
	case I64:
		return fmt.Sprintf("i64.const %d", int64(x.Bits))
	case F32:
		return fmt.Sprintf("f32.const %v", math.Float32frombits(uint32(x.Bits)))
	case F64:
		return fmt.Sprintf("f64.const %v", math.Float64frombits(x.Bits))
	}

	return fmt.Sprintf("%v.const 0x%x", x.Type, x.Bits)
}

func (x Unop) String() string { return x.Op.String() }
func (x Binop) String() string { return x.Op.String() }
func (x Testop) String() string { return x.Op.String() }
func (x Relop) String() string { return x.Op.String() }
func (x Cvtop) String() string { return x.Op.String() }
func (Drop) String() string { return "drop" }
func (Select) String() string { return "select" }

func (x LocalGet) String() string { return fmt.Sprintf("get_local %d", x.Index) }
func (x LocalSet) String() string { return fmt.Sprintf("set_local %d", x.Index) }
func (x LocalTee) String() string { return fmt.Sprintf("tee_local %d", x.Index) }
func (x GlobalGet) String() string { return fmt.Sprintf("get_global %d", x.Index) }
func (x GlobalSet) String() string { return fmt.Sprintf("set_global %d", x.Index) }

func (x Load) String() string { return x.Op.String() + " " + x.MemArg.String() }
func (x Store) String() string { return x.Op.String() + " " + x.MemArg.String() }

func (MemorySize) String() string { return "memory.size" }
func (MemoryGrow) String() string { return "memory.grow" }
func (Nop) String() string { return "nop" }
func (Unreachable) String() string { return "unreachable" }
func (Return) String() string { return "return" }

func (x Block) String() string { return "block " + x.Type.String() }
func (x Loop) String() string { return "loop " + x.Type.String() }
func (x If) String() string { return "if " + x.Type.String() }

func (x Br) String() string { return fmt.Sprintf("br %d", x.Label) }
func (x BrIf) String() string { return fmt.Sprintf("br_if %d", x.Label) }

func (x BrTable) String() string {
	var b strings.Builder

	b.WriteString("br_table [")

	for i, l := range x.Labels {
		if i != 0 {
			b.WriteByte(' ')
		}

		fmt.Fprintf(&b, "%d", l)
	}

	fmt.Fprintf(&b, "] %d", x.Default)

	return b.String()
}

func (x Call) String() string { return fmt.Sprintf("call %d", x.Func) }
func (x CallIndirect) String() string { return fmt.Sprintf("call_indirect %d", x.Type) }

func (m MemArg) String() string {
	return fmt.Sprintf("{offset %d, align %d}", m.Offset, m.Align)
}

// Len is the number of instructions including nested ones.
func (e Expr) Len() (n int) {
	for _, in := range e {
		n++

		switch x := in.(type) {
		case Block:
			n += x.Body.Len()
		case Loop:
			n += x.Body.Len()
		case If:
			n += x.Then.Len() + x.Else.Len()
		}
	}

	return n
}

func (e Expr) String() string {
	var b strings.Builder

	e.format(&b)

	return b.String()
}

func (e Expr) format(b *strings.Builder) {
	for i, in := range e {
		if i != 0 {
			b.WriteByte(' ')
		}

		b.WriteString(in.String())

		switch x := in.(type) {
		case Block:
			x.Body.formatNested(b)
		case Loop:
			x.Body.formatNested(b)
		case If:
			x.Then.formatNested(b)

			if len(x.Else) != 0 {
				b.WriteString(" else")
				x.Else.formatNested(b)
			}
		default:
			continue
		}

		b.WriteString(" end")
	}
}

func (e Expr) formatNested(b *strings.Builder) {
	if len(e) == 0 {
		return
	}

	b.WriteByte(' ')
	e.format(b)
}

func (op Opcode) String() string {
	if n := opNames[op]; n != "" {
		return n
	}

	return fmt.Sprintf("%02x", int(op))
}

var opNames = [...]string{
	OpUnreachable: "unreachable",
	OpNop:         "nop",

	OpBlock:   "block",
	OpLoop:    "loop",
	OpIf:      "if",
	OpElse:    "else",
	OpEnd:     "end",
	OpBr:      "br",
	OpBrIf:    "br_if",
	OpBrTable: "br_table",
	OpReturn:  "return",

	OpCall:         "call",
	OpCallIndirect: "call_indirect",

	OpDrop:   "drop",
	OpSelect: "select",

	OpLocalGet:  "get_local",
	OpLocalSet:  "set_local",
	OpLocalTee:  "tee_local",
	OpGlobalGet: "get_global",
	OpGlobalSet: "set_global",

	OpI32Load:    "i32.load",
	OpI64Load:    "i64.load",
	OpF32Load:    "f32.load",
	OpF64Load:    "f64.load",
	OpI32Load8S:  "i32.load8_s",
	OpI32Load8U:  "i32.load8_u",
	OpI32Load16S: "i32.load16_s",
	OpI32Load16U: "i32.load16_u",
	OpI64Load8S:  "i64.load8_s",
	OpI64Load8U:  "i64.load8_u",
	OpI64Load16S: "i64.load16_s",
	OpI64Load16U: "i64.load16_u",
	OpI64Load32S: "i64.load32_s",
	OpI64Load32U: "i64.load32_u",
	OpI32Store:   "i32.store",
	OpI64Store:   "i64.store",
	OpF32Store:   "f32.store",
	OpF64Store:   "f64.store",
	OpI32Store8:  "i32.store8",
	OpI32Store16: "i32.store16",
	OpI64Store8:  "i64.store8",
	OpI64Store16: "i64.store16",
	OpI64Store32: "i64.store32",

	OpMemorySize: "memory.size",
	OpMemoryGrow: "memory.grow",

	OpI32Const: "i32.const",
	OpI64Const: "i64.const",
	OpF32Const: "f32.const",
	OpF64Const: "f64.const",

	OpI32EqZ: "i32.eqz",
	OpI32Eq:  "i32.eq",
	OpI32Ne:  "i32.ne",
	OpI32LtS: "i32.lt_s",
	OpI32LtU: "i32.lt_u",
	OpI32GtS: "i32.gt_s",
	OpI32GtU: "i32.gt_u",
	OpI32LeS: "i32.le_s",
	OpI32LeU: "i32.le_u",
	OpI32GeS: "i32.ge_s",
	OpI32GeU: "i32.ge_u",

	OpI64EqZ: "i64.eqz",
	OpI64Eq:  "i64.eq",
	OpI64Ne:  "i64.ne",
	OpI64LtS: "i64.lt_s",
	OpI64LtU: "i64.lt_u",
	OpI64GtS: "i64.gt_s",
	OpI64GtU: "i64.gt_u",
	OpI64LeS: "i64.le_s",
	OpI64LeU: "i64.le_u",
	OpI64GeS: "i64.ge_s",
	OpI64GeU: "i64.ge_u",

	OpF32Eq: "f32.eq",
	OpF32Ne: "f32.ne",
	OpF32Lt: "f32.lt",
	OpF32Gt: "f32.gt",
	OpF32Le: "f32.le",
	OpF32Ge: "f32.ge",

	OpF64Eq: "f64.eq",
	OpF64Ne: "f64.ne",
	OpF64Lt: "f64.lt",
	OpF64Gt: "f64.gt",
	OpF64Le: "f64.le",
	OpF64Ge: "f64.ge",

	OpI32Clz:    "i32.clz",
	OpI32Ctz:    "i32.ctz",
	OpI32Popcnt: "i32.popcnt",
	OpI32Add:    "i32.add",
	OpI32Sub:    "i32.sub",
	OpI32Mul:    "i32.mul",
	OpI32DivS:   "i32.div_s",
	OpI32DivU:   "i32.div_u",
	OpI32RemS:   "i32.rem_s",
	OpI32RemU:   "i32.rem_u",
	OpI32And:    "i32.and",
	OpI32Or:     "i32.or",
	OpI32Xor:    "i32.xor",
	OpI32Shl:    "i32.shl",
	OpI32ShrS:   "i32.shr_s",
	OpI32ShrU:   "i32.shr_u",
	OpI32RotL:   "i32.rotl",
	OpI32RotR:   "i32.rotr",

	OpI64Clz:    "i64.clz",
	OpI64Ctz:    "i64.ctz",
	OpI64Popcnt: "i64.popcnt",
	OpI64Add:    "i64.add",
	OpI64Sub:    "i64.sub",
	OpI64Mul:    "i64.mul",
	OpI64DivS:   "i64.div_s",
	OpI64DivU:   "i64.div_u",
	OpI64RemS:   "i64.rem_s",
	OpI64RemU:   "i64.rem_u",
	OpI64And:    "i64.and",
	OpI64Or:     "i64.or",
	OpI64Xor:    "i64.xor",
	OpI64Shl:    "i64.shl",
	OpI64ShrS:   "i64.shr_s",
	OpI64ShrU:   "i64.shr_u",
	OpI64RotL:   "i64.rotl",
	OpI64RotR:   "i64.rotr",

	OpF32Abs:      "f32.abs",
	OpF32Neg:      "f32.neg",
	OpF32Ceil:     "f32.ceil",
	OpF32Floor:    "f32.floor",
	OpF32Trunc:    "f32.trunc",
	OpF32Nearest:  "f32.nearest",
	OpF32Sqrt:     "f32.sqrt",
	OpF32Add:      "f32.add",
	OpF32Sub:      "f32.sub",
	OpF32Mul:      "f32.mul",
	OpF32Div:      "f32.div",
	OpF32Min:      "f32.min",
	OpF32Max:      "f32.max",
	OpF32CopySign: "f32.copysign",

	OpF64Abs:      "f64.abs",
	OpF64Neg:      "f64.neg",
	OpF64Ceil:     "f64.ceil",
	OpF64Floor:    "f64.floor",
	OpF64Trunc:    "f64.trunc",
	OpF64Nearest:  "f64.nearest",
	OpF64Sqrt:     "f64.sqrt",
	OpF64Add:      "f64.add",
	OpF64Sub:      "f64.sub",
	OpF64Mul:      "f64.mul",
	OpF64Div:      "f64.div",
	OpF64Min:      "f64.min",
	OpF64Max:      "f64.max",
	OpF64CopySign: "f64.copysign",

	OpI32WrapI64:        "i32.wrap_i64",
	OpI32TruncF32S:      "i32.trunc_f32_s",
	OpI32TruncF32U:      "i32.trunc_f32_u",
	OpI32TruncF64S:      "i32.trunc_f64_s",
	OpI32TruncF64U:      "i32.trunc_f64_u",
	OpI64ExtendI32S:     "i64.extend_i32_s",
	OpI64ExtendI32U:     "i64.extend_i32_u",
	OpI64TruncF32S:      "i64.trunc_f32_s",
	OpI64TruncF32U:      "i64.trunc_f32_u",
	OpI64TruncF64S:      "i64.trunc_f64_s",
	OpI64TruncF64U:      "i64.trunc_f64_u",
	OpF32ConvertI32S:    "f32.convert_i32_s",
	OpF32ConvertI32U:    "f32.convert_i32_u",
	OpF32ConvertI64S:    "f32.convert_i64_s",
	OpF32ConvertI64U:    "f32.convert_i64_u",
	OpF32DemoteF64:      "f32.demote_f64",
	OpF64ConvertI32S:    "f64.convert_i32_s",
	OpF64ConvertI32U:    "f64.convert_i32_u",
	OpF64ConvertI64S:    "f64.convert_i64_s",
	OpF64ConvertI64U:    "f64.convert_i64_u",
	OpF64PromoteF32:     "f64.promote_f32",
	OpI32ReinterpretF32: "i32.reinterpret_f32",
	OpI64ReinterpretF64: "i64.reinterpret_f64",
	OpF32ReinterpretI32: "f32.reinterpret_i32",
	OpF64ReinterpretI64: "f64.reinterpret_i64",

	255: "",
}
