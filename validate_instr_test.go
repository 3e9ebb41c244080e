package wasmcheck

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprUnreachablePolymorphism(tb *testing.T) {
	c := &Context{}
	i32 := ResultType{I32}

	for _, e := range []Expr{
		{Block{Type: i32, Body: Expr{Unreachable{}, Num(OpI32Add)}}},
		{Block{Type: i32, Body: Expr{ConstI32(1), Br{Label: 0}, Num(OpI64Add), Drop{}}}},
		{Block{Type: i32, Body: Expr{Unreachable{}, Select{}}}},
		{Block{Type: i32, Body: Expr{ConstI32(7), ConstI32(0), BrTable{Labels: []Index{0}, Default: 0}, Num(OpF32Neg), Drop{}, Num(OpI32EqZ)}}},
		{Loop{Type: i32, Body: Expr{Br{Label: 0}}}},
		{Unreachable{}, Num(OpI32WrapI64)},
	} {
		err := ExprValidate(c, e, i32)
		assert.NoError(tb, err, "%v", e)
	}

	fc := c.WithFunc(FuncType{Results: []ValType{I32}}, nil)

	err := ExprValidate(fc, Expr{ConstI32(1), Return{}, Num(OpF32Neg), Drop{}}, i32)
	assert.NoError(tb, err)

	err = ExprValidate(fc, Expr{ConstI32(1), Return{}, Num(OpF32Neg)}, i32)
	assert.ErrorIs(tb, err, ErrTypeMismatch, "values pushed after return are tracked")

	err = ExprValidate(c, Expr{ConstI64(1), Block{Type: i32, Body: Expr{Unreachable{}}}, Num(OpI32Add)}, i32)
	assert.ErrorIs(tb, err, ErrTypeMismatch, "unreachable does not leak out of the block")
}

func TestExprUnderflow(tb *testing.T) {
	c := &Context{}

	err := ExprValidate(c, Expr{Block{Body: Expr{Num(OpI32Add)}}}, nil)
	assert.ErrorIs(tb, err, ErrOperandUnderflow)

	err = ExprValidate(c, Expr{ConstI32(1), ConstI32(2), Block{Body: Expr{Num(OpI32Add), Drop{}}}, Drop{}, Drop{}}, nil)
	assert.ErrorIs(tb, err, ErrOperandUnderflow, "block can't consume outer values")

	err = ExprValidate(c, Expr{Drop{}}, nil)
	assert.ErrorIs(tb, err, ErrOperandUnderflow)
}

func TestExprTypeMismatch(tb *testing.T) {
	c := &Context{}

	err := ExprValidate(c, Expr{Block{Type: ResultType{I32}, Body: Expr{ConstI64(0)}}}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI32(1), ConstF32(2), Num(OpI32Add)}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI32(1), ConstI32(2)}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrHeightMismatch)

	err = ExprValidate(c, Expr{ConstI32(1)}, nil)
	assert.ErrorIs(tb, err, ErrHeightMismatch)
}

func TestExprBrIf(tb *testing.T) {
	c := &Context{}
	i32 := ResultType{I32}

	err := ExprValidate(c, Expr{Block{Type: i32, Body: Expr{ConstI32(1), ConstI32(2), BrIf{Label: 0}}}}, i32)
	assert.NoError(tb, err, "br_if leaves the label values")

	err = ExprValidate(c, Expr{Block{Type: i32, Body: Expr{ConstI32(1), ConstI32(2), BrIf{Label: 0}, ConstI32(3)}}}, i32)
	assert.ErrorIs(tb, err, ErrHeightMismatch, "br_if does not make code unreachable")

	err = ExprValidate(c, Expr{Block{Type: i32, Body: Expr{ConstI32(1), BrIf{Label: 0}}}}, i32)
	assert.ErrorIs(tb, err, ErrOperandUnderflow, "label value and condition are both required")

	err = ExprValidate(c, Expr{Block{Body: Expr{ConstI64(1), BrIf{Label: 0}}}}, nil)
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{Block{Body: Expr{ConstI32(1), BrIf{Label: 2}}}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownLabel)
}

func TestExprBrTable(tb *testing.T) {
	c := &Context{}

	err := ExprValidate(c, Expr{
		Block{Type: ResultType{I32}, Body: Expr{
			Block{Body: Expr{
				ConstI32(0),
				BrTable{Labels: []Index{0, 1}, Default: 0},
			}},
			ConstI32(1),
		}},
	}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrLabelTypeMismatch)

	err = ExprValidate(c, Expr{
		Block{Body: Expr{
			Block{Body: Expr{
				ConstI32(0),
				BrTable{Labels: []Index{0, 1}, Default: 1},
			}},
		}},
	}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{
		Block{Type: ResultType{F32}, Body: Expr{
			ConstF32(1),
			ConstI32(0),
			BrTable{Default: 0},
		}},
		Drop{},
	}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{Block{Body: Expr{ConstI32(0), BrTable{Labels: []Index{0, 5}, Default: 0}}}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownLabel)

	err = ExprValidate(c, Expr{Block{Body: Expr{ConstI64(0), BrTable{Default: 0}}}}, nil)
	assert.ErrorIs(tb, err, ErrTypeMismatch)
}

func TestExprLoopLabel(tb *testing.T) {
	c := &Context{}

	err := ExprValidate(c, Expr{Loop{Type: ResultType{I32}, Body: Expr{ConstI32(1), ConstI32(0), BrIf{Label: 0}}}, Drop{}}, nil)
	assert.NoError(tb, err, "loop label takes no values")

	err = ExprValidate(c, Expr{Loop{Type: ResultType{I32}, Body: Expr{ConstI32(1)}}, Drop{}}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{Loop{Body: Expr{ConstI32(1), ConstI32(1), BrIf{Label: 0}}}}, nil)
	assert.ErrorIs(tb, err, ErrHeightMismatch)
}

func TestExprIf(tb *testing.T) {
	c := &Context{}
	i32 := ResultType{I32}

	err := ExprValidate(c, Expr{ConstI32(1), If{Type: i32, Then: Expr{ConstI32(2)}, Else: Expr{ConstI32(3)}}}, i32)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstI32(1), If{Type: i32, Then: Expr{ConstI32(2)}}}, i32)
	assert.ErrorIs(tb, err, ErrOperandUnderflow, "missing else must produce the result too")

	err = ExprValidate(c, Expr{ConstI32(1), If{Then: Expr{Nop{}}}}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstF32(1), If{}}, nil)
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI32(1), If{Type: i32, Then: Expr{ConstI32(2)}, Else: Expr{ConstI64(3)}}}, i32)
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI32(1), If{Type: ResultType{I32, I32}}}, nil)
	assert.ErrorIs(tb, err, ErrResultArity)
}

func TestExprLocalsGlobals(tb *testing.T) {
	c := &Context{
		Globals: []GlobalType{
			{Mut: MutConst, Type: I32},
			{Mut: MutVar, Type: F64},
		},
	}

	fc := c.WithFunc(FuncType{Params: []ValType{I32}, Results: []ValType{I64}}, []ValType{I64})

	err := ExprValidate(fc, Expr{LocalGet{Index: 0}, LocalSet{Index: 0}, LocalGet{Index: 1}, LocalTee{Index: 1}}, ResultType{I64})
	assert.NoError(tb, err)

	err = ExprValidate(fc, Expr{LocalGet{Index: 2}}, ResultType{I64})
	assert.ErrorIs(tb, err, ErrUnknownLocal)

	err = ExprValidate(fc, Expr{ConstI64(1), LocalSet{Index: 0}}, nil)
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI32(1), GlobalSet{Index: 0}}, nil)
	assert.ErrorIs(tb, err, ErrImmutableGlobal)

	err = ExprValidate(c, Expr{ConstF64(1), GlobalSet{Index: 1}, GlobalGet{Index: 0}}, ResultType{I32})
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{GlobalGet{Index: 2}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownGlobal)

	err = ExprValidate(c, Expr{GlobalGet{Index: ^Index(0)}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownGlobal)
}

func TestExprMemory(tb *testing.T) {
	c := &Context{Mems: []MemType{{Limits: Limits{Min: 1}}}}

	err := ExprValidate(c, Expr{
		ConstI32(0), MemOp(OpI32Load, MemArg{Align: 2}),
		ConstI32(0), MemOp(OpI64Load8S, MemArg{Align: 0, Offset: 8}), Num(OpI32WrapI64),
		Num(OpI32Add),
		ConstI32(0), ConstF64(1), MemOp(OpF64Store, MemArg{Align: 3}),
		MemorySize{}, MemoryGrow{},
		Num(OpI32Add),
	}, ResultType{I32})
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstI32(0), MemOp(OpI32Load8U, MemArg{Align: 1})}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrAlignment)

	err = ExprValidate(c, Expr{ConstI32(0), ConstI64(0), MemOp(OpI64Store, MemArg{Align: 4})}, nil)
	assert.ErrorIs(tb, err, ErrAlignment)

	err = ExprValidate(c, Expr{ConstI32(0), MemOp(OpI32Load, MemArg{Align: 40})}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrAlignment)

	err = ExprValidate(c, Expr{ConstI64(0), ConstI64(0), MemOp(OpI64Store, MemArg{})}, nil)
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	empty := &Context{}

	for _, in := range []Instr{
		MemOp(OpI32Load, MemArg{}),
		MemOp(OpI32Store, MemArg{}),
		MemorySize{},
		MemoryGrow{},
	} {
		err = ExprValidate(empty, Expr{in}, nil)
		assert.ErrorIs(tb, err, ErrUnknownMemory, "%v", in)
	}
}

func TestExprCalls(tb *testing.T) {
	ft := FuncType{Params: []ValType{I32, F32}, Results: []ValType{I64}}

	c := &Context{
		Types:  []FuncType{ft},
		Funcs:  []FuncType{ft},
		Tables: []TableType{{Elem: FuncRef}},
	}

	err := ExprValidate(c, Expr{ConstI32(1), ConstF32(2), Call{Func: 0}}, ResultType{I64})
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstF32(2), ConstI32(1), Call{Func: 0}}, ResultType{I64})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{Call{Func: 1}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownFunc)

	err = ExprValidate(c, Expr{ConstI32(1), ConstF32(2), ConstI32(0), CallIndirect{Type: 0}}, ResultType{I64})
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstI32(0), CallIndirect{Type: 1}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownType)

	err = ExprValidate(&Context{Types: c.Types}, Expr{ConstI32(0), CallIndirect{Type: 0}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownTable)

	err = ExprValidate(&Context{Types: c.Types, Tables: []TableType{{Elem: 0x6f}}}, Expr{ConstI32(0), CallIndirect{Type: 0}}, nil)
	assert.ErrorIs(tb, err, ErrElemType)
}

func TestExprSelectDrop(tb *testing.T) {
	c := &Context{}

	err := ExprValidate(c, Expr{ConstI64(1), ConstI64(2), ConstI32(0), Select{}}, ResultType{I64})
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{ConstI32(1), ConstI64(2), ConstI32(0), Select{}}, ResultType{I64})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstI64(1), ConstI64(2), ConstI64(0), Select{}}, ResultType{I64})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{Unreachable{}, ConstF32(1), ConstI32(0), Select{}}, ResultType{F32})
	assert.NoError(tb, err, "unknown operand takes the other type")

	err = ExprValidate(c, Expr{Unreachable{}, ConstF32(1), ConstI32(0), Select{}}, ResultType{I32})
	assert.ErrorIs(tb, err, ErrTypeMismatch)

	err = ExprValidate(c, Expr{ConstF64(1), Drop{}}, nil)
	assert.NoError(tb, err)
}

func TestExprReturn(tb *testing.T) {
	err := ExprValidate(&Context{}, Expr{Return{}}, nil)
	assert.ErrorIs(tb, err, ErrNoReturn)

	fc := (&Context{}).WithFunc(FuncType{Results: []ValType{F64}}, nil)

	err = ExprValidate(fc, Expr{Block{Body: Expr{ConstF64(1), Return{}}}, ConstF64(2)}, ResultType{F64})
	assert.NoError(tb, err)

	err = ExprValidate(fc, Expr{Block{Body: Expr{ConstF32(1), Return{}}}, ConstF64(2)}, ResultType{F64})
	assert.ErrorIs(tb, err, ErrTypeMismatch)
}

func TestExprContextLabels(tb *testing.T) {
	c := &Context{Labels: []ResultType{{I32}}}

	err := ExprValidate(c, Expr{ConstI32(1), Br{Label: 0}}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{Block{Body: Expr{ConstI32(1), Br{Label: 1}}}}, nil)
	assert.NoError(tb, err)

	err = ExprValidate(c, Expr{Br{Label: 1}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownLabel)

	err = ExprValidate(&Context{}, Expr{Br{Label: 0}}, nil)
	assert.ErrorIs(tb, err, ErrUnknownLabel)

	fc := (&Context{}).WithFunc(FuncType{Results: []ValType{I64}}, nil)

	err = ExprValidate(fc, Expr{ConstI64(1), Br{Label: 0}}, ResultType{I64})
	assert.NoError(tb, err)

	c2 := fc.WithLabel(ResultType{F32})
	require.Len(tb, c2.Labels, 2)
	assert.Equal(tb, ResultType{F32}, c2.Label(0))
	assert.Equal(tb, ResultType{I64}, c2.Label(1))
}

func TestExprNestingLimit(tb *testing.T) {
	c := &Context{}
	s := Stack{MaxDepth: 3}

	e := Expr{Block{Body: Expr{Block{}}}}

	err := exprValidate(c, &s, e, nil)
	assert.NoError(tb, err)

	e = Expr{Block{Body: Expr{Block{Body: Expr{Block{}}}}}}

	err = exprValidate(c, &s, e, nil)
	assert.ErrorIs(tb, err, ErrNestingTooDeep)

	err = ExprValidate(c, e, nil)
	assert.NoError(tb, err)
}

func TestExprConstant(tb *testing.T) {
	c := &Context{
		Globals: []GlobalType{
			{Mut: MutConst, Type: I32},
			{Mut: MutVar, Type: I32},
		},
	}

	assert.NoError(tb, ExprConstValidate(c, Expr{ConstI32(1)}))
	assert.NoError(tb, ExprConstValidate(c, Expr{GlobalGet{Index: 0}}))
	assert.NoError(tb, ExprConstValidate(c, nil))

	assert.ErrorIs(tb, ExprConstValidate(c, Expr{GlobalGet{Index: 1}}), ErrNotConstant)
	assert.ErrorIs(tb, ExprConstValidate(c, Expr{GlobalGet{Index: 2}}), ErrUnknownGlobal)
	assert.ErrorIs(tb, ExprConstValidate(c, Expr{ConstI32(1), ConstI32(2), Num(OpI32Add)}), ErrNotConstant)
	assert.ErrorIs(tb, ExprConstValidate(c, Expr{Block{}}), ErrNotConstant)
}

func TestInstrValidateUnknownVariant(tb *testing.T) {
	var s Stack

	s.PushControl(nil, nil)

	assert.Panics(tb, func() { _ = InstrValidate(&Context{}, &s, nil) })
}

func TestExprWellTypedRandom(tb *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	c := &Context{}

	for n := range 500 {
		t := testValTypes[r.IntN(len(testValTypes))]
		e := genExpr(r, t, 4)

		err := ExprValidate(c, e, ResultType{t})
		assert.NoError(tb, err, "case %d: %v", n, e)

		other := testValTypes[(indexOf(t)+1+r.IntN(3))%len(testValTypes)]

		err = ExprValidate(c, e, ResultType{other})
		assert.ErrorIs(tb, err, ErrTypeMismatch, "case %d: %v", n, e)

		err = ExprValidate(c, append(e[:len(e):len(e)], Drop{}), nil)
		assert.NoError(tb, err, "case %d: %v", n, e)

		if tb.Failed() {
			break
		}
	}
}

var testValTypes = []ValType{I32, I64, F32, F64}

func indexOf(t ValType) int {
	for i, x := range testValTypes {
		if x == t {
			return i
		}
	}

	return -1
}

// genExpr returns a random sequence of type [] -> [t].
func genExpr(r *rand.Rand, t ValType, depth int) Expr {
	var (
		add = map[ValType]Opcode{I32: OpI32Add, I64: OpI64Add, F32: OpF32Add, F64: OpF64Add}
		un  = map[ValType]Opcode{I32: OpI32Clz, I64: OpI64Popcnt, F32: OpF32Neg, F64: OpF64Sqrt}
		cvt = map[ValType]Opcode{I32: OpI32WrapI64, I64: OpI64ExtendI32S, F32: OpF32DemoteF64, F64: OpF64PromoteF32}
		rel = map[ValType]Opcode{I32: OpI32LtS, I64: OpI64Ne, F32: OpF32Ge, F64: OpF64Eq}
	)

	if depth == 0 {
		return Expr{ConstBits(t, r.Uint64())}
	}

	sub := func(t ValType) Expr { return genExpr(r, t, depth-1) }

	var e Expr

	switch r.IntN(8) {
	case 0:
		e = append(e, ConstBits(t, r.Uint64()))
	case 1:
		e = append(e, sub(t)...)
		e = append(e, sub(t)...)
		e = append(e, Num(add[t]))
	case 2:
		e = append(e, sub(t)...)
		e = append(e, Num(un[t]))
	case 3:
		x := Num(cvt[t]).(Cvtop)

		e = append(e, sub(x.Src)...)
		e = append(e, x)
	case 4:
		e = append(e, Block{Type: ResultType{t}, Body: sub(t)})
	case 5:
		e = append(e, sub(I32)...)
		e = append(e, If{Type: ResultType{t}, Then: sub(t), Else: sub(t)})
	case 6:
		e = append(e, sub(t)...)
		e = append(e, sub(t)...)
		e = append(e, sub(I32)...)
		e = append(e, Select{})
	case 7:
		if t != I32 {
			return sub(t)
		}

		u := testValTypes[r.IntN(len(testValTypes))]

		e = append(e, sub(u)...)
		e = append(e, sub(u)...)
		e = append(e, Num(rel[u]))
	}

	return e
}
