package wasmcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValType(tb *testing.T) {
	for _, x := range []struct {
		t    ValType
		name string
		size int
	}{
		{I32, "i32", 4},
		{I64, "i64", 8},
		{F32, "f32", 4},
		{F64, "f64", 8},
	} {
		assert.True(tb, x.t.Valid())
		assert.Equal(tb, x.name, x.t.String())
		assert.Equal(tb, x.size, x.t.Size())
	}

	assert.False(tb, ValType(0x7b).Valid())
	assert.Panics(tb, func() { _ = ValType(0).Size() })
}

func TestTypesValidate(tb *testing.T) {
	assert.NoError(tb, LimitsValidate(Limits{Min: 5}))
	assert.NoError(tb, LimitsValidate(Limits{Min: 5, Max: 5, HasMax: true}))
	assert.ErrorIs(tb, LimitsValidate(Limits{Min: 5, Max: 4, HasMax: true}), ErrLimits)

	assert.NoError(tb, FuncTypeValidate(FuncType{Params: []ValType{I32, I64, F32}, Results: []ValType{F64}}))
	assert.ErrorIs(tb, FuncTypeValidate(FuncType{Results: []ValType{I32, I32}}), ErrResultArity)

	assert.NoError(tb, TableTypeValidate(TableType{Elem: FuncRef, Limits: Limits{Min: 1 << 31}}))
	assert.ErrorIs(tb, TableTypeValidate(TableType{Elem: FuncRef, Limits: Limits{Min: 1, HasMax: true}}), ErrLimits)

	assert.NoError(tb, MemTypeValidate(MemType{Limits: Limits{Min: MaxPages}}))
	assert.ErrorIs(tb, MemTypeValidate(MemType{Limits: Limits{Max: MaxPages + 1, HasMax: true}}), ErrMemoryTooLarge)
	assert.ErrorIs(tb, MemTypeValidate(MemType{Limits: Limits{Min: 2, Max: 1, HasMax: true}}), ErrLimits)

	assert.NoError(tb, GlobalTypeValidate(GlobalType{Mut: MutVar, Type: F64}))
}

func TestTypesString(tb *testing.T) {
	assert.Equal(tb, "[i32 f64] -> [i64]", FuncType{Params: []ValType{I32, F64}, Results: []ValType{I64}}.String())
	assert.Equal(tb, "[] -> []", FuncType{}.String())
	assert.Equal(tb, "[]", ResultType(nil).String())

	assert.Equal(tb, "{min 1}", Limits{Min: 1}.String())
	assert.Equal(tb, "{min 1, max 2}", Limits{Min: 1, Max: 2, HasMax: true}.String())

	assert.Equal(tb, "var i32", GlobalType{Mut: MutVar, Type: I32}.String())
	assert.Equal(tb, "table {min 0} funcref", ExternType{Kind: ExternTable, Table: TableType{Elem: FuncRef}}.String())
	assert.Equal(tb, "func [i32] -> []", ExternType{Kind: ExternFunc, Func: FuncType{Params: []ValType{I32}}}.String())
}

func TestTypesEqual(tb *testing.T) {
	assert.True(tb, ResultType(nil).Equal(ResultType{}))
	assert.True(tb, ResultType{I32}.Equal(ResultType{I32}))
	assert.False(tb, ResultType{I32}.Equal(ResultType{I64}))
	assert.False(tb, ResultType{I32}.Equal(nil))

	assert.True(tb, FuncType{Params: []ValType{I32}}.Equal(FuncType{Params: []ValType{I32}, Results: []ValType{}}))
	assert.False(tb, FuncType{Params: []ValType{I32}}.Equal(FuncType{Results: []ValType{I32}}))
}

func TestExternFilters(tb *testing.T) {
	ets := []ExternType{
		{Kind: ExternFunc, Func: FuncType{Params: []ValType{I32}}},
		{Kind: ExternGlobal, Global: GlobalType{Type: F32}},
		{Kind: ExternMem, Mem: MemType{Limits: Limits{Min: 1}}},
		{Kind: ExternFunc},
		{Kind: ExternGlobal, Global: GlobalType{Type: I64, Mut: MutVar}},
	}

	assert.Equal(tb, []FuncType{{Params: []ValType{I32}}, {}}, ExternFuncs(ets))
	assert.Nil(tb, ExternTables(ets))
	assert.Equal(tb, []MemType{{Limits: Limits{Min: 1}}}, ExternMems(ets))
	assert.Equal(tb, []GlobalType{{Type: F32}, {Type: I64, Mut: MutVar}}, ExternGlobals(ets))
}

func TestInstrString(tb *testing.T) {
	e := Expr{
		ConstI32(-1),
		If{Type: ResultType{I32}, Then: Expr{ConstI32(2)}, Else: Expr{ConstI32(3)}},
		Num(OpI32Add),
		Block{},
		LocalGet{Index: 1},
		MemOp(OpI64Load32U, MemArg{Align: 2, Offset: 8}),
		BrTable{Labels: []Index{0, 1}, Default: 2},
	}

	assert.Equal(tb, "i32.const -1 if [i32] i32.const 2 else i32.const 3 end i32.add block [] end get_local 1 i64.load32_u {offset 8, align 2} br_table [0 1] 2", e.String())
	assert.Equal(tb, 9, e.Len())
}

func TestInstrConstructors(tb *testing.T) {
	assert.Equal(tb, Testop{Op: OpI64EqZ, Type: I64}, Num(OpI64EqZ))
	assert.Equal(tb, Relop{Op: OpF32Lt, Type: F32}, Num(OpF32Lt))
	assert.Equal(tb, Unop{Op: OpF64Neg, Type: F64}, Num(OpF64Neg))
	assert.Equal(tb, Binop{Op: OpI32RotR, Type: I32}, Num(OpI32RotR))
	assert.Equal(tb, Cvtop{Op: OpF64PromoteF32, Dst: F64, Src: F32}, Num(OpF64PromoteF32))
	assert.Panics(tb, func() { Num(OpDrop) })

	assert.Equal(tb, Load{Op: OpI64Load32U, Type: I64, Size: 4, Sign: Unsigned}, MemOp(OpI64Load32U, MemArg{}))
	assert.Equal(tb, Store{Op: OpI32Store16, Type: I32, Size: 2}, MemOp(OpI32Store16, MemArg{}))
	assert.Panics(tb, func() { MemOp(OpI32Add, MemArg{}) })

	assert.Panics(tb, func() { NewLoad(OpI32Load, I32, 8, SignNone, MemArg{}) })
	assert.Panics(tb, func() { NewLoad(OpI32Load8S, I32, 1, SignNone, MemArg{}) })
	assert.Panics(tb, func() { NewStore(OpI32Store, I32, 8, MemArg{}) })

	assert.Equal(tb, ConstI32(-1), ConstBits(I32, 1<<64-1))
	assert.Equal(tb, uint64(0xffffffff), ConstI32(-1).Bits)
}
