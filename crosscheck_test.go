package wasmcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossCheck(tb *testing.T) {
	ctx := context.Background()

	add := func(body Expr) []byte {
		var e Encoder

		return e.Module(nil, &Module{
			Types: []FuncType{{Params: []ValType{I32, I32}, Results: []ValType{I32}}},
			Funcs: []Func{{Type: 0, Body: body}},
			Mems:  []Mem{{Type: MemType{Limits: Limits{Min: 1}}}},
			Exports: []Export{
				{Name: "add", Desc: ExportDesc{Kind: ExternFunc, Index: 0}},
				{Name: "memory", Desc: ExportDesc{Kind: ExternMem, Index: 0}},
			},
			Data: []Data{{Mem: 0, Offset: Expr{ConstI32(0)}, Init: []byte("hi")}},
		})
	}

	tb.Run("Valid", func(tb *testing.T) {
		bin := add(Expr{LocalGet{Index: 0}, LocalGet{Index: 1}, Num(OpI32Add)})

		res, err := CrossCheck(ctx, bin, &Validator{})
		require.NoError(tb, err)

		assert.NoError(tb, res.Err)
		assert.NoError(tb, res.Wazero)
		assert.True(tb, res.Agree())
	})

	tb.Run("InvalidBody", func(tb *testing.T) {
		bin := add(Expr{LocalGet{Index: 0}, ConstI64(1), Num(OpI32Add)})

		res, err := CrossCheck(ctx, bin, &Validator{})
		require.NoError(tb, err)

		assert.ErrorIs(tb, res.Err, ErrTypeMismatch)
		assert.Error(tb, res.Wazero)
		assert.True(tb, res.Agree())
	})

	tb.Run("Garbage", func(tb *testing.T) {
		res, err := CrossCheck(ctx, []byte("not a module"), &Validator{})
		require.NoError(tb, err)

		assert.ErrorIs(tb, res.Err, ErrMagic)
		assert.Error(tb, res.Wazero)
		assert.True(tb, res.Agree())
	})

	tb.Run("Parallel", func(tb *testing.T) {
		bin := add(Expr{LocalGet{Index: 0}, LocalGet{Index: 1}, Num(OpI32Mul)})

		res, err := CrossCheck(ctx, bin, &Validator{Workers: 4})
		require.NoError(tb, err)

		assert.True(tb, res.Agree())
		assert.NoError(tb, res.Err)
	})
}

func TestCrossCheckAgree(tb *testing.T) {
	assert.True(tb, CrossCheckResult{}.Agree())
	assert.False(tb, CrossCheckResult{Err: ErrTypeMismatch}.Agree())
	assert.False(tb, CrossCheckResult{Wazero: ErrMagic}.Agree())
	assert.True(tb, CrossCheckResult{Err: ErrTypeMismatch, Wazero: ErrMagic}.Agree())
}
