package wasmcheck

import (
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	ValType  byte
	ElemType byte
	Mut      byte

	// ResultType is [t?]. Blocks and functions produce at most one value.
	ResultType []ValType

	FuncType struct {
		Params  []ValType
		Results []ValType
	}

	// Limits are counted in table elements or memory pages.
	Limits struct {
		Min    uint32
		Max    uint32
		HasMax bool
	}

	TableType struct {
		Limits Limits
		Elem   ElemType
	}

	MemType struct {
		Limits Limits
	}

	GlobalType struct {
		Mut  Mut
		Type ValType
	}

	ExternKind byte

	// ExternType classifies an import or export.
	// Only the field matching Kind is meaningful.
	ExternType struct {
		Kind   ExternKind
		Func   FuncType
		Table  TableType
		Mem    MemType
		Global GlobalType
	}
)

// Value types.
const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

const (
	FuncRef ElemType = 0x70

	FuncTypeHeader = 0x60
	EmptyBlockType = 0x40

	LimitMin    = 0x00
	LimitMinMax = 0x01
)

const (
	MutConst Mut = 0
	MutVar   Mut = 1
)

// Extern kinds, numbered as import and export descriptors.
const (
	ExternFunc ExternKind = iota
	ExternTable
	ExternMem
	ExternGlobal
)

// MaxPages is the largest memory size in 64KiB pages.
const MaxPages = 1 << 16

func (t ValType) Valid() bool {
	switch t {
	case I32, I64, F32, F64:
		return true
	}

	return false
}

// Size is the value width in bytes.
func (t ValType) Size() int {
	switch t {
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	}

	panic(fmt.Sprintf("size of invalid value type 0x%02x", byte(t)))
}

func (t ValType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	}

	return fmt.Sprintf("valtype(0x%02x)", byte(t))
}

func (t ValType) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, t.String())
}

func (r ResultType) Equal(x ResultType) bool {
	if len(r) != len(x) {
		return false
	}

	for i := range r {
		if r[i] != x[i] {
			return false
		}
	}

	return true
}

func (r ResultType) String() string {
	return "[" + joinTypes(r) + "]"
}

func (r ResultType) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(r))

	for _, t := range r {
		b = e.AppendString(b, t.String())
	}

	return b
}

func (f FuncType) Equal(x FuncType) bool {
	return ResultType(f.Params).Equal(x.Params) && ResultType(f.Results).Equal(x.Results)
}

func (f FuncType) String() string {
	return "[" + joinTypes(f.Params) + "] -> [" + joinTypes(f.Results) + "]"
}

func (l Limits) String() string {
	if !l.HasMax {
		return fmt.Sprintf("{min %d}", l.Min)
	}

	return fmt.Sprintf("{min %d, max %d}", l.Min, l.Max)
}

func (t ElemType) String() string {
	if t == FuncRef {
		return "funcref"
	}

	return fmt.Sprintf("elemtype(0x%02x)", byte(t))
}

func (m Mut) String() string {
	switch m {
	case MutConst:
		return "const"
	case MutVar:
		return "var"
	}

	return fmt.Sprintf("mut(%d)", byte(m))
}

func (g GlobalType) String() string {
	return g.Mut.String() + " " + g.Type.String()
}

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMem:
		return "mem"
	case ExternGlobal:
		return "global"
	}

	return fmt.Sprintf("extern(%d)", byte(k))
}

func (et ExternType) String() string {
	switch et.Kind {
	case ExternFunc:
		return "func " + et.Func.String()
	case ExternTable:
		return "table " + et.Table.Limits.String() + " " + et.Table.Elem.String()
	case ExternMem:
		return "mem " + et.Mem.Limits.String()
	case ExternGlobal:
		return "global " + et.Global.String()
	}

	return et.Kind.String()
}

// LimitsValidate checks that the maximum, if present, is not below the minimum.
func LimitsValidate(l Limits) error {
	if l.HasMax && l.Max < l.Min {
		return errors.Wrap(ErrLimits, "%v", l)
	}

	return nil
}

// FuncTypeValidate checks the result arity.
func FuncTypeValidate(f FuncType) error {
	if len(f.Results) > 1 {
		return errors.Wrap(ErrResultArity, "%v", f)
	}

	return nil
}

func TableTypeValidate(t TableType) error {
	return LimitsValidate(t.Limits)
}

// MemTypeValidate checks the limits and that no bound exceeds MaxPages.
func MemTypeValidate(t MemType) error {
	err := LimitsValidate(t.Limits)
	if err != nil {
		return err
	}

	if t.Limits.Min > MaxPages || t.Limits.HasMax && t.Limits.Max > MaxPages {
		return errors.Wrap(ErrMemoryTooLarge, "%v", t.Limits)
	}

	return nil
}

// GlobalTypeValidate accepts any mutability and value type.
func GlobalTypeValidate(t GlobalType) error {
	return nil
}

func ExternFuncs(ets []ExternType) (r []FuncType) {
	for _, et := range ets {
		if et.Kind == ExternFunc {
			r = append(r, et.Func)
		}
	}

	return r
}

func ExternTables(ets []ExternType) (r []TableType) {
	for _, et := range ets {
		if et.Kind == ExternTable {
			r = append(r, et.Table)
		}
	}

	return r
}

func ExternMems(ets []ExternType) (r []MemType) {
	for _, et := range ets {
		if et.Kind == ExternMem {
			r = append(r, et.Mem)
		}
	}

	return r
}

func ExternGlobals(ets []ExternType) (r []GlobalType) {
	for _, et := range ets {
		if et.Kind == ExternGlobal {
			r = append(r, et.Global)
		}
	}

	return r
}

func joinTypes(ts []ValType) string {
	var b strings.Builder

	for i, t := range ts {
		if i != 0 {
			b.WriteByte(' ')
		}

		b.WriteString(t.String())
	}

	return b.String()
}
