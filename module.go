package wasmcheck

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Module struct {
		Types   []FuncType
		Funcs   []Func
		Tables  []Table
		Mems    []Mem
		Globals []Global
		Elems   []Elem
		Data    []Data
		Start   *Start
		Imports []Import
		Exports []Export

		Custom []Custom
	}

	Func struct {
		Type   Index
		Locals []ValType
		Body   Expr
	}

	Table struct {
		Type TableType
	}

	Mem struct {
		Type MemType
	}

	Global struct {
		Type GlobalType
		Init Expr
	}

	Elem struct {
		Table  Index
		Offset Expr
		Init   []Index
	}

	Data struct {
		Mem    Index
		Offset Expr
		Init   []byte
	}

	Start struct {
		Func Index
	}

	Import struct {
		Module, Name string

		Desc ImportDesc
	}

	// ImportDesc references a type for functions and declares it otherwise.
	// Only the field matching Kind is meaningful.
	ImportDesc struct {
		Kind   ExternKind
		Type   Index
		Table  TableType
		Mem    MemType
		Global GlobalType
	}

	Export struct {
		Name string

		Desc ExportDesc
	}

	ExportDesc struct {
		Kind  ExternKind
		Index Index
	}

	Custom struct {
		Name string
		Data []byte
	}
)

// Section ids.
const (
	CustomSection = iota
	TypeSection
	ImportSection
	FunctionSection
	TableSection
	MemorySection
	GlobalSection
	ExportSection
	StartSection
	ElementSection
	CodeSection
	DataSection

	sectionNext
)

func init() {
	if sectionNext != 12 {
		panic(sectionNext)
	}
}

func (d ImportDesc) String() string {
	switch d.Kind {
	case ExternFunc:
		return "func " + strconv.Itoa(int(d.Type))
	case ExternTable:
		return "table " + d.Table.Limits.String() + " " + d.Table.Elem.String()
	case ExternMem:
		return "mem " + d.Mem.Limits.String()
	case ExternGlobal:
		return "global " + d.Global.String()
	}

	return d.Kind.String()
}

func (d ExportDesc) String() string {
	return d.Kind.String() + " " + strconv.Itoa(int(d.Index))
}

func (e Expr) TlogAppend(b []byte) []byte {
	var enc tlwire.Encoder

	return enc.AppendString(b, e.String())
}
