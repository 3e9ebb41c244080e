package wasmcheck

import (
	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Validator checks whole modules.
	// The zero value validates sequentially with DefaultMaxDepth.
	Validator struct {
		// Workers validate function bodies concurrently if > 1.
		// The reported failure is the same as for sequential validation.
		Workers int

		// MaxDepth limits structured control nesting. DefaultMaxDepth if zero.
		MaxDepth int
	}

	// ModuleType is the external interface of a valid module.
	ModuleType struct {
		Imports []ExternType
		Exports []ExternType
	}
)

// ModuleValidate validates m with the default Validator.
func ModuleValidate(m *Module) (ModuleType, error) {
	var v Validator

	return v.Module(m)
}

// Module validates m. The first violated rule is returned.
func (v *Validator) Module(m *Module) (mt ModuleType, err error) {
	c0 := &Context{Types: m.Types}

	for i, im := range m.Imports {
		et, err := ImportValidate(c0, im)
		if err != nil {
			return mt, errors.Wrap(err, "import %d (%s.%s)", i, im.Module, im.Name)
		}

		mt.Imports = append(mt.Imports, et)
	}

	for i, ft := range m.Types {
		err = FuncTypeValidate(ft)
		if err != nil {
			return mt, errors.Wrap(err, "type %d", i)
		}
	}

	c, err := moduleContext(m, mt.Imports)
	if err != nil {
		return mt, err
	}

	tlog.V("validate").Printw("module context", "types", len(c.Types), "funcs", len(c.Funcs), "tables", len(c.Tables), "mems", len(c.Mems), "globals", len(c.Globals))

	err = v.funcsValidate(c, m.Funcs)
	if err != nil {
		return mt, err
	}

	for i, t := range m.Tables {
		err = TableTypeValidate(t.Type)
		if err != nil {
			return mt, errors.Wrap(err, "table %d", i)
		}
	}

	for i, mem := range m.Mems {
		err = MemTypeValidate(mem.Type)
		if err != nil {
			return mt, errors.Wrap(err, "mem %d", i)
		}
	}

	gc := *c
	gc.Globals = ExternGlobals(mt.Imports)

	for i, g := range m.Globals {
		err = v.global(&gc, g)
		if err != nil {
			return mt, errors.Wrap(err, "global %d", i)
		}
	}

	for i, e := range m.Elems {
		err = v.elem(c, e)
		if err != nil {
			return mt, errors.Wrap(err, "elem %d", i)
		}
	}

	for i, d := range m.Data {
		err = v.data(c, d)
		if err != nil {
			return mt, errors.Wrap(err, "data %d", i)
		}
	}

	if m.Start != nil {
		err = StartValidate(c, *m.Start)
		if err != nil {
			return mt, errors.Wrap(err, "start")
		}
	}

	names := make(map[string]struct{}, len(m.Exports))

	for i, ex := range m.Exports {
		et, err := ExportValidate(c, ex)
		if err != nil {
			return mt, errors.Wrap(err, "export %d (%s)", i, ex.Name)
		}

		if _, ok := names[ex.Name]; ok {
			return mt, errors.Wrap(ErrDuplicateExport, "export %d (%s)", i, ex.Name)
		}

		names[ex.Name] = struct{}{}

		mt.Exports = append(mt.Exports, et)
	}

	if len(c.Tables) > 1 {
		return mt, errors.Wrap(ErrMultipleTables, "%d tables", len(c.Tables))
	}

	if len(c.Mems) > 1 {
		return mt, errors.Wrap(ErrMultipleMemories, "%d memories", len(c.Mems))
	}

	return mt, nil
}

// moduleContext concatenates imported and internal definitions.
func moduleContext(m *Module, imports []ExternType) (*Context, error) {
	c := &Context{
		Types:   m.Types,
		Funcs:   ExternFuncs(imports),
		Tables:  ExternTables(imports),
		Mems:    ExternMems(imports),
		Globals: ExternGlobals(imports),
	}

	for i, f := range m.Funcs {
		if !c.IsType(f.Type) {
			return nil, errors.Wrap(ErrUnknownType, "func %d: type %d", i, f.Type)
		}

		c.Funcs = append(c.Funcs, c.Type(f.Type))
	}

	for _, t := range m.Tables {
		c.Tables = append(c.Tables, t.Type)
	}

	for _, mem := range m.Mems {
		c.Mems = append(c.Mems, mem.Type)
	}

	for _, g := range m.Globals {
		c.Globals = append(c.Globals, g.Type)
	}

	return c, nil
}

func (v *Validator) funcsValidate(c *Context, fs []Func) error {
	if v.Workers <= 1 || len(fs) <= 1 {
		var s Stack

		for i := range fs {
			err := v.funcValidate(c, &s, i, &fs[i])
			if err != nil {
				return err
			}
		}

		return nil
	}

	errs := make([]error, len(fs))

	var g errgroup.Group
	g.SetLimit(v.Workers)

	for i := range fs {
		g.Go(func() error {
			var s Stack

			errs[i] = v.funcValidate(c, &s, i, &fs[i])

			return nil
		})
	}

	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

func (v *Validator) funcValidate(c *Context, s *Stack, i int, f *Func) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "func %d", i)
		}
	}()

	if !c.IsType(f.Type) {
		return errors.Wrap(ErrUnknownType, "type %d", f.Type)
	}

	ft := c.Type(f.Type)
	fc := c.WithFunc(ft, f.Locals)

	tlog.V("validate").Printw("func", "i", i, "type", ft.String(), "locals", len(fc.Locals), "instrs", f.Body.Len())

	s.MaxDepth = v.MaxDepth

	return exprValidate(fc, s, f.Body, *fc.Return)
}

// FuncValidate checks f under the module context c.
func FuncValidate(c *Context, f Func) (FuncType, error) {
	var v Validator
	var s Stack

	err := v.funcValidate(c, &s, 0, &f)
	if err != nil {
		return FuncType{}, err
	}

	return c.Type(f.Type), nil
}

// GlobalValidate checks g under c, whose globals must be the imported ones only.
func GlobalValidate(c *Context, g Global) error {
	var v Validator

	return v.global(c, g)
}

func ElemValidate(c *Context, e Elem) error {
	var v Validator

	return v.elem(c, e)
}

func DataValidate(c *Context, d Data) error {
	var v Validator

	return v.data(c, d)
}

func (v *Validator) global(c *Context, g Global) error {
	err := GlobalTypeValidate(g.Type)
	if err != nil {
		return err
	}

	err = v.expr(c, g.Init, ResultType{g.Type.Type})
	if err != nil {
		return errors.Wrap(err, "init")
	}

	err = ExprConstValidate(c, g.Init)
	if err != nil {
		return errors.Wrap(err, "init")
	}

	return nil
}

func (v *Validator) elem(c *Context, e Elem) error {
	if !c.IsTable(e.Table) {
		return errors.Wrap(ErrUnknownTable, "table %d", e.Table)
	}

	if t := c.Table(e.Table); t.Elem != FuncRef {
		return errors.Wrap(ErrElemType, "table %d is %v", e.Table, t.Elem)
	}

	err := v.offset(c, e.Offset)
	if err != nil {
		return err
	}

	for j, y := range e.Init {
		if !c.IsFunc(y) {
			return errors.Wrap(ErrUnknownFunc, "init %d: func %d", j, y)
		}
	}

	return nil
}

func (v *Validator) data(c *Context, d Data) error {
	if !c.IsMem(d.Mem) {
		return errors.Wrap(ErrUnknownMemory, "mem %d", d.Mem)
	}

	return v.offset(c, d.Offset)
}

func (v *Validator) offset(c *Context, e Expr) error {
	err := v.expr(c, e, ResultType{I32})
	if err != nil {
		return errors.Wrap(err, "offset")
	}

	err = ExprConstValidate(c, e)
	if err != nil {
		return errors.Wrap(err, "offset")
	}

	return nil
}

// expr validates an initializer expression with the configured nesting limit.
func (v *Validator) expr(c *Context, e Expr, rt ResultType) error {
	s := Stack{MaxDepth: v.MaxDepth}

	return exprValidate(c, &s, e, rt)
}

func StartValidate(c *Context, st Start) error {
	if !c.IsFunc(st.Func) {
		return errors.Wrap(ErrUnknownFunc, "func %d", st.Func)
	}

	if ft := c.Func(st.Func); len(ft.Params) != 0 || len(ft.Results) != 0 {
		return errors.Wrap(ErrStartType, "func %d is %v", st.Func, ft)
	}

	return nil
}

// ImportValidate checks the import descriptor and returns its external type.
func ImportValidate(c *Context, im Import) (et ExternType, err error) {
	et.Kind = im.Desc.Kind

	switch im.Desc.Kind {
	case ExternFunc:
		if !c.IsType(im.Desc.Type) {
			return et, errors.Wrap(ErrUnknownType, "type %d", im.Desc.Type)
		}

		et.Func = c.Type(im.Desc.Type)
	case ExternTable:
		et.Table = im.Desc.Table
		err = TableTypeValidate(et.Table)
	case ExternMem:
		et.Mem = im.Desc.Mem
		err = MemTypeValidate(et.Mem)
	case ExternGlobal:
		et.Global = im.Desc.Global
		err = GlobalTypeValidate(et.Global)
	default:
		panic(errors.New("unsupported import kind: %d", im.Desc.Kind))
	}

	return et, err
}

// ExportValidate checks the export descriptor and returns its external type.
func ExportValidate(c *Context, ex Export) (et ExternType, err error) {
	x := ex.Desc.Index
	et.Kind = ex.Desc.Kind

	switch ex.Desc.Kind {
	case ExternFunc:
		if !c.IsFunc(x) {
			return et, errors.Wrap(ErrUnknownFunc, "func %d", x)
		}

		et.Func = c.Func(x)
	case ExternTable:
		if !c.IsTable(x) {
			return et, errors.Wrap(ErrUnknownTable, "table %d", x)
		}

		et.Table = c.Table(x)
	case ExternMem:
		if !c.IsMem(x) {
			return et, errors.Wrap(ErrUnknownMemory, "mem %d", x)
		}

		et.Mem = c.Mem(x)
	case ExternGlobal:
		if !c.IsGlobal(x) {
			return et, errors.Wrap(ErrUnknownGlobal, "global %d", x)
		}

		et.Global = c.Global(x)
	default:
		panic(errors.New("unsupported export kind: %d", ex.Desc.Kind))
	}

	return et, nil
}
