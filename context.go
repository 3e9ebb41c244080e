package wasmcheck

type (
	// Context is the typing environment.
	// It is not modified during validation and may be shared between goroutines.
	//
	// X(idx) accessors must only be called after IsX(idx) returned true.
	Context struct {
		Types   []FuncType
		Funcs   []FuncType
		Tables  []TableType
		Mems    []MemType
		Globals []GlobalType
		Locals  []ValType

		// Labels are the enclosing labels, innermost first.
		Labels []ResultType

		// Return is nil outside of function bodies.
		Return *ResultType
	}
)

func (c *Context) IsType(x Index) bool   { return inRange(x, len(c.Types)) }
func (c *Context) IsFunc(x Index) bool   { return inRange(x, len(c.Funcs)) }
func (c *Context) IsTable(x Index) bool  { return inRange(x, len(c.Tables)) }
func (c *Context) IsMem(x Index) bool    { return inRange(x, len(c.Mems)) }
func (c *Context) IsGlobal(x Index) bool { return inRange(x, len(c.Globals)) }
func (c *Context) IsLocal(x Index) bool  { return inRange(x, len(c.Locals)) }
func (c *Context) IsLabel(x Index) bool  { return inRange(x, len(c.Labels)) }

func (c *Context) Type(x Index) FuncType     { return c.Types[x] }
func (c *Context) Func(x Index) FuncType     { return c.Funcs[x] }
func (c *Context) Table(x Index) TableType   { return c.Tables[x] }
func (c *Context) Mem(x Index) MemType       { return c.Mems[x] }
func (c *Context) Global(x Index) GlobalType { return c.Globals[x] }
func (c *Context) Local(x Index) ValType     { return c.Locals[x] }
func (c *Context) Label(x Index) ResultType  { return c.Labels[x] }

// WithFunc returns the context of a function body of type ft with extra locals.
func (c *Context) WithFunc(ft FuncType, locals []ValType) *Context {
	rt := ResultType(ft.Results)

	fc := *c

	fc.Locals = make([]ValType, 0, len(ft.Params)+len(locals))
	fc.Locals = append(fc.Locals, ft.Params...)
	fc.Locals = append(fc.Locals, locals...)

	fc.Labels = []ResultType{rt}
	fc.Return = &rt

	return &fc
}

// WithLabel returns the context of a nested instruction sequence.
func (c *Context) WithLabel(rt ResultType) *Context {
	nc := *c

	nc.Labels = make([]ResultType, 0, len(c.Labels)+1)
	nc.Labels = append(nc.Labels, rt)
	nc.Labels = append(nc.Labels, c.Labels...)

	return &nc
}

func inRange(x Index, n int) bool {
	return uint64(x) < uint64(n)
}
