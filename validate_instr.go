package wasmcheck

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// ExprValidate checks that e is valid with result type rt under c.
func ExprValidate(c *Context, e Expr, rt ResultType) error {
	var s Stack

	return exprValidate(c, &s, e, rt)
}

func exprValidate(c *Context, s *Stack, e Expr, rt ResultType) error {
	var label ResultType
	if len(c.Labels) != 0 {
		label = c.Labels[0]
	}

	s.Reset()
	s.PushControl(label, rt)

	err := seqValidate(c, s, e)
	if err != nil {
		return err
	}

	_, err = s.PopControl()
	if err != nil {
		return errors.Wrap(err, "expr end")
	}

	return nil
}

// ExprConstValidate checks that e only consists of constants
// and reads of immutable globals.
func ExprConstValidate(c *Context, e Expr) error {
	for i, in := range e {
		switch x := in.(type) {
		case Const:
		case GlobalGet:
			if !c.IsGlobal(x.Index) {
				return errors.Wrap(ErrUnknownGlobal, "instr %d (%v)", i, in)
			}

			if g := c.Global(x.Index); g.Mut != MutConst {
				return errors.Wrap(ErrNotConstant, "instr %d (%v): global is %v", i, in, g.Mut)
			}
		default:
			return errors.Wrap(ErrNotConstant, "instr %d (%v)", i, in)
		}
	}

	return nil
}

func seqValidate(c *Context, s *Stack, e Expr) error {
	for i, in := range e {
		err := InstrValidate(c, s, in)
		if err != nil {
			return errors.Wrap(err, "instr %d (%v)", i, in)
		}
	}

	return nil
}

// InstrValidate applies the typing rule of in to s.
// s must have at least one control frame, the one of the enclosing expression.
func InstrValidate(c *Context, s *Stack, in Instr) (err error) {
	if tr := tlog.V("instr"); tr != nil {
		tr.Printw("instr", "op", in.String(), "height", s.Height(), "depth", s.Depth(), "unreachable", s.top().unreachable)
	}

	switch x := in.(type) {
	case Const:
		s.push(x.Type)
	case Unop:
		err = s.pop(x.Type)
		s.push(x.Type)
	case Binop:
		err = s.PopOperands([]ValType{x.Type, x.Type})
		s.push(x.Type)
	case Testop:
		err = s.pop(x.Type)
		s.push(I32)
	case Relop:
		err = s.PopOperands([]ValType{x.Type, x.Type})
		s.push(I32)
	case Cvtop:
		err = s.pop(x.Src)
		s.push(x.Dst)

	case Drop:
		_, err = s.PopOperand()
	case Select:
		err = selectValidate(s)

	case LocalGet:
		if !c.IsLocal(x.Index) {
			return ErrUnknownLocal
		}

		s.push(c.Local(x.Index))
	case LocalSet:
		if !c.IsLocal(x.Index) {
			return ErrUnknownLocal
		}

		err = s.pop(c.Local(x.Index))
	case LocalTee:
		if !c.IsLocal(x.Index) {
			return ErrUnknownLocal
		}

		t := c.Local(x.Index)

		err = s.pop(t)
		s.push(t)
	case GlobalGet:
		if !c.IsGlobal(x.Index) {
			return ErrUnknownGlobal
		}

		s.push(c.Global(x.Index).Type)
	case GlobalSet:
		if !c.IsGlobal(x.Index) {
			return ErrUnknownGlobal
		}

		g := c.Global(x.Index)
		if g.Mut != MutVar {
			return ErrImmutableGlobal
		}

		err = s.pop(g.Type)

	case Load:
		err = memArgValidate(c, x.MemArg, x.Size)
		if err != nil {
			return err
		}

		err = s.pop(I32)
		s.push(x.Type)
	case Store:
		err = memArgValidate(c, x.MemArg, x.Size)
		if err != nil {
			return err
		}

		err = s.PopOperands([]ValType{I32, x.Type})
	case MemorySize:
		if !c.IsMem(0) {
			return ErrUnknownMemory
		}

		s.push(I32)
	case MemoryGrow:
		if !c.IsMem(0) {
			return ErrUnknownMemory
		}

		err = s.pop(I32)
		s.push(I32)

	case Nop:
	case Unreachable:
		s.Unreachable()
	case Return:
		if c.Return == nil {
			return ErrNoReturn
		}

		err = s.PopOperands(*c.Return)
		s.Unreachable()

	case Block:
		err = blockValidate(c, s, x.Type, x.Type, x.Body)
		s.PushOperands(x.Type)
	case Loop:
		err = blockValidate(c, s, nil, x.Type, x.Body)
		s.PushOperands(x.Type)
	case If:
		err = s.pop(I32)
		if err != nil {
			return errors.Wrap(err, "condition")
		}

		err = blockValidate(c, s, x.Type, x.Type, x.Then)
		if err != nil {
			return errors.Wrap(err, "then")
		}

		err = blockValidate(c, s, x.Type, x.Type, x.Else)
		if err != nil {
			return errors.Wrap(err, "else")
		}

		s.PushOperands(x.Type)

	case Br:
		lt, ok := labelType(c, s, x.Label)
		if !ok {
			return errors.Wrap(ErrUnknownLabel, "label %d", x.Label)
		}

		err = s.PopOperands(lt)
		s.Unreachable()
	case BrIf:
		lt, ok := labelType(c, s, x.Label)
		if !ok {
			return errors.Wrap(ErrUnknownLabel, "label %d", x.Label)
		}

		err = s.pop(I32)
		if err != nil {
			return errors.Wrap(err, "condition")
		}

		err = s.PopOperands(lt)
		s.PushOperands(lt)
	case BrTable:
		err = brTableValidate(c, s, x)

	case Call:
		if !c.IsFunc(x.Func) {
			return ErrUnknownFunc
		}

		ft := c.Func(x.Func)

		err = s.PopOperands(ft.Params)
		s.PushOperands(ft.Results)
	case CallIndirect:
		if !c.IsTable(0) {
			return ErrUnknownTable
		}

		if c.Table(0).Elem != FuncRef {
			return ErrElemType
		}

		if !c.IsType(x.Type) {
			return ErrUnknownType
		}

		ft := c.Type(x.Type)

		err = s.pop(I32)
		if err != nil {
			return errors.Wrap(err, "table index")
		}

		err = s.PopOperands(ft.Params)
		s.PushOperands(ft.Results)

	default:
		panic(fmt.Sprintf("unsupported instruction: %T", in))
	}

	return err
}

func selectValidate(s *Stack) error {
	err := s.pop(I32)
	if err != nil {
		return errors.Wrap(err, "condition")
	}

	t1, err := s.PopOperand()
	if err != nil {
		return err
	}

	t2, err := s.PopOperandExpect(t1)
	if err != nil {
		return err
	}

	s.PushOperand(t2)

	return nil
}

func memArgValidate(c *Context, m MemArg, size int) error {
	if !c.IsMem(0) {
		return ErrUnknownMemory
	}

	if m.Align >= 32 || uint64(1)<<m.Align > uint64(size) {
		return errors.Wrap(ErrAlignment, "align 2^%d, size %d", m.Align, size)
	}

	return nil
}

func blockValidate(c *Context, s *Stack, label, end ResultType, body Expr) error {
	if len(end) > 1 {
		return errors.Wrap(ErrResultArity, "block type %v", end)
	}

	if s.Depth() >= s.maxDepth() {
		return errors.Wrap(ErrNestingTooDeep, "limit %d", s.maxDepth())
	}

	s.PushControl(label, end)

	err := seqValidate(c, s, body)
	if err != nil {
		return err
	}

	_, err = s.PopControl()
	if err != nil {
		return errors.Wrap(err, "end")
	}

	return nil
}

func brTableValidate(c *Context, s *Stack, x BrTable) error {
	dt, ok := labelType(c, s, x.Default)
	if !ok {
		return errors.Wrap(ErrUnknownLabel, "default label %d", x.Default)
	}

	for _, l := range x.Labels {
		lt, ok := labelType(c, s, l)
		if !ok {
			return errors.Wrap(ErrUnknownLabel, "label %d", l)
		}

		if !lt.Equal(dt) {
			return errors.Wrap(ErrLabelTypeMismatch, "label %d is %v, default %d is %v", l, lt, x.Default, dt)
		}
	}

	err := s.pop(I32)
	if err != nil {
		return errors.Wrap(err, "table index")
	}

	err = s.PopOperands(dt)
	if err != nil {
		return err
	}

	s.Unreachable()

	return nil
}

// labelType resolves label l: the nested control frames first, innermost is 0,
// then the context labels. The outermost frame stands for c.Labels[0].
func labelType(c *Context, s *Stack, l Index) (ResultType, bool) {
	nested := s.Depth() - 1

	if inRange(l, nested) {
		return s.frame(int(l)).label, true
	}

	l -= Index(nested)

	if !c.IsLabel(l) {
		return nil, false
	}

	return c.Label(l), true
}
