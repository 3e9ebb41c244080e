package wasmcheck

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	InstructionsDecoder struct {
		LowDecoder

		// MaxDepth limits block nesting. DefaultMaxDepth if zero.
		MaxDepth int

		// MaxLocals limits declared locals per function. DefaultMaxLocals if zero.
		MaxLocals int
	}

	UnsupportedOpcodeError struct {
		Opcode Opcode
		Args   []byte
	}
)

const DefaultMaxLocals = 50000

// Expr decodes an instruction sequence terminated by end.
func (d *InstructionsDecoder) Expr(b []byte, st int) (e Expr, i int, err error) {
	e, term, i, err := d.seq(b, st, 0)
	if err != nil {
		return nil, i, err
	}

	if term != OpEnd {
		return nil, i, errors.New("unexpected %v", term)
	}

	return e, i, nil
}

// Func decodes locals and body of a function from its code entry.
func (d *InstructionsDecoder) Func(b []byte, f *Func) (err error) {
	l, i, err := d.Int(b, 0)
	if err != nil {
		return errors.Wrap(err, "locals")
	}

	f.Locals = nil

	var cnt int
	var total uint64
	var tp ValType

	for n := 0; n < l; n++ {
		cnt, i, err = d.Int(b, i)
		if err != nil {
			return errors.Wrap(err, "locals %d", n)
		}

		tp, i, err = d.ValType(b, i)
		if err != nil {
			return errors.Wrap(err, "locals %d", n)
		}

		total += uint64(cnt)
		if total > uint64(d.maxLocals()) {
			return errors.Wrap(ErrTooManyLocals, "%d locals", total)
		}

		for j := 0; j < cnt; j++ {
			f.Locals = append(f.Locals, tp)
		}
	}

	f.Body, i, err = d.Expr(b, i)
	if err != nil {
		return errors.Wrap(err, "expr")
	}

	if i != len(b) {
		return ErrSizeMismatch
	}

	return nil
}

func (d *InstructionsDecoder) seq(b []byte, st, depth int) (e Expr, term Opcode, i int, err error) {
	i = st

	if depth >= d.maxDepth() {
		return nil, 0, st, errors.Wrap(ErrNestingTooDeep, "limit %d", d.maxDepth())
	}

	var in Instr

	for i < len(b) {
		op := Opcode(b[i])

		if op == OpEnd || op == OpElse {
			return e, op, i + 1, nil
		}

		in, i, err = d.Instr(b, i, depth)
		if err != nil {
			return nil, 0, i, err
		}

		e = append(e, in)
	}

	return nil, 0, st, ErrUnexpectedEOF
}

// Instr decodes one instruction. Structured instructions are decoded with their bodies.
func (d *InstructionsDecoder) Instr(b []byte, st, depth int) (in Instr, i int, err error) {
	i = st
	op := Opcode(b[i])
	i++

	defer func() {
		tlog.V("opcode").Printw("opcode", "i", tlog.NextAsHex, st, "op", op, "code", tlog.NextAsHex, b[st:i])

		if err != nil {
			i = st
		}
	}()

	var x Index

	switch {
	case op == OpUnreachable:
		return Unreachable{}, i, nil
	case op == OpNop:
		return Nop{}, i, nil
	case op == OpReturn:
		return Return{}, i, nil
	case op == OpDrop:
		return Drop{}, i, nil
	case op == OpSelect:
		return Select{}, i, nil

	case op == OpBlock || op == OpLoop || op == OpIf:
		return d.block(b, i, op, depth)
	case op == OpBr:
		x, i, err = d.Index(b, i)
		return Br{Label: x}, i, err
	case op == OpBrIf:
		x, i, err = d.Index(b, i)
		return BrIf{Label: x}, i, err
	case op == OpBrTable:
		return d.brTable(b, i)

	case op == OpCall:
		x, i, err = d.Index(b, i)
		return Call{Func: x}, i, err
	case op == OpCallIndirect:
		x, i, err = d.Index(b, i)
		if err != nil {
			return nil, i, err
		}

		i, err = d.reserved(b, i)

		return CallIndirect{Type: x}, i, err

	case op >= OpLocalGet && op <= OpGlobalSet:
		x, i, err = d.Index(b, i)
		if err != nil {
			return nil, i, err
		}

		switch op {
		case OpLocalGet:
			return LocalGet{Index: x}, i, nil
		case OpLocalSet:
			return LocalSet{Index: x}, i, nil
		case OpLocalTee:
			return LocalTee{Index: x}, i, nil
		case OpGlobalGet:
			return GlobalGet{Index: x}, i, nil
		default:
			return GlobalSet{Index: x}, i, nil
		}

	case op >= OpI32Load && op <= OpI64Store32:
		var m MemArg

		m.Align, i, err = d.Uint32(b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "align")
		}

		m.Offset, i, err = d.Uint32(b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "offset")
		}

		return MemOp(op, m), i, nil
	case op == OpMemorySize:
		i, err = d.reserved(b, i)
		return MemorySize{}, i, err
	case op == OpMemoryGrow:
		i, err = d.reserved(b, i)
		return MemoryGrow{}, i, err

	case op == OpI32Const:
		var v int32
		v, i, err = d.Int32(b, i)
		return ConstI32(v), i, err
	case op == OpI64Const:
		var v int64
		v, i, err = d.Int64(b, i)
		return ConstI64(v), i, err
	case op == OpF32Const:
		var v uint32
		v, i, err = d.Bits32(b, i)
		return ConstBits(F32, uint64(v)), i, err
	case op == OpF64Const:
		var v uint64
		v, i, err = d.Bits64(b, i)
		return ConstBits(F64, v), i, err

	case op >= OpI32EqZ && op <= OpF64ReinterpretI64:
		return Num(op), i, nil
	}

	return nil, st, errors.Wrap(UnsupportedOpcodeError{Opcode: op}, "at pos 0x%x", st)
}

func (d *InstructionsDecoder) block(b []byte, st int, op Opcode, depth int) (in Instr, i int, err error) {
	rt, i, err := d.blockType(b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "block type")
	}

	body, term, i, err := d.seq(b, i, depth+1)
	if err != nil {
		return nil, i, err
	}

	switch op {
	case OpBlock, OpLoop:
		if term != OpEnd {
			return nil, i, errors.New("unexpected %v in %v", term, op)
		}

		if op == OpLoop {
			return Loop{Type: rt, Body: body}, i, nil
		}

		return Block{Type: rt, Body: body}, i, nil
	}

	x := If{Type: rt, Then: body}

	if term == OpElse {
		x.Else, term, i, err = d.seq(b, i, depth+1)
		if err != nil {
			return nil, i, errors.Wrap(err, "else")
		}

		if term != OpEnd {
			return nil, i, errors.New("unexpected %v in else", term)
		}
	}

	return x, i, nil
}

func (d *InstructionsDecoder) blockType(b []byte, st int) (rt ResultType, i int, err error) {
	x, i, err := d.Byte(b, st)
	if err != nil {
		return nil, st, err
	}

	if x == EmptyBlockType {
		return nil, i, nil
	}

	t, i, err := d.ValType(b, st)
	if err != nil {
		return nil, st, err
	}

	return ResultType{t}, i, nil
}

func (d *InstructionsDecoder) brTable(b []byte, st int) (in Instr, i int, err error) {
	var x BrTable

	l, i, err := d.Int(b, st)
	if err != nil {
		return nil, st, err
	}

	var lab Index

	for j := 0; j < l; j++ {
		lab, i, err = d.Index(b, i)
		if err != nil {
			return nil, st, errors.Wrap(err, "label %d", j)
		}

		x.Labels = append(x.Labels, lab)
	}

	x.Default, i, err = d.Index(b, i)
	if err != nil {
		return nil, st, errors.Wrap(err, "default label")
	}

	return x, i, nil
}

func (d *InstructionsDecoder) reserved(b []byte, st int) (i int, err error) {
	x, i, err := d.Byte(b, st)
	if err != nil {
		return st, err
	}

	if x != 0 {
		return st, errors.New("reserved byte must be zero: 0x%02x", x)
	}

	return i, nil
}

func (d *InstructionsDecoder) maxDepth() int {
	if d.MaxDepth != 0 {
		return d.MaxDepth
	}

	return DefaultMaxDepth
}

func (d *InstructionsDecoder) maxLocals() int {
	if d.MaxLocals != 0 {
		return d.MaxLocals
	}

	return DefaultMaxLocals
}

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode: %v [% 02x]", e.Opcode, e.Args)
}
