package wasmcheck

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Operand is a known value type or the polymorphic Unknown
	// produced by popping in unreachable code.
	Operand struct {
		Type  ValType
		Known bool
	}

	ctrlFrame struct {
		label  ResultType
		end    ResultType
		height int

		unreachable bool
	}

	// Stack is the operand and control stack of one expression validation.
	// It is not safe for concurrent use and is never shared between expressions.
	Stack struct {
		// MaxDepth limits control frames. DefaultMaxDepth if zero.
		MaxDepth int

		opds  []Operand
		ctrls []ctrlFrame
	}
)

const DefaultMaxDepth = 1024

var Unknown = Operand{}

func Known(t ValType) Operand {
	return Operand{Type: t, Known: true}
}

func (o Operand) String() string {
	if !o.Known {
		return "unknown"
	}

	return o.Type.String()
}

func (o Operand) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, o.String())
}

// Height is the operand stack size.
func (s *Stack) Height() int { return len(s.opds) }

// Depth is the number of control frames.
func (s *Stack) Depth() int { return len(s.ctrls) }

func (s *Stack) Reset() {
	s.opds = s.opds[:0]
	s.ctrls = s.ctrls[:0]
}

func (s *Stack) PushOperand(o Operand) {
	s.opds = append(s.opds, o)
}

func (s *Stack) push(t ValType) {
	s.opds = append(s.opds, Known(t))
}

func (s *Stack) PopOperand() (Operand, error) {
	top := s.top()

	if len(s.opds) == top.height && top.unreachable {
		return Unknown, nil
	}

	if len(s.opds) == top.height {
		return Unknown, ErrOperandUnderflow
	}

	last := len(s.opds) - 1
	o := s.opds[last]
	s.opds = s.opds[:last]

	return o, nil
}

// PopOperandExpect pops one operand matching exp.
// Unknown on either side matches anything, the other side is returned.
func (s *Stack) PopOperandExpect(exp Operand) (Operand, error) {
	act, err := s.PopOperand()
	if err != nil {
		return Unknown, errors.Wrap(err, "want %v", exp)
	}

	if !act.Known {
		return exp, nil
	}

	if !exp.Known {
		return act, nil
	}

	if act.Type != exp.Type {
		return Unknown, errors.Wrap(ErrTypeMismatch, "got %v, want %v", act.Type, exp.Type)
	}

	return act, nil
}

func (s *Stack) pop(t ValType) error {
	_, err := s.PopOperandExpect(Known(t))

	return err
}

func (s *Stack) PushOperands(ts []ValType) {
	for _, t := range ts {
		s.push(t)
	}
}

// PopOperands pops ts in reverse order, the last type is the stack top.
func (s *Stack) PopOperands(ts []ValType) error {
	for i := len(ts) - 1; i >= 0; i-- {
		err := s.pop(ts[i])
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Stack) PushControl(label, end ResultType) {
	s.ctrls = append(s.ctrls, ctrlFrame{
		label:  label,
		end:    end,
		height: len(s.opds),
	})
}

// PopControl checks that the innermost frame left exactly its end types
// on the stack, removes them and the frame, and returns the end types.
func (s *Stack) PopControl() (ResultType, error) {
	if len(s.ctrls) == 0 {
		return nil, ErrControlUnderflow
	}

	f := s.top()

	err := s.PopOperands(f.end)
	if err != nil {
		return nil, errors.Wrap(err, "block end %v", f.end)
	}

	if len(s.opds) != f.height {
		return nil, errors.Wrap(ErrHeightMismatch, "%d values left, want %v", len(s.opds)-f.height, f.end)
	}

	s.ctrls = s.ctrls[:len(s.ctrls)-1]

	return f.end, nil
}

// Unreachable drops the innermost frame's operands and makes
// the following pops in that frame polymorphic.
func (s *Stack) Unreachable() {
	f := s.top()

	s.opds = s.opds[:f.height]
	f.unreachable = true
}

// frame returns the frame l levels out from the innermost one.
func (s *Stack) frame(l int) *ctrlFrame {
	return &s.ctrls[len(s.ctrls)-1-l]
}

func (s *Stack) top() *ctrlFrame {
	if len(s.ctrls) == 0 {
		panic("operand access without control frame")
	}

	return &s.ctrls[len(s.ctrls)-1]
}

func (s *Stack) maxDepth() int {
	if s.MaxDepth != 0 {
		return s.MaxDepth
	}

	return DefaultMaxDepth
}
