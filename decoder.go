package wasmcheck

import (
	"encoding/binary"
	stderrors "errors"
	"io"
	"math"
	"unicode/utf8"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Decoder parses the binary format into a Module.
	// It checks the format only, use Validator for the typing rules.
	Decoder struct {
		InstructionsDecoder
	}

	LowDecoder struct{}
)

var (
	Magic   = []byte("\000asm")
	Version = uint32(1)
)

var (
	ErrMagic              = stderrors.New("magic mismatch")
	ErrOverflow           = stderrors.New("integer overflow")
	ErrSizeMismatch       = stderrors.New("size mismatch")
	ErrUnexpectedEOF      = io.ErrUnexpectedEOF
	ErrUnsupportedVersion = stderrors.New("unsupported binary format version")
	ErrSectionOrder       = stderrors.New("section out of order")
	ErrFuncCodeMismatch   = stderrors.New("function and code section length mismatch")
	ErrTooManyLocals      = stderrors.New("too many locals")
	ErrMalformedName      = stderrors.New("malformed UTF-8 name")
)

func (d *Decoder) Module(b []byte, m *Module) (err error) {
	i := 0

	defer func() {
		if err == nil {
			return
		}

		err = errors.Wrap(err, "at pos 0x%x", i)
	}()

	*m = Module{}

	if common(b[i:], Magic) != len(Magic) {
		return ErrMagic
	}

	i += len(Magic)

	if i+4 > len(b) {
		return ErrUnexpectedEOF
	}

	if v := binary.LittleEndian.Uint32(b[i:]); v != Version {
		return errors.Wrap(ErrUnsupportedVersion, "version %d", v)
	}

	i += 4

	var last byte
	var code bool

	for i < len(b) {
		id := b[i]

		size, end, err := d.Int(b, i+1)
		if err != nil {
			return errors.Wrap(err, "section size")
		}

		end += size
		if end > len(b) {
			return ErrUnexpectedEOF
		}

		if id != CustomSection {
			if id <= last {
				return errors.Wrap(ErrSectionOrder, "section id %d after %d", id, last)
			}

			last = id
		}

		tlog.V("section").Printw("section", "id", id, "pos", tlog.NextAsHex, i, "size", size)

		switch id {
		case CustomSection:
			i, err = d.CustomSection(b, i, m)
		case TypeSection:
			i, err = d.TypeSection(b, i, m)
		case ImportSection:
			i, err = d.ImportSection(b, i, m)
		case FunctionSection:
			i, err = d.FunctionSection(b, i, m)
		case TableSection:
			i, err = d.TableSection(b, i, m)
		case MemorySection:
			i, err = d.MemorySection(b, i, m)
		case GlobalSection:
			i, err = d.GlobalSection(b, i, m)
		case ExportSection:
			i, err = d.ExportSection(b, i, m)
		case StartSection:
			i, err = d.StartSection(b, i, m)
		case ElementSection:
			i, err = d.ElementSection(b, i, m)
		case CodeSection:
			code = true
			i, err = d.CodeSection(b, i, m)
		case DataSection:
			i, err = d.DataSection(b, i, m)
		default:
			return errors.New("unsupported section id: 0x%02x", id)
		}

		if err != nil {
			return errors.Wrap(err, "section id %x", id)
		}

		i = end
	}

	if !code && len(m.Funcs) != 0 {
		return errors.Wrap(ErrFuncCodeMismatch, "%d funcs, no code", len(m.Funcs))
	}

	return nil
}

func (d *Decoder) CustomSection(b []byte, st int, m *Module) (i int, err error) {
	end, i, err := d.sectionHeader(b, st, CustomSection)
	if err != nil {
		return i, err
	}

	name, i, err := d.NameString(b, i)
	if err != nil {
		return st, errors.Wrap(err, "name")
	}

	if i > end {
		return st, ErrSizeMismatch
	}

	m.Custom = append(m.Custom, Custom{
		Name: name,
		Data: append([]byte(nil), b[i:end]...),
	})

	return end, nil
}

func (d *Decoder) TypeSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, TypeSection)
	if err != nil {
		return i, err
	}

	var ft FuncType

	for n := 0; n < l; n++ {
		ft, i, err = d.FuncType(b, i)
		if err != nil {
			return i, errors.Wrap(err, "type %d", n)
		}

		m.Types = append(m.Types, ft)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) ImportSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, ImportSection)
	if err != nil {
		return i, err
	}

	var im Import

	for n := 0; n < l; n++ {
		im, i, err = d.Import(b, i)
		if err != nil {
			return i, errors.Wrap(err, "import %d", n)
		}

		m.Imports = append(m.Imports, im)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) Import(b []byte, st int) (im Import, i int, err error) {
	im.Module, i, err = d.NameString(b, st)
	if err != nil {
		return im, i, errors.Wrap(err, "module")
	}

	im.Name, i, err = d.NameString(b, i)
	if err != nil {
		return im, i, errors.Wrap(err, "name")
	}

	kind, i, err := d.Byte(b, i)
	if err != nil {
		return im, i, err
	}

	im.Desc.Kind = ExternKind(kind)

	switch im.Desc.Kind {
	case ExternFunc:
		im.Desc.Type, i, err = d.Index(b, i)
		if err != nil {
			return im, i, errors.Wrap(err, "type index")
		}
	case ExternTable:
		im.Desc.Table, i, err = d.TableType(b, i)
		if err != nil {
			return im, i, errors.Wrap(err, "table type")
		}
	case ExternMem:
		im.Desc.Mem.Limits, i, err = d.Limits(b, i)
		if err != nil {
			return im, i, errors.Wrap(err, "memory limits")
		}
	case ExternGlobal:
		im.Desc.Global, i, err = d.GlobalType(b, i)
		if err != nil {
			return im, i, errors.Wrap(err, "global type")
		}
	default:
		return im, i - 1, errors.New("unsupported import description type: 0x%02x", kind)
	}

	return im, i, nil
}

func (d *Decoder) FunctionSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, FunctionSection)
	if err != nil {
		return i, err
	}

	var x Index

	for n := 0; n < l; n++ {
		x, i, err = d.Index(b, i)
		if err != nil {
			return i, errors.Wrap(err, "func %d", n)
		}

		m.Funcs = append(m.Funcs, Func{Type: x})
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) TableSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, TableSection)
	if err != nil {
		return i, err
	}

	var x Table

	for n := 0; n < l; n++ {
		x.Type, i, err = d.TableType(b, i)
		if err != nil {
			return i, errors.Wrap(err, "table %d", n)
		}

		m.Tables = append(m.Tables, x)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) MemorySection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, MemorySection)
	if err != nil {
		return i, err
	}

	var x Mem

	for n := 0; n < l; n++ {
		x.Type.Limits, i, err = d.Limits(b, i)
		if err != nil {
			return i, errors.Wrap(err, "memory %d", n)
		}

		m.Mems = append(m.Mems, x)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) GlobalSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, GlobalSection)
	if err != nil {
		return i, err
	}

	for n := 0; n < l; n++ {
		var g Global

		g.Type, i, err = d.GlobalType(b, i)
		if err != nil {
			return i, errors.Wrap(err, "global type %d", n)
		}

		g.Init, i, err = d.Expr(b, i)
		if err != nil {
			return i, errors.Wrap(err, "global init %d", n)
		}

		m.Globals = append(m.Globals, g)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) ExportSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, ExportSection)
	if err != nil {
		return i, err
	}

	var ex Export

	for n := 0; n < l; n++ {
		ex, i, err = d.Export(b, i)
		if err != nil {
			return i, errors.Wrap(err, "export %d", n)
		}

		m.Exports = append(m.Exports, ex)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) Export(b []byte, st int) (ex Export, i int, err error) {
	ex.Name, i, err = d.NameString(b, st)
	if err != nil {
		return ex, i, errors.Wrap(err, "name")
	}

	kind, i, err := d.Byte(b, i)
	if err != nil {
		return ex, i, err
	}

	if kind > byte(ExternGlobal) {
		return ex, i - 1, errors.New("unsupported export description type: 0x%02x", kind)
	}

	ex.Desc.Kind = ExternKind(kind)

	ex.Desc.Index, i, err = d.Index(b, i)
	if err != nil {
		return ex, st, errors.Wrap(err, "index")
	}

	return ex, i, nil
}

func (d *Decoder) StartSection(b []byte, st int, m *Module) (i int, err error) {
	end, i, err := d.sectionHeader(b, st, StartSection)
	if err != nil {
		return i, err
	}

	x, i, err := d.Index(b, i)
	if err != nil {
		return i, errors.Wrap(err, "func index")
	}

	m.Start = &Start{Func: x}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) ElementSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, ElementSection)
	if err != nil {
		return i, err
	}

	var el Elem

	for n := 0; n < l; n++ {
		el, i, err = d.Elem(b, i)
		if err != nil {
			return i, errors.Wrap(err, "elem %d", n)
		}

		m.Elems = append(m.Elems, el)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) Elem(b []byte, st int) (el Elem, i int, err error) {
	el.Table, i, err = d.Index(b, st)
	if err != nil {
		return el, i, errors.Wrap(err, "table index")
	}

	el.Offset, i, err = d.Expr(b, i)
	if err != nil {
		return el, i, errors.Wrap(err, "offset")
	}

	l, i, err := d.Int(b, i)
	if err != nil {
		return el, i, errors.Wrap(err, "funcs")
	}

	var x Index

	for j := 0; j < l; j++ {
		x, i, err = d.Index(b, i)
		if err != nil {
			return el, i, errors.Wrap(err, "func index %d", j)
		}

		el.Init = append(el.Init, x)
	}

	return el, i, nil
}

func (d *Decoder) CodeSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, CodeSection)
	if err != nil {
		return i, err
	}

	if l != len(m.Funcs) {
		return st, errors.Wrap(ErrFuncCodeMismatch, "%d funcs, %d bodies", len(m.Funcs), l)
	}

	var size int

	for n := 0; n < l; n++ {
		size, i, err = d.Int(b, i)
		if err != nil {
			return i, errors.Wrap(err, "code %d", n)
		}

		if i+size > len(b) {
			return i, errors.Wrap(ErrUnexpectedEOF, "code %d", n)
		}

		err = d.Func(b[i:i+size], &m.Funcs[n])
		if err != nil {
			return i, errors.Wrap(err, "code %d", n)
		}

		i += size
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) DataSection(b []byte, st int, m *Module) (i int, err error) {
	l, end, i, err := d.sectionHeaderLen(b, st, DataSection)
	if err != nil {
		return i, err
	}

	var size int

	for n := 0; n < l; n++ {
		var x Data

		x.Mem, i, err = d.Index(b, i)
		if err != nil {
			return i, errors.Wrap(err, "data %d: mem index", n)
		}

		x.Offset, i, err = d.Expr(b, i)
		if err != nil {
			return i, errors.Wrap(err, "data %d: offset", n)
		}

		size, i, err = d.Int(b, i)
		if err != nil {
			return st, errors.Wrap(err, "data %d: init size", n)
		}

		if i+size > len(b) {
			return st, errors.Wrap(ErrUnexpectedEOF, "data %d: init", n)
		}

		if size != 0 {
			x.Init = append([]byte(nil), b[i:i+size]...)
		}

		i += size

		m.Data = append(m.Data, x)
	}

	if i != end {
		return st, ErrSizeMismatch
	}

	return i, nil
}

func (d *Decoder) sectionHeader(b []byte, st int, section byte) (end, i int, err error) {
	tp, i, err := d.Byte(b, st)
	if err != nil {
		return
	}

	if tp != section {
		return 0, st, errors.New("unexpected section id: %d, wanted %d", tp, section)
	}

	size, i, err := d.Int(b, i)
	if err != nil {
		return 0, i, errors.Wrap(err, "section size")
	}

	return i + size, i, nil
}

func (d *Decoder) sectionHeaderLen(b []byte, st int, section byte) (l, end, i int, err error) {
	end, i, err = d.sectionHeader(b, st, section)
	if err != nil {
		return 0, 0, i, err
	}

	l, i, err = d.Int(b, i)
	if err != nil {
		return 0, 0, i, errors.Wrap(err, "vector length")
	}

	return l, end, i, nil
}

func (d *LowDecoder) Byte(b []byte, st int) (r byte, i int, err error) {
	i = st

	if i >= len(b) {
		return 0, i, ErrUnexpectedEOF
	}

	return b[i], i + 1, nil
}

// Int decodes u32 vector lengths and sizes.
func (d *LowDecoder) Int(b []byte, st int) (l, i int, err error) {
	x, i, err := d.Uint32(b, st)
	return int(x), i, err
}

func (d *LowDecoder) Index(b []byte, st int) (x Index, i int, err error) {
	v, i, err := d.Uint32(b, st)
	return Index(v), i, err
}

func (d *LowDecoder) Uint32(b []byte, st int) (v uint32, i int, err error) {
	x, i, err := d.Uint64(b, st)
	if err != nil {
		return 0, st, err
	}

	if x > math.MaxUint32 || i-st > 5 {
		return 0, st, ErrOverflow
	}

	return uint32(x), i, nil
}

func (d *LowDecoder) Uint64(b []byte, st int) (v uint64, i int, err error) {
	var s uint
	i = st

	for i < len(b) {
		if s >= 64 {
			return 0, st, ErrOverflow
		}

		c := b[i]
		i++

		if s == 63 && c > 0x01 {
			return 0, st, ErrOverflow
		}

		v |= uint64(c&0x7f) << s
		s += 7

		if c&0x80 == 0 {
			return v, i, nil
		}
	}

	return 0, st, ErrUnexpectedEOF
}

func (d *LowDecoder) Int32(b []byte, st int) (v int32, i int, err error) {
	x, i, err := d.Int64(b, st)
	if err != nil {
		return 0, st, err
	}

	if x < math.MinInt32 || x > math.MaxInt32 || i-st > 5 {
		return 0, st, ErrOverflow
	}

	return int32(x), i, nil
}

func (d *LowDecoder) Int64(b []byte, st int) (v int64, i int, err error) {
	var s uint
	i = st

	for i < len(b) {
		if s >= 64 {
			return 0, st, ErrOverflow
		}

		c := b[i]
		i++

		// the 10th byte carries bit 63 and its sign extension only
		if s == 63 && c != 0x00 && c != 0x7f {
			return 0, st, ErrOverflow
		}

		v |= int64(c&0x7f) << s
		s += 7

		if c&0x80 == 0 {
			if s < 64 {
				v = v << (64 - s) >> (64 - s)
			}

			return v, i, nil
		}
	}

	return 0, st, ErrUnexpectedEOF
}

func (d *LowDecoder) Bits32(b []byte, st int) (v uint32, i int, err error) {
	if st+4 > len(b) {
		return 0, st, ErrUnexpectedEOF
	}

	return binary.LittleEndian.Uint32(b[st:]), st + 4, nil
}

func (d *LowDecoder) Bits64(b []byte, st int) (v uint64, i int, err error) {
	if st+8 > len(b) {
		return 0, st, ErrUnexpectedEOF
	}

	return binary.LittleEndian.Uint64(b[st:]), st + 8, nil
}

func (d *LowDecoder) NameString(b []byte, st int) (v string, i int, err error) {
	r, i, err := d.Name(b, st)

	return string(r), i, err
}

// Name returns a subslice of b.
func (d *LowDecoder) Name(b []byte, st int) (v []byte, i int, err error) {
	l, i, err := d.Int(b, st)
	if err != nil {
		return nil, st, err
	}

	if i+l > len(b) {
		return nil, st, ErrUnexpectedEOF
	}

	v = b[i : i+l]
	i += l

	if !utf8.Valid(v) {
		return nil, st, ErrMalformedName
	}

	return v, i, nil
}

func (d *LowDecoder) ValType(b []byte, st int) (t ValType, i int, err error) {
	x, i, err := d.Byte(b, st)
	if err != nil {
		return 0, st, err
	}

	t = ValType(x)
	if !t.Valid() {
		return 0, st, errors.New("invalid value type: 0x%02x", x)
	}

	return t, i, nil
}

// ResultType decodes a vector of value types. Empty vectors are nil.
func (d *LowDecoder) ResultType(b []byte, st int) (tp []ValType, i int, err error) {
	l, i, err := d.Int(b, st)
	if err != nil {
		return nil, st, err
	}

	if i+l > len(b) {
		return nil, st, ErrUnexpectedEOF
	}

	var t ValType

	for j := 0; j < l; j++ {
		t, i, err = d.ValType(b, i)
		if err != nil {
			return nil, i, err
		}

		tp = append(tp, t)
	}

	return tp, i, nil
}

func (d *LowDecoder) FuncType(b []byte, st int) (fn FuncType, i int, err error) {
	i = st

	if i+3 > len(b) {
		return fn, st, ErrUnexpectedEOF
	}

	if b[i] != FuncTypeHeader {
		return fn, st, errors.New("expected function type, got 0x%02x", b[i])
	}
	i++

	fn.Params, i, err = d.ResultType(b, i)
	if err != nil {
		return fn, i, errors.Wrap(err, "func params")
	}

	fn.Results, i, err = d.ResultType(b, i)
	if err != nil {
		return fn, i, errors.Wrap(err, "func result")
	}

	return fn, i, nil
}

func (d *LowDecoder) Limits(b []byte, st int) (l Limits, i int, err error) {
	tp, i, err := d.Byte(b, st)
	if err != nil {
		return
	}

	if tp != LimitMin && tp != LimitMinMax {
		return l, st, errors.New("expected limit, got 0x%02x", tp)
	}

	l.Min, i, err = d.Uint32(b, i)
	if err != nil {
		return l, i, errors.Wrap(err, "min")
	}

	if tp == LimitMin {
		return l, i, nil
	}

	l.Max, i, err = d.Uint32(b, i)
	if err != nil {
		return l, i, errors.Wrap(err, "max")
	}

	l.HasMax = true

	return l, i, nil
}

func (d *LowDecoder) TableType(b []byte, st int) (t TableType, i int, err error) {
	i = st

	if i+3 > len(b) {
		return t, st, ErrUnexpectedEOF
	}

	if ElemType(b[i]) != FuncRef {
		return t, st, errors.New("invalid element type: 0x%02x", b[i])
	}

	t.Elem = ElemType(b[i])
	i++

	t.Limits, i, err = d.Limits(b, i)
	if err != nil {
		return t, i, err
	}

	return t, i, nil
}

func (d *LowDecoder) GlobalType(b []byte, st int) (t GlobalType, i int, err error) {
	t.Type, i, err = d.ValType(b, st)
	if err != nil {
		return t, st, err
	}

	mut, i, err := d.Byte(b, i)
	if err != nil {
		return t, st, err
	}

	if Mut(mut) != MutConst && Mut(mut) != MutVar {
		return t, i - 1, errors.New("invalid mutability: 0x%02x", mut)
	}

	t.Mut = Mut(mut)

	return t, i, nil
}

func (d *LowDecoder) Section(b []byte, st int) (id byte, data []byte, i int, err error) {
	i = st

	if i+2 > len(b) {
		err = ErrUnexpectedEOF
		return
	}

	id = b[i]
	i++

	l, i, err := d.Int(b, i)
	if err != nil {
		return id, nil, st, err
	}

	if i+l > len(b) {
		return id, nil, st, ErrUnexpectedEOF
	}

	data = b[i : i+l]
	i += l

	return
}

func common(a, b []byte) (c int) {
	for c < len(a) && c < len(b) && a[c] == b[c] {
		c++
	}

	return
}
