package classfile

import (
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

type (
	Tag uint8

	// Const is a constant pool entry.
	// Str is set for Utf8, A and B reference other entries,
	// Bits holds numeric values.
	Const struct {
		Tag  Tag
		Str  string
		Bits uint64
		A, B uint16
	}

	// Pool is a deduplicating constant pool.
	// Index 0 is unused as the class file format requires.
	Pool struct {
		list []Const
		idx  map[Const]uint16

		err error
	}
)

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
)

var ErrPoolOverflow = errors.New("constant pool overflow")

func NewPool() *Pool {
	return &Pool{
		list: make([]Const, 1),
		idx:  map[Const]uint16{},
	}
}

// Err returns ErrPoolOverflow if too many constants were added.
func (p *Pool) Err() error { return p.err }

// Len is the constant_pool_count value.
func (p *Pool) Len() int { return len(p.list) }

// Get returns the entry at index i.
func (p *Pool) Get(i uint16) (Const, bool) {
	if i == 0 || int(i) >= len(p.list) {
		return Const{}, false
	}

	return p.list[i], true
}

func (p *Pool) add(c Const) uint16 {
	if i, ok := p.idx[c]; ok {
		return i
	}

	slots := 1
	if c.Tag == TagLong || c.Tag == TagDouble {
		slots = 2
	}

	if len(p.list)+slots > math.MaxUint16 {
		if p.err == nil {
			p.err = ErrPoolOverflow
		}

		return 0
	}

	i := uint16(len(p.list))
	p.list = append(p.list, c)

	if slots == 2 {
		p.list = append(p.list, Const{})
	}

	p.idx[c] = i

	return i
}

func (p *Pool) Utf8(s string) uint16 {
	return p.add(Const{Tag: TagUtf8, Str: s})
}

func (p *Pool) Class(name string) uint16 {
	return p.add(Const{Tag: TagClass, A: p.Utf8(name)})
}

func (p *Pool) String(s string) uint16 {
	return p.add(Const{Tag: TagString, A: p.Utf8(s)})
}

func (p *Pool) Int(v int32) uint16 {
	return p.add(Const{Tag: TagInteger, Bits: uint64(uint32(v))})
}

func (p *Pool) Float(v float32) uint16 {
	return p.add(Const{Tag: TagFloat, Bits: uint64(math.Float32bits(v))})
}

func (p *Pool) Long(v int64) uint16 {
	return p.add(Const{Tag: TagLong, Bits: uint64(v)})
}

func (p *Pool) Double(v float64) uint16 {
	return p.add(Const{Tag: TagDouble, Bits: math.Float64bits(v)})
}

func (p *Pool) NameAndType(name, desc string) uint16 {
	return p.add(Const{Tag: TagNameAndType, A: p.Utf8(name), B: p.Utf8(desc)})
}

func (p *Pool) Field(class, name, desc string) uint16 {
	return p.member(TagFieldref, class, name, desc)
}

func (p *Pool) Method(class, name, desc string) uint16 {
	return p.member(TagMethodref, class, name, desc)
}

func (p *Pool) InterfaceMethod(class, name, desc string) uint16 {
	return p.member(TagInterfaceMethodref, class, name, desc)
}

func (p *Pool) member(tag Tag, class, name, desc string) uint16 {
	return p.add(Const{Tag: tag, A: p.Class(class), B: p.NameAndType(name, desc)})
}

// Describe appends human readable form of the entry at index i.
func (p *Pool) Describe(b []byte, i uint16) []byte {
	c, ok := p.Get(i)
	if !ok {
		return hfmt.Appendf(b, "#%d?", i)
	}

	switch c.Tag {
	case TagUtf8:
		return append(b, c.Str...)
	case TagInteger:
		return strconv.AppendInt(b, int64(int32(c.Bits)), 10)
	case TagFloat:
		b = strconv.AppendFloat(b, float64(math.Float32frombits(uint32(c.Bits))), 'g', -1, 32)
		return append(b, 'f')
	case TagLong:
		b = strconv.AppendInt(b, int64(c.Bits), 10)
		return append(b, 'L')
	case TagDouble:
		return strconv.AppendFloat(b, math.Float64frombits(c.Bits), 'g', -1, 64)
	case TagClass:
		return p.Describe(b, c.A)
	case TagString:
		s, _ := p.Get(c.A)
		return strconv.AppendQuote(b, s.Str)
	case TagNameAndType:
		b = p.Describe(b, c.A)
		b = append(b, ':')
		return p.Describe(b, c.B)
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		b = p.Describe(b, c.A)
		b = append(b, '.')
		return p.Describe(b, c.B)
	}

	return hfmt.Appendf(b, "#%d(tag %d)", i, c.Tag)
}
