package classfile

import (
	"encoding/binary"
	"unicode/utf16"

	"tlog.app/go/errors"
)

type reader struct {
	b   []byte
	i   int
	err error
}

var ErrShortBuffer = errors.New("unexpected end of class file")

// Parse decodes a class file produced by Bytes.
// Attributes other than Code and SourceFile are skipped.
func Parse(b []byte) (c *Class, err error) {
	r := &reader{b: b}

	if magic := r.u32(); magic != Magic {
		return nil, errors.New("bad magic: %x", magic)
	}

	r.u16() // minor

	if major := r.u16(); major > MajorVersion {
		return nil, errors.New("unsupported class file version: %d", major)
	}

	p, err := r.pool()
	if err != nil {
		return nil, errors.Wrap(err, "constant pool")
	}

	c = &Class{Pool: p}

	c.Access = Access(r.u16())
	c.Name = r.className(p)
	c.Super = r.className(p)

	for n := r.u16(); n > 0; n-- {
		r.u16()
	}

	for n := r.u16(); n > 0 && r.err == nil; n-- {
		f := Field{
			Access: Access(r.u16()),
			Name:   r.utf8(p),
			Desc:   r.utf8(p),
		}

		r.skipAttrs()

		c.Fields = append(c.Fields, f)
	}

	for n := r.u16(); n > 0 && r.err == nil; n-- {
		m := &Method{
			Access: Access(r.u16()),
			Name:   r.utf8(p),
			Desc:   r.utf8(p),
		}

		for k := r.u16(); k > 0 && r.err == nil; k-- {
			name := r.utf8(p)
			l := int(r.u32())

			if name != "Code" {
				r.skip(l)
				continue
			}

			m.MaxStack = int(r.u16())
			m.MaxLocals = int(r.u16())
			m.Code = r.bytes(int(r.u32()))

			r.skip(8 * int(r.u16()))
			r.skipAttrs()
		}

		c.Methods = append(c.Methods, m)
	}

	for k := r.u16(); k > 0 && r.err == nil; k-- {
		name := r.utf8(p)
		l := int(r.u32())

		if name == "SourceFile" && l == 2 {
			c.SourceFile = r.utf8(p)
			continue
		}

		r.skip(l)
	}

	if r.err != nil {
		return nil, r.err
	}

	if r.i != len(r.b) {
		return nil, errors.New("%d trailing bytes", len(r.b)-r.i)
	}

	return c, nil
}

func (r *reader) pool() (*Pool, error) {
	p := NewPool()
	n := int(r.u16())

	for i := 1; i < n && r.err == nil; i++ {
		c := Const{Tag: Tag(r.u8())}

		switch c.Tag {
		case TagUtf8:
			c.Str = decodeUtf8(r.bytes(int(r.u16())))
		case TagInteger, TagFloat:
			c.Bits = uint64(r.u32())
		case TagLong, TagDouble:
			c.Bits = r.u64()
		case TagClass, TagString:
			c.A = r.u16()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType:
			c.A = r.u16()
			c.B = r.u16()
		default:
			return nil, errors.New("unsupported constant tag %d at %d", c.Tag, i)
		}

		p.list = append(p.list, c)
		p.idx[c] = uint16(i)

		if c.Tag == TagLong || c.Tag == TagDouble {
			p.list = append(p.list, Const{})
			i++
		}
	}

	return p, r.err
}

func (r *reader) className(p *Pool) string {
	c, ok := p.Get(r.u16())
	if !ok || c.Tag != TagClass {
		r.fail(errors.New("bad class reference at %d", r.i-2))
		return ""
	}

	s, _ := p.Get(c.A)

	return s.Str
}

func (r *reader) utf8(p *Pool) string {
	c, ok := p.Get(r.u16())
	if !ok || c.Tag != TagUtf8 {
		r.fail(errors.New("bad utf8 reference at %d", r.i-2))
		return ""
	}

	return c.Str
}

func (r *reader) skipAttrs() {
	for n := r.u16(); n > 0 && r.err == nil; n-- {
		r.u16()
		r.skip(int(r.u32()))
	}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n > len(r.b)-r.i {
		r.fail(ErrShortBuffer)
		return nil
	}

	b := r.b[r.i : r.i+n]
	r.i += n

	return b
}

func (r *reader) skip(n int) { r.bytes(n) }

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint64(b)
}

func decodeUtf8(b []byte) string {
	u := make([]uint16, 0, len(b))

	for i := 0; i < len(b); {
		switch x := b[i]; {
		case x < 0x80:
			u = append(u, uint16(x))
			i++
		case x&0xe0 == 0xc0 && i+1 < len(b):
			u = append(u, uint16(x&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case x&0xf0 == 0xe0 && i+2 < len(b):
			u = append(u, uint16(x&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			u = append(u, 0xfffd)
			i++
		}
	}

	return string(utf16.Decode(u))
}
