package classfile

import (
	"encoding/binary"
	"math"

	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/asm"
)

type (
	Access uint16

	Class struct {
		Access Access
		Name   string
		Super  string

		Fields  []Field
		Methods []*Method

		SourceFile string

		Pool *Pool
	}

	Field struct {
		Access Access
		Name   string
		Desc   string
	}

	Method struct {
		Access Access
		Name   string
		Desc   string

		MaxStack  int
		MaxLocals int
		Code      []byte

		// Instrs are kept for listings of freshly built classes.
		Instrs []asm.Instr
	}

	// Unit is the set of classes emitted for one source file.
	Unit struct {
		Main    string
		Classes []*Class
	}
)

const (
	Public    Access = 0x0001
	Private   Access = 0x0002
	Protected Access = 0x0004
	Static    Access = 0x0008
	Final     Access = 0x0010
	Super     Access = 0x0020
	Abstract  Access = 0x0400
)

const (
	Magic        = 0xCAFEBABE
	MajorVersion = 49
	MinorVersion = 0
)

const ObjectClass = "java/lang/Object"

func NewClass(name, super string, access Access) *Class {
	if super == "" {
		super = ObjectClass
	}

	return &Class{
		Access: access,
		Name:   name,
		Super:  super,
		Pool:   NewPool(),
	}
}

func (c *Class) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}

	return false
}

func (c *Class) AddField(access Access, name, desc string) {
	c.Fields = append(c.Fields, Field{Access: access, Name: name, Desc: desc})
}

// AddMethod builds the method and appends it to the class.
func (c *Class) AddMethod(access Access, name, desc string, code *asm.Code, maxLocals int) (m *Method, err error) {
	m, err = c.Build(access, name, desc, code, maxLocals)
	if err != nil {
		return nil, err
	}

	c.Methods = append(c.Methods, m)

	return m, nil
}

// Build verifies and assembles code into a method of the class.
// The method is not added to the class.
func (c *Class) Build(access Access, name, desc string, code *asm.Code, maxLocals int) (m *Method, err error) {
	if err = code.Err(); err != nil {
		return nil, errors.Wrap(err, "method %v%v", name, desc)
	}

	maxStack, err := asm.Analyze(code)
	if err != nil {
		return nil, errors.Wrap(err, "method %v%v", name, desc)
	}

	b, err := asm.Assemble(code, c.Pool)
	if err != nil {
		return nil, errors.Wrap(err, "method %v%v", name, desc)
	}

	m = &Method{
		Access:    access,
		Name:      name,
		Desc:      desc,
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		Code:      b,
		Instrs:    code.Instrs,
	}

	return m, nil
}

func (c *Class) Method(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && (desc == "" || m.Desc == desc) {
			return m
		}
	}

	return nil
}

// Bytes encodes the class file.
func (c *Class) Bytes() (_ []byte, err error) {
	p := c.Pool

	this := p.Class(c.Name)
	super := p.Class(c.Super)

	var body []byte
	be := binary.BigEndian

	body = be.AppendUint16(body, uint16(c.Access))
	body = be.AppendUint16(body, this)
	body = be.AppendUint16(body, super)
	body = be.AppendUint16(body, 0) // interfaces

	body = be.AppendUint16(body, uint16(len(c.Fields)))

	for _, f := range c.Fields {
		body = be.AppendUint16(body, uint16(f.Access))
		body = be.AppendUint16(body, p.Utf8(f.Name))
		body = be.AppendUint16(body, p.Utf8(f.Desc))
		body = be.AppendUint16(body, 0)
	}

	body = be.AppendUint16(body, uint16(len(c.Methods)))

	for _, m := range c.Methods {
		body, err = c.appendMethod(body, m)
		if err != nil {
			return nil, errors.Wrap(err, "method %v", m.Name)
		}
	}

	if c.SourceFile != "" {
		body = be.AppendUint16(body, 1)
		body = be.AppendUint16(body, p.Utf8("SourceFile"))
		body = be.AppendUint32(body, 2)
		body = be.AppendUint16(body, p.Utf8(c.SourceFile))
	} else {
		body = be.AppendUint16(body, 0)
	}

	if err = p.Err(); err != nil {
		return nil, errors.Wrap(err, "class %v", c.Name)
	}

	b := make([]byte, 0, 10+len(body)+16*p.Len())

	b = be.AppendUint32(b, Magic)
	b = be.AppendUint16(b, MinorVersion)
	b = be.AppendUint16(b, MajorVersion)

	b, err = p.appendTo(b)
	if err != nil {
		return nil, errors.Wrap(err, "class %v", c.Name)
	}

	b = append(b, body...)

	return b, nil
}

func (c *Class) appendMethod(b []byte, m *Method) ([]byte, error) {
	p := c.Pool
	be := binary.BigEndian

	b = be.AppendUint16(b, uint16(m.Access))
	b = be.AppendUint16(b, p.Utf8(m.Name))
	b = be.AppendUint16(b, p.Utf8(m.Desc))

	if m.Access&Abstract != 0 {
		return be.AppendUint16(b, 0), nil
	}

	if m.MaxStack > math.MaxUint16 || m.MaxLocals > math.MaxUint16 {
		return nil, errors.New("frame too large: stack %d, locals %d", m.MaxStack, m.MaxLocals)
	}

	b = be.AppendUint16(b, 1)
	b = be.AppendUint16(b, p.Utf8("Code"))
	b = be.AppendUint32(b, uint32(12+len(m.Code)))
	b = be.AppendUint16(b, uint16(m.MaxStack))
	b = be.AppendUint16(b, uint16(m.MaxLocals))
	b = be.AppendUint32(b, uint32(len(m.Code)))
	b = append(b, m.Code...)
	b = be.AppendUint16(b, 0) // exception table
	b = be.AppendUint16(b, 0) // attributes

	return b, nil
}

func (p *Pool) appendTo(b []byte) ([]byte, error) {
	be := binary.BigEndian

	b = be.AppendUint16(b, uint16(len(p.list)))

	for i := 1; i < len(p.list); i++ {
		c := p.list[i]

		b = append(b, byte(c.Tag))

		switch c.Tag {
		case TagUtf8:
			s := encodeUtf8(c.Str)
			if len(s) > math.MaxUint16 {
				return nil, errors.New("string constant too long: %d bytes", len(s))
			}

			b = be.AppendUint16(b, uint16(len(s)))
			b = append(b, s...)
		case TagInteger, TagFloat:
			b = be.AppendUint32(b, uint32(c.Bits))
		case TagLong, TagDouble:
			b = be.AppendUint64(b, c.Bits)
			i++
		case TagClass, TagString:
			b = be.AppendUint16(b, c.A)
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType:
			b = be.AppendUint16(b, c.A)
			b = be.AppendUint16(b, c.B)
		default:
			return nil, errors.New("bad constant tag %d at %d", c.Tag, i)
		}
	}

	return b, nil
}

// encodeUtf8 converts to the modified UTF-8 of class files:
// NUL is two bytes and supplementary characters are surrogate pairs.
func encodeUtf8(s string) []byte {
	b := make([]byte, 0, len(s))

	for _, r := range s {
		switch {
		case r == 0:
			b = append(b, 0xc0, 0x80)
		case r < 0x80:
			b = append(b, byte(r))
		case r < 0x800:
			b = append(b, 0xc0|byte(r>>6), 0x80|byte(r&0x3f))
		case r < 0x10000:
			b = append3(b, r)
		default:
			r -= 0x10000
			b = append3(b, 0xd800+(r>>10))
			b = append3(b, 0xdc00+(r&0x3ff))
		}
	}

	return b
}

func append3(b []byte, r rune) []byte {
	return append(b, 0xe0|byte(r>>12), 0x80|byte(r>>6&0x3f), 0x80|byte(r&0x3f))
}

func (u *Unit) Class(name string) *Class {
	for _, c := range u.Classes {
		if c.Name == name {
			return c
		}
	}

	return nil
}
