package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/tp"
)

func TestPoolDedup(t *testing.T) {
	p := NewPool()

	a := p.Method("java/io/PrintStream", "println", "(I)V")
	b := p.Method("java/io/PrintStream", "println", "(I)V")
	assert.Equal(t, a, b)

	l := p.Long(5)
	d := p.Double(1.5)
	assert.Equal(t, l+2, d, "longs take two slots")

	assert.Equal(t, `"hi"`, string(p.Describe(nil, p.String("hi"))))
	assert.Equal(t, "java/io/PrintStream.println:(I)V", string(p.Describe(nil, a)))
	assert.Equal(t, "5L", string(p.Describe(nil, l)))
}

func TestRoundTrip(t *testing.T) {
	c := NewClass("demo/mainixc", "", Public|Super)
	c.SourceFile = "main.ix"
	c.AddField(Private|Static, "x", "I")

	code := asm.NewCode()
	code.Int(5)
	require.NoError(t, code.Field(asm.PUTSTATIC, asm.Ref{Class: c.Name, Name: "x", Desc: "I"}))
	require.NoError(t, code.Field(asm.GETSTATIC, asm.Ref{Class: "java/lang/System", Name: "out", Desc: "Ljava/io/PrintStream;"}))
	code.String("héllo\x00𝄞")
	require.NoError(t, code.Invoke(asm.INVOKEVIRTUAL, asm.Ref{Class: "java/io/PrintStream", Name: "println", Desc: "(Ljava/lang/Object;)V"}))
	code.Return(tp.Void)

	m, err := c.AddMethod(Static, "<clinit>", "()V", code, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, m.MaxStack)

	b, err := c.Bytes()
	require.NoError(t, err)

	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 49}, b[:8])

	x, err := Parse(b)
	require.NoError(t, err)

	assert.Equal(t, c.Name, x.Name)
	assert.Equal(t, ObjectClass, x.Super)
	assert.Equal(t, Public|Super, x.Access)
	assert.Equal(t, "main.ix", x.SourceFile)
	assert.Equal(t, c.Fields, x.Fields)

	require.Len(t, x.Methods, 1)

	xm := x.Method("<clinit>", "()V")
	require.NotNil(t, xm)
	assert.Equal(t, m.Code, xm.Code)
	assert.Equal(t, 2, xm.MaxStack)

	assert.Equal(t, `"héllo\x00𝄞"`, string(x.Pool.Describe(nil, uint16(xm.Code[len(xm.Code)-5]))))
}

func TestAddMethodErrors(t *testing.T) {
	c := NewClass("A", "", Public)

	code := asm.NewCode()
	code.Int(1)

	_, err := c.AddMethod(Static, "f", "()V", code, 0)
	assert.Error(t, err, "falls off the end")

	code = asm.NewCode()
	code.Op(asm.IADD)

	_, err = c.AddMethod(Static, "g", "()V", code, 0)
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3, 4})
	assert.Error(t, err)

	c := NewClass("A", "", Public)
	b, err := c.Bytes()
	require.NoError(t, err)

	_, err = Parse(b[:len(b)-1])
	assert.ErrorIs(t, err, ErrShortBuffer)
}
