package asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ix/compiler/tp"
)

type testPool struct {
	idx  map[string]uint16
	next uint16
}

func newTestPool(start uint16) *testPool {
	return &testPool{idx: map[string]uint16{}, next: start}
}

func (p *testPool) get(k string) uint16 {
	if i, ok := p.idx[k]; ok {
		return i
	}

	i := p.next
	p.idx[k] = i
	p.next++

	return i
}

func (p *testPool) Class(name string) uint16 { return p.get("c:" + name) }
func (p *testPool) String(s string) uint16   { return p.get("s:" + s) }
func (p *testPool) Int(v int32) uint16       { return p.get(fmt.Sprintf("i:%d", v)) }
func (p *testPool) Float(v float32) uint16   { return p.get(fmt.Sprintf("f:%v", v)) }
func (p *testPool) Long(v int64) uint16      { return p.get(fmt.Sprintf("l:%d", v)) }
func (p *testPool) Double(v float64) uint16  { return p.get(fmt.Sprintf("d:%v", v)) }

func (p *testPool) Field(c, n, d string) uint16  { return p.get("F:" + c + n + d) }
func (p *testPool) Method(c, n, d string) uint16 { return p.get("M:" + c + n + d) }
func (p *testPool) InterfaceMethod(c, n, d string) uint16 {
	return p.get("I:" + c + n + d)
}

func TestPrintSum(t *testing.T) {
	c := NewCode()

	require.NoError(t, c.Field(GETSTATIC, Ref{Class: "java/lang/System", Name: "out", Desc: "Ljava/io/PrintStream;"}))
	c.Int(3)
	require.NoError(t, c.Invoke(INVOKEVIRTUAL, Ref{Class: "java/io/PrintStream", Name: "println", Desc: "(I)V"}))
	c.Return(tp.Void)

	require.NoError(t, c.Err())
	assert.Equal(t, 2, c.MaxStack())
	assert.Equal(t, 0, c.Depth())

	ms, err := Analyze(c)
	require.NoError(t, err)
	assert.Equal(t, 2, ms)

	b, err := Assemble(c, newTestPool(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(GETSTATIC), 0, 1,
		byte(ICONST_3),
		byte(INVOKEVIRTUAL), 0, 2,
		byte(RETURN),
	}, b)
}

func TestIntForms(t *testing.T) {
	c := NewCode()

	c.Int(-1)
	c.Int(100)
	c.Int(1000)
	c.Int(100000)
	c.Long(1)
	c.Long(7)
	c.Double(1)

	ops := []Op{}
	for _, in := range c.Instrs {
		ops = append(ops, in.Op)
	}

	assert.Equal(t, []Op{ICONST_M1, BIPUSH, SIPUSH, LDC, LCONST_1, LDC2_W, DCONST_1}, ops)
	assert.Equal(t, 10, c.Depth())
}

func TestLocalForms(t *testing.T) {
	c := NewCode()

	c.Load(tp.Int, 0)
	c.Store(tp.Int, 3)
	c.Load(tp.Long, 4)
	c.Store(tp.Long, 300)
	c.Load(tp.String, 1)
	c.Store(tp.Double, 2)
	c.Inc(1, 1)
	c.Inc(2, 1000)

	b, err := Assemble(c, newTestPool(1))
	require.Error(t, err, "double stored from a reference underflows")
	assert.Nil(t, b)

	c = NewCode()

	c.Load(tp.Int, 0)
	c.Store(tp.Int, 3)
	c.Load(tp.Long, 4)
	c.Store(tp.Long, 300)
	c.Load(tp.String, 1)
	c.Store(tp.String, 2)
	c.Inc(1, 1)
	c.Inc(2, 1000)

	require.NoError(t, c.Err())

	b, err = Assemble(c, newTestPool(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(ILOAD_0),
		byte(ISTORE_0) + 3,
		byte(LLOAD), 4,
		byte(WIDE), byte(LSTORE), 1, 44,
		byte(ALOAD_0) + 1,
		byte(ASTORE_0) + 2,
		byte(IINC), 1, 1,
		byte(WIDE), byte(IINC), 0, 2, 0x03, 0xe8,
	}, b)
}

func TestBranches(t *testing.T) {
	c := NewCode()

	els := c.NewLabel()
	end := c.NewLabel()

	c.Load(tp.Int, 0)
	c.Jump(IFEQ, els)
	c.Int(1)
	c.Jump(GOTO, end)

	assert.False(t, c.Reachable())

	c.Bind(els)
	c.Int(2)
	c.Bind(end)
	c.Return(tp.Int)

	require.NoError(t, c.Err())

	ms, err := Analyze(c)
	require.NoError(t, err)
	assert.Equal(t, 1, ms)

	b, err := Assemble(c, newTestPool(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(ILOAD_0),
		byte(IFEQ), 0, 7,
		byte(ICONST_1),
		byte(GOTO), 0, 4,
		byte(ICONST_2),
		byte(IRETURN),
	}, b)
}

func TestBackwardJump(t *testing.T) {
	c := NewCode()

	top := c.NewLabel()
	c.Bind(top)
	c.Inc(0, 1)
	c.Jump(GOTO, top)

	b, err := Assemble(c, newTestPool(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(IINC), 0, 1, byte(GOTO), 0xff, 0xfd}, b)
}

func TestDepthMismatch(t *testing.T) {
	c := NewCode()

	l := c.NewLabel()

	c.Load(tp.Int, 0)
	c.Jump(IFEQ, l)
	c.Int(1)
	c.Bind(l)

	assert.Error(t, c.Err())
}

func TestAnalyzeFallsOff(t *testing.T) {
	c := NewCode()
	c.Int(1)
	c.Op(POP)

	_, err := Analyze(c)
	assert.Error(t, err)

	c = NewCode()
	l := c.NewLabel()
	c.Jump(GOTO, l)

	_, err = Analyze(c)
	assert.Error(t, err, "unbound label")
}

func TestUnderflow(t *testing.T) {
	c := NewCode()
	c.Op(IADD)

	assert.Error(t, c.Err())
}

func TestInvokeEffects(t *testing.T) {
	c := NewCode()

	c.Type(NEW, "java/lang/StringBuilder")
	c.Op(DUP)
	require.NoError(t, c.Invoke(INVOKESPECIAL, Ref{Class: "java/lang/StringBuilder", Name: "<init>", Desc: "()V"}))
	c.Long(5)
	require.NoError(t, c.Invoke(INVOKEVIRTUAL, Ref{Class: "java/lang/StringBuilder", Name: "append", Desc: "(J)Ljava/lang/StringBuilder;"}))
	assert.Equal(t, 1, c.Depth())
	assert.Equal(t, 3, c.MaxStack())

	require.NoError(t, c.Invoke(INVOKEINTERFACE, Ref{Class: "java/util/List", Name: "size", Desc: "()I"}))
	assert.Equal(t, 1, c.Depth())

	assert.Error(t, c.Invoke(GOTO, Ref{Desc: "()V"}))
	assert.Error(t, c.Invoke(INVOKESTATIC, Ref{Desc: "(Q)V"}))
}

func TestNegate(t *testing.T) {
	assert.Equal(t, IFNE, IFEQ.Negate())
	assert.Equal(t, IF_ICMPLT, IF_ICMPGE.Negate())
	assert.Equal(t, IFNONNULL, IFNULL.Negate())
	assert.Equal(t, "invokestatic", INVOKESTATIC.String())
}
