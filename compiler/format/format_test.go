package format

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ix/compiler/back"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/parse"
	"github.com/slowlang/ix/compiler/sym"
)

func formatSource(t *testing.T, src string) string {
	t.Helper()

	ctx := context.Background()

	prog, err := parse.Parse(ctx, []byte(src))
	require.NoError(t, err)

	b, err := Format(ctx, nil, prog)
	require.NoError(t, err)

	return string(b)
}

func TestFormat(t *testing.T) {
	src := `use <math>
var x = 1 + 2 * 3
pub const y: int? = -x
def f(a: int, b: int[]): int {
	return a
}
type P = struct {
	x: int
	def get(): int { return x }
}
for i : 0..10 { if i > 2 { break } else { continue } }
p.x += f(1, [2, 3], a[0])
`

	exp := `use <math>
var x = 1 + (2 * 3)
pub const y: int? = -x

def f(a: int, b: int[]): int {
	return a
}

type P = struct {
	x: int

	def get(): int {
		return x
	}
}
for i : 0..10 {
	if i > 2 {
		break
	} else {
		continue
	}
}
p.x += f(1, [2, 3], a[0])
`

	assert.Equal(t, exp, formatSource(t, src))
}

func TestFormatCase(t *testing.T) {
	src := `pub type N = int | string?
def f(v: N): int {
case v {
int i => return i
string? s => { return 0 }
}
}
`

	exp := "pub type N = int | string?\n" +
		"\n" +
		"def f(v: N): int {\n" +
		"\tcase v {\n" +
		"\t\tint i => {\n" +
		"\t\t\treturn i\n" +
		"\t\t}\n" +
		"\t\tstring? s => {\n" +
		"\t\t\treturn 0\n" +
		"\t\t}\n" +
		"\t}\n" +
		"}\n"

	once := formatSource(t, src)
	assert.Equal(t, exp, once)
	assert.Equal(t, once, formatSource(t, once))
}

func TestFormatStable(t *testing.T) {
	src := `var a = [1, 2]
a[1] = (a[0] + 2) ** 2 - 1
while !(a[0] >= 3 || false) {
	a = [a[0] + 1]
	x++
}
if a == null {} else if true { println("a\n") }
def g() { return }
s = new P(1, 'c').get()
`

	once := formatSource(t, src)
	twice := formatSource(t, once)

	assert.Equal(t, once, twice)
	assert.Contains(t, once, "a[1] = ((a[0] + 2) ** 2) - 1\n")
	assert.Contains(t, once, "def g() {\n\treturn\n}\n")
}

func TestCode(t *testing.T) {
	code := []byte{
		0x15, 5, // iload 5
		0xc4, 0x84, 0x01, 0x00, 0xff, 0xff, // wide iinc 256 -1
		0xa7, 0xff, 0xf8, // goto 0
	}

	b, err := Code(nil, classfile.NewPool(), code)
	require.NoError(t, err)

	assert.Equal(t, "\t\t   0: iload 5\n\t\t   2: iinc 256 -1\n\t\t   8: goto 0\n", string(b))

	_, err = Code(nil, classfile.NewPool(), code[:len(code)-1])
	assert.Error(t, err)
}

func TestClass(t *testing.T) {
	ctx := context.Background()

	prog, err := parse.Parse(ctx, []byte("var x = 1\nprintln(x + 2)\n"))
	require.NoError(t, err)

	u, _, err := back.New(sym.Builtins(), nil).Compile(ctx, "list.ix", prog)
	require.NoError(t, err)
	require.Len(t, u.Classes, 1)

	c := u.Classes[0]

	list, err := Class(nil, c)
	require.NoError(t, err)

	s := string(list)

	assert.True(t, strings.HasPrefix(s, "public class listixc  // list.ix {\n"), "%s", s)
	assert.Contains(t, s, "\tstatic x I\n")
	assert.Contains(t, s, "static <clinit>()V")
	assert.Contains(t, s, "getstatic java/lang/System.out:Ljava/io/PrintStream;\n")
	assert.Contains(t, s, "getstatic listixc.x:I\n")
	assert.Contains(t, s, "invokevirtual java/io/PrintStream.println:(I)V\n")

	raw, err := c.Bytes()
	require.NoError(t, err)

	parsed, err := classfile.Parse(raw)
	require.NoError(t, err)

	list2, err := Class(nil, parsed)
	require.NoError(t, err)

	assert.Equal(t, s, string(list2))
}
