package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/config"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/sym"
)

func TestCompileAgainstExports(t *testing.T) {
	ctx := context.Background()

	lib, err := Compile(ctx, "lib.ix", []byte("pub def add(a: int, b: int): int { return a + b }\n"), Options{})
	require.NoError(t, err)

	data, err := lib.Exports.Marshal()
	require.NoError(t, err)

	exports, err := sym.Unmarshal(data)
	require.NoError(t, err)

	src := []byte("println(add(1, 2))\n")

	_, err = Compile(ctx, "app.ix", src, Options{})

	var ue *diag.UnresolvedCallError
	require.True(t, errors.As(err, &ue), "err: %v", err)
	assert.Equal(t, "add", ue.Name)

	res, err := Compile(ctx, "app.ix", src, Options{Imports: []*sym.Registry{exports}})
	require.NoError(t, err)

	require.Len(t, res.Unit.Classes, 1)
	assert.Equal(t, "appixc", res.Unit.Main)
}

func TestCompilePackage(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.Package = "com/example"

	res, err := Compile(context.Background(), "dir/hello.world.ix", []byte(`
type Point = struct { x: int }
println("hi")
`), Options{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, "com/example/helloixc", res.Unit.Main)
	assert.NotNil(t, res.Unit.Class("com/example/helloixc"))
	assert.NotNil(t, res.Unit.Class("com/example/Point"))
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		src string
		err any
	}{
		{"x = \"abc", &diag.LexError{}},
		{"var = 1", &diag.ParseError{}},
		{"println(y)", &diag.UnresolvedNameError{}},
		{"var x: int = \"s\"", &diag.CompileError{}},
	} {
		_, err := Compile(ctx, "bad.ix", []byte(tc.src), Options{})
		require.Error(t, err, "src: %s", tc.src)

		switch tc.err.(type) {
		case *diag.LexError:
			var e *diag.LexError
			assert.True(t, errors.As(err, &e), "src: %s: %v", tc.src, err)
		case *diag.ParseError:
			var e *diag.ParseError
			assert.True(t, errors.As(err, &e), "src: %s: %v", tc.src, err)
		case *diag.UnresolvedNameError:
			var e *diag.UnresolvedNameError
			assert.True(t, errors.As(err, &e), "src: %s: %v", tc.src, err)
		case *diag.CompileError:
			var e *diag.CompileError
			assert.True(t, errors.As(err, &e), "src: %s: %v", tc.src, err)
		}
	}
}

func TestCompileFileAndWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "main.ix")
	err := os.WriteFile(src, []byte("def main() { println(1) }\n"), 0o644)
	require.NoError(t, err)

	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.Package = "app"

	res, err := CompileFile(ctx, src, Options{Config: cfg})
	require.NoError(t, err)

	out := filepath.Join(dir, "out")

	err = WriteUnit(ctx, out, res.Unit)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(out, "app", "mainixc.class"))
	require.NoError(t, err)

	c, err := classfile.Parse(b)
	require.NoError(t, err)

	assert.Equal(t, "app/mainixc", c.Name)
	assert.Equal(t, "main.ix", c.SourceFile)
	assert.NotNil(t, c.Method("main", "([Ljava/lang/String;)V"))

	_, err = CompileFile(ctx, filepath.Join(dir, "missing.ix"), Options{})
	assert.Error(t, err)
}
