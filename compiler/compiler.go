package compiler

import (
	"context"
	"os"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler/back"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/config"
	"github.com/slowlang/ix/compiler/lex"
	"github.com/slowlang/ix/compiler/parse"
	"github.com/slowlang/ix/compiler/sym"
)

type (
	Options struct {
		// Config provides the package name and importable modules.
		// config.Default is used if nil.
		Config *config.Config

		// Imports are exports of previously compiled units.
		Imports []*sym.Registry
	}

	Result struct {
		Unit    *classfile.Unit
		Exports *sym.Registry
	}
)

func CompileFile(ctx context.Context, name string, opts Options) (res *Result, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile runs the whole pipeline over the source text.
// Diagnostics are returned as diag errors unwrapped so callers can render them.
func Compile(ctx context.Context, name string, text []byte, opts Options) (res *Result, err error) {
	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Default()
		if err != nil {
			return nil, err
		}
	}

	funcs, err := cfg.Registry()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	for _, imp := range opts.Imports {
		err = funcs.Merge(imp)
		if err != nil {
			return nil, errors.Wrap(err, "imports")
		}
	}

	s, err := lex.Lex(ctx, text)
	if err != nil {
		return nil, err
	}

	prog, err := parse.New(s).Parse(ctx)
	if err != nil {
		return nil, err
	}

	c := back.New(funcs, cfg)
	c.Package = cfg.Package

	u, exports, err := c.Compile(ctx, name, prog)
	if err != nil {
		return nil, err
	}

	return &Result{Unit: u, Exports: exports}, nil
}

// WriteUnit writes class files under dir following their internal names.
func WriteUnit(ctx context.Context, dir string, u *classfile.Unit) (err error) {
	tr := tlog.SpanFromContext(ctx)

	for _, c := range u.Classes {
		b, err := c.Bytes()
		if err != nil {
			return errors.Wrap(err, "encode %v", c.Name)
		}

		path := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")

		err = os.MkdirAll(filepath.Dir(path), 0o755)
		if err != nil {
			return errors.Wrap(err, "mkdir")
		}

		err = os.WriteFile(path, b, 0o644)
		if err != nil {
			return errors.Wrap(err, "write %v", path)
		}

		tr.V("write").Printw("class written", "class", c.Name, "path", path, "size", len(b))
	}

	return nil
}
