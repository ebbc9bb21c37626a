package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/config"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/format"
	"github.com/slowlang/ix/compiler/lex"
	"github.com/slowlang/ix/compiler/parse"
	"github.com/slowlang/ix/compiler/sym"
)

const symExt = ".ixsym"

func main() {
	lexCmd := &cli.Command{
		Name:        "lex",
		Description: "print tokens of source files",
		Action:      lexAct,
		Args:        cli.Args{},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse source files and print them back formatted",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source files into class files",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", ".", "output directory"),
			cli.NewFlag("config", "", "config file (default: ix.toml found upwards from the source)"),
			cli.NewFlag("package", "", "override package of emitted classes"),
			cli.NewFlag("import", "", "comma separated symbol files of units to compile against"),
			cli.NewFlag("export", false, "write exported symbols next to classes"),
			cli.NewFlag("list", false, "print class listings"),
		},
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print listings of class files",
		Action:      dumpAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "ix",
		Description: "ix compiles ix source code into jvm class files",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("debug", false, "report where in the compiler errors were raised"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			lexCmd,
			parseCmd,
			compileCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func newContext() context.Context {
	return tlog.ContextWithSpan(context.Background(), tlog.Root())
}

func lexAct(c *cli.Command) (err error) {
	ctx := newContext()

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		s, err := lex.Lex(ctx, text)
		if err != nil {
			return report(c, err, a)
		}

		for _, t := range s.Tokens() {
			fmt.Printf("%d:%d\t%v\t%q\n", t.Line, t.Col, t.Kind, t.Text)
		}
	}

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := newContext()

	for _, a := range c.Args {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return report(c, err, a)
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		os.Stdout.Write(b)
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := newContext()

	var imports []*sym.Registry

	for _, p := range strings.Split(c.String("import"), ",") {
		if p == "" {
			continue
		}

		r, err := loadSymbols(p)
		if err != nil {
			return errors.Wrap(err, "import %v", p)
		}

		imports = append(imports, r)
	}

	for _, a := range c.Args {
		cfg, err := loadConfig(c, a)
		if err != nil {
			return errors.Wrap(err, "config")
		}

		res, err := compiler.CompileFile(ctx, a, compiler.Options{Config: cfg, Imports: imports})
		if err != nil {
			return report(c, err, a)
		}

		out := c.String("output")

		err = compiler.WriteUnit(ctx, out, res.Unit)
		if err != nil {
			return errors.Wrap(err, "write %v", a)
		}

		if c.Bool("export") && res.Unit.Main != "" {
			err = saveSymbols(filepath.Join(out, filepath.FromSlash(res.Unit.Main)+symExt), res.Exports)
			if err != nil {
				return errors.Wrap(err, "export %v", a)
			}
		}

		if c.Bool("list") {
			for _, cls := range res.Unit.Classes {
				err = printClass(cls)
				if err != nil {
					return err
				}
			}
		}

		// units compiled later in the same run can use earlier ones
		imports = append(imports, res.Exports)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		b, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		cls, err := classfile.Parse(b)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		err = printClass(cls)
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}
	}

	return nil
}

func printClass(cls *classfile.Class) error {
	b, err := format.Class(nil, cls)
	if err != nil {
		return errors.Wrap(err, "class %v", cls.Name)
	}

	_, err = os.Stdout.Write(b)

	return err
}

func loadConfig(c *cli.Command, file string) (cfg *config.Config, err error) {
	if p := c.String("config"); p != "" {
		cfg, err = config.Load(p)
	} else {
		cfg, err = config.FindAndLoad(filepath.Dir(file))
	}

	if err != nil {
		return nil, err
	}

	if p := c.String("package"); p != "" {
		cfg.Package = p
	}

	return cfg, nil
}

func loadSymbols(path string) (*sym.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return sym.Unmarshal(data)
}

func saveSymbols(path string, r *sym.Registry) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// report prints compiler diagnostics the way users expect to see them.
func report(c *cli.Command, err error, file string) error {
	var d diag.Diagnostic
	if !errors.As(err, &d) {
		return errors.Wrap(err, "%v", file)
	}

	if c.Bool("debug") {
		fmt.Fprintln(os.Stderr, diag.RenderDebug(err, file))
	} else {
		fmt.Fprintln(os.Stderr, diag.Render(err, file))
	}

	return errors.New("%v: compilation failed", file)
}
