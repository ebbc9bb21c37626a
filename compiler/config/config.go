package config

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/sym"
	"github.com/slowlang/ix/compiler/tp"
)

type (
	Config struct {
		// Package is the internal name prefix of emitted classes: "com/example".
		Package string            `toml:"package"`
		Modules map[string]Module `toml:"modules"`

		// Prelude modules are imported into every unit.
		Prelude []string `toml:"prelude"`

		// Dir is the directory of the loaded file.
		Dir string `toml:"-"`
	}

	// Module maps a name usable in `use <name>` to static methods of a host class.
	Module struct {
		Class string     `toml:"class"`
		Funcs []FuncDecl `toml:"funcs"`
	}

	FuncDecl struct {
		Name string `toml:"name"`
		Desc string `toml:"desc"`
	}
)

const FileName = "ix.toml"

//go:embed default.toml
var defaultConfig []byte

func Default() (*Config, error) {
	var c Config

	err := toml.Unmarshal(defaultConfig, &c)
	if err != nil {
		return nil, errors.Wrap(err, "default config")
	}

	return &c, nil
}

// Load reads the file at path and merges it over the default config.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var u Config

	err = toml.Unmarshal(data, &u)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", path)
	}

	c.Merge(&u)

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, "resolve %v", path)
	}

	return c, nil
}

// FindAndLoad walks up from dir looking for ix.toml.
// The default config is returned if there is none.
func FindAndLoad(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "abs")
	}

	for {
		path := filepath.Join(dir, FileName)

		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default()
		}

		dir = parent
	}
}

// Merge overrides c with non-zero settings of u.
// Modules are replaced as a whole.
func (c *Config) Merge(u *Config) {
	if u.Package != "" {
		c.Package = u.Package
	}

	if u.Prelude != nil {
		c.Prelude = u.Prelude
	}

	if c.Modules == nil && len(u.Modules) != 0 {
		c.Modules = map[string]Module{}
	}

	for name, m := range u.Modules {
		c.Modules[name] = m
	}
}

// Import adds module functions to r as static host methods.
func (c *Config) Import(r *sym.Registry, name string) error {
	m, ok := c.Modules[name]
	if !ok {
		return errors.New("unknown module: %v", name)
	}

	for _, f := range m.Funcs {
		sig, err := tp.ParseMethodDescriptor(f.Desc)
		if err != nil {
			return errors.Wrap(err, "module %v: func %v", name, f.Name)
		}

		fn := sym.Func{Kind: sym.Static, Name: f.Name, Owner: m.Class, Sig: sig}

		if _, ok := r.FindExact(fn.Name, sig.In); ok {
			continue
		}

		err = r.Add(fn)
		if err != nil {
			return errors.Wrap(err, "module %v", name)
		}
	}

	return nil
}

// Registry returns the builtins with the prelude modules imported.
func (c *Config) Registry() (*sym.Registry, error) {
	r := sym.Builtins()

	for _, name := range c.Prelude {
		err := c.Import(r, name)
		if err != nil {
			return nil, errors.Wrap(err, "prelude")
		}
	}

	return r, nil
}
