// Package project gathers the per-file configuration of a C code base:
// cnav.toml, compile_commands.json and .clangd.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Project struct {
	Root       string
	ConfigPath string // empty without cnav.toml
	Config     Config
	CompDB     *CompDB
	Clangd     *Clangd
}

// Open locates the project containing startDir. Without a cnav.toml the
// root is startDir itself and the default configuration applies. A
// compilation database or .clangd that is present but malformed is an
// error; a missing one is not.
func Open(startDir string) (*Project, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", startDir, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	cfgPath, ok, err := FindConfig(abs)
	if err != nil {
		return nil, err
	}
	if ok {
		return OpenConfig(cfgPath)
	}
	p := &Project{Root: abs, Config: DefaultConfig()}
	return p, p.loadSidecars()
}

// OpenConfig opens the project rooted at the directory of an explicit
// cnav.toml.
func OpenConfig(cfgPath string) (*Project, error) {
	abs, err := filepath.Abs(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", cfgPath, err)
	}
	cfg, err := LoadConfig(abs)
	if err != nil {
		return nil, err
	}
	p := &Project{Root: filepath.Dir(abs), ConfigPath: abs, Config: cfg}
	return p, p.loadSidecars()
}

func (p *Project) loadSidecars() error {
	dbPath := p.Config.Index.CompileCommands
	if dbPath != "" {
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(p.Root, dbPath)
		}
		db, err := LoadCompDB(dbPath)
		switch {
		case err == nil:
			p.CompDB = db
		case !errors.Is(err, os.ErrNotExist):
			return err
		}
	}

	cl, err := LoadClangd(filepath.Join(p.Root, ClangdName))
	switch {
	case err == nil:
		p.Clangd = cl
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	return nil
}

// FlagsFor merges, in order: cnav.toml defines, the compilation database
// entry for path (rewritten by .clangd), and extra command-line flags.
func (p *Project) FlagsFor(path string, extra Flags) Flags {
	var f Flags
	f.Defines = append(f.Defines, p.Config.Index.Defines...)
	f.Undefines = append(f.Undefines, p.Config.Index.Undefines...)

	args, _ := p.CompDB.Args(path)
	if p.Clangd != nil {
		args = p.Clangd.Apply(path, args)
	}
	db := ParseFlags(args)
	f.Defines = append(f.Defines, db.Defines...)
	f.Undefines = append(f.Undefines, db.Undefines...)

	f.Defines = append(f.Defines, extra.Defines...)
	f.Undefines = append(f.Undefines, extra.Undefines...)
	return f
}

// Sources lists the files to index under dir: the compilation database's
// files when one is loaded and dir is the root, otherwise discovery.
func (p *Project) Sources(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if p.CompDB != nil && abs == p.Root {
		return p.CompDB.Files(), nil
	}
	return Discover(abs, p.Config.Index.Extensions)
}
