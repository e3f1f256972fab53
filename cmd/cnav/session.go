package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cnav/internal/cache"
	"cnav/internal/diag"
	"cnav/internal/diagfmt"
	"cnav/internal/index"
	"cnav/internal/observ"
	"cnav/internal/project"
	"cnav/internal/source"
	"cnav/internal/workspace"
)

// session is the project and workspace one command works against.
type session struct {
	proj   *project.Project
	ws     *workspace.Workspace
	coords index.Coords
	timer  *observ.Timer
	quiet  bool
}

type sessionOptions struct {
	// start locates the project when --config is not given.
	start string
	cache bool
}

func openSession(cmd *cobra.Command, so sessionOptions) (*session, error) {
	pf := cmd.Root().PersistentFlags()

	cfgPath, err := pf.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var proj *project.Project
	if cfgPath != "" {
		proj, err = project.OpenConfig(cfgPath)
	} else {
		proj, err = project.Open(so.start)
	}
	if err != nil {
		return nil, err
	}

	maxDiags, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := pf.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := pf.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	var extra project.Flags
	if extra.Defines, err = pf.GetStringArray("define"); err != nil {
		return nil, fmt.Errorf("failed to get define flag: %w", err)
	}
	if extra.Undefines, err = pf.GetStringArray("undefine"); err != nil {
		return nil, fmt.Errorf("failed to get undefine flag: %w", err)
	}

	coords := index.Coords{Base: proj.Config.Query.Base}
	if pf.Changed("base") {
		if coords.Base, err = pf.GetInt("base"); err != nil {
			return nil, fmt.Errorf("failed to get base flag: %w", err)
		}
		if coords.Base != 0 && coords.Base != 1 {
			return nil, fmt.Errorf("invalid --base %d (expected 0 or 1)", coords.Base)
		}
	}

	s := &session{proj: proj, coords: coords, quiet: quiet}
	opts := workspace.Options{
		Build:  index.BuildOptions{MaxDiagnostics: maxDiags},
		Coords: coords,
		Flags:  unitFlags(proj, extra),
	}
	if showTimings {
		s.timer = observ.NewTimer()
		opts.Build.Timer = s.timer
	}
	if so.cache && proj.Config.Index.Cache {
		if opts.Cache, err = openCache(proj); err != nil {
			return nil, err
		}
	}
	s.ws = workspace.New(opts)
	return s, nil
}

// unitFlags bridges project flag merging into the workspace.
func unitFlags(proj *project.Project, extra project.Flags) func(string) workspace.Flags {
	return func(unit string) workspace.Flags {
		f := proj.FlagsFor(unit, extra)
		return workspace.Flags{Defines: f.Defines, Undefines: f.Undefines}
	}
}

func openCache(proj *project.Project) (*cache.Disk, error) {
	dir := proj.Config.Index.CacheDir
	if dir == "" {
		return cache.OpenDefault("cnav")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(proj.Root, dir)
	}
	return cache.Open(dir)
}

// load indexes one file from disk under its absolute path.
func (s *session) load(cmd *cobra.Command, path string) (*index.Index, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- the user names the file to inspect
	text, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	ix, err := s.ws.Update(cmd.Context(), abs, text)
	var be *index.BuildError
	if errors.As(err, &be) {
		s.printBuildError(cmd.ErrOrStderr(), abs, text, be)
	}
	return ix, err
}

func (s *session) printBuildError(w io.Writer, path string, text []byte, be *index.BuildError) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual(path, text))
	printDiagnostics(w, f, be.Diagnostics, s.proj.Root)
}

func printDiagnostics(w io.Writer, f *source.File, diags []diag.Diagnostic, root string) {
	diagfmt.Pretty(w, f, diags, diagfmt.PrettyOpts{
		Color:     useColor(os.Stderr),
		Context:   1,
		PathMode:  diagfmt.PathModeRelative,
		BaseDir:   root,
		ShowNotes: true,
	})
}

// finish prints the --timings report.
func (s *session) finish(w io.Writer) {
	if s.timer == nil || s.quiet {
		return
	}
	printTimings(w, s.timer)
}
