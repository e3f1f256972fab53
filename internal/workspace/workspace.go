package workspace

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"cnav/internal/cache"
	"cnav/internal/diag"
	"cnav/internal/index"
)

var (
	// ErrStale is returned by Update when a newer edit of the unit was
	// applied while it was building.
	ErrStale = errors.New("workspace: superseded by a newer edit")
	// ErrUnknownUnit is returned for units that were never updated.
	ErrUnknownUnit = errors.New("workspace: unknown unit")
	// ErrNoSnapshot is returned when every build of a unit failed so far.
	ErrNoSnapshot = errors.New("workspace: unit has no successful build")
)

// Flags are the macro options of one unit.
type Flags struct {
	Defines   []string
	Undefines []string
}

type Options struct {
	Build  index.BuildOptions
	Coords index.Coords
	// Flags, when set, supplies per-unit flags appended to Build's.
	Flags func(unit string) Flags
	Cache *cache.Disk
}

type unit struct {
	snap atomic.Pointer[index.Index]
	seq  atomic.Uint64

	mu      sync.Mutex
	applied uint64
	failed  bool
	diags   []diag.Diagnostic
}

// Workspace is safe for concurrent use.
type Workspace struct {
	opts Options

	mu    sync.RWMutex
	units map[string]*unit
}

func New(opts Options) *Workspace {
	return &Workspace{opts: opts, units: make(map[string]*unit)}
}

func (w *Workspace) Coords() index.Coords { return w.opts.Coords }

func (w *Workspace) lookup(id string) (*unit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	u, ok := w.units[id]
	return u, ok
}

func (w *Workspace) ensure(id string) *unit {
	if u, ok := w.lookup(id); ok {
		return u
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if u, ok := w.units[id]; ok {
		return u
	}
	u := &unit{}
	w.units[id] = u
	return u
}

// Update rebuilds unit id from text and publishes the result. On a build
// error the previous snapshot stays current and the error (usually a
// *index.BuildError) is returned.
func (w *Workspace) Update(ctx context.Context, id string, text []byte) (*index.Index, error) {
	ix, _, err := w.update(ctx, id, text)
	return ix, err
}

func (w *Workspace) update(ctx context.Context, id string, text []byte) (*index.Index, buildInfo, error) {
	u := w.ensure(id)
	seq := u.seq.Add(1)
	ix, info, err := w.build(ctx, id, text)

	u.mu.Lock()
	defer u.mu.Unlock()
	if seq <= u.applied {
		return nil, info, ErrStale
	}
	u.applied = seq
	if err != nil {
		u.failed = true
		u.diags = info.diags
		return nil, info, err
	}
	u.failed = false
	u.diags = ix.Diagnostics
	u.snap.Store(ix)
	return ix, info, nil
}

type buildInfo struct {
	cached   bool
	cacheErr error
	diags    []diag.Diagnostic
}

func (w *Workspace) build(ctx context.Context, id string, text []byte) (*index.Index, buildInfo, error) {
	var info buildInfo
	opts := w.opts.Build
	if w.opts.Flags != nil {
		f := w.opts.Flags(id)
		opts.Defines = append(slices.Clip(opts.Defines), f.Defines...)
		opts.Undefines = append(slices.Clip(opts.Undefines), f.Undefines...)
	}

	var key cache.Key
	if w.opts.Cache != nil {
		key = cache.KeyFor(id, sha256.Sum256(text), opts.Defines, opts.Undefines)
		ix, ok, err := w.opts.Cache.Get(key)
		if err != nil {
			info.cacheErr = fmt.Errorf("read cache for %s: %w", id, err)
		} else if ok {
			info.cached = true
			return ix, info, nil
		}
	}

	ix, bag, err := index.BuildText(ctx, id, text, opts)
	if bag != nil {
		info.diags = bag.Items()
	}
	if err != nil {
		return nil, info, err
	}
	if w.opts.Cache != nil {
		if perr := w.opts.Cache.Put(key, ix); perr != nil && info.cacheErr == nil {
			info.cacheErr = fmt.Errorf("write cache for %s: %w", id, perr)
		}
	}
	return ix, info, nil
}

// Remove forgets a unit.
func (w *Workspace) Remove(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.units, id)
}

// Units lists the known unit ids in order.
func (w *Workspace) Units() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.units))
	for id := range w.units {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// State describes the last applied build of a unit.
type State struct {
	Seq         uint64
	Failed      bool
	Diagnostics []diag.Diagnostic
	Index       *index.Index // last successful snapshot, may be nil
}

func (w *Workspace) State(id string) (State, error) {
	u, ok := w.lookup(id)
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return State{
		Seq:         u.applied,
		Failed:      u.failed,
		Diagnostics: u.diags,
		Index:       u.snap.Load(),
	}, nil
}

// Snapshot returns the current index of a unit.
func (w *Workspace) Snapshot(id string) (*index.Index, error) {
	u, ok := w.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	ix := u.snap.Load()
	if ix == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, id)
	}
	return ix, nil
}

// Definition resolves the identifier at line:col of unit id, in the
// workspace's coordinate base.
func (w *Workspace) Definition(id string, line, col int) (index.Range, error) {
	ix, err := w.Snapshot(id)
	if err != nil {
		return index.Range{}, err
	}
	return ix.Definition(w.opts.Coords, index.Position{Line: line, Col: col})
}

// References lists every occurrence of the symbol at line:col.
func (w *Workspace) References(id string, line, col int, includeDecl bool) ([]index.Range, error) {
	ix, err := w.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return ix.References(w.opts.Coords, index.Position{Line: line, Col: col}, includeDecl)
}
