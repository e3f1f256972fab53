package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"cnav/internal/binder"
	"cnav/internal/diag"
	"cnav/internal/observ"
	"cnav/internal/pp"
	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/trace"
)

// BuildOptions configures one build.
type BuildOptions struct {
	Defines        []string // -D arguments, "NAME" or "NAME=VALUE"
	Undefines      []string // -U arguments
	MaxDiagnostics int      // 0 keeps the bag default
	Validate       bool     // run the symbol table invariant walker
	Timer          *observ.Timer
}

// BuildError reports a unit whose build was abandoned on structural errors.
type BuildError struct {
	Path        string
	Diagnostics []diag.Diagnostic
}

func (e *BuildError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Path + ": build failed"
	}
	first := e.Diagnostics[0]
	msg := fmt.Sprintf("%s: %s: %s", e.Path, first.Code.ID(), first.Message)
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

const defaultMaxDiagnostics = 200

// Build indexes file id of fs. Structural errors (unterminated comment or
// literal, unbalanced conditionals or braces) abort with a *BuildError; the
// returned bag then holds every diagnostic. Soft diagnostics are kept on
// the index.
func Build(ctx context.Context, fs *source.FileSet, id source.FileID, opts BuildOptions) (*Index, *diag.Bag, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, nil, fmt.Errorf("index: unknown file %d", id)
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = defaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)
	reporter := diag.BagReporter{Bag: bag}

	tracer := trace.FromContext(ctx)
	unit := trace.Begin(tracer, trace.ScopeUnit, "index", trace.CurrentSpan(ctx).SpanID).WithExtra("path", file.Path)
	defer unit.End("")

	table := symbols.NewTable(symbols.Hints{}, nil)
	occ := &symbols.Occurrences{}

	phase := beginPhase(tracer, opts.Timer, "preprocess", unit.ID())
	toks := pp.Preprocess(file, pp.Options{
		Reporter:    reporter,
		Table:       table,
		Occurrences: occ,
		Defines:     opts.Defines,
		Undefines:   opts.Undefines,
	})
	phase.end(fmt.Sprintf("%d tokens", len(toks)))

	phase = beginPhase(tracer, opts.Timer, "bind", unit.ID())
	binder.Bind(file, toks, table, occ, binder.Options{Reporter: reporter})
	phase.end(fmt.Sprintf("%d symbols", table.Symbols.Len()))

	if opts.Validate {
		if err := table.Validate(); err != nil {
			diag.ReportError(reporter, diag.SemaInvariantViolation, source.Span{File: id}, err.Error()).Emit()
		}
	}

	bag.Sort()
	bag.Dedup()
	if bag.HasErrors() {
		return nil, bag, &BuildError{Path: file.Path, Diagnostics: bag.Errors()}
	}

	phase = beginPhase(tracer, opts.Timer, "freeze", unit.ID())
	ix := freeze(file, table, occ)
	ix.Diagnostics = bag.Items()
	ix.Defines = opts.Defines
	ix.Undefines = opts.Undefines
	phase.end(fmt.Sprintf("%d occurrences", len(ix.Occurrences)))
	return ix, bag, nil
}

// BuildText indexes an in-memory buffer.
func BuildText(ctx context.Context, path string, text []byte, opts BuildOptions) (*Index, *diag.Bag, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, text)
	return Build(ctx, fs, id, opts)
}

// BuildFile loads path from disk and indexes it.
func BuildFile(ctx context.Context, path string, opts BuildOptions) (*Index, *diag.Bag, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("index: %w", err)
	}
	return Build(ctx, fs, id, opts)
}

type phaseSpan struct {
	span  *trace.Span
	timer *observ.Timer
	idx   int
}

func beginPhase(t trace.Tracer, timer *observ.Timer, name string, parent uint64) phaseSpan {
	p := phaseSpan{span: trace.Begin(t, trace.ScopePass, name, parent), timer: timer, idx: -1}
	if timer != nil {
		p.idx = timer.Begin(name)
	}
	return p
}

func (p phaseSpan) end(note string) {
	p.span.End(note)
	if p.timer != nil && p.idx >= 0 {
		p.timer.End(p.idx, note)
	}
}

// freeze copies the table into the index, collapsing duplicate bindings:
// the same range recorded twice keeps its first symbol and strongest role.
func freeze(file *source.File, table *symbols.Table, occ *symbols.Occurrences) *Index {
	ix := &Index{
		File:    *file,
		Symbols: make([]Symbol, table.Symbols.Len()+1),
	}
	for i, sym := range table.Symbols.Data() {
		ix.Symbols[i+1] = Symbol{
			Name:  table.Strings.MustLookup(sym.Name),
			Kind:  sym.Kind,
			Owner: sym.Owner,
			Def:   sym.Span,
			Flags: sym.Flags,
		}
	}
	for i := range ix.Symbols[1:] {
		if ix.Symbols[i+1].Name == "" {
			ix.Symbols[i+1].Name = anonymousName(ix.Symbols[i+1].Kind)
		}
	}

	items := append([]symbols.Occurrence(nil), occ.Items()...)
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Span.Start != items[b].Span.Start {
			return items[a].Span.Start < items[b].Span.Start
		}
		return items[a].Span.End < items[b].Span.End
	})
	out := make([]Occurrence, 0, len(items))
	for _, o := range items {
		if n := len(out); n > 0 && out[n-1].Span == o.Span {
			if out[n-1].Symbol == o.Symbol && o.Role > out[n-1].Role {
				out[n-1].Role = o.Role
			}
			continue
		}
		out = append(out, Occurrence{Span: o.Span, Symbol: o.Symbol, Role: o.Role})
	}
	ix.Occurrences = out

	for i, o := range out {
		if sym := ix.Symbol(o.Symbol); sym != nil {
			n, err := safecast.Conv[int32](i)
			if err != nil {
				break
			}
			sym.Refs = append(sym.Refs, n)
		}
	}
	ix.prepare()
	return ix
}

func anonymousName(kind symbols.SymbolKind) string {
	return "<anonymous " + strings.TrimSuffix(kind.String(), "-tag") + ">"
}
