package workspace

import (
	"context"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"cnav/internal/trace"
)

// Failure is a file IndexFiles could not index.
type Failure struct {
	Path string
	Err  error
}

// Summary totals an IndexFiles run.
type Summary struct {
	Indexed  int
	Cached   int
	Failures []Failure // in input order
}

// IndexFiles loads and indexes paths with at most jobs builds in flight
// (GOMAXPROCS when jobs <= 0). A failing file does not stop the others; the
// returned error is only the context's.
func (w *Workspace) IndexFiles(ctx context.Context, paths []string, jobs int, sink Sink) (Summary, error) {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, p := range paths {
		sink.OnEvent(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}
	if len(paths) == 0 {
		return Summary{}, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeCommand, "index-files", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpan(ctx, span)

	// one slot per path, written by exactly one goroutine
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = w.indexOne(gctx, path, sink)
			return nil
		})
	}
	err := g.Wait()

	var sum Summary
	for i, r := range results {
		switch {
		case r.err != nil:
			sum.Failures = append(sum.Failures, Failure{Path: paths[i], Err: r.err})
		case r.cached:
			sum.Cached++
			sum.Indexed++
		case r.done:
			sum.Indexed++
		}
	}
	span.End("")
	return sum, err
}

type fileResult struct {
	done   bool
	cached bool
	err    error
}

func (w *Workspace) indexOne(ctx context.Context, path string, sink Sink) fileResult {
	start := time.Now()
	sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	// #nosec G304 -- paths come from discovery or the command line
	text, err := os.ReadFile(path)
	if err != nil {
		sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return fileResult{err: err}
	}

	sink.OnEvent(Event{File: path, Stage: StageIndex, Status: StatusWorking})
	_, info, err := w.update(ctx, path, text)
	if info.cacheErr != nil {
		sink.OnEvent(Event{File: path, Stage: StageCache, Status: StatusError, Err: info.cacheErr})
	}
	if err != nil {
		sink.OnEvent(Event{File: path, Stage: StageIndex, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return fileResult{err: err}
	}
	sink.OnEvent(Event{File: path, Stage: StageIndex, Status: StatusDone, Cached: info.cached, Elapsed: time.Since(start)})
	return fileResult{done: true, cached: info.cached}
}
