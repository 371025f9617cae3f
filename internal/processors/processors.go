// Package processors runs post-render transforms over already-rendered
// pages, in registration order, threading content and source maps from one
// processor to the next.
package processors

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
	"git.home.luguber.info/inful/sitebuilder/internal/sourcemap"
)

// Target is one page moving through the pipeline together with its source
// map. A processor that transforms content replaces Map with the composition
// of its own map over the inbound one (sourcemap.Compose), keeping content
// and map consistent for the next processor or for persistence.
type Target struct {
	Page *page.Page
	Map  *sourcemap.Map
}

// Func mutates the rendered content of the given targets in place.
type Func func(ctx context.Context, targets []*Target) error

// Processor is a registered post-render transform.
type Processor struct {
	// Name appears in logs and failure reports.
	Name string
	// Extensions the processor claims, matched against destination paths.
	Extensions []string
	Fn         Func
	// Merging processors combine multiple source pages into one output and
	// must run sequentially over their whole page set. Non-merging
	// processors are invoked per page and fan out concurrently.
	Merging bool
}

// Pipeline executes processors in registration order.
type Pipeline struct {
	procs   []*Processor
	workers int
	logger  *slog.Logger
}

func NewPipeline(workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{workers: workers, logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (pl *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	pl.logger = logger
	return pl
}

// Register appends a processor. Order of registration is order of execution.
func (pl *Pipeline) Register(p *Processor) {
	pl.procs = append(pl.procs, p)
}

// Run pushes every target through the registered processors. Processor
// failures are page-scoped: the affected targets are marked failed and the
// rest of the pipeline continues. Already-failed pages are skipped.
func (pl *Pipeline) Run(ctx context.Context, targets []*Target) {
	for _, proc := range pl.procs {
		matched := matchTargets(proc, targets)
		if len(matched) == 0 {
			continue
		}

		if proc.Merging {
			pl.runMerging(ctx, proc, matched)
			continue
		}
		pl.runPerPage(ctx, proc, matched)
	}
}

// runMerging invokes the processor once over the whole set; output pages may
// be merged so parallelism across them is not safe.
func (pl *Pipeline) runMerging(ctx context.Context, proc *Processor, matched []*Target) {
	if err := proc.Fn(ctx, matched); err != nil {
		wrapped := ferrors.WrapError(err, ferrors.CategoryProcessor, "merging processor failed").
			WithContext("processor", proc.Name).
			Build()
		for _, t := range matched {
			t.Page.Fail(wrapped)
		}
		pl.logger.Error("Merging processor failed",
			"processor", proc.Name, "pages", len(matched), "error", err)
	}
}

// runPerPage fans the processor out across pages with a bounded pool.
func (pl *Pipeline) runPerPage(ctx context.Context, proc *Processor, matched []*Target) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pl.workers)

	for _, t := range matched {
		g.Go(func() error {
			if err := proc.Fn(gctx, []*Target{t}); err != nil {
				t.Page.Fail(ferrors.WrapError(err, ferrors.CategoryProcessor, "processor failed").
					WithContext("processor", proc.Name).
					WithContext("path", t.Page.Source).
					Build())
				pl.logger.Error("Processor failed",
					"processor", proc.Name, "path", t.Page.Source, "error", err)
			}
			// Failures are recorded on the page, never propagated: one bad
			// page must not cancel the siblings in the group.
			return nil
		})
	}
	_ = g.Wait()
}

func matchTargets(proc *Processor, targets []*Target) []*Target {
	var out []*Target
	for _, t := range targets {
		if t.Page.Failed() {
			continue
		}
		if matchesExtension(proc.Extensions, t.Page) {
			out = append(out, t)
		}
	}
	return out
}

func matchesExtension(exts []string, p *page.Page) bool {
	name := p.Dest
	if name == "" {
		name = p.Source
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
