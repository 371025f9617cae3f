package site

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
	"git.home.luguber.info/inful/sitebuilder/internal/processors"
)

// Build runs one full cycle: discover → cascade → render → process →
// persist. Stages never overlap: every page finishes a stage before any
// page enters the next. Page-scoped failures land in the report; only
// process-scoped failures return an error.
func (s *Site) Build(ctx context.Context) (*Report, error) {
	s.tracker.Reset()
	s.cascade.InvalidateAll()

	s.logger.Debug("Discovering sources", "root", s.cfg.Source)
	sources, err := s.discover()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "source discovery failed").
			Fatal().
			Build()
	}

	return s.run(ctx, sources, true)
}

// Rebuild runs one incremental cycle over the pages invalidated by the
// changed-path set. An unbounded scope degrades to a full build.
func (s *Site) Rebuild(ctx context.Context, changed []string) (*Report, error) {
	scope := s.RebuildScope(changed)
	if scope.Full {
		s.logger.Info("Rebuild scope is unbounded, running full build", "changed", len(changed))
		// The whole page set is invalidated, compiled templates included;
		// without this a changed template in the same batch would re-render
		// from its stale compiled form.
		s.renderer.DeleteCache("")
		return s.Build(ctx)
	}

	// Invalidate compiled templates for everything being redone, changed
	// sources and dependent pages alike, before any re-render.
	for _, p := range changed {
		s.renderer.DeleteCache(p)
	}
	for _, p := range scope.Pages {
		s.renderer.DeleteCache(p)
		s.tracker.ClearPage(p)
	}
	if scope.DataChanged {
		s.cascade.InvalidateAll()
	}

	return s.run(ctx, scope.Pages, false)
}

func (s *Site) run(ctx context.Context, sources []string, full bool) (*Report, error) {
	started := time.Now()
	report := &Report{BuildID: uuid.NewString()[:8], Full: full}

	_ = s.bus.Publish(ctx, events.BuildStarted{
		BuildID:   report.BuildID,
		Full:      full,
		PageCount: len(sources),
		StartedAt: started,
	})

	pages := s.loadAndCascade(sources)
	s.renderAll(ctx, pages)

	targets := make([]*processors.Target, 0, len(pages))
	for _, p := range pages {
		targets = append(targets, &processors.Target{Page: p})
	}
	s.pipeline.Run(ctx, targets)

	s.persist(targets)

	for _, p := range pages {
		switch {
		case p.Failed():
			report.Failures = append(report.Failures, Failure{
				Source:   p.Source,
				Category: ferrors.CategoryOf(p.Err),
				Err:      p.Err,
			})
			_ = s.bus.Publish(ctx, events.PageFailed{
				BuildID:  report.BuildID,
				Source:   p.Source,
				Category: string(ferrors.CategoryOf(p.Err)),
				Err:      p.Err,
			})
		case p.Asset:
			report.Assets++
		default:
			report.Pages++
		}
	}

	report.Duration = time.Since(started)
	_ = s.bus.Publish(ctx, events.BuildFinished{
		BuildID:    report.BuildID,
		Pages:      report.Pages,
		Assets:     report.Assets,
		Failed:     len(report.Failures),
		Duration:   report.Duration,
		FinishedAt: time.Now(),
	})

	s.logger.Info("Build finished",
		"build_id", report.BuildID,
		"full", full,
		"pages", report.Pages,
		"assets", report.Assets,
		"failed", len(report.Failures),
		"duration", report.Duration)

	return report, nil
}

// loadAndCascade loads every source and materializes its render context.
// These stages are sequential over the filesystem; rendering fans out later.
func (s *Site) loadAndCascade(sources []string) []*page.Page {
	pages := make([]*page.Page, 0, len(sources))

	for _, src := range sources {
		p := &page.Page{Source: src}
		pages = append(pages, p)

		f, ext, ok := s.registry.Resolve(src)
		if !ok || f.IsAsset {
			p.Asset = true
			p.Binary = true
			if ok {
				p.Ext = ext
			}
			raw, err := afero.ReadFile(s.source, src)
			if err != nil {
				p.Fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "reading asset").
					WithContext("path", src).
					Build())
				continue
			}
			p.Raw = raw
			s.destination(p)
			s.tracker.Record(src)
			continue
		}
		p.Ext = ext

		body, front, err := f.Loader(s.source, src)
		if err != nil {
			p.Fail(err)
			continue
		}
		p.Raw = body

		merged, refs, err := s.cascade.Context(src, front)
		if err != nil {
			p.Fail(err)
			continue
		}
		s.tracker.Record(src, refs...)

		s.destination(p)
		merged[page.KeyURL] = p.URL
		p.Context = merged
	}

	return pages
}

// renderAll runs the engine chain and then the layout chain for every
// non-asset page, fanned out across a bounded worker pool. The per-page
// context is exclusively owned by its page here, so pages never contend.
func (s *Site) renderAll(ctx context.Context, pages []*page.Page) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, p := range pages {
		if p.Failed() || p.Asset {
			continue
		}
		g.Go(func() error {
			out, err := s.renderer.Render(gctx, string(p.Raw), p.Context, p.Source)
			if err != nil {
				p.Fail(err)
				return nil
			}
			p.Rendered = out

			refs, err := s.layouts.Apply(gctx, p)
			s.tracker.Record(p.Source, refs...)
			if err != nil {
				p.Fail(err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// persist writes every successful target to the output tree. A failed page
// is skipped, which under watch mode keeps the last successful output in
// place until the offending source changes again.
func (s *Site) persist(targets []*processors.Target) {
	for _, t := range targets {
		p := t.Page
		if p.Failed() {
			continue
		}

		content := []byte(p.Rendered)
		if p.Asset {
			content = p.Raw
		}

		if dir := path.Dir(p.Dest); dir != "." {
			if err := s.output.MkdirAll(dir, 0o755); err != nil {
				p.Fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "creating output directory").
					WithContext("dir", dir).
					Build())
				continue
			}
		}

		if err := afero.WriteFile(s.output, p.Dest, content, 0o644); err != nil {
			p.Fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "persisting output").
				WithContext("dest", p.Dest).
				Build())
			continue
		}

		if t.Map != nil {
			raw, err := t.Map.Marshal()
			if err != nil {
				p.Fail(err)
				continue
			}
			if err := afero.WriteFile(s.output, p.Dest+".map", raw, 0o644); err != nil {
				p.Fail(ferrors.WrapError(err, ferrors.CategoryFileSystem, "persisting source map").
					WithContext("dest", p.Dest+".map").
					Build())
			}
		}
	}
}
