// Package site owns the end-to-end build pipeline: discover sources, apply
// the format registry, run the data cascade, render, process, persist, and
// emit lifecycle events. It also computes incremental rebuild scopes.
package site

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebuilder/internal/cascade"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/deps"
	"git.home.luguber.info/inful/sitebuilder/internal/engine/gotmpl"
	"git.home.luguber.info/inful/sitebuilder/internal/engine/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/formats"
	"git.home.luguber.info/inful/sitebuilder/internal/processors"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Site is the process-scoped aggregate for one build/watch session. It owns
// the format registry, the renderer, the event bus, and the dependency
// tracker. Everything is constructed per session and passed by reference;
// there are no ambient globals.
type Site struct {
	cfg    *config.Config
	logger *slog.Logger

	source afero.Fs // rooted at cfg.Source
	output afero.Fs // rooted at cfg.Output

	registry *formats.Registry
	renderer *render.Renderer
	cascade  *cascade.Cascade
	layouts  *cascade.LayoutResolver
	pipeline *processors.Pipeline
	tracker  *deps.Tracker
	bus      *events.Bus
}

// Option configures a Site at construction.
type Option func(*Site)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) { s.logger = logger }
}

// WithSourceFs overrides the source filesystem (tests use an in-memory fs).
func WithSourceFs(fsys afero.Fs) Option {
	return func(s *Site) { s.source = fsys }
}

// WithOutputFs overrides the output filesystem.
func WithOutputFs(fsys afero.Fs) Option {
	return func(s *Site) { s.output = fsys }
}

// New constructs a session. Engines and formats are not registered yet;
// call RegisterDefaults or wire adapters manually.
func New(cfg *config.Config, opts ...Option) *Site {
	s := &Site{
		cfg:      cfg,
		logger:   slog.Default(),
		registry: formats.NewRegistry(),
		tracker:  deps.NewTracker(),
		bus:      events.NewBus(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.source == nil {
		s.source = afero.NewBasePathFs(afero.NewOsFs(), mustAbs(cfg.Source))
	}
	if s.output == nil {
		s.output = afero.NewBasePathFs(afero.NewOsFs(), mustAbs(cfg.Output))
	}

	s.renderer = render.NewRenderer(s.registry).WithLogger(s.logger)
	s.cascade = cascade.New(s.source).WithLogger(s.logger)
	s.layouts = cascade.NewLayoutResolver(s.renderer, &layoutLoader{site: s})
	s.pipeline = processors.NewPipeline(cfg.Workers).WithLogger(s.logger)

	return s
}

// RegisterDefaults wires the built-in formats and engines: Markdown pages
// rendered by Goldmark, ".tmpl" documents rendered by Go templates, with
// the includes directory reserved for layouts and partials.
func (s *Site) RegisterDefaults() {
	s.renderer.RegisterEngine("md", markdown.New())
	s.renderer.RegisterEngine("gotmpl", gotmpl.New())

	s.registry.Register(&formats.Format{
		Extensions: []string{".md", ".markdown"},
		Loader:     frontMatterLoader,
		Engine:     "md",
		Includes:   s.cfg.Includes,
	})
	s.registry.Register(&formats.Format{
		Extensions: []string{".tmpl"},
		Loader:     frontMatterLoader,
		Engine:     "gotmpl",
		Includes:   s.cfg.Includes,
	})
	s.registry.Register(&formats.Format{
		Extensions: []string{".html"},
		Loader:     frontMatterLoader,
		Engine:     "gotmpl",
	})
}

// Registry exposes the format registry for plugin wiring.
func (s *Site) Registry() *formats.Registry { return s.registry }

// Renderer exposes the renderer for engine and helper registration.
func (s *Site) Renderer() *render.Renderer { return s.renderer }

// Processors exposes the post-render pipeline for processor registration.
func (s *Site) Processors() *processors.Pipeline { return s.pipeline }

// Tracker exposes the dependency tracker (the watch bridge reads it).
func (s *Site) Tracker() *deps.Tracker { return s.tracker }

// Bus exposes the lifecycle event bus.
func (s *Site) Bus() *events.Bus { return s.bus }

// Config returns the session configuration.
func (s *Site) Config() *config.Config { return s.cfg }

// Close tears the session down.
func (s *Site) Close() {
	s.bus.Close()
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
