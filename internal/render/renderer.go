// Package render owns multi-engine dispatch: it resolves the ordered engine
// chain for a page, threads content through it, and fans helper
// registrations and cache invalidation out to every registered engine.
package render

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/engine"
	"git.home.luguber.info/inful/sitebuilder/internal/formats"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Renderer dispatches page content through an ordered chain of engines.
//
// Engine and helper tables are read-mostly during a build cycle;
// RegisterEngine, AddHelper, and DeleteCache run only between cycles.
type Renderer struct {
	registry *formats.Registry
	logger   *slog.Logger

	mu      sync.RWMutex
	engines map[string]engine.Engine
	helpers map[string]engine.Helper
}

func NewRenderer(registry *formats.Registry) *Renderer {
	return &Renderer{
		registry: registry,
		logger:   slog.Default(),
		engines:  make(map[string]engine.Engine),
		helpers:  make(map[string]engine.Helper),
	}
}

// WithLogger sets a custom logger.
func (r *Renderer) WithLogger(logger *slog.Logger) *Renderer {
	r.logger = logger
	return r
}

// RegisterEngine binds an engine to a name and replays every previously
// registered helper into it, so all engines expose the same helper surface
// regardless of registration order.
func (r *Renderer) RegisterEngine(name string, e engine.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = e
	for _, h := range r.helpers {
		e.AddHelper(h)
	}
}

// Engine returns the engine registered under name.
func (r *Renderer) Engine(name string) (engine.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	return e, ok
}

// AddHelper stores the helper and mirrors it into every registered engine.
// Re-registration under an existing name replaces the binding everywhere.
func (r *Renderer) AddHelper(h engine.Helper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helpers[h.Name] = h
	for _, e := range r.engines {
		e.AddHelper(h)
	}
}

// DeleteCache drops the compiled template cached for filename in every
// engine. The orchestrator invokes it for each invalidated file before
// re-rendering.
func (r *Renderer) DeleteCache(filename string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.engines {
		e.DeleteCache(filename)
	}
}

// Render applies the resolved engine chain to content left to right: the
// output of step i is the content input of step i+1, while data passes
// unchanged to every step. A chain entry with no registered engine is an
// identity step, logged and skipped. An empty chain returns content as-is.
func (r *Renderer) Render(ctx context.Context, content string, data page.Context, filename string) (string, error) {
	for _, name := range r.resolveChain(data, filename) {
		e, ok := r.Engine(name)
		if !ok {
			r.logger.Debug("No engine registered for chain entry, passing through",
				"engine", name, "filename", filename)
			continue
		}
		out, err := e.Render(ctx, content, data, filename)
		if err != nil {
			return "", err
		}
		content = out
	}
	return content, nil
}

// RenderComponent renders an include/partial synchronously in the single
// engine owning the current template. No chain resolution happens; partial
// output must be available inline during the parent engine's evaluation.
func (r *Renderer) RenderComponent(engineName, content string, data page.Context, filename string) (string, error) {
	e, ok := r.Engine(engineName)
	if !ok {
		return content, nil
	}
	return e.RenderComponent(content, data, filename)
}

// resolveChain determines the ordered engine names for one render. First
// rule that applies wins: the context's templateEngine override (single
// name, comma-delimited string, or ordered list), else the format registry's
// default engine for the filename, else empty (passthrough).
func (r *Renderer) resolveChain(data page.Context, filename string) []string {
	if v, ok := data.TemplateEngine(); ok {
		return parseChain(v)
	}
	if def := r.registry.DefaultEngine(filename); def != "" {
		return []string{def}
	}
	return nil
}

func parseChain(v any) []string {
	switch val := v.(type) {
	case string:
		var chain []string
		for _, name := range strings.Split(val, ",") {
			if name = strings.TrimSpace(name); name != "" {
				chain = append(chain, name)
			}
		}
		return chain
	case []string:
		return val
	case []any:
		var chain []string
		for _, item := range val {
			if name, ok := item.(string); ok && name != "" {
				chain = append(chain, name)
			}
		}
		return chain
	default:
		return nil
	}
}
