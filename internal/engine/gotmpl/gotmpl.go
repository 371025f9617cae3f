// Package gotmpl implements the engine contract on top of text/template
// with the sprig function library.
package gotmpl

import (
	"bytes"
	"context"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"git.home.luguber.info/inful/sitebuilder/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Engine renders Go templates. Compiled templates are cached per filename;
// the orchestrator invalidates entries through DeleteCache when the source
// file changes.
type Engine struct {
	mu        sync.Mutex
	templates map[string]*template.Template
	helpers   template.FuncMap
}

// New creates a Go-template engine with the sprig function set preloaded.
func New() *Engine {
	return &Engine{
		templates: make(map[string]*template.Template),
		helpers:   make(template.FuncMap),
	}
}

// Render implements engine.Engine.
func (e *Engine) Render(ctx context.Context, content string, data page.Context, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "render canceled").
			WithContext("filename", filename).
			Build()
	}
	return e.RenderComponent(content, data, filename)
}

// RenderComponent implements engine.Engine. Evaluation is synchronous; Go
// template execution never suspends.
func (e *Engine) RenderComponent(content string, data page.Context, filename string) (string, error) {
	tmpl, err := e.compiled(content, filename)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "template execution failed").
			WithContext("filename", filename).
			Build()
	}
	return buf.String(), nil
}

// AddHelper implements engine.Engine. Filters and tags both land in the
// FuncMap; text/template draws no syntactic distinction between them.
// Helpers registered after templates were compiled take effect on the next
// compile, so cached templates are dropped.
func (e *Engine) AddHelper(h Helper) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.helpers[h.Name] = h.Fn
	e.templates = make(map[string]*template.Template)
}

// Helper aliases engine.Helper so callers need only one import.
type Helper = engine.Helper

// DeleteCache implements engine.Engine.
func (e *Engine) DeleteCache(filename string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if filename == "" {
		e.templates = make(map[string]*template.Template)
		return
	}
	delete(e.templates, filename)
}

func (e *Engine) compiled(content, filename string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[filename]; ok {
		return tmpl, nil
	}

	tmpl, err := template.New(filename).
		Option("missingkey=zero").
		Funcs(sprig.FuncMap()).
		Funcs(e.helpers).
		Parse(content)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "template parse failed").
			WithContext("filename", filename).
			Build()
	}

	e.templates[filename] = tmpl
	return tmpl, nil
}
