// Package markdown implements the engine contract with Goldmark.
package markdown

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Engine converts Markdown to HTML. Raw HTML passes through unescaped since
// Markdown sources in a site tree routinely embed markup emitted by an
// earlier engine in the chain.
type Engine struct {
	md goldmark.Markdown
}

func New() *Engine {
	return &Engine{
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
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

// RenderComponent implements engine.Engine.
func (e *Engine) RenderComponent(content string, _ page.Context, filename string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(content), &buf); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "markdown conversion failed").
			WithContext("filename", filename).
			Build()
	}
	return buf.String(), nil
}

// AddHelper implements engine.Engine. Markdown has no helper surface; the
// contract requires accepting registrations, so they are ignored.
func (e *Engine) AddHelper(engine.Helper) {}

// DeleteCache implements engine.Engine. Goldmark keeps no per-file compiled
// state, so there is nothing to drop.
func (e *Engine) DeleteCache(string) {}
