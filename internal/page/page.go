package page

import (
	"time"
)

// Page is one source document and its derived render state.
//
// A Page is owned by the build orchestrator for its lifetime. The renderer
// and processors receive it by reference and mutate only Rendered and
// Document; the context is fully materialized by the data cascade before
// rendering and is read-only from then on.
type Page struct {
	// Source is the page's identity: its path relative to the source root.
	Source string
	// Ext is the matched extension (including leading dot, possibly
	// compound, e.g. ".tmpl.md").
	Ext string

	// Raw is the loaded source content. For asset pages this may be binary.
	Raw    []byte
	Binary bool

	// Context is the merged render context produced by the data cascade.
	Context Context

	// Rendered is the current output body, mutated through the pipeline
	// stages (engine chain, layouts, processors).
	Rendered string

	// Dest is the output path relative to the output root; URL is the
	// site-absolute URL derived from it.
	Dest string
	URL  string

	// Document is an optional parsed-document handle, populated once a
	// DOM-level processor parses the rendered markup.
	Document any

	// Asset marks a page copied through verbatim (no matching format).
	Asset bool

	// Err records a page-scoped failure. A failed page is skipped by later
	// stages and reported in the build summary.
	Err error
}

// Fail marks the page failed unless it already is. The first failure wins.
func (p *Page) Fail(err error) {
	if p.Err == nil {
		p.Err = err
	}
}

// Failed reports whether the page has a recorded failure.
func (p *Page) Failed() bool {
	return p.Err != nil
}

// Context is a page's render-context mapping. Values are the small closed
// set YAML and data files produce: string, bool, int64/float64, []any,
// map[string]any, time.Time. Reserved keys are read through the typed
// accessors below rather than raw lookups.
type Context map[string]any

// Reserved context keys interpreted by the core.
const (
	KeyTemplateEngine = "templateEngine"
	KeyLayout         = "layout"
	KeyContent        = "content"
	KeyURL            = "url"
	KeyDate           = "date"
)

// Clone returns a shallow copy of the context. Top-level key replacement on
// the clone does not affect the original; nested values are shared.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String returns the string value for key, or "" when absent or not a string.
func (c Context) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Layout returns the layout template named by the context, if any.
func (c Context) Layout() (string, bool) {
	s, ok := c[KeyLayout].(string)
	return s, ok && s != ""
}

// Content returns the current rendered body threaded through layouts.
func (c Context) Content() string {
	return c.String(KeyContent)
}

// Date returns the page's normalized date, if the cascade produced one.
func (c Context) Date() (time.Time, bool) {
	t, ok := c[KeyDate].(time.Time)
	return t, ok
}

// TemplateEngine returns the raw engine-chain override value, if present.
// Chain parsing lives in the renderer; the context only reports presence.
func (c Context) TemplateEngine() (any, bool) {
	v, ok := c[KeyTemplateEngine]
	return v, ok && v != nil
}
