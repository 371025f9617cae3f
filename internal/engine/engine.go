// Package engine defines the capability contract every templating backend
// implements. The core dispatches to engines by registered name and never
// inspects a backend beyond this interface.
package engine

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Engine is a templating-language backend.
//
// Render may suspend (template evaluation can resolve imports or other I/O)
// and honors ctx cancellation. RenderComponent is the synchronous counterpart
// used for includes/partials evaluated inline during a parent template's own
// evaluation; it always runs in the single engine owning the current template.
type Engine interface {
	Render(ctx context.Context, content string, data page.Context, filename string) (string, error)
	RenderComponent(content string, data page.Context, filename string) (string, error)

	// AddHelper exposes a helper to templates. Backends that have no use for
	// a helper kind accept and ignore it; registration never fails the build.
	AddHelper(h Helper)

	// DeleteCache drops the compiled template cached for filename. An empty
	// filename drops every cached template.
	DeleteCache(filename string)
}

// HelperKind distinguishes the two template-visible helper shapes.
type HelperKind string

const (
	// HelperFilter transforms a value inside an expression.
	HelperFilter HelperKind = "filter"
	// HelperTag is invoked as a standalone construct, optionally with a body.
	HelperTag HelperKind = "tag"
)

// Helper is a template helper registered once on the renderer and mirrored
// into every engine. Names are unique and case-sensitive; re-registration
// under an existing name replaces the previous binding everywhere.
type Helper struct {
	Name        string
	Fn          any
	Kind        HelperKind
	AcceptsBody bool
}
