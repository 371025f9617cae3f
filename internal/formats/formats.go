// Package formats binds file extensions to loaders, engines, and processors.
package formats

import (
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Loader produces raw content and the initial context for a source path.
// The front-matter loader is the usual implementation; binary asset formats
// install a passthrough loader.
type Loader func(fsys afero.Fs, path string) (raw []byte, initial page.Context, err error)

// Format describes how files with a given set of extensions are turned into
// pages: how they load, which engine renders them by default, and whether a
// sub-extension separates standalone pages from components/partials.
type Format struct {
	// Extensions the format claims, longest-suffix matched, leading dot
	// included (".md", ".tmpl", ".tmpl.md").
	Extensions []string

	Loader Loader

	// Engine is the name of the default engine for this format, resolved by
	// the renderer. Empty means passthrough.
	Engine string

	// PageSubExtension, when set, marks which files within the extension are
	// standalone pages (e.g. ".page" so "about.page.tmpl" is a page while
	// "header.tmpl" is a component).
	PageSubExtension string

	// IsAsset formats load without rendering; their pages are persisted as-is
	// after processors run.
	IsAsset bool

	// Includes reserves a directory for includes/partials. Paths under it
	// are excluded from page discovery.
	Includes string
}

// Registry is the ordered set of registered formats. Registration order is
// its only state; resolution is a pure lookup.
type Registry struct {
	formats []*Format
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends the format. A format claiming an identical extension set
// overwrites the earlier registration in place, keeping its priority slot.
func (r *Registry) Register(f *Format) {
	for i, existing := range r.formats {
		if sameExtensions(existing.Extensions, f.Extensions) {
			r.formats[i] = f
			return
		}
	}
	r.formats = append(r.formats, f)
}

// Resolve matches the longest registered extension suffix for path, then the
// longest matching page-sub-extension within it. It never fails: an
// unmatched path yields (nil, false) and the caller treats the file as a
// verbatim-copied asset.
func (r *Registry) Resolve(path string) (*Format, string, bool) {
	base := baseName(path)

	var best *Format
	var bestExt string
	bestScore := -1

	for _, f := range r.formats {
		for _, ext := range f.Extensions {
			if !strings.HasSuffix(base, ext) {
				continue
			}
			score := len(ext)
			if f.PageSubExtension != "" && strings.HasSuffix(strings.TrimSuffix(base, ext), f.PageSubExtension) {
				score += len(f.PageSubExtension)
			}
			// Strictly greater keeps the first structural match on ties.
			if score > bestScore {
				best, bestExt, bestScore = f, ext, score
			}
		}
	}

	if best == nil {
		return nil, "", false
	}
	return best, bestExt, true
}

// IsPage reports whether path is a standalone page under its resolved
// format. Files of a format with a page sub-extension that lack it are
// components/partials, not pages.
func (r *Registry) IsPage(path string) bool {
	f, ext, ok := r.Resolve(path)
	if !ok {
		return false
	}
	if f.PageSubExtension == "" {
		return true
	}
	return strings.HasSuffix(strings.TrimSuffix(baseName(path), ext), f.PageSubExtension)
}

// IncludesPaths returns every directory reserved for includes by a
// registered format. Discovery excludes them from page enumeration.
func (r *Registry) IncludesPaths() []string {
	var out []string
	for _, f := range r.formats {
		if f.Includes != "" {
			out = append(out, f.Includes)
		}
	}
	return out
}

// DefaultEngine returns the default engine name for path, or "" when the
// path has no registered format or the format carries no engine.
func (r *Registry) DefaultEngine(path string) string {
	f, _, ok := r.Resolve(path)
	if !ok {
		return ""
	}
	return f.Engine
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func sameExtensions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, e := range a {
		set[e] = struct{}{}
	}
	for _, e := range b {
		if _, ok := set[e]; !ok {
			return false
		}
	}
	return true
}
