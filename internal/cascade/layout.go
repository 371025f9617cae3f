package cascade

import (
	"context"
	"errors"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// ErrLayoutCycle marks a layout chain that revisits a template already in
// the current chain. Reported distinctly from template evaluation failures.
var ErrLayoutCycle = errors.New("layout cycle")

// Renderer is the slice of the renderer the layout loop needs.
type Renderer interface {
	Render(ctx context.Context, content string, data page.Context, filename string) (string, error)
}

// LayoutLoader resolves a layout name (as written in front matter) to its
// template content, its own data, and its source path.
type LayoutLoader interface {
	LoadLayout(name string) (content []byte, data page.Context, path string, err error)
}

// LayoutResolver embeds rendered page output into its layout chain: the
// current body lands in the layout's context under the reserved content key,
// the layout renders, and the loop repeats while the resulting context still
// names a further layout. The chain has no fixed maximum depth; a revisited
// template is a page-fatal cycle.
type LayoutResolver struct {
	renderer Renderer
	loader   LayoutLoader
}

func NewLayoutResolver(renderer Renderer, loader LayoutLoader) *LayoutResolver {
	return &LayoutResolver{renderer: renderer, loader: loader}
}

// Apply runs the layout chain over p.Rendered in place. It returns the
// layout source paths it rendered, for dependency tracking.
func (r *LayoutResolver) Apply(ctx context.Context, p *page.Page) ([]string, error) {
	data := p.Context.Clone()
	visited := map[string]bool{}
	var refs []string

	for {
		name, ok := data.Layout()
		if !ok {
			return refs, nil
		}
		if visited[name] {
			return refs, ferrors.WrapError(ErrLayoutCycle, ferrors.CategoryLayout, "layout chain revisits template").
				WithContext("layout", name).
				WithContext("source", p.Source).
				Build()
		}
		visited[name] = true

		content, layoutData, path, err := r.loader.LoadLayout(name)
		if err != nil {
			return refs, ferrors.WrapError(err, ferrors.CategoryLayout, "loading layout").
				WithContext("layout", name).
				WithContext("source", p.Source).
				Build()
		}
		refs = append(refs, path)

		// The page's data wins over the layout's own, except that the next
		// chain link comes from the layout's front matter, so the page's
		// layout key must not shadow it.
		delete(data, page.KeyLayout)
		merged, err := Merge(layoutData, data)
		if err != nil {
			return refs, err
		}
		merged[page.KeyContent] = p.Rendered

		out, err := r.renderer.Render(ctx, string(content), merged, path)
		if err != nil {
			return refs, err
		}

		p.Rendered = out
		data = merged
	}
}
