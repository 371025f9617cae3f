package site

import (
	"path"
	"strings"

	"github.com/gosimple/slug"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// destination computes the output path and URL for a page. Assets keep
// their source path verbatim. Pages drop their matched extension and, with
// pretty URLs enabled, become dir/name/index.html with slugified segments.
func (s *Site) destination(p *page.Page) {
	if p.Asset {
		p.Dest = p.Source
		p.URL = "/" + p.Source
		return
	}

	dir, file := path.Split(p.Source)
	name := strings.TrimSuffix(file, p.Ext)

	// Drop the page sub-extension when the format uses one.
	if f, _, ok := s.registry.Resolve(p.Source); ok && f.PageSubExtension != "" {
		name = strings.TrimSuffix(name, f.PageSubExtension)
	}

	segments := []string{}
	if dir != "" {
		for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
			segments = append(segments, slug.Make(seg))
		}
	}

	name = slug.Make(name)
	if s.cfg.Pretty() && name != "index" {
		segments = append(segments, name, "index.html")
	} else {
		segments = append(segments, name+".html")
	}

	p.Dest = path.Join(segments...)
	p.URL = "/" + strings.TrimSuffix(p.Dest, "index.html")
}
