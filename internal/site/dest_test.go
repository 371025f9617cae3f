package site

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

func TestDestination_PrettyURLs(t *testing.T) {
	s, _, _ := newTestSite(t, nil)

	cases := []struct {
		source, ext, dest, url string
	}{
		{"index.md", ".md", "index.html", "/"},
		{"about.md", ".md", "about/index.html", "/about/"},
		{"docs/guide.md", ".md", "docs/guide/index.html", "/docs/guide/"},
		{"docs/index.md", ".md", "docs/index.html", "/docs/"},
		{"My Post.md", ".md", "my-post/index.html", "/my-post/"},
	}
	for _, tc := range cases {
		p := &page.Page{Source: tc.source, Ext: tc.ext}
		s.destination(p)
		require.Equal(t, tc.dest, p.Dest, tc.source)
		require.Equal(t, tc.url, p.URL, tc.source)
	}
}

func TestDestination_PrettyDisabled(t *testing.T) {
	s, _, _ := newTestSite(t, nil)
	f := false
	s.cfg.PrettyURLs = &f

	p := &page.Page{Source: "docs/guide.md", Ext: ".md"}
	s.destination(p)
	require.Equal(t, "docs/guide.html", p.Dest)
	require.Equal(t, "/docs/guide.html", p.URL)
}

func TestDestination_AssetKeepsPath(t *testing.T) {
	s, _, _ := newTestSite(t, nil)

	p := &page.Page{Source: "css/Style Sheet.css", Asset: true}
	s.destination(p)
	require.Equal(t, "css/Style Sheet.css", p.Dest)
	require.Equal(t, "/css/Style Sheet.css", p.URL)
}

func TestDestination_SlugifiesDirectorySegments(t *testing.T) {
	s, _, _ := newTestSite(t, nil)

	p := &page.Page{Source: "Some Dir/Ünicode Post.md", Ext: ".md"}
	s.destination(p)
	require.Equal(t, "some-dir/unicode-post/index.html", p.Dest)
}
