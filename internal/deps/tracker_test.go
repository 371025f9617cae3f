package deps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_DependentsOf(t *testing.T) {
	tr := NewTracker()
	tr.Record("docs/a.md", "_includes/base.tmpl", "_data.yml")
	tr.Record("docs/b.md", "_includes/base.tmpl")
	tr.Record("index.md")

	pages, known := tr.DependentsOf("_includes/base.tmpl")
	require.True(t, known)
	require.Equal(t, []string{"docs/a.md", "docs/b.md"}, pages)

	pages, known = tr.DependentsOf("_data.yml")
	require.True(t, known)
	require.Equal(t, []string{"docs/a.md"}, pages)
}

func TestDependentsOf_UnknownPath(t *testing.T) {
	tr := NewTracker()
	tr.Record("index.md", "_data.yml")

	_, known := tr.DependentsOf("_includes/never-seen.tmpl")
	require.False(t, known, "an unrecorded path cannot bound the dependent set")
}

func TestIsPageSource(t *testing.T) {
	tr := NewTracker()
	tr.Record("index.md")
	tr.Record("style.css")

	require.True(t, tr.IsPageSource("index.md"))
	require.True(t, tr.IsPageSource("style.css"))
	require.False(t, tr.IsPageSource("missing.md"))
}

func TestClearPage_RemovesStaleEdges(t *testing.T) {
	tr := NewTracker()
	tr.Record("a.md", "_includes/old.tmpl")
	tr.Record("b.md", "_includes/old.tmpl")

	tr.ClearPage("a.md")
	tr.Record("a.md", "_includes/new.tmpl")

	pages, known := tr.DependentsOf("_includes/old.tmpl")
	require.True(t, known)
	require.Equal(t, []string{"b.md"}, pages)

	pages, known = tr.DependentsOf("_includes/new.tmpl")
	require.True(t, known)
	require.Equal(t, []string{"a.md"}, pages)
}

func TestClearPage_DropsEmptyReferences(t *testing.T) {
	tr := NewTracker()
	tr.Record("a.md", "_includes/only.tmpl")
	tr.ClearPage("a.md")

	_, known := tr.DependentsOf("_includes/only.tmpl")
	require.False(t, known)
	require.False(t, tr.IsPageSource("a.md"))
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Record("a.md", "_data.yml")
	tr.Reset()

	require.Empty(t, tr.Pages())
	_, known := tr.DependentsOf("_data.yml")
	require.False(t, known)
}

func TestPages_Sorted(t *testing.T) {
	tr := NewTracker()
	tr.Record("z.md")
	tr.Record("a.md")
	tr.Record("m.md")

	require.Equal(t, []string{"a.md", "m.md", "z.md"}, tr.Pages())
}
