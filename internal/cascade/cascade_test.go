package cascade

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
}

func TestContext_FrontMatterWinsOverDirectoryData(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "_data.yml", "title: Site\nauthor: root\n")
	writeFile(t, fsys, "docs/_data.yml", "title: Docs\n")

	c := New(fsys)
	ctx, refs, err := c.Context("docs/guide.md", page.Context{"title": "Guide"})
	require.NoError(t, err)

	require.Equal(t, "Guide", ctx["title"])
	require.Equal(t, "root", ctx["author"])
	require.ElementsMatch(t, []string{"_data.yml", "docs/_data.yml"}, refs)
}

func TestContext_DirectoryDataOverridesRootToLeaf(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "_data.yml", "section: root\n")
	writeFile(t, fsys, "a/_data.yml", "section: a\n")
	writeFile(t, fsys, "a/b/_data.yml", "section: b\n")

	c := New(fsys)
	ctx, _, err := c.Context("a/b/post.md", page.Context{})
	require.NoError(t, err)
	require.Equal(t, "b", ctx["section"])
}

func TestContext_DataDirFilesBecomeTopLevelKeys(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "_data/nav.yml", "- home\n- docs\n")
	writeFile(t, fsys, "_data/colors.yaml", "primary: blue\n")

	c := New(fsys)
	ctx, refs, err := c.Context("index.md", page.Context{})
	require.NoError(t, err)

	require.Equal(t, []any{"home", "docs"}, ctx["nav"])
	require.Equal(t, map[string]any{"primary": "blue"}, ctx["colors"])
	require.ElementsMatch(t, []string{"_data/nav.yml", "_data/colors.yaml"}, refs)
}

func TestContext_NormalizesDateField(t *testing.T) {
	fsys := afero.NewMemMapFs()

	c := New(fsys)
	ctx, _, err := c.Context("post.md", page.Context{"date": "2020-01-01"})
	require.NoError(t, err)

	d, ok := ctx.Date()
	require.True(t, ok)
	require.True(t, d.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)))
}

func TestContext_BadDateFailsThePage(t *testing.T) {
	fsys := afero.NewMemMapFs()

	c := New(fsys)
	_, _, err := c.Context("post.md", page.Context{"date": "not-a-date"})
	require.Error(t, err)
}

func TestContext_BadDataFileFails(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "_data.yml", "title: [unclosed\n")

	c := New(fsys)
	_, _, err := c.Context("index.md", page.Context{})
	require.Error(t, err)
}

func TestContext_DirectoryDataIsCachedUntilInvalidated(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "_data.yml", "title: before\n")

	c := New(fsys)
	ctx, _, err := c.Context("index.md", page.Context{})
	require.NoError(t, err)
	require.Equal(t, "before", ctx["title"])

	writeFile(t, fsys, "_data.yml", "title: after\n")

	ctx, _, err = c.Context("other.md", page.Context{})
	require.NoError(t, err)
	require.Equal(t, "before", ctx["title"], "cached data should be served within a cycle")

	c.InvalidateAll()
	ctx, _, err = c.Context("third.md", page.Context{})
	require.NoError(t, err)
	require.Equal(t, "after", ctx["title"])
}

func TestIsDataPath(t *testing.T) {
	require.True(t, IsDataPath("_data.yml"))
	require.True(t, IsDataPath("docs/_data.yml"))
	require.True(t, IsDataPath("_data/nav.yml"))
	require.True(t, IsDataPath("docs/_data/nav.yml"))
	require.False(t, IsDataPath("docs/guide.md"))
	require.False(t, IsDataPath("data/guide.md"))
}
