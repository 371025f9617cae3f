package gotmpl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

func TestRender_InterpolatesData(t *testing.T) {
	e := New()

	out, err := e.Render(context.Background(), "Hello {{.name}}!", page.Context{"name": "world"}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "Hello world!", out)
}

func TestRender_SprigFunctionsAvailable(t *testing.T) {
	e := New()

	out, err := e.Render(context.Background(), `{{.name | upper}}`, page.Context{"name": "world"}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "WORLD", out)
}

func TestRender_MissingKeyYieldsZeroValue(t *testing.T) {
	e := New()

	out, err := e.Render(context.Background(), "[{{.absent}}]", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "[<no value>]", out)
}

func TestRender_ParseErrorIsReported(t *testing.T) {
	e := New()

	_, err := e.Render(context.Background(), "{{.name", page.Context{}, "broken.tmpl")
	require.Error(t, err)
}

func TestRender_CanceledContextFails(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Render(ctx, "static", page.Context{}, "a.tmpl")
	require.Error(t, err)
}

func TestRender_CompiledTemplateIsCachedPerFilename(t *testing.T) {
	e := New()

	out, err := e.Render(context.Background(), "first", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "first", out)

	// Same filename, new content: the cached compile wins until invalidated.
	out, err = e.Render(context.Background(), "second", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "first", out)

	e.DeleteCache("a.tmpl")
	out, err = e.Render(context.Background(), "second", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "second", out)
}

func TestDeleteCache_EmptyFilenameDropsEverything(t *testing.T) {
	e := New()

	_, err := e.Render(context.Background(), "one", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	_, err = e.Render(context.Background(), "two", page.Context{}, "b.tmpl")
	require.NoError(t, err)

	e.DeleteCache("")

	out, err := e.Render(context.Background(), "one-changed", page.Context{}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "one-changed", out)
}

func TestAddHelper_VisibleInLaterRenders(t *testing.T) {
	e := New()

	// Compile once so the helper registration has a cache to invalidate.
	_, err := e.Render(context.Background(), "plain", page.Context{}, "a.tmpl")
	require.NoError(t, err)

	e.AddHelper(Helper{Name: "shout", Fn: func(s string) string { return s + "!" }})

	out, err := e.Render(context.Background(), `{{shout .name}}`, page.Context{"name": "hi"}, "a.tmpl")
	require.NoError(t, err)
	require.Equal(t, "hi!", out)
}

func TestRenderComponent_SameSemanticsAsRender(t *testing.T) {
	e := New()

	out, err := e.RenderComponent("{{.x}}", page.Context{"x": "y"}, "c.tmpl")
	require.NoError(t, err)
	require.Equal(t, "y", out)
}
