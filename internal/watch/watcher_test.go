package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func newTestWatcher(t *testing.T) (*Watcher, *site.Site, afero.Fs, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	src := afero.NewMemMapFs()
	s := site.New(config.Default(),
		site.WithSourceFs(src),
		site.WithOutputFs(afero.NewMemMapFs()),
		site.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.RegisterDefaults()
	t.Cleanup(s.Close)

	w, err := New(s, Config{
		SourceRoot:  root,
		QuietWindow: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	w.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	return w, s, src, root
}

func TestNew_RejectsZeroQuietWindow(t *testing.T) {
	s := site.New(config.Default(),
		site.WithSourceFs(afero.NewMemMapFs()),
		site.WithOutputFs(afero.NewMemMapFs()))
	t.Cleanup(s.Close)

	_, err := New(s, Config{SourceRoot: t.TempDir()})
	require.Error(t, err)
}

func TestNew_DefaultsMaxDelay(t *testing.T) {
	w, _, _, _ := newTestWatcher(t)
	require.Equal(t, 100*time.Millisecond, w.cfg.MaxDelay)
}

func TestClassify_DropsChmodOnlyEvents(t *testing.T) {
	w, _, _, root := newTestWatcher(t)

	_, ok := w.classify(fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Chmod})
	require.False(t, ok)
}

func TestClassify_ReturnsRootRelativeSlashPath(t *testing.T) {
	w, _, _, root := newTestWatcher(t)

	rel, ok := w.classify(fsnotify.Event{Name: filepath.Join(root, "docs", "guide.md"), Op: fsnotify.Write})
	require.True(t, ok)
	require.Equal(t, "docs/guide.md", rel)
}

func TestClassify_DropsPathsOutsideRoot(t *testing.T) {
	w, _, _, _ := newTestWatcher(t)

	_, ok := w.classify(fsnotify.Event{Name: filepath.Join(t.TempDir(), "other.md"), Op: fsnotify.Write})
	require.False(t, ok)
}

func TestClassify_DropsEditorTempFiles(t *testing.T) {
	w, _, _, root := newTestWatcher(t)

	_, ok := w.classify(fsnotify.Event{Name: filepath.Join(root, "a.md~"), Op: fsnotify.Write})
	require.False(t, ok)

	_, ok = w.classify(fsnotify.Event{Name: filepath.Join(root, ".#a.md"), Op: fsnotify.Write})
	require.False(t, ok)
}

func TestClassify_CreatedDirectoryJoinsWatchSetWithoutRebuild(t *testing.T) {
	w, _, _, root := newTestWatcher(t)

	newDir := filepath.Join(root, "new-section")
	require.NoError(t, os.Mkdir(newDir, 0o755))

	_, ok := w.classify(fsnotify.Event{Name: newDir, Op: fsnotify.Create})
	require.False(t, ok, "a directory creation schedules no page rebuild")
}

func TestIsConfigChange(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	s := site.New(config.Default(),
		site.WithSourceFs(afero.NewMemMapFs()),
		site.WithOutputFs(afero.NewMemMapFs()))
	t.Cleanup(s.Close)

	w, err := New(s, Config{SourceRoot: root, ConfigPath: cfgPath, QuietWindow: time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.True(t, w.isConfigChange(fsnotify.Event{Name: cfgPath, Op: fsnotify.Write}))
	require.False(t, w.isConfigChange(fsnotify.Event{Name: cfgPath, Op: fsnotify.Chmod}))
	require.False(t, w.isConfigChange(fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Write}))
}

func TestRebuild_EmptyChangeSetIsANoOp(t *testing.T) {
	w, _, _, _ := newTestWatcher(t)
	require.NoError(t, w.rebuild(context.Background(), nil))
}

func TestRebuild_RestartRequestAbortsTheSession(t *testing.T) {
	w, s, _, _ := newTestWatcher(t)

	ch, unsub := events.Subscribe[events.BeforeUpdate](s.Bus(), 1)
	defer unsub()

	// First cycle: the subscriber has not acted yet, so the rebuild proceeds.
	require.NoError(t, w.rebuild(context.Background(), []string{"a.md"}))

	evt := <-ch
	require.Equal(t, []string{"a.md"}, evt.Changed)
	evt.RequestRestart()

	// The latched request aborts the next cycle.
	err := w.rebuild(context.Background(), []string{"a.md"})
	require.True(t, errors.Is(err, ErrRestart))
}

func TestRebuild_PageFailuresKeepTheSessionAlive(t *testing.T) {
	w, _, src, _ := newTestWatcher(t)

	require.NoError(t, afero.WriteFile(src, "bad.md", []byte("---\ndate: nope\n---\nx\n"), 0o644))

	require.NoError(t, w.rebuild(context.Background(), []string{"bad.md"}))
}
