// Package watch drives incremental rebuilds: it batches filesystem change
// notifications into rebuild scopes, serializes rebuild cycles, and turns
// configuration changes into a clean restart signal.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// ErrRestart tells the caller to tear the session down and start over from
// configuration. Raised when the config file changes or a BeforeUpdate
// subscriber requests it.
var ErrRestart = errors.New("watch: restart requested")

// Config for one watch session.
type Config struct {
	// SourceRoot is the absolute path of the source tree.
	SourceRoot string
	// ConfigPath is the absolute path of the site configuration file.
	// Empty disables config watching.
	ConfigPath string
	// QuietWindow batches change notifications arriving close together.
	QuietWindow time.Duration
	// MaxDelay caps how long a burst can postpone a rebuild.
	MaxDelay time.Duration
}

// Watcher owns the watch loop for a build session. The loop is
// single-threaded and cooperative: rebuilds run inline, so there is never
// more than one in flight, and changes arriving during a rebuild are
// coalesced into the next cycle.
type Watcher struct {
	site   *site.Site
	cfg    Config
	logger *slog.Logger
	fsw    *fsnotify.Watcher

	// restart latches a BeforeUpdate restart request. A request that lands
	// after the post-publish check still aborts on the next loop iteration.
	restart atomic.Bool
}

func New(s *site.Site, cfg Config) (*Watcher, error) {
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * cfg.QuietWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "creating file watcher").Build()
	}

	w := &Watcher{
		site:   s,
		cfg:    cfg,
		logger: slog.Default(),
		fsw:    fsw,
	}

	if err := w.addSourceTree(); err != nil {
		fsw.Close()
		return nil, err
	}
	if cfg.ConfigPath != "" {
		// Watch the directory; editors replace files rather than write them.
		if err := fsw.Add(filepath.Dir(cfg.ConfigPath)); err != nil {
			fsw.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "watching config directory").
				WithContext("path", cfg.ConfigPath).
				Build()
		}
	}

	return w, nil
}

// WithLogger sets a custom logger.
func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	w.logger = logger
	return w
}

// Close releases the filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, rebuilding as changes arrive, until ctx is canceled or a
// restart is required. Returns ErrRestart when the session must be rebuilt
// from configuration; nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	pending := map[string]struct{}{}

	quiet := newStoppedTimer()
	maxDelay := newStoppedTimer()
	defer quiet.Stop()
	defer maxDelay.Stop()

	for {
		if w.restart.Load() {
			return ErrRestart
		}

		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.isConfigChange(evt) {
				w.logger.Info("Configuration changed, requesting restart", "path", evt.Name)
				_ = w.site.Bus().Publish(ctx, events.RestartRequested{Reason: "config changed", Path: evt.Name})
				return ErrRestart
			}
			rel, ok := w.classify(evt)
			if !ok {
				continue
			}
			if len(pending) == 0 {
				maxDelay.Reset(w.cfg.MaxDelay)
			}
			pending[rel] = struct{}{}
			quiet.Reset(w.cfg.QuietWindow)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)

		case <-quiet.C:
			if err := w.rebuild(ctx, drain(pending)); err != nil {
				return err
			}
			maxDelay.Stop()

		case <-maxDelay.C:
			// A steady stream of events can keep resetting the quiet timer;
			// the max delay guarantees the rebuild still happens.
			quiet.Stop()
			if err := w.rebuild(ctx, drain(pending)); err != nil {
				return err
			}
		}
	}
}

// rebuild runs one cycle inline. Build failures are reported and watching
// continues; only a restart request propagates.
func (w *Watcher) rebuild(ctx context.Context, changed []string) error {
	if len(changed) == 0 {
		return nil
	}

	_ = w.site.Bus().Publish(ctx, events.NewBeforeUpdate("", changed, func() { w.restart.Store(true) }))
	if w.restart.Load() {
		w.logger.Info("Restart requested by beforeUpdate subscriber")
		return ErrRestart
	}

	report, err := w.site.Rebuild(ctx, changed)
	if err != nil {
		// Process-scoped failure: report it and keep watching; the last
		// successful output stays in place.
		w.logger.Error("Rebuild failed", "error", err)
		return nil
	}
	if report.Failed() {
		w.logger.Warn("Rebuild finished with page failures", "failed", len(report.Failures))
	}
	return nil
}

// classify converts an event into a root-relative source path, dropping
// noise: chmod-only events, the output tree, editor temp files.
func (w *Watcher) classify(evt fsnotify.Event) (string, bool) {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	// New directories join the watch set immediately so files created in
	// them are seen.
	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(evt.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", evt.Name, "error", err)
			}
			return "", false
		}
	}

	rel, err := filepath.Rel(w.cfg.SourceRoot, evt.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	base := filepath.Base(rel)
	if strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return "", false
	}
	return rel, true
}

func (w *Watcher) isConfigChange(evt fsnotify.Event) bool {
	if w.cfg.ConfigPath == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(evt.Name) == filepath.Clean(w.cfg.ConfigPath)
}

func (w *Watcher) addSourceTree() error {
	return filepath.WalkDir(w.cfg.SourceRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != w.cfg.SourceRoot && (name == ".git" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryWatch, "watching directory").
				WithContext("path", p).
				Build()
		}
		return nil
	})
}

func drain(pending map[string]struct{}) []string {
	out := make([]string, 0, len(pending))
	for p := range pending {
		out = append(out, p)
	}
	clear(pending)
	return out
}

// newStoppedTimer returns a timer that will not fire until Reset.
func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}
