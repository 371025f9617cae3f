// Package cascade computes each page's render context by layering site-wide
// data, directory-scoped data, front matter, and computed fields, and
// resolves layout indirection over the rendered output.
package cascade

import (
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Data-file conventions, relative to any directory in the source tree:
// `_data.yml` merges directly into that directory's scope, and every file in
// `_data/` contributes a top-level key named after the file.
const (
	dataFile = "_data.yml"
	dataDir  = "_data"
)

// Cascade merges data sources into page contexts. Directory data is parsed
// once per build and cached; InvalidateAll resets the cache between cycles.
type Cascade struct {
	fsys   afero.Fs
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*dirData
}

type dirData struct {
	ctx   page.Context
	files []string
}

func New(fsys afero.Fs) *Cascade {
	return &Cascade{
		fsys:   fsys,
		logger: slog.Default(),
		cache:  make(map[string]*dirData),
	}
}

// WithLogger sets a custom logger.
func (c *Cascade) WithLogger(logger *slog.Logger) *Cascade {
	c.logger = logger
	return c
}

// InvalidateAll drops all cached directory data. The orchestrator calls this
// at the start of every cycle whose changed set touches a data file.
func (c *Cascade) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*dirData)
}

// Context materializes the render context for a page whose front matter has
// already been split off. Precedence, low to high: root data, directory data
// walking root to leaf, front matter, computed fields. It returns the merged
// context and the data-file paths that fed it, for dependency tracking.
func (c *Cascade) Context(source string, front page.Context) (page.Context, []string, error) {
	var refs []string
	var layers []page.Context

	for _, dir := range dirChain(source) {
		dd, err := c.dirData(dir)
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, dd.files...)
		layers = append(layers, dd.ctx)
	}
	layers = append(layers, front)

	merged, err := MergeAll(layers...)
	if err != nil {
		return nil, nil, err
	}

	if err := normalizeDates(merged, source); err != nil {
		return nil, nil, err
	}

	return merged, refs, nil
}

// IsDataPath reports whether a source path holds cascade data. The watch
// bridge uses it to classify changed paths.
func IsDataPath(p string) bool {
	base := path.Base(p)
	if base == dataFile {
		return true
	}
	for _, part := range strings.Split(path.Dir(p), "/") {
		if part == dataDir {
			return true
		}
	}
	return false
}

func (c *Cascade) dirData(dir string) (*dirData, error) {
	c.mu.Lock()
	if dd, ok := c.cache[dir]; ok {
		c.mu.Unlock()
		return dd, nil
	}
	c.mu.Unlock()

	dd, err := c.loadDirData(dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[dir] = dd
	c.mu.Unlock()
	return dd, nil
}

func (c *Cascade) loadDirData(dir string) (*dirData, error) {
	dd := &dirData{ctx: page.Context{}}

	// _data.yml merges directly into the directory scope.
	file := path.Join(dir, dataFile)
	if raw, err := afero.ReadFile(c.fsys, file); err == nil {
		m := map[string]any{}
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryCascade, "invalid data file").
				WithContext("path", file).
				Build()
		}
		merged, err := Merge(dd.ctx, page.Context(m))
		if err != nil {
			return nil, err
		}
		dd.ctx = merged
		dd.files = append(dd.files, file)
	}

	// Each file in _data/ becomes a top-level key named after the file.
	dataPath := path.Join(dir, dataDir)
	entries, err := afero.ReadDir(c.fsys, dataPath)
	if err != nil {
		return dd, nil // no _data directory
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isYAML(name) {
			continue
		}
		file := path.Join(dataPath, name)
		raw, err := afero.ReadFile(c.fsys, file)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "reading data file").
				WithContext("path", file).
				Build()
		}
		var value any
		if err := yaml.Unmarshal(raw, &value); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryCascade, "invalid data file").
				WithContext("path", file).
				Build()
		}
		key := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		merged, err := Merge(dd.ctx, page.Context{key: value})
		if err != nil {
			return nil, err
		}
		dd.ctx = merged
		dd.files = append(dd.files, file)
	}

	return dd, nil
}

// normalizeDates rewrites date-like string fields into instants. Only the
// reserved keys are touched; a malformed value on them fails the page.
func normalizeDates(ctx page.Context, source string) error {
	for _, key := range []string{page.KeyDate, "updated"} {
		s, ok := ctx[key].(string)
		if !ok {
			continue
		}
		t, err := ParseDate(s)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryCascade, "invalid date field").
				WithContext("key", key).
				WithContext("source", source).
				Build()
		}
		ctx[key] = t
	}
	return nil
}

// dirChain returns every directory from the root down to the page's own,
// root first, so closer data overrides its ancestors.
func dirChain(source string) []string {
	dir := path.Dir(source)
	if dir == "." || dir == "/" {
		return []string{"."}
	}

	parts := strings.Split(dir, "/")
	chain := make([]string, 0, len(parts)+1)
	chain = append(chain, ".")
	for i := range parts {
		chain = append(chain, path.Join(parts[:i+1]...))
	}
	return chain
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
