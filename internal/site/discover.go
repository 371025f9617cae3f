package site

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// discover walks the source tree and returns the root-relative paths of
// every candidate file: standalone pages and verbatim assets. Reserved
// trees are excluded: the includes directory, cascade data files, ignore
// globs, and anything whose name starts with "." or "_".
func (s *Site) discover() ([]string, error) {
	var out []string

	excluded := s.excludedPrefixes()

	err := afero.Walk(s.source, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		rel := strings.TrimPrefix(p, "./")
		name := info.Name()
		hidden := strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")

		if info.IsDir() {
			if hidden || hasPrefixIn(rel, excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		if hidden || hasPrefixIn(rel, excluded) || s.ignored(rel) {
			return nil
		}

		// A file of a sub-extension format without the page sub-extension is
		// a component/partial, not a standalone output.
		if f, _, ok := s.registry.Resolve(rel); ok && !f.IsAsset && !s.registry.IsPage(rel) {
			return nil
		}

		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

// excludedPrefixes collects directory prefixes reserved away from page
// discovery: every format's includes path plus the session includes dir.
func (s *Site) excludedPrefixes() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	add(s.cfg.Includes)
	for _, p := range s.registry.IncludesPaths() {
		add(p)
	}
	return out
}

func (s *Site) ignored(rel string) bool {
	for _, pattern := range s.cfg.Ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func hasPrefixIn(rel string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
