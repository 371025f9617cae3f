package site

import (
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/cascade"
)

// Scope is the set of pages that must be re-rendered after a change set.
type Scope struct {
	// Full means the dependent set could not be bounded; rebuild everything.
	Full bool
	// Pages are the root-relative page sources to rebuild.
	Pages []string
	// DataChanged means at least one cascade data file changed, so cached
	// directory data must be dropped before re-cascading.
	DataChanged bool
}

// RebuildScope decides between a scoped and a full rebuild for a changed
// path set, using the dependency tracker populated by the previous build:
//
//   - a changed page source rebuilds itself
//   - a changed include/layout/data file rebuilds every page whose cascade
//     or layout chain referenced it
//   - a path the tracker never saw (an engine-internal include, a brand-new
//     directory) cannot be bounded and forces the conservative fallback of
//     rebuilding every page
func (s *Site) RebuildScope(changed []string) Scope {
	scope := Scope{}
	pageSet := map[string]struct{}{}

	for _, p := range changed {
		if cascade.IsDataPath(p) {
			scope.DataChanged = true
		}

		known := false
		if s.tracker.IsPageSource(p) {
			pageSet[p] = struct{}{}
			known = true
		}
		if dependents, ok := s.tracker.DependentsOf(p); ok {
			for _, d := range dependents {
				pageSet[d] = struct{}{}
			}
			known = true
		}
		if known {
			continue
		}

		// An untracked data file or include cannot be attributed to any
		// bounded set of pages.
		if cascade.IsDataPath(p) || hasPrefixIn(p, s.excludedPrefixes()) {
			scope.Full = true
			continue
		}

		// A new file that is a standalone page, or an unregistered extension
		// (a verbatim asset), only affects itself.
		if f, _, ok := s.registry.Resolve(p); !ok || f.IsAsset || s.registry.IsPage(p) {
			pageSet[p] = struct{}{}
			continue
		}

		scope.Full = true
	}

	if scope.Full {
		return scope
	}

	scope.Pages = make([]string, 0, len(pageSet))
	for p := range pageSet {
		scope.Pages = append(scope.Pages, p)
	}
	sort.Strings(scope.Pages)
	return scope
}
