// Package deps records which includes, layouts, and data files each page's
// build referenced, and answers the inverse question after a change: which
// pages does a changed path invalidate.
package deps

import (
	"sort"
	"sync"
)

// Tracker is the best-effort dependency index behind incremental rebuilds.
// It is repopulated during every build; between builds it is read-only.
//
// Precision model: a page's cascade data files and layout chain are recorded
// exactly. References the core cannot see (includes resolved inside an
// engine's own evaluation) are not recorded, so a changed path that was
// never recorded and is not a known page source forces the conservative
// fallback of invalidating every page.
type Tracker struct {
	mu sync.RWMutex

	// reverse maps a referenced path to the set of page sources built from it.
	reverse map[string]map[string]struct{}
	// pages is the set of page sources seen in the last completed build.
	pages map[string]struct{}
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset clears the index. Called at the start of every full build.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reverse = make(map[string]map[string]struct{})
	t.pages = make(map[string]struct{})
}

// ClearPage removes a page's recorded references before it is rebuilt, so
// stale edges from the previous cycle do not accumulate.
func (t *Tracker) ClearPage(source string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ref, set := range t.reverse {
		delete(set, source)
		if len(set) == 0 {
			delete(t.reverse, ref)
		}
	}
	delete(t.pages, source)
}

// Record notes that building source referenced the given paths.
func (t *Tracker) Record(source string, refs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages[source] = struct{}{}
	for _, ref := range refs {
		set, ok := t.reverse[ref]
		if !ok {
			set = make(map[string]struct{})
			t.reverse[ref] = set
		}
		set[source] = struct{}{}
	}
}

// IsPageSource reports whether path was built as a page in the last build.
func (t *Tracker) IsPageSource(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pages[path]
	return ok
}

// DependentsOf returns the pages whose build referenced path, and whether
// the path is known to the index at all. known=false means the tracker
// cannot bound the dependent set and the caller must fall back to a full
// rebuild.
func (t *Tracker) DependentsOf(path string) (pages []string, known bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set, ok := t.reverse[path]
	if !ok {
		return nil, false
	}
	pages = make([]string, 0, len(set))
	for p := range set {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages, true
}

// Pages returns every page source in the last build, sorted.
func (t *Tracker) Pages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.pages))
	for p := range t.pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
