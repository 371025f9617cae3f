package site

import (
	"fmt"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Failure is one page-scoped build failure, kept with enough context to
// report the source path and category without re-deriving anything.
type Failure struct {
	Source   string
	Category ferrors.ErrorCategory
	Err      error
}

// Report is the summary of one build cycle. Page-scoped failures are
// collected here, never silently dropped; a one-shot build exits non-zero
// when Failed reports true.
type Report struct {
	BuildID  string
	Full     bool
	Pages    int
	Assets   int
	Failures []Failure
	Duration time.Duration
}

// Failed reports whether any page failed.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Summary renders a one-line human summary plus one line per failure.
func (r *Report) Summary() string {
	var sb strings.Builder
	kind := "full"
	if !r.Full {
		kind = "incremental"
	}
	fmt.Fprintf(&sb, "%s build %s: %d pages, %d assets, %d failed in %s",
		kind, r.BuildID, r.Pages, r.Assets, len(r.Failures), r.Duration.Round(time.Millisecond))
	for _, f := range r.Failures {
		fmt.Fprintf(&sb, "\n  %s [%s]: %v", f.Source, f.Category, f.Err)
	}
	return sb.String()
}
