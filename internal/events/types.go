package events

import "time"

// BuildStarted is emitted when a build cycle begins, before discovery.
type BuildStarted struct {
	BuildID   string
	Full      bool // false for a scoped incremental rebuild
	PageCount int  // 0 when not yet known (full build)
	StartedAt time.Time
}

// PageFailed is emitted for every page-scoped failure during a build.
// The build continues; the failure also lands in the build report.
type PageFailed struct {
	BuildID  string
	Source   string
	Category string
	Err      error
}

// BuildFinished is emitted after persistence, successful or not.
type BuildFinished struct {
	BuildID    string
	Pages      int
	Assets     int
	Failed     int
	Duration   time.Duration
	FinishedAt time.Time
}

// BeforeUpdate is published before an incremental rebuild begins, carrying
// the changed-path set. A collaborator (a CMS front-end, a preview server)
// may call RequestRestart to ask for a full external restart instead of
// letting the orchestrator proceed with a scoped rebuild.
type BeforeUpdate struct {
	BuildID string
	Changed []string

	restart func()
}

// NewBeforeUpdate builds a BeforeUpdate event whose RequestRestart invokes
// the given callback. The callback must be safe to call at most once.
func NewBeforeUpdate(buildID string, changed []string, restart func()) BeforeUpdate {
	return BeforeUpdate{BuildID: buildID, Changed: changed, restart: restart}
}

// RequestRestart asks the watch loop to abort the pending rebuild and
// restart the whole pipeline from configuration.
func (e BeforeUpdate) RequestRestart() {
	if e.restart != nil {
		e.restart()
	}
}

// RestartRequested is emitted when the session must be torn down and
// restarted from the top: the configuration file changed, or a BeforeUpdate
// subscriber requested it.
type RestartRequested struct {
	Reason string
	Path   string
}
