package errors

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryRender represents template evaluation failures inside an engine.
	CategoryRender ErrorCategory = "render"
	// CategoryLayout represents layout-chain resolution failures (cycles, missing layouts).
	CategoryLayout ErrorCategory = "layout"
	// CategoryProcessor represents post-render processor failures.
	CategoryProcessor ErrorCategory = "processor"
	// CategoryCascade represents data-cascade computation failures (bad data files, bad dates).
	CategoryCascade ErrorCategory = "cascade"

	// CategoryFileSystem represents source/output filesystem errors.
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryWatch represents watcher and rebuild-scope errors.
	CategoryWatch ErrorCategory = "watch"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the whole build process
	SeverityError   ErrorSeverity = "error"   // Fails the current page or operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext carries structured key-value context attached to an error.
type ErrorContext map[string]any

// Set returns a copy of the context with the key set.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
