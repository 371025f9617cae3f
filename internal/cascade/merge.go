package cascade

import (
	"dario.cat/mergo"
	"github.com/mohae/deepcopy"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Merge layers src (higher precedence) over dst (lower precedence) and
// returns the result. Mapping values deep-merge key by key, list values
// concatenate (dst's elements first), scalars from src overwrite.
//
// dst is deep-copied first: mergo merges nested maps in place, and dst is
// routinely a cached directory-data context shared across pages.
func Merge(dst, src page.Context) (page.Context, error) {
	out := map[string]any{}
	if dst != nil {
		out = deepcopy.Copy(map[string]any(dst)).(map[string]any)
	}
	if err := mergo.Merge(&out, map[string]any(src), mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCascade, "context merge failed").Build()
	}
	return page.Context(out), nil
}

// MergeAll folds sources lowest-precedence first.
func MergeAll(sources ...page.Context) (page.Context, error) {
	out := page.Context{}
	for _, src := range sources {
		merged, err := Merge(out, src)
		if err != nil {
			return nil, err
		}
		out = merged
	}
	return out, nil
}
