package site

import (
	"path"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// frontMatterLoader reads a text document and splits YAML front matter into
// the page's initial context. This is the loader for every built-in format.
func frontMatterLoader(fsys afero.Fs, p string) ([]byte, page.Context, error) {
	raw, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "reading source").
			WithContext("path", p).
			Build()
	}

	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryCascade, "splitting front matter").
			WithContext("path", p).
			Build()
	}

	data, err := frontmatter.Parse(fm)
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryCascade, "parsing front matter").
			WithContext("path", p).
			Build()
	}

	return body, page.Context(data), nil
}

// layoutLoader resolves layout names against the session's includes
// directory. A layout file may itself carry front matter, including a
// further layout key that extends the chain.
type layoutLoader struct {
	site *Site
}

func (l *layoutLoader) LoadLayout(name string) ([]byte, page.Context, string, error) {
	p := path.Join(l.site.cfg.Includes, name)
	body, data, err := frontMatterLoader(l.site.source, p)
	if err != nil {
		return nil, nil, p, err
	}
	return body, data, p, nil
}
