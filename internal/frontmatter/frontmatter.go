// Package frontmatter splits and parses YAML front matter from source
// documents. It only reads; sitebuilder never rewrites sources.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a document opens a front-matter
// block without closing it.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing --- delimiter")

var (
	delimLF   = []byte("---\n")
	delimCRLF = []byte("---\r\n")
)

// Split separates `---` delimited YAML front matter from the body. If the
// document does not start with a delimiter, had is false and body is the
// full input. CRLF documents are handled.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	open := delimLF
	nl := []byte("\n")
	if bytes.HasPrefix(content, delimCRLF) {
		open = delimCRLF
		nl = []byte("\r\n")
	}
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]

	// Empty front matter: the closing delimiter immediately follows.
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], true, nil
	}

	closeSeq := append(append([]byte{}, nl...), open...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	fm = rest[:idx+len(nl)]
	body = rest[idx+len(closeSeq):]
	return fm, body, true, nil
}

// Parse decodes raw front matter (delimiters already stripped) into a map.
// Empty input yields an empty map, not nil.
func Parse(fm []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(fm)) == 0 {
		return out, nil
	}
	if err := yaml.Unmarshal(fm, &out); err != nil {
		return nil, err
	}
	return out, nil
}
