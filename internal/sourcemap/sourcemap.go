// Package sourcemap implements the source map v3 format: decoding and
// encoding of base64-VLQ mappings, and composition of two maps so chained
// content transforms can report positions in the original source.
package sourcemap

import (
	"encoding/json"
	"sort"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Map is a decoded source map. Mappings holds the raw VLQ string; segments
// the decoded form. Parse fills segments from Mappings, Marshal regenerates
// Mappings from segments.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names,omitempty"`
	Mappings       string   `json:"mappings"`

	segments []Segment
}

// Segment maps one generated position to one original position.
type Segment struct {
	GenLine, GenCol   int
	SourceIndex       int
	OrigLine, OrigCol int
	NameIndex         int // -1 when absent
}

// New creates an empty map for the given output file.
func New(file string, sources ...string) *Map {
	return &Map{Version: 3, File: file, Sources: sources}
}

// Parse decodes a serialized source map, including its mappings.
func Parse(raw []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryProcessor, "invalid source map").Build()
	}
	if m.Version != 3 {
		return nil, ferrors.ProcessorError("unsupported source map version").
			WithContext("version", m.Version).
			Build()
	}
	if err := m.decodeMappings(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Marshal encodes the map, regenerating the VLQ mappings from Segments.
func (m *Map) Marshal() ([]byte, error) {
	m.encodeMappings()
	m.Version = 3
	return json.Marshal(m)
}

// AddSegment appends a mapping. Lookup assumes segments arrive in generated
// order; Marshal re-sorts before encoding.
func (m *Map) AddSegment(s Segment) {
	m.segments = append(m.segments, s)
}

// Segments returns the decoded mappings.
func (m *Map) Segments() []Segment {
	return m.segments
}

// Lookup returns the segment covering the generated position, if any: the
// last segment at or before (line, col) on the same line.
func (m *Map) Lookup(genLine, genCol int) (Segment, bool) {
	segs := m.segments
	i := sort.Search(len(segs), func(i int) bool {
		s := segs[i]
		return s.GenLine > genLine || (s.GenLine == genLine && s.GenCol > genCol)
	})
	if i == 0 {
		return Segment{}, false
	}
	s := segs[i-1]
	if s.GenLine != genLine {
		return Segment{}, false
	}
	return s, true
}

// Compose folds an outer map (produced by the latest transform, whose
// "sources" are the previous content) with the inner map from the previous
// transform, yielding a map from the newest generated content all the way
// back to the inner map's original sources. Outer segments whose position
// has no inner mapping are dropped. A nil inner map returns outer unchanged.
func Compose(outer, inner *Map) *Map {
	if inner == nil {
		return outer
	}
	if outer == nil {
		return inner
	}

	out := New(outer.File, inner.Sources...)
	out.SourcesContent = inner.SourcesContent
	out.Names = inner.Names

	for _, seg := range outer.segments {
		orig, ok := inner.Lookup(seg.OrigLine, seg.OrigCol)
		if !ok {
			continue
		}
		out.AddSegment(Segment{
			GenLine:     seg.GenLine,
			GenCol:      seg.GenCol,
			SourceIndex: orig.SourceIndex,
			OrigLine:    orig.OrigLine,
			OrigCol:     orig.OrigCol,
			NameIndex:   orig.NameIndex,
		})
	}
	return out
}
