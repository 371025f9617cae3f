package sourcemap

import (
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqBaseShift        = 5
	vlqBase             = 1 << vlqBaseShift // 32
	vlqBaseMask         = vlqBase - 1
	vlqContinuationMask = vlqBase
)

var base64Index = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range base64Chars {
		idx[c] = int8(i)
	}
	return idx
}()

func encodeVLQ(sb *strings.Builder, value int) {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationMask
		}
		sb.WriteByte(base64Chars[digit])
		if vlq == 0 {
			return
		}
	}
}

// decodeVLQ reads one value from s, returning the value and remaining input.
func decodeVLQ(s string) (value int, rest string, err error) {
	shift := 0
	result := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || base64Index[c] < 0 {
			return 0, "", ferrors.ProcessorError("invalid VLQ character in source map").
				WithContext("char", string(c)).
				Build()
		}
		digit := int(base64Index[c])
		result |= (digit & vlqBaseMask) << shift
		if digit&vlqContinuationMask == 0 {
			negative := result&1 == 1
			result >>= 1
			if negative {
				result = -result
			}
			return result, s[i+1:], nil
		}
		shift += vlqBaseShift
	}
	return 0, "", ferrors.ProcessorError("truncated VLQ sequence in source map").Build()
}

// decodeMappings fills segments from the VLQ mappings string. Fields are
// delta-encoded: generated column resets per line, the rest carries across
// the whole map.
func (m *Map) decodeMappings() error {
	m.segments = m.segments[:0]

	genCol, srcIdx, origLine, origCol, nameIdx := 0, 0, 0, 0, 0

	for line, lineStr := range strings.Split(m.Mappings, ";") {
		genCol = 0
		for _, segStr := range strings.Split(lineStr, ",") {
			if segStr == "" {
				continue
			}

			var fields [5]int
			n := 0
			rest := segStr
			for rest != "" && n < 5 {
				v, r, err := decodeVLQ(rest)
				if err != nil {
					return err
				}
				fields[n] = v
				rest = r
				n++
			}
			if n != 1 && n != 4 && n != 5 {
				return ferrors.ProcessorError("malformed source map segment").
					WithContext("segment", segStr).
					Build()
			}

			genCol += fields[0]
			seg := Segment{GenLine: line, GenCol: genCol, SourceIndex: -1, NameIndex: -1}
			if n >= 4 {
				srcIdx += fields[1]
				origLine += fields[2]
				origCol += fields[3]
				seg.SourceIndex = srcIdx
				seg.OrigLine = origLine
				seg.OrigCol = origCol
			}
			if n == 5 {
				nameIdx += fields[4]
				seg.NameIndex = nameIdx
			}
			m.segments = append(m.segments, seg)
		}
	}
	return nil
}

// encodeMappings regenerates the VLQ mappings string from segments.
func (m *Map) encodeMappings() {
	segs := make([]Segment, len(m.segments))
	copy(segs, m.segments)
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].GenLine != segs[j].GenLine {
			return segs[i].GenLine < segs[j].GenLine
		}
		return segs[i].GenCol < segs[j].GenCol
	})

	var sb strings.Builder
	line := 0
	genCol, srcIdx, origLine, origCol, nameIdx := 0, 0, 0, 0, 0
	firstInLine := true

	for _, seg := range segs {
		for line < seg.GenLine {
			sb.WriteByte(';')
			line++
			genCol = 0
			firstInLine = true
		}
		if !firstInLine {
			sb.WriteByte(',')
		}
		firstInLine = false

		encodeVLQ(&sb, seg.GenCol-genCol)
		genCol = seg.GenCol

		if seg.SourceIndex >= 0 {
			encodeVLQ(&sb, seg.SourceIndex-srcIdx)
			srcIdx = seg.SourceIndex
			encodeVLQ(&sb, seg.OrigLine-origLine)
			origLine = seg.OrigLine
			encodeVLQ(&sb, seg.OrigCol-origCol)
			origCol = seg.OrigCol

			if seg.NameIndex >= 0 {
				encodeVLQ(&sb, seg.NameIndex-nameIdx)
				nameIdx = seg.NameIndex
			}
		}
	}

	m.Mappings = sb.String()
}
