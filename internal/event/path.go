package event

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a field name or an array index.
type Segment struct {
	field   string
	index   int
	isIndex bool
}

// FieldSegment creates a segment addressing a map field.
func FieldSegment(name string) Segment {
	return Segment{field: name}
}

// IndexSegment creates a segment addressing an array element.
func IndexSegment(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Field returns the field name. Empty for index segments.
func (s Segment) Field() string { return s.field }

// Index returns the array index. Zero for field segments.
func (s Segment) Index() int { return s.index }

// String renders the segment the way ParsePath reads it.
func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return escapeField(s.field)
}

// Path locates a node inside an event. A Path always starts with a field
// segment and is immutable: every method that derives a new Path copies
// the segments.
type Path struct {
	segments []Segment
}

// NewPath creates a path from a leading field name and further segments.
func NewPath(first string, rest ...Segment) Path {
	segs := make([]Segment, 0, len(rest)+1)
	segs = append(segs, FieldSegment(first))
	segs = append(segs, rest...)
	return Path{segments: segs}
}

// ParsePath parses the textual path syntax:
//
//	foo.bar          two field segments
//	foo[0].bar       field, index, field
//	"a.b".c          quoted field containing a dot
//	foo bar\.baz.buz escaped dot; segments "foo bar.baz" and "buz"
//
// A path must start with a field and must not contain empty fields.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("empty path")
	}

	var segs []Segment
	i := 0
	for {
		name, next, err := parseField(s, i)
		if err != nil {
			return Path{}, fmt.Errorf("parse path %q: %w", s, err)
		}
		segs = append(segs, FieldSegment(name))
		i = next

		for i < len(s) && s[i] == '[' {
			idx, next, err := parseIndex(s, i)
			if err != nil {
				return Path{}, fmt.Errorf("parse path %q: %w", s, err)
			}
			segs = append(segs, IndexSegment(idx))
			i = next
		}

		if i == len(s) {
			break
		}
		if s[i] != '.' {
			return Path{}, fmt.Errorf("parse path %q: unexpected %q at offset %d", s, s[i], i)
		}
		i++
		if i == len(s) {
			return Path{}, fmt.Errorf("parse path %q: trailing '.'", s)
		}
	}

	return Path{segments: segs}, nil
}

// MustParsePath is like ParsePath but panics on error.
// Intended for tests and package-level literals.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// parseField reads one field segment starting at offset i.
// Returns the unescaped name and the offset after it.
func parseField(s string, i int) (string, int, error) {
	var b strings.Builder

	if s[i] == '"' {
		i++
		for i < len(s) {
			switch s[i] {
			case '\\':
				if i+1 >= len(s) {
					return "", 0, fmt.Errorf("dangling escape at offset %d", i)
				}
				b.WriteByte(s[i+1])
				i += 2
			case '"':
				if b.Len() == 0 {
					return "", 0, fmt.Errorf("empty quoted field at offset %d", i)
				}
				return b.String(), i + 1, nil
			default:
				b.WriteByte(s[i])
				i++
			}
		}
		return "", 0, fmt.Errorf("unterminated quoted field")
	}

	start := i
	for i < len(s) {
		c := s[i]
		if c == '.' || c == '[' {
			break
		}
		if c == '\\' {
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("dangling escape at offset %d", i)
			}
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	if b.Len() == 0 {
		return "", 0, fmt.Errorf("empty field at offset %d", start)
	}
	return b.String(), i, nil
}

// parseIndex reads an index segment "[n]" starting at offset i.
func parseIndex(s string, i int) (int, int, error) {
	end := strings.IndexByte(s[i:], ']')
	if end < 0 {
		return 0, 0, fmt.Errorf("unterminated index at offset %d", i)
	}
	digits := s[i+1 : i+end]
	if digits == "" {
		return 0, 0, fmt.Errorf("empty index at offset %d", i)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("invalid index %q at offset %d", digits, i)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index %q: %w", digits, err)
	}
	return n, i + end + 1, nil
}

func escapeField(name string) string {
	if !strings.ContainsAny(name, `.[]\"`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '.', '[', ']', '\\', '"':
			b.WriteByte('\\')
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	return slices.Clone(p.segments)
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// IsEmpty reports whether p is the zero Path.
func (p Path) IsEmpty() bool { return len(p.segments) == 0 }

// Field returns a new path extended by a field segment.
func (p Path) Field(name string) Path {
	return p.append(FieldSegment(name))
}

// Index returns a new path extended by an index segment.
func (p Path) Index(i int) Path {
	return p.append(IndexSegment(i))
}

func (p Path) append(seg Segment) Path {
	segs := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(segs, p.segments)
	return Path{segments: append(segs, seg)}
}

// Parent returns the path without its last segment.
// Returns false for single-segment and empty paths.
func (p Path) Parent() (Path, bool) {
	if len(p.segments) < 2 {
		return Path{}, false
	}
	return Path{segments: slices.Clone(p.segments[:len(p.segments)-1])}, true
}

// Equal reports whether both paths have identical segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.segments, other.segments)
}

// Covers reports whether k is p itself or a descendant of p, i.e. p's
// segments are a prefix of k's. A field segment never matches an index
// segment, even when the field name is numeric.
func (p Path) Covers(k Path) bool {
	if len(p.segments) > len(k.segments) {
		return false
	}
	return slices.Equal(p.segments, k.segments[:len(p.segments)])
}

// IsAncestorOf reports whether k is a strict descendant of p.
func (p Path) IsAncestorOf(k Path) bool {
	return len(p.segments) < len(k.segments) && p.Covers(k)
}

// String renders the path in the syntax accepted by ParsePath.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p.segments {
		if i > 0 && !seg.isIndex {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}
