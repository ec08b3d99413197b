package linkscan

// Position is a zero-based location in a text buffer. Col is a byte offset
// within the line, not a rune index; hosts using other column units convert
// at the boundary.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or
// after other in document order.
func (p Position) Compare(other Position) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Col != other.Col {
		if p.Col < other.Col {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// Range is a half-open interval [Start, End) in position coordinates.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos Position) bool {
	return r.Start.Compare(pos) <= 0 && pos.Before(r.End)
}

// Intersects reports whether the two ranges share at least one position.
// Touching end-to-start does not count: ranges are half-open.
func (r Range) Intersects(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Empty reports whether the range spans no positions.
func (r Range) Empty() bool {
	return r.Start.Compare(r.End) >= 0
}
