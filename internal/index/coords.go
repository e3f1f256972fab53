package index

import (
	"fmt"

	"fortio.org/safecast"

	"cnav/internal/source"
)

// Coords fixes the numbering of lines and columns exchanged with callers.
// Base 0 matches LSP; base 1 matches compiler diagnostics. Columns count
// bytes.
type Coords struct {
	Base int
}

// Position is a caller-facing cursor.
type Position struct {
	Line int
	Col  int
}

// Range is a caller-facing span: start line and column through end line and
// exclusive end column.
type Range struct {
	Line     int
	StartCol int
	EndLine  int
	EndCol   int
}

func (r Range) String() string {
	if r.EndLine == r.Line {
		return fmt.Sprintf("%d:%d-%d", r.Line, r.StartCol, r.EndCol)
	}
	return fmt.Sprintf("%d:%d-%d:%d", r.Line, r.StartCol, r.EndLine, r.EndCol)
}

// Offset converts a position into a byte offset of the unit. Columns past
// the end of a line clamp to the line end.
func (ix *Index) Offset(c Coords, p Position) (uint32, error) {
	line, err := safecast.Conv[uint32](p.Line - c.Base + 1)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", p.Line, err)
	}
	col, err := safecast.Conv[uint32](p.Col - c.Base + 1)
	if err != nil {
		return 0, fmt.Errorf("column %d: %w", p.Col, err)
	}
	off, ok := ix.File.Offset(source.LineCol{Line: line, Col: col})
	if !ok {
		return 0, fmt.Errorf("position %d:%d outside %s", p.Line, p.Col, ix.File.Path)
	}
	return off, nil
}

// Range converts a span into caller coordinates.
func (ix *Index) Range(c Coords, sp source.Span) Range {
	start, end := ix.File.LineCol(sp.Start), ix.File.LineCol(sp.End)
	shift := c.Base - 1
	return Range{
		Line:     int(start.Line) + shift,
		StartCol: int(start.Col) + shift,
		EndLine:  int(end.Line) + shift,
		EndCol:   int(end.Col) + shift,
	}
}

// Definition answers definition-lookup at p.
func (ix *Index) Definition(c Coords, p Position) (Range, error) {
	off, err := ix.Offset(c, p)
	if err != nil {
		return Range{}, err
	}
	sp, err := ix.DefinitionAt(off)
	if err != nil {
		return Range{}, err
	}
	return ix.Range(c, sp), nil
}

// References answers reference-lookup at p.
func (ix *Index) References(c Coords, p Position, includeDecl bool) ([]Range, error) {
	off, err := ix.Offset(c, p)
	if err != nil {
		return nil, err
	}
	spans, err := ix.ReferencesAt(off, includeDecl)
	if err != nil {
		return nil, err
	}
	out := make([]Range, len(spans))
	for i, sp := range spans {
		out[i] = ix.Range(c, sp)
	}
	return out, nil
}
