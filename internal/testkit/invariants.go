package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"cnav/internal/index"
	"cnav/internal/source"
)

// CheckIndexInvariants runs the structural checks a frozen index must pass:
// 1) every occurrence span is non-empty and inside the file content
// 2) occurrences are sorted by start then end, with no repeated range
// 3) every occurrence names a symbol and is listed, in order, in its Refs
// 4) every symbol with a range has its definition inside the file content
func CheckIndexInvariants(ix *index.Index) error {
	if ix == nil {
		return fmt.Errorf("nil index")
	}
	size, err := safecast.Conv[uint32](len(ix.File.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inside := func(sp source.Span) bool {
		return sp.Start < sp.End && sp.End <= size
	}

	// 1) and 2)
	var prev source.Span
	for i, o := range ix.Occurrences {
		if !inside(o.Span) {
			return fmt.Errorf("occurrence %d span %v outside content of %d bytes", i, o.Span, size)
		}
		if i > 0 {
			if o.Span == prev {
				return fmt.Errorf("occurrence %d repeats range %v", i, o.Span)
			}
			if o.Span.Start < prev.Start || (o.Span.Start == prev.Start && o.Span.End < prev.End) {
				return fmt.Errorf("occurrence %d %v sorted before %v", i, o.Span, prev)
			}
		}
		prev = o.Span
	}

	// 3) refs mirror occurrences
	listed := 0
	for id := 1; id < len(ix.Symbols); id++ {
		sym := &ix.Symbols[id]
		last := int32(-1)
		for _, r := range sym.Refs {
			if r <= last {
				return fmt.Errorf("symbol %s refs not ascending at %d", sym.Name, r)
			}
			if int(r) >= len(ix.Occurrences) {
				return fmt.Errorf("symbol %s ref %d out of range", sym.Name, r)
			}
			if got := int(ix.Occurrences[r].Symbol); got != id {
				return fmt.Errorf("symbol %s ref %d belongs to symbol %d", sym.Name, r, got)
			}
			last = r
		}
		listed += len(sym.Refs)

		// 4) definition site
		if sym.HasRange() && !sym.Def.Empty() && !inside(sym.Def) {
			return fmt.Errorf("symbol %s definition %v outside content", sym.Name, sym.Def)
		}
	}
	if listed != len(ix.Occurrences) {
		return fmt.Errorf("refs list %d occurrences, index holds %d", listed, len(ix.Occurrences))
	}
	return nil
}
