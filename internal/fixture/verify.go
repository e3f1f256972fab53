package fixture

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"cnav/internal/index"
)

// Check names the lookup a result exercised.
type Check uint8

const (
	CheckDefinition Check = iota
	CheckReferences
)

func (c Check) String() string {
	if c == CheckReferences {
		return "references"
	}
	return "definition"
}

// Result is the outcome of one @jump or @ref_target marker.
type Result struct {
	Check  Check
	Tag    string
	Line   uint32
	Pass   bool
	Detail string
}

// Report collects the results for one file.
type Report struct {
	Path    string
	Results []Result
	// Problems are malformed annotations: duplicate @def tags, @ref_expect
	// without a target.
	Problems []string
}

func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Pass {
			n++
		}
	}
	return n
}

func (r *Report) Total() int { return len(r.Results) }

// OK reports a file whose every check passed with no malformed markers.
func (r *Report) OK() bool {
	return len(r.Problems) == 0 && r.Passed() == r.Total()
}

// Verify checks the markers embedded in the index's own source text.
func Verify(ix *index.Index) *Report {
	rep := &Report{Path: ix.Path()}
	markers := Parse(&ix.File)

	defs := make(map[string]Marker)
	expects := make(map[string][]uint32)
	targets := make(map[string]bool)
	for _, m := range markers {
		switch m.Kind {
		case KindDef:
			if prev, dup := defs[m.Tag]; dup {
				rep.Problems = append(rep.Problems, fmt.Sprintf("line %d: @def %s already on line %d", m.Line, m.Tag, prev.Line))
				continue
			}
			defs[m.Tag] = m
		case KindRefExpect:
			expects[m.Tag] = append(expects[m.Tag], m.Line)
		case KindRefTarget:
			targets[m.Tag] = true
		}
	}
	for tag, lines := range expects {
		if !targets[tag] {
			rep.Problems = append(rep.Problems, fmt.Sprintf("line %d: @ref_expect %s has no @ref_target", lines[0], tag))
		}
	}
	sort.Strings(rep.Problems)

	for _, m := range markers {
		switch m.Kind {
		case KindJump:
			rep.Results = append(rep.Results, checkJump(ix, m, defs))
		case KindRefTarget:
			rep.Results = append(rep.Results, checkRefs(ix, m, expects[m.Tag]))
		}
	}
	return rep
}

func checkJump(ix *index.Index, m Marker, defs map[string]Marker) Result {
	res := Result{Check: CheckDefinition, Tag: m.Tag, Line: m.Line}
	def, ok := defs[m.Tag]
	switch {
	case !ok:
		res.Detail = "no @def for tag"
		return res
	case m.Span.Empty():
		res.Detail = "no identifier on line"
		return res
	}
	sp, err := ix.DefinitionAt(m.Span.Start)
	if err != nil {
		res.Detail = fmt.Sprintf("%s: %v", ix.Text(m.Span), err)
		return res
	}
	got := ix.File.LineCol(sp.Start)
	res.Pass = got.Line == def.Line && (def.Span.Empty() || sp.Contains(def.Span.Start))
	res.Detail = fmt.Sprintf("%s -> line %d col %d %q, want line %d", ix.Text(m.Span), got.Line, got.Col, ix.Text(sp), def.Line)
	return res
}

func checkRefs(ix *index.Index, m Marker, expected []uint32) Result {
	res := Result{Check: CheckReferences, Tag: m.Tag, Line: m.Line}
	if m.Span.Empty() {
		res.Detail = "no identifier on line"
		return res
	}
	spans, err := ix.ReferencesAt(m.Span.Start, true)
	if err != nil {
		res.Detail = fmt.Sprintf("%s: %v", ix.Text(m.Span), err)
		return res
	}

	want := append([]uint32{m.Line}, expected...)
	if def, err := ix.DefinitionAt(m.Span.Start); err == nil {
		want = append(want, ix.File.LineCol(def.Start).Line)
	}
	got := make([]uint32, 0, len(spans))
	for _, sp := range spans {
		got = append(got, ix.File.LineCol(sp.Start).Line)
	}
	want, got = uniqueLines(want), uniqueLines(got)

	var missing, extra []string
	for _, l := range want {
		if _, found := slices.BinarySearch(got, l); !found {
			missing = append(missing, fmt.Sprint(l))
		}
	}
	for _, l := range got {
		if _, found := slices.BinarySearch(want, l); !found {
			extra = append(extra, fmt.Sprint(l))
		}
	}
	res.Pass = len(missing) == 0 && len(extra) == 0
	res.Detail = fmt.Sprintf("%s: %d references", ix.Text(m.Span), len(spans))
	if len(missing) > 0 {
		res.Detail += ", missing lines " + strings.Join(missing, ",")
	}
	if len(extra) > 0 {
		res.Detail += ", unexpected lines " + strings.Join(extra, ",")
	}
	return res
}

func uniqueLines(lines []uint32) []uint32 {
	slices.Sort(lines)
	return slices.Compact(lines)
}

// Score sums passed and total checks over reports.
func Score(reports []*Report) (passed, total int) {
	for _, r := range reports {
		passed += r.Passed()
		total += r.Total()
	}
	return passed, total
}
