package fixture

import (
	"fmt"
	"regexp"
	"strings"

	"cnav/internal/source"
	"cnav/internal/token"
)

type Kind uint8

const (
	KindDef Kind = iota
	KindJump
	KindRefTarget
	KindRefExpect
)

var kindNames = [...]string{
	KindDef:       "def",
	KindJump:      "jump",
	KindRefTarget: "ref_target",
	KindRefExpect: "ref_expect",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return "@" + kindNames[k]
	}
	return "@?"
}

func parseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k) // #nosec G115 -- small table
		}
	}
	return KindDef
}

// Marker is one annotation with the identifier it points at.
type Marker struct {
	Kind Kind
	Tag  string
	Word string // explicit ":word", if any
	Line uint32 // 1-based
	// Span covers the chosen identifier; empty when no identifier was found.
	Span source.Span
}

func (m Marker) String() string {
	if m.Word != "" {
		return fmt.Sprintf("%s %s:%s line %d", m.Kind, m.Tag, m.Word, m.Line)
	}
	return fmt.Sprintf("%s %s line %d", m.Kind, m.Tag, m.Line)
}

var (
	markerRE = regexp.MustCompile(`//\s*@(def|jump|ref_target|ref_expect):\s*(\w+)(?::(\w+))?`)
	identRE  = regexp.MustCompile(`[A-Za-z_]\w*`)
)

// Parse extracts markers from f in line order.
func Parse(f *source.File) []Marker {
	var out []Marker
	for line := uint32(1); line <= f.LineCount(); line++ {
		text := f.GetLine(line)
		loc := markerRE.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		m := Marker{
			Kind: parseKind(text[loc[2]:loc[3]]),
			Tag:  text[loc[4]:loc[5]],
			Line: line,
		}
		if loc[6] >= 0 {
			m.Word = text[loc[6]:loc[7]]
		}
		code := text[:loc[0]]
		if start, n, ok := locate(code, m.Tag, m.Word); ok {
			base, _ := f.LineStart(line)
			m.Span = source.Span{
				File:  f.ID,
				Start: base + uint32(start),   // #nosec G115 -- bounded by line length
				End:   base + uint32(start+n), // #nosec G115 -- bounded by line length
			}
		}
		out = append(out, m)
	}
	return out
}

// locate picks the identifier in code a marker refers to.
func locate(code, tag, word string) (start, n int, ok bool) {
	idents := identRE.FindAllStringIndex(code, -1)
	find := func(match func(string) bool) (int, int, bool) {
		for _, loc := range idents {
			if s := code[loc[0]:loc[1]]; match(s) && !isDirective(code, loc[0]) {
				return loc[0], len(s), true
			}
		}
		return 0, 0, false
	}
	if word != "" {
		return find(func(s string) bool { return s == word })
	}
	if start, n, ok = find(func(s string) bool { return s == tag }); ok {
		return start, n, ok
	}
	if start, n, ok = find(func(s string) bool { return strings.EqualFold(s, tag) }); ok {
		return start, n, ok
	}
	parts := strings.Split(tag, "_")
	for i := 1; i < len(parts); i++ {
		suffix := strings.Join(parts[i:], "_")
		if start, n, ok = find(func(s string) bool { return s == suffix }); ok {
			return start, n, ok
		}
	}
	return find(func(s string) bool {
		_, kw := token.LookupKeyword(s)
		return !kw
	})
}

// isDirective reports a preprocessor directive name such as define in
// "#define".
func isDirective(code string, at int) bool {
	return strings.HasSuffix(strings.TrimRight(code[:at], " \t"), "#")
}
