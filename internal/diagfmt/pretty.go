package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cnav/internal/diag"
	"cnav/internal/source"
)

const tabWidth = 4

type palette struct {
	sev     map[diag.Severity]*color.Color
	gutter  *color.Color
	caret   *color.Color
	note    *color.Color
	enabled bool
}

func newPalette(enabled bool) palette {
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		},
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgGreen, color.Bold),
		note:    color.New(color.FgCyan),
		enabled: enabled,
	}
}

func (p palette) paint(c *color.Color, s string) string {
	if !p.enabled || c == nil {
		return s
	}
	return c.Sprint(s)
}

// Pretty formats diagnostics of one file for humans. Each diagnostic prints
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source line with a ^~~~ underline under the primary span
// and, when enabled, its notes in the same format.
func Pretty(w io.Writer, f *source.File, diags []diag.Diagnostic, opts PrettyOpts) {
	p := newPalette(opts.Color)
	path := formatPath(f, opts.PathMode, opts.BaseDir)
	for i, d := range diags {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pos := f.LineCol(d.Primary.Start)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			path, pos.Line, pos.Col,
			p.paint(p.sev[d.Severity], d.Severity.String()),
			d.Code.ID(), d.Message)
		writeSnippet(w, f, d.Primary, opts, p)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			np := f.LineCol(n.Span.Start)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.paint(p.note, "note:"), path, np.Line, np.Col, n.Msg)
		}
	}
}

func writeSnippet(w io.Writer, f *source.File, sp source.Span, opts PrettyOpts, p palette) {
	start := f.LineCol(sp.Start)
	if start.Line == 0 || start.Line > f.LineCount() {
		return
	}
	first := start.Line
	if opts.Context > 0 {
		if back := uint32(opts.Context); back < first { // #nosec G115 -- flag values are small
			first -= back
		} else {
			first = 1
		}
	}
	gw := len(fmt.Sprint(start.Line))
	for line := first; line <= start.Line; line++ {
		text := expandTabs(f.GetLine(line))
		if opts.Width > 0 {
			text = runewidth.Truncate(text, opts.Width, "…")
		}
		fmt.Fprintf(w, "%s %s\n", p.paint(p.gutter, fmt.Sprintf("%*d |", gw, line)), text)
	}

	// underline, clipped to the primary line
	raw := f.GetLine(start.Line)
	col := int(start.Col) - 1
	if col > len(raw) {
		col = len(raw)
	}
	end := col + int(sp.Len())
	if end > len(raw) {
		end = len(raw)
	}
	pad := runewidth.StringWidth(expandTabs(raw[:col]))
	width := runewidth.StringWidth(expandTabs(raw[:end])) - pad
	if width < 1 {
		width = 1
	}
	mark := "^" + strings.Repeat("~", width-1)
	if opts.Width > 0 && pad >= opts.Width {
		return
	}
	fmt.Fprintf(w, "%s %s%s\n", p.paint(p.gutter, strings.Repeat(" ", gw)+" |"), strings.Repeat(" ", pad), p.paint(p.caret, mark))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - w%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			w += n
			continue
		}
		b.WriteRune(r)
		w += runewidth.RuneWidth(r)
	}
	return b.String()
}
