package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cnav/internal/index"
	"cnav/internal/source"
)

var defCmd = &cobra.Command{
	Use:   "def [flags] FILE LINE COL",
	Short: "Print the declaration of the identifier at a position",
	Long: `Resolve the identifier at LINE:COL of FILE to the declaration it refers
to. Lines and columns use the configured base (--base); columns count bytes.`,
	Args: cobra.ExactArgs(3),
	RunE: runDef,
}

var refsCmd = &cobra.Command{
	Use:   "refs [flags] FILE LINE COL",
	Short: "List every reference to the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runRefs,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols [flags] FILE",
	Short: "List the symbols declared in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func init() {
	for _, c := range []*cobra.Command{defCmd, refsCmd, symbolsCmd} {
		c.Flags().String("format", "pretty", "output format (pretty|json)")
	}
	refsCmd.Flags().Bool("no-decl", false, "omit declaring occurrences")
}

// location is one result line.
type location struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	EndLine int    `json:"end_line"`
	EndCol  int    `json:"end_col"`
	Text    string `json:"text"`
	Kind    string `json:"kind,omitempty"`
	Name    string `json:"name,omitempty"`
}

func parsePosition(args []string) (index.Position, error) {
	line, err := strconv.Atoi(args[0])
	if err != nil {
		return index.Position{}, fmt.Errorf("invalid line %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return index.Position{}, fmt.Errorf("invalid column %q", args[1])
	}
	return index.Position{Line: line, Col: col}, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json":
		return format, nil
	}
	return "", fmt.Errorf("unknown format: %s", format)
}

// querySetup loads FILE and resolves the position arguments to an offset.
func querySetup(cmd *cobra.Command, args []string) (*session, *index.Index, uint32, error) {
	s, err := openSession(cmd, sessionOptions{start: filepath.Dir(args[0])})
	if err != nil {
		return nil, nil, 0, err
	}
	ix, err := s.load(cmd, args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	if len(args) < 3 {
		return s, ix, 0, nil
	}
	pos, err := parsePosition(args[1:])
	if err != nil {
		return nil, nil, 0, err
	}
	off, err := ix.Offset(s.coords, pos)
	if err != nil {
		return nil, nil, 0, err
	}
	return s, ix, off, nil
}

func (s *session) locate(ix *index.Index, sp source.Span) location {
	r := ix.Range(s.coords, sp)
	path := ix.Path()
	if rel, err := filepath.Rel(s.proj.Root, path); err == nil && filepath.IsLocal(rel) {
		path = rel
	}
	return location{
		File:    path,
		Line:    r.Line,
		Col:     r.StartCol,
		EndLine: r.EndLine,
		EndCol:  r.EndCol,
		Text:    ix.Text(sp),
	}
}

var (
	pathColor = color.New(color.FgCyan)
	kindColor = color.New(color.FgMagenta)
)

func writeLocations(w io.Writer, format string, locs []location) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if locs == nil {
			locs = []location{}
		}
		return enc.Encode(locs)
	}
	for _, l := range locs {
		pos := pathColor.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
		var err error
		if l.Kind != "" {
			_, err = fmt.Fprintf(w, "%s %s %s\n", pos, kindColor.Sprintf("%-14s", l.Kind), l.Name)
		} else {
			_, err = fmt.Fprintf(w, "%s %s\n", pos, l.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runDef(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, ix, off, err := querySetup(cmd, args)
	if err != nil {
		return err
	}
	defer s.finish(os.Stderr)

	sp, err := ix.DefinitionAt(off)
	if errors.Is(err, index.ErrNotFound) {
		if !s.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "no definition found")
		}
		return err
	}
	if err != nil {
		return err
	}
	return writeLocations(cmd.OutOrStdout(), format, []location{s.locate(ix, sp)})
}

func runRefs(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	noDecl, err := cmd.Flags().GetBool("no-decl")
	if err != nil {
		return fmt.Errorf("failed to get no-decl flag: %w", err)
	}
	s, ix, off, err := querySetup(cmd, args)
	if err != nil {
		return err
	}
	defer s.finish(os.Stderr)

	spans, err := ix.ReferencesAt(off, !noDecl)
	if err != nil {
		return err
	}
	locs := make([]location, len(spans))
	for i, sp := range spans {
		locs[i] = s.locate(ix, sp)
	}
	return writeLocations(cmd.OutOrStdout(), format, locs)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, ix, _, err := querySetup(cmd, args)
	if err != nil {
		return err
	}
	defer s.finish(os.Stderr)

	ids := ix.Definitions()
	locs := make([]location, 0, len(ids))
	for _, id := range ids {
		sym := ix.Symbol(id)
		l := s.locate(ix, sym.Def)
		l.Kind, l.Name = sym.Kind.String(), sym.Name
		locs = append(locs, l)
	}
	return writeLocations(cmd.OutOrStdout(), format, locs)
}
