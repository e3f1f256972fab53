package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cnav/internal/diagfmt"
	"cnav/internal/source"
	"cnav/internal/workspace"
)

var indexCmd = &cobra.Command{
	Use:   "index [flags] [DIR]",
	Short: "Index every C source under a directory",
	Long: `Index the project's translation units: the files of compile_commands.json
when DIR is the project root, otherwise every source under DIR whose
extension is listed in [index] extensions, minus .gitignore matches.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Int("jobs", 0, "max parallel builds (0 = [index] jobs, then GOMAXPROCS)")
	indexCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	indexCmd.Flags().Bool("no-cache", false, "ignore the on-disk index cache")
	indexCmd.Flags().Bool("clear-cache", false, "drop the on-disk index cache before indexing")
	indexCmd.Flags().Bool("diagnostics", false, "print soft diagnostics of every file")
	indexCmd.Flags().String("format", "pretty", "report format (pretty|json)")
}

type indexFileReport struct {
	File        string                    `json:"file"`
	Failed      bool                      `json:"failed,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Symbols     int                       `json:"symbols"`
	Occurrences int                       `json:"occurrences"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type indexReport struct {
	Indexed   int               `json:"indexed"`
	Cached    int               `json:"cached"`
	Failed    int               `json:"failed"`
	ElapsedMS float64           `json:"elapsed_ms"`
	Files     []indexFileReport `json:"files"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	showDiags, err := cmd.Flags().GetBool("diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, sessionOptions{start: dir, cache: !noCache})
	if err != nil {
		return err
	}
	if clearCache && s.proj.Config.Index.Cache {
		c, err := openCache(s.proj)
		if err != nil {
			return err
		}
		if err := c.DropAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	files, err := s.proj.Sources(dir)
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = s.proj.Config.Index.Jobs
	}

	start := time.Now()
	var summary workspace.Summary
	if format == "pretty" && shouldUseTUI(mode, s.quiet) {
		title := fmt.Sprintf("Indexing %s", s.proj.Root)
		summary, err = runIndexWithUI(cmd.Context(), title, s.ws, files, jobs)
	} else {
		summary, err = s.ws.IndexFiles(cmd.Context(), files, jobs, nil)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	report := s.collect(files, summary, elapsed)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		s.printIndexReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), files, report, showDiags)
	}
	s.finish(cmd.ErrOrStderr())
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to index", report.Failed, len(files))
	}
	return nil
}

func (s *session) collect(files []string, summary workspace.Summary, elapsed time.Duration) indexReport {
	report := indexReport{
		Indexed:   summary.Indexed,
		Cached:    summary.Cached,
		Failed:    len(summary.Failures),
		ElapsedMS: float64(elapsed) / float64(time.Millisecond),
	}
	failed := make(map[string]error, len(summary.Failures))
	for _, f := range summary.Failures {
		failed[f.Path] = f.Err
	}
	for _, path := range files {
		fr := indexFileReport{File: s.display(path)}
		if err, ok := failed[path]; ok {
			fr.Failed, fr.Error = true, err.Error()
		}
		st, err := s.ws.State(path)
		if err == nil {
			if st.Index != nil && !st.Failed {
				fr.Symbols = len(st.Index.Symbols) - 1
				fr.Occurrences = len(st.Index.Occurrences)
			}
			if f := sourceFor(path); f != nil {
				fr.Diagnostics = diagfmt.BuildDiagnosticsOutput(f, st.Diagnostics, diagfmt.JSONOpts{
					IncludePositions: true,
					IncludeNotes:     true,
					PathMode:         diagfmt.PathModeRelative,
					BaseDir:          s.proj.Root,
				})
			}
		}
		report.Files = append(report.Files, fr)
	}
	return report
}

func (s *session) printIndexReport(out, errOut io.Writer, files []string, report indexReport, showDiags bool) {
	for _, path := range files {
		st, err := s.ws.State(path)
		if err != nil || len(st.Diagnostics) == 0 || (!st.Failed && !showDiags) {
			continue
		}
		if f := sourceFor(path); f != nil {
			printDiagnostics(errOut, f, st.Diagnostics, s.proj.Root)
			fmt.Fprintln(errOut)
		}
	}
	for _, fr := range report.Files {
		if fr.Failed && fr.Diagnostics.Count == 0 {
			fmt.Fprintf(errOut, "%s: %s\n", fr.File, fr.Error)
		}
	}
	if s.quiet {
		return
	}
	fmt.Fprintf(out, "indexed %d files (%d from cache", report.Indexed, report.Cached)
	if report.Failed > 0 {
		fmt.Fprintf(out, ", %d failed", report.Failed)
	}
	fmt.Fprintf(out, ") in %.1f ms\n", report.ElapsedMS)
}

// sourceFor reloads path so diagnostics can quote it.
func sourceFor(path string) *source.File {
	fs := source.NewFileSet()
	// #nosec G304 -- path comes from project discovery
	text, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return fs.Get(fs.AddVirtual(path, text))
}

func (s *session) display(path string) string {
	if rel, err := filepath.Rel(s.proj.Root, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}
