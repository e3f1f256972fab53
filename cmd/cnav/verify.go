package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cnav/internal/fixture"
	"cnav/internal/project"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] DIR|FILE...",
	Short: "Check @def/@jump and @ref_target/@ref_expect markers in C fixtures",
	Long: `Index annotated C files and check their markers: every @jump must
resolve to its @def line, and every @ref_target must find references on
exactly the lines marked @ref_expect for the same tag.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Bool("failures", false, "print failing checks only")
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func runVerify(cmd *cobra.Command, args []string) error {
	failuresOnly, err := cmd.Flags().GetBool("failures")
	if err != nil {
		return fmt.Errorf("failed to get failures flag: %w", err)
	}
	s, err := openSession(cmd, sessionOptions{start: args[0]})
	if err != nil {
		return err
	}
	defer s.finish(cmd.ErrOrStderr())

	var files []string
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := project.Discover(arg, s.proj.Config.Index.Extensions)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	sort.Strings(files)

	out := cmd.OutOrStdout()
	var reports []*fixture.Report
	for _, path := range files {
		ix, err := s.load(cmd, path)
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", failColor.Sprint("ERROR"), s.display(path), err)
			reports = append(reports, &fixture.Report{Path: path, Problems: []string{err.Error()}})
			continue
		}
		rep := fixture.Verify(ix)
		if rep.Total() == 0 && len(rep.Problems) == 0 {
			continue
		}
		reports = append(reports, rep)
		s.printReport(out, rep, failuresOnly)
	}

	passed, total := fixture.Score(reports)
	problems := 0
	for _, r := range reports {
		problems += len(r.Problems)
	}
	if !s.quiet {
		pct := 100.0
		if total > 0 {
			pct = float64(passed) * 100 / float64(total)
		}
		fmt.Fprintf(out, "score: %d / %d (%.2f%%)", passed, total, pct)
		if problems > 0 {
			fmt.Fprintf(out, ", %d marker problems", problems)
		}
		fmt.Fprintln(out)
	}
	if passed != total || problems > 0 {
		return fmt.Errorf("%d of %d checks failed", total-passed, total)
	}
	return nil
}

func (s *session) printReport(w io.Writer, rep *fixture.Report, failuresOnly bool) {
	path := s.display(rep.Path)
	for _, p := range rep.Problems {
		fmt.Fprintf(w, "%s %s: %s\n", failColor.Sprint("BAD "), path, p)
	}
	for _, res := range rep.Results {
		if res.Pass && failuresOnly {
			continue
		}
		status := passColor.Sprint("PASS")
		if !res.Pass {
			status = failColor.Sprint("FAIL")
		}
		fmt.Fprintf(w, "%s %s:%d %-10s %s | %s\n", status, path, res.Line, res.Check, res.Tag, res.Detail)
	}
}
