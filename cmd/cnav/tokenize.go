package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cnav/internal/diag"
	"cnav/internal/diagfmt"
	"cnav/internal/lexer"
	"cnav/internal/pp"
	"cnav/internal/project"
	"cnav/internal/source"
	"cnav/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] FILE",
	Short: "Print the tokens of a C file after preprocessing",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	tokenizeCmd.Flags().Bool("raw", false, "print lexer tokens without preprocessing")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return fmt.Errorf("failed to get raw flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	s, err := openSession(cmd, sessionOptions{start: args[0]})
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	f := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	var tokens []token.Token
	if raw {
		tokens = lexer.Tokenize(f, lexer.Options{Reporter: reporter})
	} else {
		extra := project.Flags{}
		extra.Defines, _ = cmd.Root().PersistentFlags().GetStringArray("define")
		extra.Undefines, _ = cmd.Root().PersistentFlags().GetStringArray("undefine")
		flags := s.proj.FlagsFor(path, extra)
		tokens = pp.Preprocess(f, pp.Options{
			Reporter:  reporter,
			Defines:   flags.Defines,
			Undefines: flags.Undefines,
		})
	}

	if bag.Len() > 0 {
		bag.Sort()
		printDiagnostics(os.Stderr, f, bag.Items(), s.proj.Root)
	}

	switch format {
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), tokens)
	default:
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), tokens, f)
	}
}
