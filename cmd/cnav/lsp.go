package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cnav/internal/lsp"
	"cnav/internal/workspace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the cnav language server over stdio",
	RunE:  runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	opts := lsp.ServerOptions{
		// the client names the root in initialize; flags and config are read then
		NewWorkspace: func(root string) *workspace.Workspace {
			start := root
			if start == "" {
				start = "."
			}
			s, err := openSession(cmd, sessionOptions{start: start, cache: true})
			if err != nil {
				fmt.Fprintf(os.Stderr, "lsp: %v; using defaults\n", err)
				return nil
			}
			return s.ws
		},
	}
	// debounce comes from the config found from the working directory; the
	// workspace root may refine everything else later
	if s, err := openSession(cmd, sessionOptions{start: "."}); err == nil {
		opts.Debounce = time.Duration(s.proj.Config.LSP.DebounceMS) * time.Millisecond
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
