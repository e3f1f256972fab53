package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cnav/internal/ui"
	"cnav/internal/workspace"
)

type indexOutcome struct {
	summary workspace.Summary
	err     error
}

// runIndexWithUI indexes files while a progress view consumes the events.
// Quitting the view cancels the remaining work.
func runIndexWithUI(ctx context.Context, title string, ws *workspace.Workspace, files []string, jobs int) (workspace.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan workspace.Event, 256)
	outcomeCh := make(chan indexOutcome, 1)
	go func() {
		summary, err := ws.IndexFiles(ctx, files, jobs, workspace.ChannelSink{Ch: events})
		close(events)
		outcomeCh <- indexOutcome{summary: summary, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// the view ends when events close or the user quits; stop any stragglers
	cancel()
	// keep the producers unblocked after the view is gone
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}
