package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"pybridge/internal/runner"
	"pybridge/internal/source"
	"pybridge/internal/ui"
)

type lintOutcome struct {
	fileSet *source.FileSet
	results []runner.Result
	err     error
}

// lintDirWithUI runs a directory lint while a Bubble Tea progress model
// consumes per-file events. The lint itself runs in a goroutine so the UI
// stays responsive; the outcome channel hands the results back once both
// sides are done.
func lintDirWithUI(ctx context.Context, app *appContext, dir string, opts runner.Options) (*source.FileSet, []runner.Result, error) {
	files, err := runner.ListPyFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return app.runner.LintDir(ctx, dir, opts)
	}

	events := make(chan runner.Event, 256)
	outcomeCh := make(chan lintOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = runner.ChannelSink{Ch: events}
		fileSet, results, err := app.runner.LintDir(ctx, dir, optsCopy)
		outcomeCh <- lintOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("Linting "+dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
