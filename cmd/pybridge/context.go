package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pybridge/internal/config"
	"pybridge/internal/diagfmt"
	"pybridge/internal/execx"
	"pybridge/internal/pyenv"
	"pybridge/internal/runner"
)

// appContext bundles the explicit collaborators every command needs.
// Constructed per invocation; Close releases the registry.
type appContext struct {
	registry *config.Registry
	manager  *pyenv.Manager
	exec     execx.Runner
	runner   *runner.Runner
	debugw   io.Writer
}

func newAppContext(cmd *cobra.Command) (*appContext, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	var debugw io.Writer
	if verbose {
		debugw = cmd.ErrOrStderr()
	}

	exec := execx.System{}
	registry := config.NewRegistry()
	manager := pyenv.NewManager(pyenv.NewResolver(exec, pyenv.WithDebugWriter(debugw)))
	return &appContext{
		registry: registry,
		manager:  manager,
		exec:     exec,
		runner:   runner.New(registry, manager, exec, debugw),
		debugw:   debugw,
	}, nil
}

func (app *appContext) Close() {
	app.runner.Close()
	app.registry.Close()
}

// colorEnabled resolves the persistent --color flag against the terminal.
func colorEnabled(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}

// parsePathMode maps the --fullpath flag onto a diagfmt path mode.
func parsePathMode(fullpath bool) diagfmt.PathMode {
	if fullpath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeRelative
}
