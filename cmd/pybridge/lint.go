package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pybridge/internal/diag"
	"pybridge/internal/diagfmt"
	"pybridge/internal/observ"
	"pybridge/internal/runner"
	"pybridge/internal/source"
	"pybridge/internal/version"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] <file.py|directory>",
	Short: "Run configured Python linters over a file or directory",
	Long:  `Run the enabled lint tools (ruff, pylint, flake8, mypy) and print their findings in a unified format`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLint,
}

func init() {
	lintCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	lintCmd.Flags().StringSlice("tool", nil, "run only the named tools (default: config selection)")
	lintCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	lintCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	lintCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	lintCmd.Flags().String("ui", "auto", "progress UI for directory runs (auto|on|off)")
	lintCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	lintCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
}

func runLint(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", format)
	}

	tools, err := cmd.Flags().GetStringSlice("tool")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return err
	}
	fullpath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return err
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return err
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return err
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	timer := observ.NewTimer()
	opts := runner.Options{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		Tools:          tools,
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("lint: %w", err)
	}

	var fileSet *source.FileSet
	bag := diag.NewBag(maxDiagnostics)

	phase := timer.Begin("lint")
	if info.IsDir() {
		var results []runner.Result
		if shouldUseTUI(uiMode) && format == "pretty" {
			fileSet, results, err = lintDirWithUI(cmd.Context(), app, targetPath, opts)
		} else {
			fileSet, results, err = app.runner.LintDir(cmd.Context(), targetPath, opts)
		}
		if err != nil {
			return fmt.Errorf("lint: %w", err)
		}
		for _, res := range results {
			bag.Merge(res.Bag)
		}
	} else {
		var res runner.Result
		fileSet, res, err = app.runner.LintFile(cmd.Context(), targetPath, opts)
		if err != nil {
			return fmt.Errorf("lint: %w", err)
		}
		bag.Merge(res.Bag)
	}
	timer.End(phase, fmt.Sprintf("%d findings", bag.Len()))

	// Merge увеличивает ёмкость под каждый файл; режем до лимита один раз
	// после сортировки, чтобы позиционно первые находки пережили срез.
	bag.Sort()
	bag = filterBag(bag, noWarnings, warningsAsErrors, maxDiagnostics)
	bag.Sort()

	pathMode := parsePathMode(fullpath)
	switch format {
	case "json":
		err = diagfmt.JSON(cmd.OutOrStdout(), bag, fileSet, diagfmt.JSONOpts{
			PathMode:     pathMode,
			Max:          maxDiagnostics,
			IncludeFixes: suggest,
		})
	case "sarif":
		err = diagfmt.Sarif(cmd.OutOrStdout(), bag, fileSet, diagfmt.SarifRunMeta{
			ToolName:       "pybridge",
			ToolVersion:    version.Plain,
			InvocationArgs: os.Args,
		})
	default:
		diagfmt.Pretty(cmd.OutOrStdout(), bag, fileSet, diagfmt.PrettyOpts{
			Color:     useColor,
			PathMode:  pathMode,
			ShowFixes: suggest,
		})
	}
	if err != nil {
		return fmt.Errorf("lint: render failed: %w", err)
	}

	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if bag.HasErrors() {
		// Диагностики уже напечатаны; cobra не должна дублировать ошибку.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// filterBag applies the warning-handling flags and re-caps the bag at the
// diagnostic limit. Directory merges grow the bag past the per-request cap,
// so the limit is enforced here regardless of the flags.
func filterBag(bag *diag.Bag, noWarnings, warningsAsErrors bool, maxDiagnostics int) *diag.Bag {
	out := diag.NewBag(maxDiagnostics)
	for _, d := range bag.Items() {
		if noWarnings && d.Severity == diag.SevWarning {
			continue
		}
		if warningsAsErrors && d.Severity == diag.SevWarning {
			d.Severity = diag.SevError
		}
		if !out.Add(d) {
			break
		}
	}
	return out
}
