package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pybridge/internal/diag"
	"pybridge/internal/fix"
	"pybridge/internal/runner"
	"pybridge/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.py|directory>",
	Short: "Apply available lint fixes to a file or directory",
	Long:  "Run the enabled linters, surface the fixes they suggest, and apply them according to the chosen strategy.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all available fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().StringSlice("tool", nil, "run only the named tools (default: config selection)")
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	tools, err := cmd.Flags().GetStringSlice("tool")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	runnerOpts := runner.Options{
		MaxDiagnostics: maxDiagnostics,
		Tools:          tools,
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	// id уникален только в пределах одного файла
	if info.IsDir() && targetID != "" {
		return fmt.Errorf("fix: id can only be used with a single file")
	}

	var (
		fileSet     *source.FileSet
		diagnostics []diag.Diagnostic
	)
	if info.IsDir() {
		var results []runner.Result
		fileSet, results, err = app.runner.LintDir(cmd.Context(), targetPath, runnerOpts)
		if err != nil {
			return fmt.Errorf("fix: lint failed: %w", err)
		}
		for _, r := range results {
			if r.Bag == nil {
				continue
			}
			r.Bag.Sort()
			diagnostics = append(diagnostics, r.Bag.Items()...)
		}
	} else {
		var res runner.Result
		fileSet, res, err = app.runner.LintFile(cmd.Context(), targetPath, runnerOpts)
		if err != nil {
			return fmt.Errorf("fix: lint failed: %w", err)
		}
		res.Bag.Sort()
		diagnostics = append(diagnostics, res.Bag.Items()...)
	}

	res, applyErr := fix.Apply(fileSet, diagnostics, opts)
	return reportApplyResult(cmd, res, applyErr)
}

func reportApplyResult(cmd *cobra.Command, res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	out := cmd.OutOrStdout()

	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "Applied %d fix(es):\n", len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] %s/%s %s (%d edits)\n",
				item.Title, item.ID, item.Source, item.Code, location, item.EditCount)
		}
	}

	if len(res.FileChanges) > 0 {
		fmt.Fprintln(out, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(out, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}

	if len(res.Applied) == 0 {
		fmt.Fprintln(out, "No fixes applied.")
	}
	return nil
}
