package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pybridge/internal/diag"
	"pybridge/internal/format"
	"pybridge/internal/source"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <file.py>",
	Short: "Format a Python file with the configured formatter",
	Long:  "Stream the document through the configured formatter (black) and import sorter (isort) and print or write back the result.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().Bool("write", false, "write the result back instead of printing to stdout")
	fmtCmd.Flags().Bool("imports", false, "also sort imports with isort")
}

func runFmt(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return err
	}
	sortImports, err := cmd.Flags().GetBool("imports")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	settings, interp, err := app.runner.Environment(cmd.Context(), targetPath)
	if err != nil {
		return fmt.Errorf("fmt: %w", err)
	}
	cfg := settings.Config()

	fileSet := source.NewFileSetWithBase(settings.Root())
	fileID, err := fileSet.Load(targetPath)
	if err != nil {
		return fmt.Errorf("fmt: %w", err)
	}
	doc := fileSet.Get(fileID)

	// Порядок фиксированный: сначала isort, потом black, чтобы
	// отсортированные импорты тоже прошли через форматтер.
	var passes []struct {
		id         string
		configured string
	}
	if sortImports && cfg.Imports.Isort.IsEnabled(true) {
		passes = append(passes, struct{ id, configured string }{"isort", cfg.Imports.Isort.PathOr("isort")})
	}
	if cfg.Formatting.Provider != "" && cfg.Formatting.Provider != "none" {
		passes = append(passes, struct{ id, configured string }{cfg.Formatting.Provider, cfg.Formatting.Black.PathOr(cfg.Formatting.Provider)})
	}
	if len(passes) == 0 {
		return fmt.Errorf("fmt: no formatter configured")
	}

	content := doc.Content
	changed := false
	for _, pass := range passes {
		f, ok := format.New(pass.id)
		if !ok {
			return fmt.Errorf("fmt: unknown formatter %q", pass.id)
		}
		// Каждый проход форматирует результат предыдущего.
		current := &source.File{ID: doc.ID, Path: doc.Path, Content: content}
		edit, ok, err := format.Run(cmd.Context(), app.exec, app.runner.ToolPath(interp, pass.configured), f, current, app.debugw)
		if err != nil {
			return fmt.Errorf("fmt: %w", err)
		}
		if ok {
			content = applyFullEdit(content, edit)
			changed = true
		}
	}

	if !changed {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s is already formatted\n", targetPath)
		}
		if !write {
			_, err = cmd.OutOrStdout().Write(doc.Content)
		}
		return err
	}

	if write {
		info, statErr := os.Stat(targetPath)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(targetPath, content, mode); err != nil {
			return fmt.Errorf("fmt: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "formatted %s\n", targetPath)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(content)
	return err
}

// applyFullEdit materialises a full-document replacement edit.
func applyFullEdit(content []byte, edit diag.TextEdit) []byte {
	out := make([]byte, 0, len(edit.NewText))
	out = append(out, content[:edit.Span.Start]...)
	out = append(out, edit.NewText...)
	out = append(out, content[edit.Span.End:]...)
	return out
}
