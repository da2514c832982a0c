package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pybridge/internal/envcache"
	"pybridge/internal/pyenv"
)

var envCmd = &cobra.Command{
	Use:   "env [flags] [workspace]",
	Short: "Show the resolved Python environment for a workspace",
	Long:  "Probe the workspace for an active Python environment (virtualenv, conda, pipenv, poetry, local venv or configured fallback) and report the resolved interpreter.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnv,
}

func init() {
	envCmd.Flags().Bool("json", false, "emit the result as JSON")
	envCmd.Flags().Bool("refresh", false, "ignore the on-disk cache and re-probe")
}

type envReport struct {
	Workspace        string   `json:"workspace"`
	Path             string   `json:"path"`
	Probe            string   `json:"probe"`
	Validated        bool     `json:"validated"`
	Cached           bool     `json:"cached"`
	SitePackages     []string `json:"sitePackages,omitempty"`
	UserSitePackages string   `json:"userSitePackages,omitempty"`
}

func runEnv(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("env: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	refresh, err := cmd.Flags().GetBool("refresh")
	if err != nil {
		return err
	}

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	settings, err := app.runner.Settings(absRoot)
	if err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if refresh {
		// Перечитываем манифест; подписчики сбросят кэш интерпретатора.
		if err := app.registry.Reload(settings.Root()); err != nil {
			return fmt.Errorf("env: %w", err)
		}
	}
	configured := settings.Config().Python.Path

	// Кэш на диске переживает перезапуски; схлопывает повторные probe-цепочки.
	cache, cacheErr := envcache.Open("pybridge")
	key := envcache.Key(settings.Root(), configured)

	var (
		interp pyenv.Interpreter
		cached bool
	)
	if cacheErr == nil && !refresh {
		var payload envcache.Payload
		if hit, err := cache.Get(key, &payload); err == nil && hit {
			interp = payload.Interpreter()
			cached = true
		}
	}
	if !cached {
		interp = app.manager.Interpreter(cmd.Context(), settings.Root(), pyenv.OSEnviron(), configured)
		if cacheErr == nil && interp.Path != "" {
			// Ошибка записи не мешает выводу.
			_ = cache.Put(key, envcache.FromInterpreter(interp))
		}
	}

	report := envReport{
		Workspace:        settings.Root(),
		Path:             interp.Path,
		Probe:            interp.Probe,
		Validated:        interp.Validated,
		Cached:           cached,
		SitePackages:     interp.SitePackages,
		UserSitePackages: interp.UserSitePackages,
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Path == "" {
		fmt.Fprintf(out, "workspace: %s\n", report.Workspace)
		fmt.Fprintln(out, "no python environment found")
		return nil
	}
	fmt.Fprintf(out, "workspace:  %s\n", report.Workspace)
	fmt.Fprintf(out, "python:     %s\n", report.Path)
	fmt.Fprintf(out, "probe:      %s\n", report.Probe)
	fmt.Fprintf(out, "validated:  %v\n", report.Validated)
	if report.Cached {
		fmt.Fprintln(out, "source:     disk cache (use --refresh to re-probe)")
	}
	for _, sp := range report.SitePackages {
		fmt.Fprintf(out, "site:       %s\n", sp)
	}
	if report.UserSitePackages != "" {
		fmt.Fprintf(out, "user-site:  %s\n", report.UserSitePackages)
	}
	return nil
}
