package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pybridge/internal/envcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk environment cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and size",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached environment entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cache, err := envcache.Open("pybridge")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	var entries int
	var bytes int64
	walkErr := filepath.WalkDir(cache.Dir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries++
		bytes += info.Size()
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return fmt.Errorf("cache: %w", walkErr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dir:     %s\n", cache.Dir())
	fmt.Fprintf(out, "entries: %d\n", entries)
	fmt.Fprintf(out, "size:    %d bytes\n", bytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cache, err := envcache.Open("pybridge")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
	}
	return nil
}
