package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lipsync/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean aligner run workspaces",
	}
	stagingCmd.AddCommand(
		newStagingListCommand(ctx),
		newStagingCleanCommand(ctx),
	)
	return stagingCmd
}

type stagingDirView struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Run      bool      `json:"run"`
	Modified time.Time `json:"modified"`
	Bytes    int64     `json:"bytes"`
}

type stagingListView struct {
	StagingDir  string           `json:"staging_dir"`
	Directories []stagingDirView `json:"directories"`
	TotalBytes  int64            `json:"total_size_bytes"`
}

func newStagingListView(root string, dirs []staging.DirInfo) stagingListView {
	view := stagingListView{StagingDir: root, Directories: make([]stagingDirView, 0, len(dirs))}
	for _, d := range dirs {
		view.Directories = append(view.Directories, stagingDirView{
			Name:     d.Name,
			Path:     d.Path,
			Run:      strings.HasPrefix(strings.ToLower(d.Name), staging.DirPrefix),
			Modified: d.ModTime,
			Bytes:    d.Size,
		})
		view.TotalBytes += d.Size
	}
	return view
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List directories under paths.staging_dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(root)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			view := newStagingListView(root, dirs)
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			if len(view.Directories) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", root)
			rows := make([][]string, 0, len(view.Directories))
			for _, d := range view.Directories {
				name := d.Name
				if !d.Run {
					name += " (not a run)"
				}
				rows = append(rows, []string{name, humanize.Time(d.Modified), humanize.IBytes(uint64(max(d.Bytes, 0)))})
			}
			fmt.Fprint(out, renderTable([]string{"Directory", "Modified", ">Size"}, rows))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(rows), humanize.IBytes(uint64(max(view.TotalBytes, 0))))
			return nil
		},
	}
}

type stagingCleanView struct {
	Removed []string `json:"removed"`
	Errors  []string `json:"errors"`
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover run workspaces",
		Long: `Remove run workspaces left behind by interrupted lipsync runs.

By default only workspaces older than staging.max_age_hours are removed, so a
run in progress in another terminal is left alone. Use --max-age to pick a
different cutoff, or --all to remove every run workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var result staging.CleanStaleResult
			kind := "stale"
			switch {
			case cleanAll:
				kind = "run"
				result = staging.CleanOrphaned(cmd.Context(), cfg.Paths.StagingDir, nil, logger)
			case maxAge > 0:
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logger)
			default:
				cutoff := time.Duration(cfg.Staging.MaxAgeHours) * time.Hour
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, cutoff, logger)
			}

			view := stagingCleanView{Removed: result.Removed, Errors: make([]string, 0, len(result.Errors))}
			if view.Removed == nil {
				view.Removed = []string{}
			}
			for _, e := range result.Errors {
				view.Errors = append(view.Errors, fmt.Sprintf("%s: %v", e.Path, e.Error))
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			switch {
			case len(view.Removed) == 0 && len(view.Errors) == 0:
				fmt.Fprintf(out, "No %s directories to clean\n", kind)
			case len(view.Errors) == 0:
				fmt.Fprintf(out, "Removed %d %s directories\n", len(view.Removed), kind)
			default:
				fmt.Fprintf(out, "Removed %d %s directories, %d errors\n", len(view.Removed), kind, len(view.Errors))
				for _, e := range view.Errors {
					fmt.Fprintf(out, "  Error: %s\n", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every run workspace regardless of age")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove workspaces older than this (default staging.max_age_hours)")
	cmd.MarkFlagsMutuallyExclusive("all", "max-age")
	return cmd
}
