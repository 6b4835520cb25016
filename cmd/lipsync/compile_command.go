package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"lipsync/internal/workflow"
)

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "compile <textgrid>",
		Short: "Key mouth poses from an existing TextGrid alignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := ctx.profile(lang)
			if err != nil {
				return err
			}
			return ctx.withTelemetry(cmd, func(logger *slog.Logger) error {
				report, err := workflow.NewRunner(logger).CompileTextGrid(cmd.Context(), cfg, profile, args[0])
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, newReportView(report))
				}
				printReport(cmd, report, verbose)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language profile (defaults to language.default)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every interval, not only skipped ones")
	return cmd
}
