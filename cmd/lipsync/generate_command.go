package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"lipsync/internal/logging"
	"lipsync/internal/services"
	"lipsync/internal/services/mfa"
	"lipsync/internal/workflow"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var audio, transcript, lang, encoding, keepTextGrid, runID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Align audio with its transcript and key mouth poses",
		Long: `Align a dialogue recording against its transcript with the language's forced
aligner, then key the bound pose for every aligned phone onto the scene.

Each phone produces two keys, at its start and end. Phones whose viseme has no
usable pose are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := ctx.profile(lang)
			if err != nil {
				return err
			}
			opts := []workflow.SessionOption{workflow.WithEncoding(encoding)}
			if keepTextGrid != "" {
				opts = append(opts, workflow.WithTextGridCopy(keepTextGrid))
			}
			if runID != "" {
				opts = append(opts, workflow.WithRunID(runID))
			}
			session, err := workflow.NewSession(cfg, profile, audio, transcript, opts...)
			if err != nil {
				return err
			}

			return ctx.withTelemetry(cmd, func(logger *slog.Logger) error {
				var runnerOpts []workflow.Option
				if !ctx.JSONMode() && shouldColorize(cmd.ErrOrStderr()) {
					runnerOpts = append(runnerOpts, workflow.WithProgress(progressPrinter(cmd.ErrOrStderr())))
				}
				report, err := workflow.NewRunner(logger, runnerOpts...).Generate(cmd.Context(), session)
				if err != nil {
					logging.ErrorWithContext(logger, "generate failed", "generate_failed",
						logging.String(logging.FieldRunID, session.RunID()),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, services.Hint(err)),
					)
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

	cmd.Flags().StringVarP(&audio, "audio", "a", "", "Dialogue recording (16 kHz mono WAV recommended)")
	cmd.Flags().StringVarP(&transcript, "transcript", "t", "", "Transcript text file")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language profile (defaults to language.default)")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Transcript encoding (utf-8, gb18030, gbk, big5); detected when omitted")
	cmd.Flags().StringVar(&keepTextGrid, "keep-textgrid", "", "Copy the aligner's TextGrid to this path")
	cmd.Flags().StringVar(&runID, "run-id", "", "Override the generated run identifier")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every interval, not only skipped ones")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

// progressPrinter redraws a single status line on a terminal.
func progressPrinter(w io.Writer) func(mfa.ProgressEvent) {
	return func(ev mfa.ProgressEvent) {
		fmt.Fprintf(w, "\rAligning %3.0f%%", ev.Percent)
		if ev.Percent >= 100 {
			fmt.Fprintln(w)
		}
	}
}
