package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lipsync/internal/preflight"
	"lipsync/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var lang, audio string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, aligner install, and pose bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := ctx.profile(lang)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, profile)
			if audio != "" {
				check := preflight.CheckAudio(cmd.Context(), cfg, audio)
				check.Optional = true
				results = append(results, check)
			}
			var poses []preflight.Result
			for _, b := range profile.Registry.Bindings() {
				r := preflight.Result{Name: "Pose " + string(b.Category), Optional: true}
				if b.Ref == "" {
					r.Detail = "no pose bound; phones in this category are skipped"
				} else {
					r.Passed = true
					r.Detail = filepath.Base(string(b.Ref))
				}
				poses = append(poses, r)
			}
			failed := preflight.Failures(results)

			if ctx.JSONMode() {
				type checkView struct {
					Name     string `json:"name"`
					Passed   bool   `json:"passed"`
					Optional bool   `json:"optional"`
					Detail   string `json:"detail,omitempty"`
				}
				views := make([]checkView, 0, len(results)+len(poses))
				for _, r := range append(append([]preflight.Result{}, results...), poses...) {
					views = append(views, checkView(r))
				}
				if err := writeJSON(cmd, map[string]any{
					"language": profile.Name,
					"checks":   views,
					"ok":       failed == nil,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				sections := []struct {
					title   string
					results []preflight.Result
				}{
					{fmt.Sprintf("System (%s)", profile.Display), results},
					{"Pose bindings", poses},
				}
				for i, section := range sections {
					if i > 0 {
						fmt.Fprintln(out)
					}
					for _, line := range renderSectionHeader(section.title, colorize) {
						fmt.Fprintln(out, line)
					}
					for _, line := range checkLines(section.results, colorize) {
						fmt.Fprintln(out, line)
					}
				}
			}

			if failed != nil {
				return services.Wrap(services.ErrConfiguration, "doctor", "preflight", "", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language profile (defaults to language.default)")
	cmd.Flags().StringVar(&audio, "audio", "", "Also inspect this recording with ffprobe")
	return cmd
}
