package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/language"
	"lipsync/internal/services"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List language profiles and whether their aligner is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalogue, err := language.LoadCatalogue(cfg.Language.ProfileDir)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "load profiles", "", err)
			}

			type languageView struct {
				Name      string   `json:"name"`
				Display   string   `json:"display"`
				Code      string   `json:"code"`
				Default   bool     `json:"default"`
				Dialect   string   `json:"dialect"`
				Installed bool     `json:"installed"`
				Missing   []string `json:"missing"`
				Bound     int      `json:"bound"`
				Visemes   int      `json:"visemes"`
			}
			views := make([]languageView, 0)
			for _, p := range catalogue.Profiles() {
				configured, err := language.Configure(p, cfg)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "configure language", "", err)
				}
				missing := configured.AlignerInstalled()
				total := len(configured.Registry.Bindings())
				views = append(views, languageView{
					Name:      configured.Name,
					Display:   configured.Display,
					Code:      configured.Code,
					Default:   configured.Name == cfg.Language.Default,
					Dialect:   string(configured.Aligner.Dialect),
					Installed: len(missing) == 0,
					Missing:   append([]string{}, missing...),
					Bound:     total - len(configured.Registry.Unbound()),
					Visemes:   total,
				})
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				name := v.Name
				if v.Default {
					name += " *"
				}
				rows = append(rows, []string{
					name, v.Display, v.Code, v.Dialect, yesNo(v.Installed), fmt.Sprintf("%d/%d", v.Bound, v.Visemes),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable(
				[]string{"Language", "Display", "Code", "Aligner", "Installed", ">Poses"},
				rows,
			))
			for _, v := range views {
				if len(v.Missing) > 0 {
					fmt.Fprintf(out, "%s is missing: %s\n", v.Name, strings.Join(v.Missing, ", "))
				}
			}
			return nil
		},
	}
}
