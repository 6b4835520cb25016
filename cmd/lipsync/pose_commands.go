package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/config"
	"lipsync/internal/pose"
	"lipsync/internal/scene"
	"lipsync/internal/services"
	"lipsync/internal/textutil"
)

func newPoseCommand(ctx *commandContext) *cobra.Command {
	poseCmd := &cobra.Command{
		Use:   "pose",
		Short: "Capture, apply, and browse pose files",
	}

	poseCmd.AddCommand(newPoseSaveCommand(ctx))
	poseCmd.AddCommand(newPoseLoadCommand(ctx))
	poseCmd.AddCommand(newPoseListCommand(ctx))
	poseCmd.AddCommand(newPoseWatchCommand(ctx))

	return poseCmd
}

func newPoseSaveCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "save <name> [control...]",
		Short: "Capture the current values of scene controls into a pose file",
		Long: `Capture every keyable, unlocked attribute of the given controls and write them
to <pose_dir>/<name>.json. With no controls, every control in the scene is
captured. Name the file after a viseme category (for example AI or MBP) to bind
it automatically.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := resolvePosePath(cfg.Paths.PoseDir, args[0])
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return services.Wrap(services.ErrValidation, "pose", "save",
						fmt.Sprintf("pose file already exists at %s (use --overwrite to replace it)", target), nil)
				}
			}

			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				controls := args[1:]
				if len(controls) == 0 {
					infos, err := sc.Controls(cmd.Context())
					if err != nil {
						return fmt.Errorf("list scene controls: %w", err)
					}
					for _, info := range infos {
						controls = append(controls, info.Name)
					}
				}
				if len(controls) == 0 {
					return services.Wrap(services.ErrValidation, "pose", "save", "scene has no controls; define some with lipsync rig define", nil)
				}
				snap, err := pose.Capture(cmd.Context(), sc, controls)
				if err != nil {
					return services.Wrap(services.ErrValidation, "pose", "capture", "", err)
				}
				if err := pose.Save(target, snap); err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"path":       target,
						"controls":   snap.ControlNames(),
						"attributes": snap.AttributeCount(),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d attribute(s) on %d control(s) to %s\n",
					snap.AttributeCount(), len(snap.Controls), target)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing pose file")
	return cmd
}

func newPoseLoadCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "load <name|path>",
		Short: "Apply a pose file to the scene",
		Long: `Apply every attribute in a pose file to the scene. Attributes that are
missing or locked in the scene are skipped and listed; with --strict any skip
makes the command fail, although the applied attributes stay applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolvePosePath(cfg.Paths.PoseDir, args[0])
			if err != nil {
				return err
			}
			snap, err := loadPoseFile(path)
			if err != nil {
				return err
			}

			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				result := pose.Apply(cmd.Context(), sc, snap)
				if ctx.JSONMode() {
					failures := make([]string, 0, len(result.Failures))
					for _, f := range result.Failures {
						failures = append(failures, f.Error())
					}
					return writeJSON(cmd, map[string]any{
						"path":     path,
						"controls": result.Controls,
						"applied":  result.Applied,
						"failures": failures,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Applied %d attribute(s) from %s\n", result.Applied, path)
				for _, f := range result.Failures {
					fmt.Fprintf(out, "  Skipped: %v\n", f)
				}
				if strict {
					if err := result.Err(); err != nil {
						return services.Wrap(services.ErrValidation, "pose", "load",
							fmt.Sprintf("%d attribute(s) skipped", len(result.Failures)), err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any attribute could not be applied")
	return cmd
}

func newPoseListCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pose files and the viseme categories bound to them",
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
			paths, err := pose.List(cfg.Paths.PoseDir)
			if err != nil {
				return err
			}

			bound := map[string][]string{}
			for _, b := range profile.Registry.Bindings() {
				if b.Ref == "" {
					continue
				}
				key := filepath.Clean(string(b.Ref))
				bound[key] = append(bound[key], string(b.Category))
			}

			type entry struct {
				Name       string   `json:"name"`
				Path       string   `json:"path"`
				Controls   int      `json:"controls"`
				Attributes int      `json:"attributes"`
				Categories []string `json:"categories"`
				Error      string   `json:"error,omitempty"`
			}
			entries := make([]entry, 0, len(paths))
			for _, path := range paths {
				e := entry{
					Name:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
					Path:       path,
					Categories: append([]string{}, bound[filepath.Clean(path)]...),
				}
				if snap, err := pose.Load(path); err != nil {
					e.Error = err.Error()
				} else {
					e.Controls = len(snap.Controls)
					e.Attributes = snap.AttributeCount()
				}
				entries = append(entries, e)
			}

			if ctx.JSONMode() {
				unbound := make([]string, 0)
				for _, c := range profile.Registry.Unbound() {
					unbound = append(unbound, string(c))
				}
				return writeJSON(cmd, map[string]any{
					"pose_dir": cfg.Paths.PoseDir,
					"language": profile.Name,
					"poses":    entries,
					"unbound":  unbound,
				})
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No pose files in %s\n", cfg.Paths.PoseDir)
			} else {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					controls, attrs := strconv.Itoa(e.Controls), strconv.Itoa(e.Attributes)
					if e.Error != "" {
						controls, attrs = "-", "unreadable"
					}
					rows = append(rows, []string{e.Name, controls, attrs, strings.Join(e.Categories, ", ")})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Pose", ">Controls", ">Attributes", "Bound to"},
					rows,
				))
			}
			if unbound := profile.Registry.Unbound(); len(unbound) > 0 {
				names := make([]string, len(unbound))
				for i, c := range unbound {
					names[i] = string(c)
				}
				fmt.Fprintf(out, "Unbound %s categories: %s\n", profile.Name, strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language profile (defaults to language.default)")
	return cmd
}

func newPoseWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the pose list whenever the pose folder changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return pose.Watch(cmd.Context(), cfg.Paths.PoseDir, logger, func(paths []string) {
				if ctx.JSONMode() {
					if paths == nil {
						paths = []string{}
					}
					_ = writeJSON(cmd, map[string]any{"poses": paths})
					return
				}
				names := make([]string, len(paths))
				for i, p := range paths {
					names[i] = filepath.Base(p)
				}
				fmt.Fprintf(out, "%d pose(s): %s\n", len(paths), strings.Join(names, " "))
			})
		},
	}
}

// resolvePosePath maps a bare pose name to a file in dir. Anything that looks
// like a path is used as given.
func resolvePosePath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "pose", "resolve", "pose name required", nil)
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasPrefix(name, "~") {
		expanded, err := config.ExpandPath(name)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "pose", "resolve", "", err)
		}
		return expanded, nil
	}
	name = textutil.SanitizeFileName(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "pose", "resolve", "pose name has no usable characters", nil)
	}
	if !strings.EqualFold(filepath.Ext(name), pose.Extension) {
		name += pose.Extension
	}
	return filepath.Join(dir, name), nil
}

func loadPoseFile(path string) (pose.Snapshot, error) {
	snap, err := pose.Load(path)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, fs.ErrNotExist):
		return pose.Snapshot{}, services.Wrap(services.ErrNotFound, "pose", "load", "", err)
	case errors.Is(err, pose.ErrParse):
		return pose.Snapshot{}, services.Wrap(services.ErrValidation, "pose", "load", "", err)
	default:
		return pose.Snapshot{}, err
	}
}
