package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/rig"
	"lipsync/internal/scene"
	"lipsync/internal/services"
)

func newRigCommand(ctx *commandContext) *cobra.Command {
	rigCmd := &cobra.Command{
		Use:   "rig",
		Short: "Inspect and edit the scene rig",
	}

	rigCmd.AddCommand(newRigDefineCommand(ctx))
	rigCmd.AddCommand(newRigSetCommand(ctx))
	rigCmd.AddCommand(newRigRemoveCommand(ctx))
	rigCmd.AddCommand(newRigShowCommand(ctx))
	rigCmd.AddCommand(newRigKeysCommand(ctx))
	rigCmd.AddCommand(newRigClearCommand(ctx))

	return rigCmd
}

func newRigDefineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "define <control> <attr=value[:locked|:static]>...",
		Short: "Create or replace a control",
		Long: `Create or replace a control and its attributes. Attributes are keyable and
unlocked unless suffixed with :locked or :static (not keyable). Existing keys on
the control are kept.`,
		Example: "  lipsync rig define jaw_ctrl rotateX=0 translateY=0 visibility=1:static",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := make([]rig.AttributeDef, 0, len(args)-1)
			for _, spec := range args[1:] {
				def, err := parseAttributeDef(spec)
				if err != nil {
					return err
				}
				attrs = append(attrs, def)
			}
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				if err := sc.Define(cmd.Context(), args[0], attrs...); err != nil {
					return services.Wrap(services.ErrValidation, "rig", "define", "", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Defined %s with %d attribute(s)\n", args[0], len(attrs))
				return nil
			})
		},
	}
}

func newRigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "set <control.attr=value>...",
		Short:   "Set attribute values; all assignments apply or none do",
		Example: "  lipsync rig set jaw_ctrl.rotateX=12.5",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments := make([]scene.Assignment, 0, len(args))
			for _, arg := range args {
				target, raw, ok := strings.Cut(arg, "=")
				control, attr, dotted := strings.Cut(target, ".")
				if !ok || !dotted || control == "" || attr == "" {
					return services.Wrap(services.ErrValidation, "rig", "set", fmt.Sprintf("expected control.attr=value, got %q", arg), nil)
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil {
					return services.Wrap(services.ErrValidation, "rig", "set", fmt.Sprintf("value for %s", target), err)
				}
				assignments = append(assignments, scene.Assignment{Control: control, Attribute: attr, Value: value})
			}
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				if err := sc.SetAttributes(cmd.Context(), assignments); err != nil {
					return services.Wrap(services.ErrValidation, "rig", "set", "no attributes were changed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %d attribute(s)\n", len(assignments))
				return nil
			})
		},
	}
}

func newRigRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <control>",
		Short: "Delete a control and its attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				if err := sc.Remove(cmd.Context(), args[0]); err != nil {
					return services.Wrap(services.ErrNotFound, "rig", "remove", "", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newRigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List controls and attribute values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				controls, err := sc.Controls(cmd.Context())
				if err != nil {
					return err
				}
				soundtrack, _, err := sc.Soundtrack(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					type attrView struct {
						Name    string  `json:"name"`
						Value   float64 `json:"value"`
						Keyable bool    `json:"keyable"`
						Locked  bool    `json:"locked"`
					}
					type controlView struct {
						Name       string     `json:"name"`
						Attributes []attrView `json:"attributes"`
					}
					views := make([]controlView, 0, len(controls))
					for _, c := range controls {
						v := controlView{Name: c.Name, Attributes: make([]attrView, 0, len(c.Attributes))}
						for _, a := range c.Attributes {
							v.Attributes = append(v.Attributes, attrView(a))
						}
						views = append(views, v)
					}
					return writeJSON(cmd, map[string]any{
						"scene":      sc.Path(),
						"soundtrack": soundtrack,
						"controls":   views,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scene: %s\n", sc.Path())
				if soundtrack != "" {
					fmt.Fprintf(out, "Soundtrack: %s\n", soundtrack)
				}
				if len(controls) == 0 {
					fmt.Fprintln(out, "No controls defined")
					return nil
				}
				var rows [][]string
				for _, c := range controls {
					for _, a := range c.Attributes {
						rows = append(rows, []string{c.Name, a.Name, formatValue(a.Value), yesNo(a.Keyable), yesNo(a.Locked)})
					}
				}
				fmt.Fprint(out, renderTable(
					[]string{"Control", "Attribute", ">Value", "Keyable", "Locked"},
					rows,
				))
				return nil
			})
		},
	}
}

func newRigKeysCommand(ctx *commandContext) *cobra.Command {
	var control string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List recorded keyframes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				all, err := sc.Keyframes(cmd.Context())
				if err != nil {
					return err
				}
				keys := make([]rig.Keyframe, 0, len(all))
				for _, k := range all {
					if control == "" || k.Control == control {
						keys = append(keys, k)
					}
				}
				if ctx.JSONMode() {
					type keyRow struct {
						Control    string  `json:"control"`
						Attribute  string  `json:"attribute"`
						Time       float64 `json:"time"`
						Value      float64 `json:"value"`
						InTangent  string  `json:"in_tangent"`
						OutTangent string  `json:"out_tangent"`
					}
					rows := make([]keyRow, 0, len(keys))
					for _, k := range keys {
						rows = append(rows, keyRow{k.Control, k.Attribute, k.Time, k.Value, string(k.InTangent), string(k.OutTangent)})
					}
					return writeJSON(cmd, map[string]any{"keys": rows})
				}

				out := cmd.OutOrStdout()
				if len(keys) == 0 {
					fmt.Fprintln(out, "No keyframes recorded")
					return nil
				}
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{formatSeconds(k.Time), k.Control, k.Attribute, formatValue(k.Value), string(k.OutTangent)})
				}
				fmt.Fprint(out, renderTable(
					[]string{">Time", "Control", "Attribute", ">Value", "Tangent"},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&control, "control", "", "Only show keys on this control")
	return cmd
}

func newRigClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded keyframe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScene(cmd.Context(), func(sc *scene.Scene) error {
				removed, err := sc.ClearKeyframes(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d keyframe(s)\n", removed)
				return nil
			})
		},
	}
}

// parseAttributeDef reads "name=value" with an optional ":locked" or
// ":static" suffix.
func parseAttributeDef(spec string) (rig.AttributeDef, error) {
	body, flags, _ := strings.Cut(spec, ":")
	name, raw, ok := strings.Cut(body, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return rig.AttributeDef{}, services.Wrap(services.ErrValidation, "rig", "define", fmt.Sprintf("expected attr=value, got %q", spec), nil)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return rig.AttributeDef{}, services.Wrap(services.ErrValidation, "rig", "define", fmt.Sprintf("value for %s", name), err)
	}
	def := rig.AttributeDef{Name: name, Value: value, Keyable: true}
	for _, flag := range strings.Split(flags, ":") {
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "":
		case "locked":
			def.Locked = true
		case "static":
			def.Keyable = false
		default:
			return rig.AttributeDef{}, services.Wrap(services.ErrValidation, "rig", "define", fmt.Sprintf("unknown attribute flag %q", flag), nil)
		}
	}
	return def, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
