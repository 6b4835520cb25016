package timeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lipsync/internal/language"
	"lipsync/internal/logging"
	"lipsync/internal/pose"
	"lipsync/internal/rig"
	"lipsync/internal/services"
	"lipsync/internal/telemetry"
)

var (
	// ErrNoIntervals reports an empty alignment.
	ErrNoIntervals = errors.New("no phone intervals to compile")
	// ErrRig reports a keyframe the rig refused.
	ErrRig = errors.New("rig rejected keyframe")
)

// Request is everything one compile pass needs.
type Request struct {
	Intervals []PhoneInterval
	Profile   language.Profile
	Loader    pose.Loader
	Rig       rig.Rig
	Logger    *slog.Logger
}

// Compile resolves every interval to a pose and keys it on the rig. The
// returned Result is valid up to the failing interval when err is ErrRig.
func Compile(ctx context.Context, req Request) (Result, error) {
	ctx, span := telemetry.Tracer("lipsync/timeline").Start(ctx, "timeline.compile")
	defer span.End()
	span.SetAttributes(
		attribute.String("language", req.Profile.Name),
		attribute.Int("intervals", len(req.Intervals)),
	)

	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if len(req.Intervals) == 0 {
		span.SetStatus(codes.Error, ErrNoIntervals.Error())
		return Result{}, services.Wrap(services.ErrValidation, "compile", "compile", "alignment has no intervals", ErrNoIntervals)
	}
	if req.Rig == nil || req.Loader == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "compile", "compile", "rig and pose loader required", nil)
	}

	result := Result{
		Instructions: make([]KeyframeInstruction, 0, 2*len(req.Intervals)),
		Outcomes:     make([]Outcome, 0, len(req.Intervals)),
	}

	for i, iv := range req.Intervals {
		outcome := Outcome{Index: i, Interval: iv}
		outcome.Category = req.Profile.Classifier.Classify(iv.Label)

		ref, ok := req.Profile.Registry.Resolve(outcome.Category)
		if !ok {
			result.Outcomes = append(result.Outcomes, skip(logger, outcome, ReasonNotConfigured, "no pose bound to category"))
			continue
		}
		outcome.Pose = ref

		snap, err := req.Loader.Load(string(ref))
		if err != nil {
			reason := ReasonPoseUnreadable
			if errors.Is(err, fs.ErrNotExist) {
				reason = ReasonMissingAsset
			}
			result.Outcomes = append(result.Outcomes, skip(logger, outcome, reason, err.Error()))
			continue
		}
		if snap.IsEmpty() {
			result.Outcomes = append(result.Outcomes, skip(logger, outcome, ReasonEmptyPose, "pose has no attributes"))
			continue
		}

		applied := pose.Apply(ctx, req.Rig, snap)
		outcome.Warnings = applied.Failures
		if len(applied.Failures) > 0 {
			logging.WarnWithContext(logger, "pose applied partially", "pose_apply_partial",
				logging.Int("interval", i),
				logging.String("pose", string(ref)),
				logging.Int("failures", len(applied.Failures)),
				logging.String(logging.FieldErrorHint, "re-save the pose or define the missing controls on the rig"),
				logging.String(logging.FieldImpact, "some controls keep their previous values"),
			)
		}

		controls := presentControls(applied)
		if len(controls) == 0 {
			result.Outcomes = append(result.Outcomes, skip(logger, outcome, ReasonNoControls, "none of the pose controls exist on the rig"))
			continue
		}

		for _, key := range []KeyframeInstruction{
			{Controls: controls, Time: iv.Start, Tangent: rig.TangentSpline, Interval: i, Edge: EdgeStart},
			{Controls: controls, Time: iv.End, Tangent: rig.TangentSpline, Interval: i, Edge: EdgeEnd},
		} {
			if err := req.Rig.SetKeyframe(ctx, key.Controls, key.Time, key.Tangent); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "keyframe rejected")
				return result, services.Wrap(services.ErrExternalTool, "compile", "set keyframe",
					fmt.Sprintf("interval %d at %.3fs", i, key.Time), errors.Join(ErrRig, err))
			}
			result.Instructions = append(result.Instructions, key)
		}

		outcome.Status = StatusApplied
		logger.Debug("interval keyed",
			logging.Int("interval", i),
			logging.String("label", iv.Label),
			logging.String("category", string(outcome.Category)),
			logging.String("pose", string(ref)),
		)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	span.SetAttributes(
		attribute.Int("keys", len(result.Instructions)),
		attribute.Int("skipped", len(result.Skipped())),
	)
	return result, nil
}

// presentControls drops controls the rig does not know so keying the rest
// still succeeds.
func presentControls(applied pose.ApplyResult) []string {
	missing := map[string]struct{}{}
	for _, f := range applied.Failures {
		if errors.Is(f.Err, rig.ErrUnknownControl) {
			missing[f.Control] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return applied.Controls
	}
	out := make([]string, 0, len(applied.Controls))
	for _, c := range applied.Controls {
		if _, gone := missing[c]; !gone {
			out = append(out, c)
		}
	}
	return out
}

func skip(logger *slog.Logger, o Outcome, reason SkipReason, detail string) Outcome {
	o.Status = StatusSkipped
	o.Reason = reason
	o.Detail = detail
	logger.Info("interval skipped",
		logging.Interval(o.Index, o.Interval.Start, o.Interval.End, o.Interval.Label),
		logging.String("category", string(o.Category)),
		logging.String("reason", string(reason)),
		logging.String(logging.FieldEventType, "interval_skipped"),
	)
	return o
}
