package timeline

import (
	"fmt"
	"strings"

	"lipsync/internal/pose"
	"lipsync/internal/rig"
	"lipsync/internal/textgrid"
	"lipsync/internal/viseme"
)

// PhoneInterval is one aligned phone in seconds.
type PhoneInterval struct {
	Start float64
	End   float64
	Label string
}

// FromTier converts a TextGrid interval tier into phone intervals.
func FromTier(tier *textgrid.Tier) []PhoneInterval {
	if tier == nil {
		return nil
	}
	out := make([]PhoneInterval, 0, len(tier.Intervals))
	for _, iv := range tier.Intervals {
		out = append(out, PhoneInterval{Start: iv.Start, End: iv.End, Label: iv.Label})
	}
	return out
}

// Edge says which end of an interval a key sits on.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// KeyframeInstruction is one key set on the rig.
type KeyframeInstruction struct {
	Controls []string
	Time     float64
	Tangent  rig.Tangent
	Interval int
	Edge     Edge
}

// Status is the per-interval result kind.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
)

// SkipReason explains why an interval produced no keys.
type SkipReason string

const (
	ReasonNotConfigured  SkipReason = "not_configured"
	ReasonMissingAsset   SkipReason = "missing_asset"
	ReasonPoseUnreadable SkipReason = "pose_unreadable"
	ReasonEmptyPose      SkipReason = "empty_pose"
	ReasonNoControls     SkipReason = "no_controls"
)

// Outcome records what happened to one interval.
type Outcome struct {
	Index    int
	Interval PhoneInterval
	Category viseme.Category
	Pose     viseme.PoseRef
	Status   Status
	Reason   SkipReason
	Detail   string
	Warnings []pose.AssignmentError
}

// Skipped reports whether the interval produced no keys.
func (o Outcome) Skipped() bool { return o.Status == StatusSkipped }

func (o Outcome) String() string {
	head := fmt.Sprintf("#%d %.3f-%.3f %q -> %s", o.Index, o.Interval.Start, o.Interval.End, o.Interval.Label, o.Category)
	if o.Status == StatusApplied {
		if len(o.Warnings) > 0 {
			return fmt.Sprintf("%s applied with %d warning(s)", head, len(o.Warnings))
		}
		return head + " applied"
	}
	parts := []string{head, "skipped", string(o.Reason)}
	if o.Detail != "" {
		parts = append(parts, "("+o.Detail+")")
	}
	return strings.Join(parts, " ")
}

// Result is the compiled schedule plus one outcome per interval.
type Result struct {
	Instructions []KeyframeInstruction
	Outcomes     []Outcome
}

// Applied returns the outcomes that produced keys.
func (r Result) Applied() []Outcome {
	return r.filter(StatusApplied)
}

// Skipped returns the outcomes that produced no keys.
func (r Result) Skipped() []Outcome {
	return r.filter(StatusSkipped)
}

// Warnings counts best-effort assignment failures across applied intervals.
func (r Result) Warnings() int {
	total := 0
	for _, o := range r.Outcomes {
		total += len(o.Warnings)
	}
	return total
}

func (r Result) filter(status Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
