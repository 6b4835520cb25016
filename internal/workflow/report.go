package workflow

import (
	"time"

	"lipsync/internal/timeline"
)

// Report summarises one run for the CLI.
type Report struct {
	RunID      string
	Language   string
	Audio      string
	Transcript string
	Encoding   string
	TextGrid   string
	Intervals  int
	Result     timeline.Result
	Warnings   []string
	Duration   time.Duration
}

// Keys is the number of keyframe instructions emitted.
func (r Report) Keys() int { return len(r.Result.Instructions) }
