package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lipsync/internal/timeline"
	"lipsync/internal/workflow"
)

type outcomeView struct {
	Index    int      `json:"index"`
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Label    string   `json:"label"`
	Category string   `json:"category"`
	Pose     string   `json:"pose,omitempty"`
	Status   string   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	Detail   string   `json:"detail,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type keyView struct {
	Time     float64  `json:"time"`
	Edge     string   `json:"edge"`
	Interval int      `json:"interval"`
	Tangent  string   `json:"tangent"`
	Controls []string `json:"controls"`
}

type reportView struct {
	RunID      string        `json:"run_id,omitempty"`
	Language   string        `json:"language"`
	Audio      string        `json:"audio,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Encoding   string        `json:"encoding,omitempty"`
	TextGrid   string        `json:"textgrid,omitempty"`
	Intervals  int           `json:"intervals"`
	Keys       []keyView     `json:"keys"`
	Outcomes   []outcomeView `json:"outcomes"`
	Warnings   []string      `json:"warnings"`
	DurationMS int64         `json:"duration_ms"`
}

func newReportView(r workflow.Report) reportView {
	view := reportView{
		RunID:      r.RunID,
		Language:   r.Language,
		Audio:      r.Audio,
		Transcript: r.Transcript,
		Encoding:   r.Encoding,
		TextGrid:   r.TextGrid,
		Intervals:  r.Intervals,
		Keys:       make([]keyView, 0, len(r.Result.Instructions)),
		Outcomes:   make([]outcomeView, 0, len(r.Result.Outcomes)),
		Warnings:   append([]string{}, r.Warnings...),
		DurationMS: r.Duration.Milliseconds(),
	}
	for _, in := range r.Result.Instructions {
		view.Keys = append(view.Keys, keyView{
			Time:     in.Time,
			Edge:     string(in.Edge),
			Interval: in.Interval,
			Tangent:  string(in.Tangent),
			Controls: in.Controls,
		})
	}
	for _, o := range r.Result.Outcomes {
		ov := outcomeView{
			Index:    o.Index,
			Start:    o.Interval.Start,
			End:      o.Interval.End,
			Label:    o.Interval.Label,
			Category: string(o.Category),
			Pose:     string(o.Pose),
			Status:   string(o.Status),
			Reason:   string(o.Reason),
			Detail:   o.Detail,
		}
		for _, w := range o.Warnings {
			ov.Warnings = append(ov.Warnings, w.Error())
		}
		view.Outcomes = append(view.Outcomes, ov)
	}
	return view
}

func printReport(cmd *cobra.Command, r workflow.Report, verbose bool) {
	out := cmd.OutOrStdout()
	if r.RunID != "" {
		fmt.Fprintf(out, "Run:       %s\n", r.RunID)
	}
	fmt.Fprintf(out, "Language:  %s\n", r.Language)
	if r.TextGrid != "" {
		fmt.Fprintf(out, "TextGrid:  %s\n", r.TextGrid)
	}
	fmt.Fprintf(out, "Intervals: %d  Keys: %d  Skipped: %d  Warnings: %d  (%s)\n",
		r.Intervals, r.Keys(), len(r.Result.Skipped()), r.Result.Warnings(),
		r.Duration.Truncate(time.Millisecond))

	outcomes := r.Result.Outcomes
	if !verbose {
		outcomes = r.Result.Skipped()
		for _, o := range r.Result.Applied() {
			if len(o.Warnings) > 0 {
				outcomes = append(outcomes, o)
			}
		}
	}
	if len(outcomes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable(
			[]string{">#", ">Start", ">End", "Phone", "Viseme", "Status", "Detail"},
			outcomeRows(outcomes),
		))
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
}

func outcomeRows(outcomes []timeline.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := string(o.Status)
		detail := o.Detail
		if o.Skipped() {
			status = string(o.Reason)
		} else if len(o.Warnings) > 0 {
			detail = fmt.Sprintf("%d attribute(s) not set", len(o.Warnings))
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Index),
			formatSeconds(o.Interval.Start),
			formatSeconds(o.Interval.End),
			o.Interval.Label,
			string(o.Category),
			status,
			detail,
		})
	}
	return rows
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
