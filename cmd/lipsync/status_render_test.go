package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"lipsync/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("english aligner", statusError, "missing", false)
	want := fmt.Sprintf("  %-*s %s", statusLabelWidth, "english aligner:", "[ERROR] missing")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Scene directory", statusOK, "Ready", true)
	if !strings.HasPrefix(got, statusStyles[statusOK].color) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckLines(t *testing.T) {
	lines := checkLines([]preflight.Result{
		{Name: "english aligner", Passed: false, Detail: "not found"},
		{Name: "FFprobe", Passed: false, Optional: true, Detail: "not on PATH"},
		{Name: "Pose directory", Passed: true},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] not found") {
		t.Fatalf("expected error line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN] not on PATH") {
		t.Fatalf("expected optional failure as warning, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready") {
		t.Fatalf("expected ready line, got %q", lines[2])
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Pose bindings ", false)
	if len(lines) != 2 || lines[0] != "== Pose bindings ==" || lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("unexpected header %q", lines)
	}
}

func TestRenderTableRightAlignMarker(t *testing.T) {
	out := renderTable([]string{"Name", ">Count"}, [][]string{{"AI", "3"}, {"rest"}})
	if strings.Contains(out, ">") {
		t.Fatalf("alignment marker leaked into header:\n%s", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("short row rendered nil cells:\n%s", out)
	}
	if !strings.Contains(strings.ToUpper(out), "COUNT") || !strings.Contains(out, "rest") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestParseAttributeDef(t *testing.T) {
	def, err := parseAttributeDef("visibility=1:static:locked")
	if err != nil {
		t.Fatalf("parseAttributeDef: %v", err)
	}
	if def.Name != "visibility" || def.Value != 1 || def.Keyable || !def.Locked {
		t.Fatalf("unexpected def %+v", def)
	}
}

func TestResolvePosePath(t *testing.T) {
	got, err := resolvePosePath("/poses", "AI")
	if err != nil || got != "/poses/AI.json" {
		t.Fatalf("resolvePosePath = %q, %v", got, err)
	}
	got, err = resolvePosePath("/poses", "/elsewhere/open.json")
	if err != nil || got != "/elsewhere/open.json" {
		t.Fatalf("resolvePosePath = %q, %v", got, err)
	}
}
