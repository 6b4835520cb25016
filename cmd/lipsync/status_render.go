package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"lipsync/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = [...]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

// statusLabelWidth keeps the bracketed states in one column.
const statusLabelWidth = 26

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	if kind < statusInfo || kind > statusError {
		kind = statusInfo
	}
	style := statusStyles[kind]
	state := "[" + style.label + "]"
	if message != "" {
		state += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", state)
	if !colorize {
		return line
	}
	return style.color + line + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		color := statusStyles[statusInfo].color
		for i := range lines {
			lines[i] = color + lines[i] + ansiReset
		}
	}
	return lines
}

// checkLines renders preflight results, failed optional checks as warnings.
func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		message := r.Detail
		if message == "" {
			message = "Ready"
		}
		kind := statusOK
		switch {
		case r.Passed:
		case r.Optional:
			kind = statusWarn
		default:
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, message, colorize))
	}
	return lines
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
