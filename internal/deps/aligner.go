package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckExecutable resolves command either as a path (when it contains a
// separator) or through PATH.
func CheckExecutable(name, command, description string, optional bool) Status {
	command = strings.TrimSpace(command)
	status := Status{
		Name:        name,
		Command:     command,
		Description: description,
		Optional:    optional,
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}
	if !strings.ContainsRune(command, filepath.Separator) {
		resolved, err := exec.LookPath(command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			return status
		}
		status.Command = resolved
		status.Available = true
		return status
	}
	info, err := os.Stat(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	if !isExecutable(info) {
		status.Detail = fmt.Sprintf("%q is not executable", command)
		return status
	}
	status.Available = true
	return status
}

// CheckFile reports whether a required data file (lexicon, acoustic model)
// exists.
func CheckFile(name, path, description string) Status {
	path = strings.TrimSpace(path)
	status := Status{Name: name, Command: path, Description: description}
	if path == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(path)
	if err != nil {
		status.Detail = fmt.Sprintf("%s missing", path)
		return status
	}
	if info.IsDir() {
		status.Detail = fmt.Sprintf("%s is a directory", path)
		return status
	}
	status.Available = true
	return status
}

// CheckAligner evaluates the aligner executable, lexicon and acoustic model
// for one language.
func CheckAligner(language, binary, lexicon, model string) []Status {
	prefix := strings.TrimSpace(language)
	if prefix != "" {
		prefix += " "
	}
	return []Status{
		CheckExecutable(prefix+"aligner", binary, "Montreal Forced Aligner entry point", false),
		CheckFile(prefix+"lexicon", lexicon, "Pronunciation dictionary"),
		CheckFile(prefix+"acoustic model", model, "Pretrained acoustic model"),
	}
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
