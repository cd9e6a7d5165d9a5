// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to
// error messages.
package hints

import (
	"os"
	"strings"

	"github.com/docforge/md2tex/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// installHints maps known external tools to their install commands.
var installHints = map[string]string{
	"lualatex":  "install TeX Live (https://tug.org/texlive/) with the luatex collection",
	"kpsewhich": "install TeX Live; kpsewhich ships with every distribution",
	"mmdc":      "npm install -g @mermaid-js/mermaid-cli, or use --browser-diagrams",
	"python3":   "install Python 3 and ensure it is on PATH",
}

// ForMissingTool returns an install hint for a known external tool.
func ForMissingTool(tool string) string {
	if hint, ok := installHints[tool]; ok {
		return format(hint)
	}
	return format("ensure " + tool + " is installed and on PATH")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForExecTimeout returns a hint about raising the executed-block timeout.
func ForExecTimeout() string {
	return format("for long-running blocks, raise --exec-timeout")
}

// ForEngineFailure returns hints for a failed typesetting run.
func ForEngineFailure(logPath string) string {
	hints := []string{"the engine log usually names the offending line"}
	if logPath != "" {
		hints = append(hints, "see "+logPath)
	}
	return formatHints(hints)
}

// ForMetadata returns a hint for malformed metadata sidecars.
func ForMetadata(path string) string {
	return format("fix or delete " + path + " and rerun to regenerate it")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	var b strings.Builder
	for _, h := range hints {
		b.WriteString(format(h))
	}
	return b.String()
}
