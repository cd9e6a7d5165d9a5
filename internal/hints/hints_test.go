package hints

import (
	"strings"
	"testing"
)

func TestForMissingTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tool string
		want string
	}{
		{"lualatex", "TeX Live"},
		{"mmdc", "mermaid-cli"},
		{"python3", "Python 3"},
		{"kpsewhich", "TeX Live"},
		{"some-unknown-tool", "some-unknown-tool is installed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.tool, func(t *testing.T) {
			t.Parallel()

			got := ForMissingTool(tt.tool)
			if !strings.HasPrefix(got, "\n  hint: ") {
				t.Errorf("hint %q lacks the standard prefix", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("ForMissingTool(%q) = %q, want mention of %q", tt.tool, got, tt.want)
			}
		})
	}
}

func TestForBrowserConnectInContainer(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	got := ForBrowserConnect()
	if !strings.Contains(got, "ROD_NO_SANDBOX") {
		t.Errorf("container hint missing sandbox advice: %q", got)
	}
	if !strings.Contains(got, "ROD_BROWSER_BIN") {
		t.Errorf("container hint missing browser bin advice: %q", got)
	}
}

func TestForEngineFailure(t *testing.T) {
	t.Parallel()

	got := ForEngineFailure("/tmp/build/doc.log")
	if !strings.Contains(got, "/tmp/build/doc.log") {
		t.Errorf("ForEngineFailure() = %q, want log path included", got)
	}

	if got := ForEngineFailure(""); strings.Contains(got, "see ") {
		t.Errorf("ForEngineFailure(\"\") = %q, must not reference a log", got)
	}
}

func TestForMetadata(t *testing.T) {
	t.Parallel()

	got := ForMetadata("paper.yaml")
	if !strings.Contains(got, "paper.yaml") {
		t.Errorf("ForMetadata() = %q", got)
	}
}
