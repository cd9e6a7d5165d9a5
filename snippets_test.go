package md2tex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docforge/md2tex/internal/cache"
)

func newTestSnippetExtractor(t *testing.T) *snippetExtractor {
	t.Helper()
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	return &snippetExtractor{prot: newTestProtector(t), store: store, style: "github"}
}

func TestSnippetExtraction(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	input := "before\n```go [highlight]\nfunc main() {}\n```\nafter"

	got, warnings := e.Extract(input)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	hash := cache.Hash("go\nfunc main() {}")
	wantEmbed := `\includesvg[width=\linewidth]{snippet_` + hash + `.svg}`
	if !strings.Contains(got, wantEmbed) {
		t.Errorf("output %q missing embed %q", got, wantEmbed)
	}
	if strings.Contains(got, "[highlight]") {
		t.Errorf("highlight fence survived: %q", got)
	}

	data, err := os.ReadFile(filepath.Join(e.store.Dir(), "snippet_"+hash+".svg"))
	if err != nil {
		t.Fatalf("artifact not published: %v", err)
	}
	svg := string(data)
	if !strings.Contains(svg, "<svg") {
		t.Errorf("artifact is not an SVG: %.80q", svg)
	}
	if !strings.Contains(svg, "main") {
		t.Errorf("artifact does not contain the source tokens: %.200q", svg)
	}
}

func TestSnippetUnknownLanguageFallsBack(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	got, warnings := e.Extract("```qqzz [highlight]\nsome text\n```")

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !strings.Contains(got, `\includesvg`) {
		t.Errorf("fallback lexer did not produce an embed: %q", got)
	}
}

func TestSnippetPlainFenceUntouched(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	input := "```go\nfunc main() {}\n```"

	got, warnings := e.Extract(input)

	if got != input {
		t.Errorf("Extract() = %q, want input unchanged", got)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestSnippetExecuteFenceUntouched(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	input := "```python [execute]\nprint(1)\n```"

	if got, _ := e.Extract(input); got != input {
		t.Errorf("Extract() = %q, want input unchanged", got)
	}
}

func TestSnippetBodyWithInlineSpanSyntax(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	source := "price := \"$5 and $6\" // `raw`"
	input := "```go [highlight]\n" + source + "\n```"

	var first, second string
	first, _ = e.Extract(input)
	second, _ = e.Extract(input)

	if first != second {
		t.Errorf("outputs differ across runs: %q vs %q", first, second)
	}
	hash := cache.Hash("go\n" + source)
	if !strings.Contains(first, "snippet_"+hash+".svg") {
		t.Errorf("embed not keyed by the raw source: %q", first)
	}
	if strings.ContainsRune(first, '\uE000') {
		t.Errorf("placeholder token leaked into the output: %q", first)
	}
}

func TestSnippetArtifactReusedAcrossRuns(t *testing.T) {
	t.Parallel()

	e := newTestSnippetExtractor(t)
	input := "```go [highlight]\nx := 1\n```"

	first, _ := e.Extract(input)

	hash := cache.Hash("go\nx := 1")
	path := filepath.Join(e.store.Dir(), "snippet_"+hash+".svg")
	info1, err := os.Stat(path)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	second, _ := e.Extract(input)
	if first != second {
		t.Errorf("outputs differ across runs: %q vs %q", first, second)
	}
	info2, err := os.Stat(path)
	if err != nil {
		t.Fatalf("artifact missing after second run: %v", err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("warm cache rewrote the artifact")
	}
}
