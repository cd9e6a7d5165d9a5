package md2tex

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docforge/md2tex/internal/cache"
)

// fakeDiagramRenderer counts invocations and optionally fails, so tests can
// assert cache behavior without a real rendering tool.
type fakeDiagramRenderer struct {
	calls      int
	fail       error
	lastSource string
}

func (f *fakeDiagramRenderer) Render(_ context.Context, source, outPath string) error {
	f.calls++
	f.lastSource = source
	if f.fail != nil {
		return f.fail
	}
	return os.WriteFile(outPath, []byte("fake-png"), 0o644)
}

func newTestExternalizer(t *testing.T, renderer DiagramRenderer) *diagramExternalizer {
	t.Helper()
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	return &diagramExternalizer{prot: newTestProtector(t), store: store, renderer: renderer}
}

func TestDiagramExternalization(t *testing.T) {
	t.Parallel()

	renderer := &fakeDiagramRenderer{}
	d := newTestExternalizer(t, renderer)
	input := "before\n```mermaid\ngraph TD\nA-->B\n```\nafter"

	got, warnings := d.Externalize(context.Background(), input)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	hash := cache.Hash("graph TD\nA-->B")
	wantEmbed := "\\includegraphics[width=0.85\\linewidth]{diagram_" + hash + ".png}"
	if !strings.Contains(got, wantEmbed) {
		t.Errorf("output %q missing embed %q", got, wantEmbed)
	}
	if strings.Contains(got, "```mermaid") {
		t.Errorf("mermaid fence survived: %q", got)
	}
	if !strings.HasPrefix(got, "before\n") || !strings.HasSuffix(got, "\nafter") {
		t.Errorf("surrounding text damaged: %q", got)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", renderer.calls)
	}
}

func TestDiagramWarmCacheSkipsRenderer(t *testing.T) {
	t.Parallel()

	renderer := &fakeDiagramRenderer{}
	d := newTestExternalizer(t, renderer)
	input := "```mermaid\ngraph LR\nX-->Y\n```"

	for i := 0; i < 2; i++ {
		if _, warnings := d.Externalize(context.Background(), input); len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1 across two runs", renderer.calls)
	}
}

func TestDiagramFailureDegradesToTextFence(t *testing.T) {
	t.Parallel()

	renderer := &fakeDiagramRenderer{fail: ErrDiagramRender}
	d := newTestExternalizer(t, renderer)
	input := "```mermaid\nbad diagram\n```\n```mermaid\ngraph TD\nA-->B\n```"

	got, warnings := d.Externalize(context.Background(), input)

	if !strings.Contains(got, "```text\nbad diagram\n```") {
		t.Errorf("failed diagram did not degrade to a text fence: %q", got)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %d, want 2", len(warnings))
	}
	w := warnings[0]
	if w.Stage != "diagram" || w.Element != 1 || w.Total != 2 {
		t.Errorf("warning = %+v, want stage=diagram element=1 total=2", w)
	}
}

func TestDiagramBodyWithInlineSpanSyntax(t *testing.T) {
	t.Parallel()

	renderer := &fakeDiagramRenderer{}
	d := newTestExternalizer(t, renderer)
	source := "graph TD\nA[\"cost $5 and $6\"]-->B[`label`]"
	input := "```mermaid\n" + source + "\n```"

	var got string
	for i := 0; i < 2; i++ {
		var warnings []Warning
		got, warnings = d.Externalize(context.Background(), input)
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
	}

	if renderer.lastSource != source {
		t.Errorf("renderer received %q, want the fence body verbatim %q", renderer.lastSource, source)
	}
	if strings.ContainsRune(renderer.lastSource, '\uE000') {
		t.Errorf("renderer received a placeholder token: %q", renderer.lastSource)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1 across two runs", renderer.calls)
	}
	if !strings.Contains(got, "diagram_"+cache.Hash(source)+".png") {
		t.Errorf("embed not keyed by the raw source: %q", got)
	}
}

func TestDiagramInsideQuadrupleFenceUntouched(t *testing.T) {
	t.Parallel()

	renderer := &fakeDiagramRenderer{}
	d := newTestExternalizer(t, renderer)
	input := "````markdown\n```mermaid\ngraph TD\n```\n````"

	got, warnings := d.Externalize(context.Background(), input)

	if got != input {
		t.Errorf("Externalize() = %q, want input unchanged", got)
	}
	if len(warnings) != 0 || renderer.calls != 0 {
		t.Errorf("documentation example was rendered: calls=%d warnings=%v", renderer.calls, warnings)
	}
}

func TestMermaidRendererMissingBinary(t *testing.T) {
	t.Parallel()

	r := &mermaidRenderer{bin: "", runner: &fakeRunner{}, theme: "default", width: 800, timeout: time.Second}
	err := r.Render(context.Background(), "graph TD", "/tmp/out.png")
	if !errors.Is(err, ErrDiagramToolMissing) {
		t.Errorf("Render() error = %v, want ErrDiagramToolMissing", err)
	}
}

func TestMermaidRendererNoOutput(t *testing.T) {
	t.Parallel()

	// The fake runner succeeds but writes nothing, as a broken tool would.
	r := &mermaidRenderer{bin: "mmdc", runner: &fakeRunner{}, theme: "default", width: 800, timeout: time.Second}
	outPath := t.TempDir() + "/out.png"
	err := r.Render(context.Background(), "graph TD", outPath)
	if !errors.Is(err, ErrDiagramNoOutput) {
		t.Errorf("Render() error = %v, want ErrDiagramNoOutput", err)
	}
}

func TestMermaidRendererInvocation(t *testing.T) {
	t.Parallel()

	outPath := t.TempDir() + "/out.png"
	runner := &fakeRunner{
		run: func(_ context.Context, _ string, args ...string) (string, string, error) {
			for i := 0; i < len(args)-1; i++ {
				if args[i] == "-o" {
					if err := os.WriteFile(args[i+1], []byte("png"), 0o644); err != nil {
						return "", "", err
					}
				}
			}
			return "", "", nil
		},
	}
	r := &mermaidRenderer{bin: "mmdc", runner: runner, theme: "dark", width: 1200, timeout: time.Second}

	if err := r.Render(context.Background(), "graph TD\nA-->B", outPath); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	args := strings.Join(runner.lastArgs, " ")
	for _, want := range []string{"-b transparent", "-w 1200", "-o " + outPath} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}
