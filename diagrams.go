package md2tex

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docforge/md2tex/internal/cache"
	"github.com/docforge/md2tex/internal/fileutil"
)

// diagramFencePattern matches mermaid fenced blocks.
var diagramFencePattern = regexp.MustCompile(
	"(?ms)^[ \t]*```mermaid[ \t]*$\n(.*?)^[ \t]*```[ \t]*$")

// DiagramRenderer renders diagram source to an image file.
// Implementations must create the file at outPath on success.
type DiagramRenderer interface {
	Render(ctx context.Context, source, outPath string) error
}

// mermaidRenderer shells out to a pre-resolved mermaid-cli binary.
type mermaidRenderer struct {
	bin     string
	runner  CommandRunner
	theme   string
	width   int
	timeout time.Duration
}

// Render writes the source and a theme config to temp files and invokes the
// CLI. The output background is transparent so diagrams sit on any page
// color.
func (r *mermaidRenderer) Render(ctx context.Context, source, outPath string) error {
	if r.bin == "" {
		return ErrDiagramToolMissing
	}

	srcPath, cleanupSrc, err := fileutil.WriteTempFile(source, "mmd")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	defer cleanupSrc()

	cfgPath, cleanupCfg, err := fileutil.WriteTempFile(fmt.Sprintf(`{"theme": %q}`, r.theme), "json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	defer cleanupCfg()

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, stderr, err := r.runner.Run(runCtx, r.bin,
		"-i", srcPath,
		"-o", outPath,
		"-c", cfgPath,
		"-b", "transparent",
		"-w", strconv.Itoa(r.width),
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrDiagramToolMissing, r.bin)
		}
		return fmt.Errorf("%w: %v (%s)", ErrDiagramRender, err, firstLine(stderr))
	}
	if !fileutil.FileExists(outPath) {
		return ErrDiagramNoOutput
	}
	return nil
}

// diagramExternalizer replaces mermaid fences with image embeds, rendering
// through the configured renderer on cache misses only.
type diagramExternalizer struct {
	prot     *protector
	store    *cache.Store
	renderer DiagramRenderer
}

// Externalize processes every mermaid fence in the document. Fences are
// handled through their protected spans so the body hashed and rendered is
// the raw source, untouched by inline-span tokenization. A diagram that
// fails to render degrades to a plain text fence retaining the source, and
// the failure is reported as a warning; one bad diagram never sinks the
// document.
func (d *diagramExternalizer) Externalize(ctx context.Context, text string) (string, []Warning) {
	protected, spans := d.prot.protect(text)

	var warnings []Warning
	count := 0
	for i := range spans {
		if spans[i].Class != spanFence3 {
			continue
		}
		loc := diagramFencePattern.FindStringIndex(spans[i].Original)
		if loc == nil || loc[0] != 0 {
			continue
		}
		count++
		sub := diagramFencePattern.FindStringSubmatch(spans[i].Original)
		source := strings.TrimRight(strings.TrimPrefix(sub[1], "\n"), "\n")

		hash := cache.Hash(source)
		path := d.store.Path(cache.KindDiagramImage, hash, "png")
		_, err := d.store.Materialize(path, false, func(tmp string) error {
			return d.renderer.Render(ctx, source, tmp)
		})
		if err != nil {
			warnings = append(warnings, Warning{Stage: "diagram", Element: count, Message: err.Error()})
			spans[i].Original = "```text\n" + source + "\n```"
			continue
		}
		spans[i].Original = diagramEmbed(filepath.Base(path))
	}

	for i := range warnings {
		warnings[i].Total = count
	}
	return d.prot.restore(protected, spans), warnings
}

func diagramEmbed(filename string) string {
	return "\\begin{center}\n\\includegraphics[width=0.85\\linewidth]{" + filename + "}\n\\end{center}"
}

// firstLine trims a tool's stderr down to its first line for warnings.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
