package md2tex

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docforge/md2tex/internal/cache"
	"github.com/docforge/md2tex/internal/fileutil"
)

// execFencePattern matches fenced blocks carrying a bracketed property list.
var execFencePattern = regexp.MustCompile(
	"(?ms)^[ \t]*```([A-Za-z0-9_+#.-]+)[ \t]+\\[([^\\]\n]*)\\][ \t]*$\n(.*?)^[ \t]*```[ \t]*$")

// plotCallPattern detects a plotting call in executed source. Plot blocks
// produce an image artifact instead of captured stdout.
var plotCallPattern = regexp.MustCompile(`\bplt\.|\bpyplot\b|matplotlib`)

// blockProps is the parsed bracketed property list of a fenced block.
// Zero value: not executed, code hidden, output shown.
type blockProps struct {
	execute    bool
	showCode   bool
	showOutput bool
	noCache    bool
}

// parseBlockProps parses a comma or space separated property list.
// Unknown properties are ignored; later properties override earlier ones.
func parseBlockProps(list string) blockProps {
	p := blockProps{showOutput: true}
	for _, f := range strings.Fields(strings.ReplaceAll(list, ",", " ")) {
		switch strings.ToLower(f) {
		case "execute":
			p.execute = true
		case "show-code":
			p.showCode = true
		case "hide-code":
			p.showCode = false
		case "show-output":
			p.showOutput = true
		case "hide-output":
			p.showOutput = false
		case "no-cache":
			p.noCache = true
		}
	}
	return p
}

// codeExecutor runs [execute] fences through the configured interpreter and
// splices their output into the document. Only successful runs are cached;
// a failed block is retried on the next build.
type codeExecutor struct {
	prot        *protector
	store       *cache.Store
	interpreter string
	runner      CommandRunner
	timeout     time.Duration
}

// Run processes every property-tagged fence, working on the raw protected
// span originals so the interpreter and the cache key see the source exactly
// as written, never with tokenized inline spans. Fences without the execute
// property pass through verbatim. Per-block failures degrade to an inline
// error marker and a warning; they never stop the document.
func (c *codeExecutor) Run(ctx context.Context, text string) (string, []Warning) {
	protected, spans := c.prot.protect(text)

	var warnings []Warning
	count := 0
	for i := range spans {
		if spans[i].Class != spanFence3 {
			continue
		}
		loc := execFencePattern.FindStringIndex(spans[i].Original)
		if loc == nil || loc[0] != 0 {
			continue
		}
		sub := execFencePattern.FindStringSubmatch(spans[i].Original)
		props := parseBlockProps(sub[2])
		if !props.execute {
			continue
		}
		count++

		source := strings.TrimRight(sub[3], "\n")
		markup, warn := c.runBlock(ctx, sub[1], source, props)
		if warn != "" {
			warnings = append(warnings, Warning{Stage: "code", Element: count, Message: warn})
		}
		spans[i].Original = markup
	}

	for i := range warnings {
		warnings[i].Total = count
	}
	return c.prot.restore(protected, spans), warnings
}

// runBlock executes one block and assembles its replacement markup from the
// optional code listing and the output (text or plot).
func (c *codeExecutor) runBlock(ctx context.Context, lang, source string, props blockProps) (markup, warn string) {
	var parts []string
	if props.showCode {
		parts = append(parts, codeListing(lang, source))
	}

	if c.interpreter == "" {
		// No interpreter: keep the source visible even under hide-code, so
		// the document still carries the information.
		if !props.showCode {
			parts = append(parts, codeListing(lang, source))
		}
		parts = append(parts, errorMarker(ErrInterpreterMissing.Error()))
		return strings.Join(parts, "\n\n"), ErrInterpreterMissing.Error()
	}

	hash := cache.Hash(source)
	var outputPart string
	var err error
	if plotCallPattern.MatchString(source) {
		path := c.store.Path(cache.KindCodePlot, hash, "png")
		_, err = c.store.Materialize(path, props.noCache, func(tmp string) error {
			return c.executePlot(ctx, source, tmp)
		})
		if err == nil {
			outputPart = plotEmbed(filepath.Base(path))
		}
	} else {
		path := c.store.Path(cache.KindCodeOutput, hash, "txt")
		_, err = c.store.MaterializeBytes(path, props.noCache, func() ([]byte, error) {
			stdout, execErr := c.execute(ctx, source)
			if execErr != nil {
				return nil, execErr
			}
			return []byte(stdout), nil
		})
		if err == nil {
			var stdout string
			stdout, err = c.store.ReadText(path)
			if err == nil {
				outputPart = outputBlock(stdout)
			}
		}
	}

	switch {
	case errors.Is(err, ErrCodeTimeout):
		parts = append(parts, timeoutMarker())
		warn = err.Error()
	case err != nil:
		parts = append(parts, errorMarker(firstLine(err.Error())))
		warn = err.Error()
	case props.showOutput:
		parts = append(parts, outputPart)
	}

	return strings.Join(parts, "\n\n"), warn
}

// execute writes the source to a temp file and runs it under the interpreter
// with the per-block timeout.
func (c *codeExecutor) execute(ctx context.Context, source string) (string, error) {
	srcPath, cleanup, err := fileutil.WriteTempFile(source, "py")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCodeExecution, err)
	}
	defer cleanup()

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.runner.Run(runCtx, c.interpreter, srcPath)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrCodeTimeout, c.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("%w: exit status %d: %s", ErrCodeExecution, ExitCode(err), firstLine(stderr))
	}
	return stdout, nil
}

// executePlot wraps the source to force the non-interactive backend and save
// the current figure to the artifact path, then runs it.
func (c *codeExecutor) executePlot(ctx context.Context, source, outPath string) error {
	wrapped := "import matplotlib\nmatplotlib.use(\"Agg\")\n" +
		source +
		fmt.Sprintf("\n\nimport matplotlib.pyplot as plt\nplt.savefig(%q, bbox_inches=\"tight\")\n", outPath)

	if _, err := c.execute(ctx, wrapped); err != nil {
		return err
	}
	if !fileutil.FileExists(outPath) {
		return fmt.Errorf("%w: plot produced no figure", ErrCodeExecution)
	}
	return nil
}

func codeListing(lang, source string) string {
	return "\\begin{minted}{" + lang + "}\n" + source + "\n\\end{minted}"
}

// outputBlock renders captured stdout verbatim, or an explicit marker when a
// successful run printed nothing.
func outputBlock(stdout string) string {
	if strings.TrimSpace(stdout) == "" {
		return `\textit{(no output)}`
	}
	return "\\begin{verbatim}\n" + strings.TrimRight(stdout, "\n") + "\n\\end{verbatim}"
}

func plotEmbed(filename string) string {
	return "\\begin{center}\n\\includegraphics[width=0.85\\linewidth]{" + filename + "}\n\\end{center}"
}

// errorMarker escapes the message because this pass runs after the global
// escaping pass; raw stderr may carry engine-special characters.
func errorMarker(msg string) string {
	return `\textbf{[code execution failed: ` + escapeValue(msg) + `]}`
}

func timeoutMarker() string {
	return `\textbf{[code execution timed out]}`
}
