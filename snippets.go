package md2tex

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromasvg "github.com/alecthomas/chroma/v2/formatters/svg"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/docforge/md2tex/internal/cache"
)

// snippetFencePattern matches fenced blocks tagged with the [highlight]
// property. The body capture includes the trailing newline before the
// closing fence.
var snippetFencePattern = regexp.MustCompile(
	"(?ms)^[ \t]*```([A-Za-z0-9_+#.-]+)[ \t]+\\[highlight\\][ \t]*$\n(.*?)^[ \t]*```[ \t]*$")

// snippetExtractor renders [highlight] fences to standalone vector artifacts
// and replaces them with image embeds. Artifacts are keyed by a hash of the
// language and source, so unchanged snippets are free on rebuild.
type snippetExtractor struct {
	prot  *protector
	store *cache.Store
	style string
}

// Extract replaces every [highlight] fence, working on the raw protected
// span originals so the hashed and highlighted source never carries inline
// placeholder tokens. A snippet that fails to render degrades to a plain
// fence, keeping the source visible, and is reported as a warning.
func (e *snippetExtractor) Extract(text string) (string, []Warning) {
	protected, spans := e.prot.protect(text)

	var warnings []Warning
	count := 0
	for i := range spans {
		if spans[i].Class != spanFence3 {
			continue
		}
		loc := snippetFencePattern.FindStringIndex(spans[i].Original)
		if loc == nil || loc[0] != 0 {
			continue
		}
		count++
		sub := snippetFencePattern.FindStringSubmatch(spans[i].Original)
		lang := sub[1]
		source := strings.TrimRight(sub[2], "\n")

		hash := cache.Hash(lang + "\n" + source)
		path := e.store.Path(cache.KindSnippet, hash, "svg")
		_, err := e.store.MaterializeBytes(path, false, func() ([]byte, error) {
			return renderSnippetSVG(lang, source, e.style)
		})
		if err != nil {
			warnings = append(warnings, Warning{Stage: "snippet", Element: count, Message: err.Error()})
			spans[i].Original = "```" + lang + "\n" + source + "\n```"
			continue
		}
		spans[i].Original = snippetEmbed(filepath.Base(path))
	}

	for i := range warnings {
		warnings[i].Total = count
	}
	return e.prot.restore(protected, spans), warnings
}

// renderSnippetSVG tokenizes the source and formats it as a standalone SVG.
func renderSnippetSVG(lang, source, styleName string) ([]byte, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source+"\n")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnippetRender, err)
	}

	var buf bytes.Buffer
	formatter := chromasvg.New(chromasvg.FontFamily("monospace"))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnippetRender, err)
	}
	return buf.Bytes(), nil
}

// snippetEmbed references the artifact by base name; the engine runs inside
// the build directory where the artifact lives.
func snippetEmbed(filename string) string {
	return `\includesvg[width=\linewidth]{` + filename + `}`
}
