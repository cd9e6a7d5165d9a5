package md2tex

import (
	"regexp"
	"strings"
)

// Footnote syntax patterns.
var (
	// Definition line: [^label]: body
	footnoteDefPattern = regexp.MustCompile(`^\[\^([^\]]+)\]:[ \t]*(.*)$`)

	// Inline footnote: ^[body]
	inlineFootnotePattern = regexp.MustCompile(`\^\[([^\]]+)\]`)

	// Reference use: [^label]
	refFootnotePattern = regexp.MustCompile(`\[\^([^\]]+)\]`)
)

// footnoteConverter rewrites both footnote syntaxes into footnote markup, or
// into inline review comments when the mode flag says so.
type footnoteConverter struct {
	prot *protector
}

// Convert extracts all definitions, replaces inline footnotes, then replaces
// reference uses. Unresolved reference labels stay literal.
func (c *footnoteConverter) Convert(text string, mode FootnoteMode) string {
	protected, spans := c.prot.protect(text)

	defs, remaining := extractFootnoteDefinitions(protected)

	remaining = inlineFootnotePattern.ReplaceAllStringFunc(remaining, func(match string) string {
		body := inlineFootnotePattern.FindStringSubmatch(match)[1]
		return emitFootnote(body, mode)
	})

	remaining = refFootnotePattern.ReplaceAllStringFunc(remaining, func(match string) string {
		label := refFootnotePattern.FindStringSubmatch(match)[1]
		body, ok := defs[label]
		if !ok {
			return match
		}
		return emitFootnote(body, mode)
	})

	return c.prot.restore(remaining, spans)
}

// extractFootnoteDefinitions collects [^label]: definitions and removes them
// from the text. A definition body runs until a blank line, another
// definition, or end of document; a later definition with the same label
// overwrites an earlier one.
func extractFootnoteDefinitions(text string) (map[string]string, string) {
	lines := strings.Split(text, "\n")
	defs := make(map[string]string)
	kept := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) {
		m := footnoteDefPattern.FindStringSubmatch(lines[i])
		if m == nil {
			kept = append(kept, lines[i])
			i++
			continue
		}

		label := m[1]
		body := []string{m[2]}
		i++
		for i < len(lines) {
			line := lines[i]
			if strings.TrimSpace(line) == "" || footnoteDefPattern.MatchString(line) {
				break
			}
			body = append(body, strings.TrimSpace(line))
			i++
		}
		defs[label] = strings.TrimSpace(strings.Join(body, "\n"))
	}

	return defs, strings.Join(kept, "\n")
}

// emitFootnote renders one footnote body in the selected mode.
func emitFootnote(body string, mode FootnoteMode) string {
	if mode == FootnoteModeComments {
		return `\todo[inline]{` + body + `}`
	}
	return `\footnote{` + body + `}`
}
