package md2tex

import (
	"regexp"
	"strings"
)

// Inline formatting patterns. Each match is confined to a single line and
// non-greedy, so the leftmost shortest delimiter-bounded run wins when a
// delimiter appears more than twice on one line.
var (
	highlightPattern   = regexp.MustCompile(`==(.+?)==`)
	strikePattern      = regexp.MustCompile(`~~(.+?)~~`)
	underlinePattern   = regexp.MustCompile(`__(.+?)__`)
	smallcapsPattern   = regexp.MustCompile(`::(.+?)::`)
	superscriptPattern = regexp.MustCompile(`\^([^\s^]+)\^`)
	subscriptPattern   = regexp.MustCompile(`~([^\s~]+)~`)

	// Keyboard shortcut: ++ctrl+shift+p++
	kbdPattern = regexp.MustCompile(`\+\+([A-Za-z0-9]+(?:\+[A-Za-z0-9]+)*)\+\+`)
)

// inlineFormatter applies single-regex substitutions for the inline syntax
// extensions, outside protected spans only.
type inlineFormatter struct {
	prot *protector
}

// Format rewrites highlight, strikethrough, underline, small caps,
// superscript and subscript syntax into markup commands. Strikethrough runs
// before subscript so ~~x~~ is never half-eaten by the single-tilde pattern.
func (f *inlineFormatter) Format(text string) string {
	protected, spans := f.prot.protect(text)

	protected = highlightPattern.ReplaceAllString(protected, `\hl{$1}`)
	protected = strikePattern.ReplaceAllString(protected, `\st{$1}`)
	protected = underlinePattern.ReplaceAllString(protected, `\underline{$1}`)
	protected = smallcapsPattern.ReplaceAllString(protected, `\textsc{$1}`)
	protected = superscriptPattern.ReplaceAllString(protected, `\textsuperscript{$1}`)
	protected = subscriptPattern.ReplaceAllString(protected, `\textsubscript{$1}`)

	return f.prot.restore(protected, spans)
}

// FormatKeys rewrites ++key+key++ shortcuts into \keys{...} with each key
// name capitalized.
func (f *inlineFormatter) FormatKeys(text string) string {
	protected, spans := f.prot.protect(text)

	protected = kbdPattern.ReplaceAllStringFunc(protected, func(match string) string {
		combo := kbdPattern.FindStringSubmatch(match)[1]
		parts := strings.Split(combo, "+")
		for i, p := range parts {
			parts[i] = capitalizeKey(p)
		}
		return `\keys{` + strings.Join(parts, " + ") + `}`
	})

	return f.prot.restore(protected, spans)
}

// capitalizeKey uppercases the first letter of a key name ("ctrl" -> "Ctrl").
func capitalizeKey(k string) string {
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
