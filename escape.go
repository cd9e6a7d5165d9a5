package md2tex

import "strings"

// escapePercent escapes literal % characters. Callers protect literal
// regions first, so a % inside code or math is never touched. An already
// escaped \% is left alone rather than double-escaped.
func escapePercent(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		if text[i] == '%' && (i == 0 || text[i-1] != '\\') {
			b.WriteString(`\%`)
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// latexSpecials escapes characters that would change meaning in the emitted
// markup. Used for externally supplied values (variables, metadata), never
// for document text.
var latexSpecials = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// escapeValue escapes markup-special characters in an external value.
func escapeValue(v string) string {
	return latexSpecials.Replace(v)
}
