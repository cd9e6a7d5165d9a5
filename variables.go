package md2tex

import "regexp"

// variablePattern matches {{ name }} tokens, whitespace-tolerant.
var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_][A-Za-z0-9_.-]*)\s*\}\}`)

// variableSubstitutor replaces {{name}} tokens with escaped values from an
// externally supplied map.
type variableSubstitutor struct {
	prot *protector
}

// Substitute replaces every {{name}} token outside protected spans.
// Substitution is single-pass: substituted text is never re-scanned, so a
// value containing {{other}} stays literal. Names with no mapping entry are
// rewritten to a visible marker and returned, each name exactly once, in
// order of first appearance.
func (v *variableSubstitutor) Substitute(text string, vars map[string]string) (string, []string) {
	protected, spans := v.prot.protect(text)

	seen := make(map[string]bool)
	var missing []string

	protected = variablePattern.ReplaceAllStringFunc(protected, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return escapeValue(value)
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return "[UNDEFINED: " + name + "]"
	})

	return v.prot.restore(protected, spans), missing
}
