package md2tex

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// fenceTagPattern matches a fence opener carrying a bare language tag.
// Fences with a bracketed property list have a space after the tag and are
// deliberately not matched; those belong to other passes.
var fenceTagPattern = regexp.MustCompile("(?m)^([ \t]*```)([A-Za-z0-9_+#.-]+)[ \t]*$")

// languageNormalizer rewrites fence language aliases to canonical lexer
// names so the engine's highlighter always sees a tag it knows.
type languageNormalizer struct {
	prot *protector
}

// Normalize canonicalizes every bare fence language tag. Runs with triple
// fences exposed, since those openers are exactly what it rewrites.
func (n *languageNormalizer) Normalize(text string) string {
	protected, spans := n.prot.protect(text, spanFence4, spanInlineCode, spanDisplayMath, spanInlineMath)

	protected = fenceTagPattern.ReplaceAllStringFunc(protected, func(match string) string {
		sub := fenceTagPattern.FindStringSubmatch(match)
		return sub[1] + canonicalLanguage(sub[2])
	})

	return n.prot.restore(protected, spans)
}

// canonicalLanguage resolves a tag through the lexer registry, collapsing
// aliases ("js", "golang", "py3") to one canonical name. Unknown tags fall
// back to "text" so the engine never chokes on an unregistered language.
func canonicalLanguage(tag string) string {
	lexer := lexers.Get(tag)
	if lexer == nil {
		return "text"
	}
	name := strings.ToLower(lexer.Config().Name)
	if name == "plaintext" {
		return "text"
	}
	return strings.ReplaceAll(name, " ", "")
}
