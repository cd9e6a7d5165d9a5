package md2tex

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// Placeholder tokens use Unicode Private Use Area delimiters, so they pass
// through every regex pass unchanged, and carry a per-service random prefix,
// so document text that happens to look like a token can never be confused
// with a live one.
const (
	tokenStart = "\uE000" // U+E000: Private Use Area
	tokenEnd   = "\uE001"
)

// spanClass identifies one literal-region syntax.
type spanClass int

const (
	spanFence4 spanClass = iota
	spanFence3
	spanInlineCode
	spanDisplayMath
	spanInlineMath
)

// spanOrder lists classes in precedence order: longest/most-specific first,
// so a quadruple fence is never half-eaten by the triple-fence pattern and a
// backtick span inside a fence is never tokenized twice.
var spanOrder = []spanClass{spanFence4, spanFence3, spanInlineCode, spanDisplayMath, spanInlineMath}

// Precompiled literal-region patterns.
var spanPatterns = map[spanClass]*regexp.Regexp{
	spanFence4:      regexp.MustCompile("(?ms)^[ \t]*`{4,}[^\n]*$\n.*?^[ \t]*`{4,}[ \t]*$"),
	spanFence3:      regexp.MustCompile("(?ms)^[ \t]*```(?:[^`\n][^\n]*)?$\n.*?^[ \t]*```[ \t]*$"),
	spanInlineCode:  regexp.MustCompile("`[^`\n]+`"),
	spanDisplayMath: regexp.MustCompile(`(?s)\$\$.+?\$\$`),
	spanInlineMath:  regexp.MustCompile(`\$[^$\n]+\$`),
}

// ProtectedSpan records one shielded literal region. The placeholder token
// embeds the span's unique index; restoring replaces the token with the
// original text byte-for-byte.
type ProtectedSpan struct {
	Token    string
	Original string
	Class    spanClass
}

// protector shields literal regions via placeholder substitution.
// Span lists are call-scoped; the index counter is service-scoped so tokens
// from overlapping protect calls never collide.
type protector struct {
	prefix string
	next   atomic.Uint64
}

// newProtector creates a protector with a run-specific random prefix.
func newProtector() (*protector, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("generating token prefix: %w", err)
	}
	return &protector{prefix: hex.EncodeToString(b[:])}, nil
}

// token mints the next unique placeholder.
func (p *protector) token() string {
	return tokenStart + p.prefix + ":" + strconv.FormatUint(p.next.Add(1), 10) + tokenEnd
}

// protect replaces every literal region of the given classes with a unique
// placeholder token. With no classes, all classes are protected in
// precedence order. Passes that operate on fences protect everything and
// work on the raw Original of the fence spans they own; matching fences in
// the protected text would hand them bodies with tokenized inline spans.
func (p *protector) protect(text string, classes ...spanClass) (string, []ProtectedSpan) {
	selected := classes
	if len(selected) == 0 {
		selected = spanOrder
	}

	var spans []ProtectedSpan
	for _, class := range spanOrder {
		if !containsClass(selected, class) {
			continue
		}
		text = spanPatterns[class].ReplaceAllStringFunc(text, func(match string) string {
			tok := p.token()
			spans = append(spans, ProtectedSpan{Token: tok, Original: match, Class: class})
			return tok
		})
	}
	return text, spans
}

// restore replaces each placeholder token with its original text.
// Spans are restored most-recent-first so a span whose original contains an
// earlier token (nested protection) resolves completely. Restoring with an
// empty span list returns the text unchanged.
func (p *protector) restore(text string, spans []ProtectedSpan) string {
	for i := len(spans) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, spans[i].Token, spans[i].Original)
	}
	return text
}

func containsClass(classes []spanClass, c spanClass) bool {
	for _, x := range classes {
		if x == c {
			return true
		}
	}
	return false
}
