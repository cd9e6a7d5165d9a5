package md2tex

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/docforge/md2tex/internal/fileutil"
)

// emojiDefPattern parses \emojidef{name}{glyphs} lines from the definition
// table shipped with the typesetting distribution. Malformed lines are
// skipped rather than failing the load.
var emojiDefPattern = regexp.MustCompile(`\\emojidef\{([A-Za-z0-9_-]+)\}\{([^{}]+)\}`)

// EmojiTable maps literal emoji glyph sequences to the symbolic names the
// typesetting engine resolves to font glyphs.
type EmojiTable struct {
	names   map[string]string
	pattern *regexp.Regexp
}

// NewEmojiTable builds a table from a glyph-to-name map. The match pattern
// orders glyphs longest-first so multi-codepoint sequences (flags, ZWJ
// families) win over their single-codepoint prefixes.
func NewEmojiTable(names map[string]string) *EmojiTable {
	glyphs := make([]string, 0, len(names))
	for g := range names {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool {
		if len(glyphs[i]) != len(glyphs[j]) {
			return len(glyphs[i]) > len(glyphs[j])
		}
		return glyphs[i] < glyphs[j]
	})

	var pattern *regexp.Regexp
	if len(glyphs) > 0 {
		quoted := make([]string, len(glyphs))
		for i, g := range glyphs {
			quoted[i] = regexp.QuoteMeta(g)
		}
		pattern = regexp.MustCompile(strings.Join(quoted, "|"))
	}

	return &EmojiTable{names: names, pattern: pattern}
}

// Len returns the number of known glyph sequences.
func (t *EmojiTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// LoadEmojiTable locates the emoji definition file through the given
// kpsewhich binary and parses it. The source argument overrides discovery:
// a path is read directly, any other non-empty value is passed to kpsewhich
// in place of the default file name. Every failure returns ErrEmojiSource;
// callers treat that as "emoji substitution disabled", never as fatal.
func LoadEmojiTable(ctx context.Context, runner CommandRunner, kpsewhich, source string) (*EmojiTable, error) {
	const defaultSource = "emoji-table.def"

	path := source
	if !fileutil.IsFilePath(path) {
		name := source
		if name == "" {
			name = defaultSource
		}
		if kpsewhich == "" {
			return nil, fmt.Errorf("%w: kpsewhich not available", ErrEmojiSource)
		}
		stdout, stderr, err := runner.Run(ctx, kpsewhich, name)
		if err != nil {
			return nil, fmt.Errorf("%w: locating %s: %v (%s)", ErrEmojiSource, name, err, strings.TrimSpace(stderr))
		}
		path = strings.TrimSpace(stdout)
		if path == "" {
			return nil, fmt.Errorf("%w: %s not found in the TeX tree", ErrEmojiSource, name)
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path resolved by kpsewhich or given by the caller
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmojiSource, err)
	}
	return ParseEmojiTable(string(data))
}

// ParseEmojiTable parses \emojidef lines from the definition file content.
func ParseEmojiTable(content string) (*EmojiTable, error) {
	names := make(map[string]string)
	for _, m := range emojiDefPattern.FindAllStringSubmatch(content, -1) {
		// Later definitions win, matching the engine's own override order.
		names[m[2]] = m[1]
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no definitions parsed", ErrEmojiSource)
	}
	return NewEmojiTable(names), nil
}

// emojiMapper substitutes emoji glyphs outside protected spans. A nil table
// makes the mapper a no-op, which is how a failed table load degrades.
type emojiMapper struct {
	prot  *protector
	table *EmojiTable
}

// Map replaces every known glyph sequence with \emoji{name}.
func (m *emojiMapper) Map(text string) string {
	if m.table == nil || m.table.pattern == nil {
		return text
	}

	protected, spans := m.prot.protect(text)
	protected = m.table.pattern.ReplaceAllStringFunc(protected, func(glyph string) string {
		return `\emoji{` + m.table.names[glyph] + `}`
	})
	return m.prot.restore(protected, spans)
}
