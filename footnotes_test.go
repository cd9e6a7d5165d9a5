package md2tex

import (
	"strings"
	"testing"
)

func newTestFootnoteConverter(t *testing.T) *footnoteConverter {
	t.Helper()
	return &footnoteConverter{prot: newTestProtector(t)}
}

func TestFootnoteConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "inline footnote",
			input:    "Fact^[World] here.",
			expected: `Fact\footnote{World} here.`,
		},
		{
			name:     "reference footnote with definition",
			input:    "Fact[^a] here.\n\n[^a]: Hello",
			expected: "Fact\\footnote{Hello} here.\n",
		},
		{
			name:     "unresolved reference stays literal",
			input:    "Fact[^missing] here.",
			expected: "Fact[^missing] here.",
		},
		{
			name:     "definition removed from document",
			input:    "Text[^x].\n[^x]: note body\n\nAfter.",
			expected: "Text\\footnote{note body}.\n\nAfter.",
		},
		{
			name:     "continuation line folded into definition body",
			input:    "Text[^x].\n[^x]: note body\nstill the note",
			expected: "Text\\footnote{note body\nstill the note}.",
		},
		{
			name:     "multiline definition until blank line",
			input:    "See[^m].\n\n[^m]: first line\nsecond line\n\nParagraph.",
			expected: "See\\footnote{first line\nsecond line}.\n\n\nParagraph.",
		},
		{
			name:     "later definition wins",
			input:    "Ref[^d].\n\n[^d]: old\n\n[^d]: new",
			expected: "Ref\\footnote{new}.\n\n",
		},
		{
			name:     "inline and reference mixed",
			input:    "A^[one] and B[^2].\n\n[^2]: two",
			expected: "A\\footnote{one} and B\\footnote{two}.\n",
		},
		{
			name:     "footnote syntax in code span untouched",
			input:    "`[^a]` stays.\n\n[^a]: Hello",
			expected: "`[^a]` stays.\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestFootnoteConverter(t)
			got := c.Convert(tt.input, FootnoteModeNotes)
			if got != tt.expected {
				t.Errorf("Convert() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFootnoteCommentMode(t *testing.T) {
	t.Parallel()

	c := newTestFootnoteConverter(t)
	input := "A^[inline note] and B[^r].\n\n[^r]: ref note"

	got := c.Convert(input, FootnoteModeComments)

	if !strings.Contains(got, `\todo[inline]{inline note}`) {
		t.Errorf("inline footnote not converted to review comment: %q", got)
	}
	if !strings.Contains(got, `\todo[inline]{ref note}`) {
		t.Errorf("reference footnote not converted to review comment: %q", got)
	}
	if strings.Contains(got, `\footnote`) {
		t.Errorf("comment mode must apply to both syntaxes uniformly: %q", got)
	}
}

func TestExtractFootnoteDefinitions(t *testing.T) {
	t.Parallel()

	input := "before\n[^a]: alpha\ncontinued\n\n[^b]: beta\nafter"
	defs, remaining := extractFootnoteDefinitions(input)

	if defs["a"] != "alpha\ncontinued" {
		t.Errorf("defs[a] = %q, want %q", defs["a"], "alpha\ncontinued")
	}
	// A definition body runs to the next blank line or end of document, so
	// the trailing line folds into the note.
	if defs["b"] != "beta\nafter" {
		t.Errorf("defs[b] = %q, want %q", defs["b"], "beta\nafter")
	}
	if strings.Contains(remaining, "[^a]:") || strings.Contains(remaining, "[^b]:") {
		t.Errorf("definitions not removed: %q", remaining)
	}
	if !strings.Contains(remaining, "before") {
		t.Errorf("surrounding text lost: %q", remaining)
	}
	if strings.Contains(remaining, "after") {
		t.Errorf("folded continuation left in document text: %q", remaining)
	}
}
