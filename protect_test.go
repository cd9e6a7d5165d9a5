package md2tex

import (
	"strings"
	"testing"
)

func newTestProtector(t *testing.T) *protector {
	t.Helper()
	p, err := newProtector()
	if err != nil {
		t.Fatalf("newProtector() error = %v", err)
	}
	return p
}

func TestProtectRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "plain text untouched",
			input: "just some text\nwith lines",
		},
		{
			name:  "triple fence",
			input: "before\n```go\nfmt.Println(\"%d\")\n```\nafter",
		},
		{
			name:  "quadruple fence containing triple fence",
			input: "````\n```js\ncode\n```\n````\n",
		},
		{
			name:  "inline code",
			input: "use `x == y` here",
		},
		{
			name:  "display math",
			input: "$$\\sum_{i=0}^n i$$",
		},
		{
			name:  "inline math",
			input: "value $a^2$ end",
		},
		{
			name:  "mixed regions",
			input: "`a` and $b$ and\n```\nfence %\n```\nand $$c$$",
		},
		{
			name:  "empty string",
			input: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newTestProtector(t)
			protected, spans := p.protect(tt.input)
			got := p.restore(protected, spans)
			if got != tt.input {
				t.Errorf("restore(protect(x)) = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestProtectHidesLiteralRegions(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	input := "text\n```\nsecret %\n```\nmore `inline %` end"

	protected, spans := p.protect(input)

	if strings.Contains(protected, "secret") {
		t.Errorf("fence content leaked into protected text: %q", protected)
	}
	if strings.Contains(protected, "inline %") {
		t.Errorf("inline code leaked into protected text: %q", protected)
	}
	if len(spans) != 2 {
		t.Errorf("got %d spans, want 2", len(spans))
	}
}

func TestProtectSelectedClassesKeepsFencesVisible(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	input := "```mermaid\ngraph TD\n```\nand `code` here"

	protected, spans := p.protect(input, spanInlineCode, spanDisplayMath, spanInlineMath)

	if !strings.Contains(protected, "```mermaid") {
		t.Errorf("fence should stay visible when not selected: %q", protected)
	}
	if strings.Contains(protected, "`code`") {
		t.Errorf("inline code should be protected: %q", protected)
	}
	if got := p.restore(protected, spans); got != input {
		t.Errorf("restore() = %q, want %q", got, input)
	}
}

func TestRestoreWithEmptySpansIsIdempotent(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	input := "nothing protected here"
	if got := p.restore(input, nil); got != input {
		t.Errorf("restore(x, nil) = %q, want %q", got, input)
	}
}

func TestRestoreIgnoresForgedTokens(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	// Literal text shaped like a token but with the wrong prefix must pass
	// through protect/restore unchanged.
	forged := tokenStart + "deadbeef:1" + tokenEnd
	input := "before " + forged + " after `real`"

	protected, spans := p.protect(input)
	got := p.restore(protected, spans)
	if got != input {
		t.Errorf("forged token corrupted: got %q, want %q", got, input)
	}
}

func TestProtectNestedSpansRestoreCompletely(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	// Inline code inside display math: code is tokenized first, the math span
	// then captures the token. Restore must resolve both layers.
	input := "$$f(`x`)$$"

	protected, spans := p.protect(input)
	got := p.restore(protected, spans)
	if got != input {
		t.Errorf("nested restore = %q, want %q", got, input)
	}
}

func TestTokenUniquenessAcrossCalls(t *testing.T) {
	t.Parallel()

	p := newTestProtector(t)
	_, first := p.protect("`a`")
	_, second := p.protect("`a`")

	if first[0].Token == second[0].Token {
		t.Errorf("tokens from separate calls must differ, both %q", first[0].Token)
	}
}
