package md2tex

import (
	"context"
	"fmt"
	"strings"

	"github.com/docforge/md2tex/internal/cache"
)

// Service rewrites annotated markdown into engine-ready markup. Safe for
// sequential reuse; use a ServicePool for concurrent documents.
type Service struct {
	cfg   serviceConfig
	prot  *protector
	store *cache.Store
	emoji *EmojiTable

	runner   CommandRunner
	diagrams DiagramRenderer

	vars       *variableSubstitutor
	snippets   *snippetExtractor
	footnotes  *footnoteConverter
	langs      *languageNormalizer
	inline     *inlineFormatter
	containers *containerParser
	emojiMap   *emojiMapper
	code       *codeExecutor

	browser *BrowserRenderer // owned only when created here
}

// New creates a Service with the given options. The emoji table is loaded
// once here, never lazily during a render; a failed load disables the mapper
// and is not an error.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		cfg: serviceConfig{
			execTimeout:    defaultExecTimeout,
			diagramTimeout: defaultDiagramTimeout,
			diagramTheme:   defaultDiagramTheme,
			diagramWidth:   defaultDiagramWidth,
			snippetStyle:   defaultSnippetStyle,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cfg.cacheDir == "" {
		return nil, ErrNoCacheDir
	}
	store, err := cache.New(s.cfg.cacheDir)
	if err != nil {
		return nil, err
	}
	s.store = store

	prot, err := newProtector()
	if err != nil {
		return nil, err
	}
	s.prot = prot

	if s.runner == nil {
		s.runner = &ExecRunner{}
	}

	if s.diagrams == nil {
		if s.cfg.useBrowser {
			s.browser = NewBrowserRenderer(s.cfg.diagramTheme, s.cfg.diagramTimeout)
			s.diagrams = s.browser
		} else {
			s.diagrams = &mermaidRenderer{
				bin:     s.cfg.diagramTool,
				runner:  s.runner,
				theme:   s.cfg.diagramTheme,
				width:   s.cfg.diagramWidth,
				timeout: s.cfg.diagramTimeout,
			}
		}
	}

	if s.emoji == nil && s.cfg.emojiSource != "" {
		// Soft failure: an unavailable table disables substitution.
		if table, err := LoadEmojiTable(context.Background(), s.runner, s.cfg.emojiSource, ""); err == nil {
			s.emoji = table
		}
	}

	s.vars = &variableSubstitutor{prot: s.prot}
	s.snippets = &snippetExtractor{prot: s.prot, store: s.store, style: s.cfg.snippetStyle}
	s.footnotes = &footnoteConverter{prot: s.prot}
	s.langs = &languageNormalizer{prot: s.prot}
	s.inline = &inlineFormatter{prot: s.prot}
	s.containers = newContainerParser(s.prot)
	s.emojiMap = &emojiMapper{prot: s.prot, table: s.emoji}
	s.code = &codeExecutor{
		prot:        s.prot,
		store:       s.store,
		interpreter: s.cfg.interpreter,
		runner:      s.runner,
		timeout:     s.cfg.execTimeout,
	}

	return s, nil
}

// Close releases resources held by the Service (the browser, when one was
// created here).
func (s *Service) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// Render rewrites one document. Pass order is fixed: values substituted
// first see every later rewrite; escaping runs before the passes that emit
// markup whose characters it would mangle; executable blocks run last so
// their spliced output is final.
func (s *Service) Render(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	text := normalizeLineEndings(input.Markdown)
	result := &Result{}

	text, missing := s.vars.Substitute(text, input.Variables)
	result.UnresolvedVariables = missing

	text, warnings := s.snippets.Extract(text)
	result.Warnings = append(result.Warnings, warnings...)

	text = s.footnotes.Convert(text, input.Footnotes)

	text, warnings = s.diagramPass(ctx, text)
	result.Warnings = append(result.Warnings, warnings...)

	text = s.langs.Normalize(text)
	text = s.inline.FormatKeys(text)
	text = s.containers.Parse(text)
	text = s.inline.Format(text)
	text = s.emojiMap.Map(text)
	text = s.escapePass(text)
	text = s.containers.ResolveMarkers(text)

	text, warnings = s.code.Run(ctx, text)
	result.Warnings = append(result.Warnings, warnings...)

	result.Markup = text
	return result, nil
}

// diagramPass wraps the externalizer so Render reads as a flat pass list.
func (s *Service) diagramPass(ctx context.Context, text string) (string, []Warning) {
	d := &diagramExternalizer{prot: s.prot, store: s.store, renderer: s.diagrams}
	return d.Externalize(ctx, text)
}

// escapePass escapes engine-special characters outside protected spans.
// Only the percent escape is applied globally; full escaping of prose would
// mangle markup emitted by earlier passes, so those passes escape their own
// interpolated values instead.
func (s *Service) escapePass(text string) string {
	protected, spans := s.prot.protect(text)
	protected = escapePercent(protected)
	return s.prot.restore(protected, spans)
}

// validateInput checks the rewriting parameters.
func validateInput(input Input) error {
	if strings.TrimSpace(input.Markdown) == "" {
		return ErrEmptyMarkdown
	}
	if err := input.Footnotes.Validate(); err != nil {
		return fmt.Errorf("%w: %d", ErrInvalidFootnoteMode, input.Footnotes)
	}
	return nil
}

// normalizeLineEndings converts CRLF and lone CR to LF so every pass sees
// one line convention.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
