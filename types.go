package md2tex

import (
	"time"
)

// FootnoteMode selects the markup emitted for both footnote syntaxes.
type FootnoteMode int

const (
	// FootnoteModeNotes emits regular document footnotes (\footnote{...}).
	FootnoteModeNotes FootnoteMode = iota
	// FootnoteModeComments emits inline review comments (\todo[inline]{...}).
	FootnoteModeComments
)

// Validate checks that the mode is a known value.
func (m FootnoteMode) Validate() error {
	switch m {
	case FootnoteModeNotes, FootnoteModeComments:
		return nil
	}
	return ErrInvalidFootnoteMode
}

// Input contains rewriting parameters for a single document.
type Input struct {
	Markdown  string            // Markdown content (required)
	Variables map[string]string // {{name}} substitution map (optional, read-only)
	Footnotes FootnoteMode      // Footnote or review-comment markup
}

// Warning describes a per-element recoverable failure. The document is still
// produced; the failing element degraded to a textual fallback.
type Warning struct {
	Stage   string // pipeline stage, e.g. "diagram", "code", "snippet"
	Element int    // 1-based index of the element within its stage
	Total   int    // total elements seen by that stage in this document
	Message string
}

// Result holds the rewritten document and everything worth reporting.
type Result struct {
	Markup              string
	UnresolvedVariables []string  // each missing {{name}} exactly once, in order
	Warnings            []Warning // per-element failures, never fatal
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	cacheDir       string
	diagramTool    string // pre-resolved mmdc path ("" = degrade to literal blocks)
	diagramTheme   string
	diagramWidth   int
	interpreter    string // pre-resolved python path ("" = degrade to error markers)
	execTimeout    time.Duration
	diagramTimeout time.Duration
	snippetStyle   string // chroma style name for [highlight] snippets
	emojiSource    string // pre-resolved kpsewhich path ("" = mapper disabled)
	useBrowser     bool   // render diagrams with headless Chrome instead of a CLI tool
}

// Defaults applied by New.
const (
	defaultExecTimeout    = 30 * time.Second
	defaultDiagramTimeout = 60 * time.Second
	defaultDiagramTheme   = "default"
	defaultDiagramWidth   = 800
	defaultSnippetStyle   = "github"
)

// WithCacheDir sets the build cache directory for content-addressed
// artifacts (diagrams, code output, highlighted snippets).
func WithCacheDir(dir string) Option {
	return func(s *Service) { s.cfg.cacheDir = dir }
}

// WithDiagramTool sets the pre-resolved path of the external diagram
// renderer. Tool discovery is a setup-time concern; the pipeline never
// searches install locations itself.
func WithDiagramTool(path string) Option {
	return func(s *Service) { s.cfg.diagramTool = path }
}

// WithDiagramTheme sets the theme passed to the diagram renderer.
func WithDiagramTheme(theme string) Option {
	return func(s *Service) { s.cfg.diagramTheme = theme }
}

// WithDiagramWidth sets the pixel width of rendered diagram images.
func WithDiagramWidth(px int) Option {
	return func(s *Service) { s.cfg.diagramWidth = px }
}

// WithBrowserRenderer renders diagrams with headless Chrome instead of an
// external CLI tool.
func WithBrowserRenderer() Option {
	return func(s *Service) { s.cfg.useBrowser = true }
}

// WithInterpreter sets the pre-resolved path of the code interpreter used
// for [execute] blocks.
func WithInterpreter(path string) Option {
	return func(s *Service) { s.cfg.interpreter = path }
}

// WithExecTimeout sets the wall-clock timeout for a single executed block.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithExecTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2tex: WithExecTimeout duration must be positive")
	}
	return func(s *Service) { s.cfg.execTimeout = d }
}

// WithSnippetStyle sets the chroma style used for [highlight] snippets.
func WithSnippetStyle(name string) Option {
	return func(s *Service) { s.cfg.snippetStyle = name }
}

// WithEmojiSource sets the pre-resolved kpsewhich path used to locate the
// emoji definition table. Without it the emoji mapper is a no-op.
func WithEmojiSource(path string) Option {
	return func(s *Service) { s.cfg.emojiSource = path }
}

// WithEmojiTable injects a pre-built emoji table, bypassing the external
// lookup entirely. Useful for tests and embedded deployments.
func WithEmojiTable(t *EmojiTable) Option {
	return func(s *Service) { s.emoji = t }
}

// WithCommandRunner injects a custom command runner (used by tests to avoid
// spawning real subprocesses).
func WithCommandRunner(r CommandRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithDiagramRenderer injects a custom diagram renderer implementation.
func WithDiagramRenderer(r DiagramRenderer) Option {
	return func(s *Service) { s.diagrams = r }
}
