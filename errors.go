package md2tex

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrNoCacheDir    = errors.New("cache directory not configured")

	// Diagram rendering errors (per-element recoverable; surfaced as warnings).
	ErrDiagramToolMissing = errors.New("diagram renderer not available")
	ErrDiagramRender      = errors.New("diagram rendering failed")
	ErrDiagramNoOutput    = errors.New("diagram renderer produced no output file")

	// Executable block errors (per-element recoverable; surfaced as warnings).
	ErrInterpreterMissing = errors.New("code interpreter not available")
	ErrCodeExecution      = errors.New("code execution failed")
	ErrCodeTimeout        = errors.New("code execution timed out")

	// Snippet rendering errors.
	ErrSnippetRender = errors.New("snippet highlighting failed")

	// Browser renderer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrBrowserPage    = errors.New("failed to render browser page")

	// Emoji table errors (soft: a failed load disables the mapper).
	ErrEmojiSource = errors.New("emoji table source unavailable")

	// Validation errors.
	ErrInvalidFootnoteMode = errors.New("invalid footnote mode")
)
