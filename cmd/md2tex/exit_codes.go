package main

import (
	"errors"
	"os"

	md2tex "github.com/docforge/md2tex"
	"github.com/docforge/md2tex/internal/metadata"
)

// Exit codes for the md2tex CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful build
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, arguments, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Typesetting engine or browser errors
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput         = errors.New("no input file given")
	ErrNotMarkdown     = errors.New("input must have .md extension")
	ErrReadMarkdown    = errors.New("failed to read markdown file")
	ErrTemplateMissing = errors.New("template.tex not found")
	ErrEngineMissing   = errors.New("lualatex not found in PATH")
	ErrEngineFailed    = errors.New("typesetting failed")
	ErrMovePDF         = errors.New("failed to move produced PDF")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine and browser errors (exit 4)
	if errors.Is(err, ErrEngineMissing) ||
		errors.Is(err, ErrEngineFailed) ||
		errors.Is(err, md2tex.ErrBrowserConnect) ||
		errors.Is(err, md2tex.ErrBrowserPage) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrTemplateMissing) ||
		errors.Is(err, ErrMovePDF) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/validation errors (exit 2)
	if errors.Is(err, ErrNotMarkdown) ||
		errors.Is(err, metadata.ErrMalformed) ||
		errors.Is(err, md2tex.ErrEmptyMarkdown) ||
		errors.Is(err, md2tex.ErrInvalidFootnoteMode) ||
		errors.Is(err, md2tex.ErrNoCacheDir) {
		return ExitUsage
	}

	return ExitGeneral
}
