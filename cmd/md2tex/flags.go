package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	quiet   bool
	verbose bool
	help    bool

	assetsDir string
	output    string
	workers   int

	review  bool
	texOnly bool

	browserDiagrams bool
	diagramTheme    string
	diagramWidth    int
	snippetStyle    string
	execTimeout     time.Duration
}

// parseConvertFlags parses the convert command line.
// Returns the flags and the positional markdown inputs.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-stage progress")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")

	fs.StringVarP(&f.assetsDir, "assets", "a", ".", "directory holding template.tex, fonts/ and the logo")
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default: next to the source)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel documents (0 = auto)")

	fs.BoolVar(&f.review, "review", false, "render footnotes as inline review comments")
	fs.BoolVar(&f.texOnly, "tex-only", false, "stage the build directory but skip the engine")

	fs.BoolVar(&f.browserDiagrams, "browser-diagrams", false, "render diagrams with headless Chrome instead of mmdc")
	fs.StringVar(&f.diagramTheme, "diagram-theme", "default", "diagram theme")
	fs.IntVar(&f.diagramWidth, "diagram-width", 800, "diagram image width in pixels")
	fs.StringVar(&f.snippetStyle, "snippet-style", "github", "highlight style for [highlight] snippets")
	fs.DurationVar(&f.execTimeout, "exec-timeout", 30*time.Second, "timeout for one [execute] block")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
