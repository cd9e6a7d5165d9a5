package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2tex <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Build PDFs from annotated markdown files")
	fmt.Fprintln(w, "  doctor     Check external tool availability")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2tex help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2tex convert <input.md> [input2.md ...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rewrite annotated markdown to engine markup, stage a build")
	fmt.Fprintln(w, "directory, and compile it with lualatex.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -a, --assets <dir>        Directory with template.tex, fonts/, logo (default \".\")")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF path (single input only)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel documents (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintln(w, "      --review              Footnotes become inline review comments")
	fmt.Fprintln(w, "      --tex-only            Stage the build directory, skip the engine")
	fmt.Fprintln(w, "      --exec-timeout <d>    Timeout per [execute] block (default 30s)")
	fmt.Fprintln(w, "      --snippet-style <s>   Highlight style for [highlight] snippets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --browser-diagrams    Use headless Chrome instead of mmdc")
	fmt.Fprintln(w, "      --diagram-theme <s>   Diagram theme (default \"default\")")
	fmt.Fprintln(w, "      --diagram-width <n>   Diagram width in pixels (default 800)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-stage progress")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2tex doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the external tools the pipeline shells out to are")
	fmt.Fprintln(w, "available: lualatex, kpsewhich, python3, mmdc, Chrome.")
}

// runHelpCmd dispatches 'md2tex help <command>'.
func runHelpCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2tex version")
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
