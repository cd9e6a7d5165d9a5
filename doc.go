// Package md2tex rewrites annotated Markdown into the LaTeX dialect consumed
// by a lualatex template.
//
// # Quick Start
//
// Create a service, render markdown, and close when done:
//
//	svc, err := md2tex.New(md2tex.WithCacheDir("_build_report"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	result, err := svc.Render(ctx, md2tex.Input{
//	    Markdown: "# Hello\n\nA ==highlighted== word.",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("report.tex.md", []byte(result.Markup), 0644)
//
// The result contains the rewritten markup plus per-element warnings and the
// list of unresolved {{variable}} names.
//
// # Rewriting Pipeline
//
// Render applies a fixed sequence of textual passes:
//
//  1. Variable substitution ({{name}} from the variable map)
//  2. Code-highlight extraction ([highlight] fences to cached SVG snippets)
//  3. Footnote conversion (inline ^[..] and reference [^label] syntax)
//  4. Diagram externalization (mermaid fences to cached rendered images)
//  5. Language-tag normalization (fence aliases to canonical lexer names)
//  6. Keyboard-shortcut parsing (++ctrl+c++ to \keys{...})
//  7. Container parsing (:::note fences to deferred begin/end markers)
//  8. Inline formatting (highlight, strike, sup/sub, small caps, underline)
//  9. Emoji mapping (glyphs to \emoji{...} via an external lookup table)
//  10. Escaping (literal % outside protected spans)
//  11. Container-marker resolution (markers to \begin/\end environments)
//  12. Executable block running ([execute] fences to cached output or plots)
//
// Literal regions (code fences, inline code, math) are shielded from every
// pass by placeholder substitution and restored unchanged afterward.
//
// # External Tools
//
// Diagram rendering and code execution shell out to pre-resolved executable
// paths supplied via options; a missing tool degrades the affected element to
// a literal block instead of failing the document:
//
//	svc, err := md2tex.New(
//	    md2tex.WithCacheDir(dir),
//	    md2tex.WithDiagramTool("/usr/local/bin/mmdc"),
//	    md2tex.WithInterpreter("/usr/bin/python3"),
//	)
//
// Rendered diagrams, executed-code output, and highlighted snippets are
// content-addressed: artifacts are keyed by a hash of their generating source
// and reused across runs, so a warm cache performs zero external invocations.
//
// # Parallel Processing
//
// For batch rewriting, use ServicePool to share cache-aware services:
//
//	pool := md2tex.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//	result, err := svc.Render(ctx, input)
package md2tex
