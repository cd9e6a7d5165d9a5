package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	md2tex "github.com/docforge/md2tex"
	"github.com/docforge/md2tex/internal/fileutil"
	"github.com/docforge/md2tex/internal/hints"
	"github.com/docforge/md2tex/internal/metadata"
	"github.com/docforge/md2tex/internal/staging"
)

// enginePasses is how many times the engine runs per document. The first
// pass extracts and highlights code listings, the second includes them.
const enginePasses = 2

// engineArgs is the fixed engine invocation, executed inside the build dir.
var engineArgs = []string{
	"--shell-escape",
	"-synctex=1",
	"-interaction=nonstopmode",
	"-file-line-error",
	staging.TemplateName,
}

// toolSet holds the pre-resolved external tool paths. An empty path means
// the tool is unavailable and its pipeline stage degrades.
type toolSet struct {
	lualatex  string
	kpsewhich string
	python3   string
	mmdc      string
}

// resolveTools checks PATH once, up front. The pipeline itself never looks
// for binaries.
func resolveTools(lookPath func(string) (string, error)) toolSet {
	find := func(name string) string {
		path, err := lookPath(name)
		if err != nil {
			return ""
		}
		return path
	}
	return toolSet{
		lualatex:  find("lualatex"),
		kpsewhich: find("kpsewhich"),
		python3:   find("python3"),
		mmdc:      find("mmdc"),
	}
}

// runConvertCmd executes the convert command and returns an exit code.
// Multiple inputs are processed concurrently, bounded by the worker count.
func runConvertCmd(args []string, env *Environment) int {
	flags, inputs, err := parseConvertFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		printConvertUsage(env.Stderr)
		return ExitUsage
	}
	if flags.help {
		printConvertUsage(env.Stdout)
		return ExitSuccess
	}
	if len(inputs) == 0 {
		fmt.Fprintln(env.Stderr, ErrNoInput)
		printConvertUsage(env.Stderr)
		return ExitIO
	}
	if flags.output != "" && len(inputs) > 1 {
		fmt.Fprintln(env.Stderr, "--output requires a single input")
		return ExitUsage
	}

	tools := resolveTools(env.LookPath)

	workers := md2tex.ResolvePoolSize(flags.workers)
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if flags.verbose {
		fmt.Fprintf(env.Stderr, "Workers: %d\n", workers)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	worst := ExitSuccess

	for i, input := range inputs {
		wg.Add(1)
		go func(index int, input string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if !flags.quiet {
				fmt.Fprintf(env.Stderr, "[%d/%d] %s\n", index+1, len(inputs), input)
			}
			if err := convertOne(context.Background(), input, flags, tools, env); err != nil {
				fmt.Fprintf(env.Stderr, "Error: %s: %v\n", input, err)
				mu.Lock()
				if code := exitCodeFor(err); code > worst {
					worst = code
				}
				mu.Unlock()
			}
		}(i, input)
	}
	wg.Wait()

	return worst
}

// convertOne builds one document end to end: metadata, rewriting, staging,
// engine, PDF placement.
func convertOne(ctx context.Context, input string, flags *convertFlags, tools toolSet, env *Environment) error {
	mdPath, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}
	if strings.ToLower(filepath.Ext(mdPath)) != ".md" {
		return fmt.Errorf("%w: %s", ErrNotMarkdown, input)
	}

	content, err := os.ReadFile(mdPath) // #nosec G304 -- user-given input path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}

	mdDir := filepath.Dir(mdPath)
	base := strings.TrimSuffix(filepath.Base(mdPath), ".md")

	meta, sidecarPath, created, err := metadata.LoadOrCreate(mdDir, base, env.Now())
	if err != nil {
		return fmt.Errorf("%w%s", err, hints.ForMetadata(filepath.Join(mdDir, base+".yaml")))
	}
	if created && !flags.quiet {
		fmt.Fprintf(env.Stderr, "Created default metadata: %s\n", sidecarPath)
	}

	buildDir, err := staging.Prepare(mdPath)
	if err != nil {
		return err
	}

	result, err := rewrite(ctx, string(content), meta, flags, tools, buildDir)
	if err != nil {
		return err
	}
	report(env, flags, result)

	if err := stage(buildDir, mdPath, result.Markup, meta, sidecarPath, flags); err != nil {
		return err
	}

	if flags.texOnly {
		if !flags.quiet {
			fmt.Fprintf(env.Stderr, "Staged build directory: %s\n", buildDir)
		}
		return nil
	}

	return compile(ctx, buildDir, mdDir, base, flags, tools, env)
}

// rewrite runs the markdown through the rewriting pipeline.
func rewrite(ctx context.Context, markdown string, meta *metadata.Document, flags *convertFlags, tools toolSet, buildDir string) (*md2tex.Result, error) {
	opts := []md2tex.Option{
		md2tex.WithCacheDir(buildDir),
		md2tex.WithDiagramTheme(flags.diagramTheme),
		md2tex.WithDiagramWidth(flags.diagramWidth),
		md2tex.WithSnippetStyle(flags.snippetStyle),
		md2tex.WithExecTimeout(flags.execTimeout),
	}
	if flags.browserDiagrams {
		opts = append(opts, md2tex.WithBrowserRenderer())
	} else if tools.mmdc != "" {
		opts = append(opts, md2tex.WithDiagramTool(tools.mmdc))
	}
	if tools.python3 != "" {
		opts = append(opts, md2tex.WithInterpreter(tools.python3))
	}
	if tools.kpsewhich != "" {
		opts = append(opts, md2tex.WithEmojiSource(tools.kpsewhich))
	}

	svc, err := md2tex.New(opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = svc.Close() }()

	mode := md2tex.FootnoteModeNotes
	if flags.review || meta.ReviewMode {
		mode = md2tex.FootnoteModeComments
	}

	return svc.Render(ctx, md2tex.Input{
		Markdown:  markdown,
		Variables: meta.Variables,
		Footnotes: mode,
	})
}

// report surfaces unresolved variables and per-element warnings.
func report(env *Environment, flags *convertFlags, result *md2tex.Result) {
	if flags.quiet {
		return
	}
	for _, name := range result.UnresolvedVariables {
		fmt.Fprintf(env.Stderr, "Warning: unresolved variable {{%s}}\n", name)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(env.Stderr, "Warning: %s %d/%d: %s\n", w.Stage, w.Element, w.Total, w.Message)
	}
}

// stage assembles the build directory and injects metadata into the staged
// template.
func stage(buildDir, mdPath, markup string, meta *metadata.Document, sidecarPath string, flags *convertFlags) error {
	templatePath := filepath.Join(flags.assetsDir, staging.TemplateName)
	if !fileutil.FileExists(templatePath) {
		return fmt.Errorf("%w: %s", ErrTemplateMissing, templatePath)
	}

	assets := staging.Assets{
		Template: templatePath,
		Logo:     filepath.Join(flags.assetsDir, "uni-logo.pdf"),
		FontsDir: filepath.Join(flags.assetsDir, "fonts"),
	}

	mdName := filepath.Base(mdPath)
	if err := staging.StageCore(buildDir, assets, mdName, markup, sidecarPath); err != nil {
		return err
	}

	raw, err := os.ReadFile(mdPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}
	images := staging.CollectImages(string(raw))
	if err := staging.CopyImages(filepath.Dir(mdPath), buildDir, images); err != nil {
		return err
	}

	stagedTemplate := filepath.Join(buildDir, staging.TemplateName)
	tpl, err := os.ReadFile(stagedTemplate) // #nosec G304
	if err != nil {
		return fmt.Errorf("reading staged template: %w", err)
	}
	injected := staging.InjectPlaceholders(string(tpl), meta, mdName)
	if err := os.WriteFile(stagedTemplate, []byte(injected), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("writing staged template: %w", err)
	}
	return nil
}

// compile runs the engine and places the PDF next to the source.
// A PDF produced despite a nonzero final exit counts as success with
// warnings, matching how the engine reports recoverable layout issues.
func compile(ctx context.Context, buildDir, mdDir, base string, flags *convertFlags, tools toolSet, env *Environment) error {
	if tools.lualatex == "" {
		return fmt.Errorf("%w%s", ErrEngineMissing, hints.ForMissingTool("lualatex"))
	}

	var exitCode int
	for pass := 1; pass <= enginePasses; pass++ {
		if flags.verbose {
			fmt.Fprintf(env.Stderr, "Engine pass %d/%d...\n", pass, enginePasses)
		}
		code, err := env.Engine.Run(ctx, buildDir, tools.lualatex, engineArgs...)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEngineFailed, err)
		}
		exitCode = code
	}

	producedPDF := filepath.Join(buildDir, "template.pdf")
	if !fileutil.FileExists(producedPDF) {
		logPath := filepath.Join(buildDir, "template.log")
		return fmt.Errorf("%w: no PDF produced (exit %d)%s", ErrEngineFailed, exitCode, hints.ForEngineFailure(logPath))
	}

	targetPDF := flags.output
	if targetPDF == "" {
		targetPDF = filepath.Join(mdDir, base+".pdf")
	}
	if err := movePDF(producedPDF, targetPDF); err != nil {
		return err
	}

	if exitCode != 0 && !flags.quiet {
		fmt.Fprintf(env.Stderr, "Warning: engine exited with status %d but produced a PDF; check the log for issues\n", exitCode)
	}
	if !flags.quiet {
		fmt.Fprintf(env.Stderr, "Wrote %s\n", targetPDF)
	}
	return nil
}

// movePDF moves the produced PDF into place, falling back to copy+remove
// across filesystems.
func movePDF(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMovePDF, err)
	}
	return os.Remove(src)
}
