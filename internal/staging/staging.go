// Package staging assembles the per-document build directory: the template
// with injected metadata, the rewritten markdown, fonts, logo, and every
// locally referenced image. The directory doubles as the artifact cache, so
// only core files are replaced between runs.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/docforge/md2tex/internal/fileutil"
	"github.com/docforge/md2tex/internal/metadata"
)

// BuildDirPrefix names build directories: _build_<base> next to the source.
const BuildDirPrefix = "_build_"

// TemplateName is the staged template file the engine compiles.
const TemplateName = "template.tex"

// imageExts lists the asset extensions staged alongside the document.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".pdf": true, ".svg": true, ".eps": true, ".bmp": true, ".webp": true,
}

// BuildDir returns the build directory path for a markdown source file.
func BuildDir(mdPath string) string {
	base := strings.TrimSuffix(filepath.Base(mdPath), filepath.Ext(mdPath))
	return filepath.Join(filepath.Dir(mdPath), BuildDirPrefix+base)
}

// Prepare creates (or reuses) the build directory and removes the stale core
// files that must be rewritten each run. Cache and engine aux files stay.
func Prepare(mdPath string) (string, error) {
	dir := BuildDir(mdPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(mdPath), filepath.Ext(mdPath))
	stale := []string{
		filepath.Join(dir, TemplateName),
		filepath.Join(dir, filepath.Base(mdPath)),
		filepath.Join(dir, base+".yaml"),
		filepath.Join(dir, base+".yml"),
		filepath.Join(dir, base+".json"),
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("removing stale %s: %w", path, err)
		}
	}
	return dir, nil
}

// Assets locates the static build inputs shipped next to the binary or in a
// configured assets directory.
type Assets struct {
	Template string // path to template.tex (required)
	Logo     string // path to the logo file ("" = none)
	FontsDir string // path to the fonts directory ("" = none)
}

// StageCore places the template, the rewritten markdown, the metadata
// sidecar and the static assets into the build directory.
func StageCore(buildDir string, a Assets, mdName, markup, sidecarPath string) error {
	if err := fileutil.CopyFile(a.Template, filepath.Join(buildDir, TemplateName)); err != nil {
		return fmt.Errorf("staging template: %w", err)
	}

	if err := os.WriteFile(filepath.Join(buildDir, mdName), []byte(markup), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("staging markdown: %w", err)
	}

	if sidecarPath != "" {
		dst := filepath.Join(buildDir, filepath.Base(sidecarPath))
		if err := fileutil.CopyFile(sidecarPath, dst); err != nil {
			return fmt.Errorf("staging metadata: %w", err)
		}
	}

	if a.Logo != "" && fileutil.FileExists(a.Logo) {
		if err := fileutil.CopyFile(a.Logo, filepath.Join(buildDir, filepath.Base(a.Logo))); err != nil {
			return fmt.Errorf("staging logo: %w", err)
		}
	}

	if a.FontsDir != "" {
		dst := filepath.Join(buildDir, "fonts")
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			if err := copyTree(a.FontsDir, dst); err != nil {
				return fmt.Errorf("staging fonts: %w", err)
			}
		}
	}
	return nil
}

// copyTree copies a directory recursively. Symlinks are not followed.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return fileutil.CopyFile(path, target)
	})
}

// CollectImages extracts local image references from the markdown via the
// parsed AST, covering inline and reference-style images. Remote URLs, data
// URIs and fragment links are skipped. Results are unique and sorted.
func CollectImages(markdown string) []string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader([]byte(markdown)))

	seen := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := strings.TrimSpace(string(img.Destination))
		if dest == "" || strings.Contains(dest, "://") ||
			strings.HasPrefix(dest, "data:") || strings.HasPrefix(dest, "#") {
			return ast.WalkContinue, nil
		}
		if !imageExts[strings.ToLower(filepath.Ext(dest))] {
			return ast.WalkContinue, nil
		}
		seen[dest] = true
		return ast.WalkContinue, nil
	})

	images := make([]string, 0, len(seen))
	for dest := range seen {
		images = append(images, dest)
	}
	sort.Strings(images)
	return images
}

// CopyImages stages referenced images into the build directory, preserving
// the relative structure under the markdown's directory. References that
// escape it are flattened to their base name. Missing files are skipped; a
// broken reference is the engine's problem to report, not a staging error.
func CopyImages(mdDir, buildDir string, images []string) error {
	for _, image := range images {
		src := image
		if !filepath.IsAbs(src) {
			src = filepath.Join(mdDir, image)
		}
		if !fileutil.FileExists(src) {
			continue
		}

		rel, err := filepath.Rel(mdDir, src)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(src)
		}

		dst := filepath.Join(buildDir, rel)
		if fileutil.FileExists(dst) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return fmt.Errorf("staging image %s: %w", image, err)
		}
		if err := fileutil.CopyFile(src, dst); err != nil {
			return fmt.Errorf("staging image %s: %w", image, err)
		}
	}
	return nil
}

// placeholder tokens recognized in the template.
var placeholders = []string{
	"@@TITLE@@", "@@SUBTITLE@@", "@@SUBMITTEDTO@@", "@@AUTHORS@@", "@@DATE@@",
	"@@INPUT_FILE@@", "@@ENABLE_TITLE_PAGE@@", "@@ENABLE_CONTENT_PAGE@@",
	"@@ENABLE_LAST_PAGE_CREDITS@@", "@@ENABLE_FOOTNOTES_AT_END@@",
	"@@ENABLE_THATS_ALL_PAGE@@", "@@UNIVERSITY@@", "@@DEPARTMENT@@",
}

// InjectPlaceholders fills every template placeholder from the metadata.
// Unknown placeholders are replaced with an empty string, never left behind.
func InjectPlaceholders(template string, doc *metadata.Document, inputFile string) string {
	mapping := map[string]string{
		"@@TITLE@@":                    doc.Title,
		"@@SUBTITLE@@":                 doc.Subtitle,
		"@@SUBMITTEDTO@@":              doc.SubmittedTo,
		"@@AUTHORS@@":                  buildAuthors(doc.SubmittedBy),
		"@@DATE@@":                     doc.Date,
		"@@INPUT_FILE@@":               inputFile,
		"@@ENABLE_TITLE_PAGE@@":        toggle("titlepage", doc.EnableTitlePage),
		"@@ENABLE_CONTENT_PAGE@@":      toggle("contentpage", doc.EnableContentPage),
		"@@ENABLE_LAST_PAGE_CREDITS@@": toggle("lastpagecredits", doc.EnableLastPageCredits),
		"@@ENABLE_FOOTNOTES_AT_END@@":  toggle("footnotesatend", doc.MoveFootnotesToEnd),
		"@@ENABLE_THATS_ALL_PAGE@@":    toggle("thatsall", doc.EnableThatsAllPage),
		"@@UNIVERSITY@@":               doc.University,
		"@@DEPARTMENT@@":               doc.Department,
	}
	for _, ph := range placeholders {
		template = strings.ReplaceAll(template, ph, mapping[ph])
	}
	return template
}

// buildAuthors renders the title-page author rows: two tabular rows per
// author, separated by vertical spacing.
func buildAuthors(authors []metadata.Author) string {
	var lines []string
	for i, a := range authors {
		if i > 0 {
			lines = append(lines, `\noalign{\vspace{0.3cm}}`)
		}
		lines = append(lines, fmt.Sprintf(`Name: & %s \\`, a.Name))
		lines = append(lines, fmt.Sprintf(`Reg\#: & %s \\`, a.Roll))
	}
	return strings.Join(lines, "\n")
}

// toggle renders one conditional switch command.
func toggle(name string, on bool) string {
	if on {
		return `\enable` + name + `true`
	}
	return `\enable` + name + `false`
}
