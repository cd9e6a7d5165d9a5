package md2tex

import (
	"context"
	"fmt"
	"html"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/docforge/md2tex/internal/fileutil"
)

// Compile-time interface check
var _ DiagramRenderer = (*BrowserRenderer)(nil)

// mermaidPage embeds the diagram source in a minimal page that renders it
// client-side; the first <svg> element is screenshotted as the artifact.
const mermaidPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="background: transparent; margin: 0; padding: 16px;">
<pre class="mermaid">%s</pre>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true, theme: %q });
</script>
</body>
</html>`

// BrowserRenderer renders mermaid diagrams in headless Chrome, as a fallback
// when the mermaid CLI is not installed. Rod automatically downloads
// Chromium on first run if not found. Requires network access for the
// mermaid script.
type BrowserRenderer struct {
	mu      sync.Mutex
	browser *rod.Browser
	theme   string
	timeout time.Duration
}

// NewBrowserRenderer creates a BrowserRenderer with the given diagram theme
// and per-diagram timeout. The browser launches lazily on first render.
func NewBrowserRenderer(theme string, timeout time.Duration) *BrowserRenderer {
	return &BrowserRenderer{theme: theme, timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *BrowserRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	return browser, nil
}

// Close releases browser resources.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// Render opens the diagram page in headless Chrome, waits for the rendered
// SVG, and screenshots it to outPath. Returns explicit errors instead of
// panicking when browser operations fail.
func (r *BrowserRenderer) Render(ctx context.Context, source, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return err
	}

	doc := fmt.Sprintf(mermaidPage, html.EscapeString(source), r.theme)
	htmlPath, cleanup, err := fileutil.WriteTempFile(doc, "html")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserPage, err)
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + htmlPath})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserPage, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	// Mermaid replaces the <pre> content with an <svg> once layout is done.
	el, err := page.Timeout(timeout).Element("svg")
	if err != nil {
		return fmt.Errorf("%w: diagram did not render: %v", ErrBrowserPage, err)
	}

	bin, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserPage, err)
	}

	if err := os.WriteFile(outPath, bin, 0o644); err != nil { // #nosec G306 -- build artifact
		return fmt.Errorf("%w: writing %s: %v", ErrBrowserPage, outPath, err)
	}
	return nil
}
