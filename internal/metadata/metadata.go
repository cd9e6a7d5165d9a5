// Package metadata loads and persists the per-document metadata sidecar.
// The sidecar lives next to the markdown source as <base>.yaml, <base>.yml
// or <base>.json; field names match the legacy JSON keys so old sidecars
// keep loading unchanged.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docforge/md2tex/internal/dateutil"
	"github.com/docforge/md2tex/internal/yamlutil"
)

// ErrMalformed indicates a sidecar that exists but cannot be parsed.
var ErrMalformed = errors.New("malformed metadata sidecar")

// sidecarExts lists recognized sidecar extensions in lookup order.
// YAML is preferred; JSON is the legacy format.
var sidecarExts = []string{".yaml", ".yml", ".json"}

// Author is one document author on the title page.
type Author struct {
	Name string `yaml:"name"`
	Roll string `yaml:"roll"`
}

// Document is the per-document metadata sidecar.
type Document struct {
	Title       string   `yaml:"title"`
	Subtitle    string   `yaml:"subtitle"`
	SubmittedTo string   `yaml:"submittedto"`
	SubmittedBy []Author `yaml:"submittedby"`
	Date        string   `yaml:"date"`
	University  string   `yaml:"university"`
	Department  string   `yaml:"department"`

	// Title-page and layout toggles, injected into the template as
	// \enable...true / \enable...false commands.
	EnableTitlePage       bool `yaml:"enableTitlePage"`
	EnableContentPage     bool `yaml:"enableContentPage"`
	EnableLastPageCredits bool `yaml:"enableLastPageCredits"`
	MoveFootnotesToEnd    bool `yaml:"moveFootnotesToEnd"`
	EnableThatsAllPage    bool `yaml:"enableThatsAllPage"`

	// ReviewMode switches footnote markup to inline review comments.
	ReviewMode bool `yaml:"reviewMode"`

	// Variables feeds the {{name}} substitution pass.
	Variables map[string]string `yaml:"variables"`
}

// Default returns the metadata written for a document that has no sidecar
// yet. The date is rendered in the long form at creation time, not lazily.
func Default(now time.Time) *Document {
	return &Document{
		Title:             "Untitled Document",
		Date:              dateutil.Today(now),
		EnableTitlePage:   true,
		EnableContentPage: true,
	}
}

// Find returns the path of an existing sidecar for the given markdown base
// name, or "" when none exists.
func Find(dir, base string) string {
	for _, ext := range sidecarExts {
		path := filepath.Join(dir, base+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadOrCreate loads the sidecar for the markdown file at dir/<base>.md,
// creating <base>.yaml from defaults when none exists. Returns the document,
// the sidecar path, and whether it was created now. An auto date in an
// existing sidecar is resolved against now.
func LoadOrCreate(dir, base string, now time.Time) (doc *Document, path string, created bool, err error) {
	path = Find(dir, base)
	if path == "" {
		doc = Default(now)
		path = filepath.Join(dir, base+".yaml")
		if err := yamlutil.MarshalFile(path, doc); err != nil {
			return nil, "", false, fmt.Errorf("creating %s: %w", path, err)
		}
		return doc, path, true, nil
	}

	doc = &Document{}
	if err := yamlutil.UnmarshalFile(path, doc); err != nil {
		return nil, "", false, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	if doc.Date == "" {
		doc.Date = dateutil.Today(now)
	} else {
		resolved, err := dateutil.ResolveDate(doc.Date, now)
		if err != nil {
			return nil, "", false, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		doc.Date = resolved
	}

	return doc, path, false, nil
}
