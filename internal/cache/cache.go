// Package cache implements the content-addressed build cache for externalized
// artifacts: rendered diagrams, executed-code output, plots, and highlighted
// snippets. Artifact filenames are derived from a hash of the generating
// source, so byte-identical sources map to the same artifact and a warm cache
// performs zero external invocations.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// Sentinel errors for cache operations.
var (
	ErrEmptyDir    = errors.New("cache directory cannot be empty")
	ErrUnknownKind = errors.New("unknown artifact kind")
)

// Kind identifies what an artifact is.
type Kind string

const (
	KindDiagramImage Kind = "diagram_image"
	KindCodeOutput   Kind = "code_output"
	KindCodePlot     Kind = "code_plot"
	KindSnippet      Kind = "highlighted_snippet"
)

// filenamePrefix partitions artifact kinds within the flat build directory.
var filenamePrefix = map[Kind]string{
	KindDiagramImage: "diagram",
	KindCodeOutput:   "code",
	KindCodePlot:     "plot",
	KindSnippet:      "snippet",
}

// HashLen is the number of hex digits of the content hash embedded in
// artifact filenames.
const HashLen = 12

// Hash returns the truncated content hash of the generating source.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:HashLen]
}

// FileName returns the content-addressed artifact filename, e.g.
// "diagram_3f2a9c81d04e.png".
func FileName(kind Kind, hash, ext string) string {
	prefix, ok := filenamePrefix[kind]
	if !ok {
		prefix = string(kind)
	}
	return prefix + "_" + hash + "." + ext
}

// Store is one build's on-disk artifact cache. Artifacts are the only state
// that survives a pipeline invocation.
type Store struct {
	dir string
	sf  singleflight.Group
}

// New opens (creating if needed) the cache directory.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute artifact path for the given kind and hash.
func (s *Store) Path(kind Kind, hash, ext string) string {
	return filepath.Join(s.dir, FileName(kind, hash, ext))
}

// Has reports whether the artifact is already materialized.
func (s *Store) Has(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Materialize ensures the artifact at path exists, returning hit=true when
// it was already present. On a miss, build receives a temporary path in the
// cache directory (same extension as the target, for tools that sniff it)
// and must create the file there; the temp file is then atomically renamed
// into place. Jobs targeting the same path are serialized per path, so two
// jobs with the same hash never race, and a second caller reuses the first
// caller's result. force skips the hit check and overwrites.
func (s *Store) Materialize(path string, force bool, build func(tmp string) error) (hit bool, err error) {
	if !force && s.Has(path) {
		return true, nil
	}

	_, err, _ = s.sf.Do(path, func() (any, error) {
		if !force && s.Has(path) {
			return nil, nil
		}

		tmp, err := os.CreateTemp(s.dir, "tmp-*-"+filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("creating temp artifact: %w", err)
		}
		tmpPath := tmp.Name()
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("closing temp artifact: %w", err)
		}
		defer func() { _ = os.Remove(tmpPath) }()

		if err := build(tmpPath); err != nil {
			return nil, err
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return nil, fmt.Errorf("publishing artifact: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return false, nil
}

// MaterializeBytes is Materialize for artifacts produced in memory.
func (s *Store) MaterializeBytes(path string, force bool, data func() ([]byte, error)) (hit bool, err error) {
	return s.Materialize(path, force, func(tmp string) error {
		b, err := data()
		if err != nil {
			return err
		}
		return os.WriteFile(tmp, b, 0o644) // #nosec G306 -- build artifact, not a secret
	})
}

// ReadText returns the content of a cached text artifact.
func (s *Store) ReadText(path string) (string, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- path is cache-derived
	if err != nil {
		return "", fmt.Errorf("reading cached artifact: %w", err)
	}
	return string(b), nil
}
