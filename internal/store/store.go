// Package store locates and loads the on-disk row document and keeps
// per-path snapshot caches so repeated resolutions don't re-read an
// unchanged file. Callers own their caches; there is no process-wide state,
// so independent snapshots (tests, multi-project orchestration) coexist.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/topdownlabs/topdown/internal/row"
)

// Dir and ConfigFile name the marker the root finder looks for.
const (
	Dir        = ".topdown"
	ConfigFile = "config.json"
)

// ErrNotFound is returned when no row document can be located. It is
// distinct from row.ErrNotFound, which means the document loaded but lacks
// the requested id.
var ErrNotFound = errors.New("topdown config not found")

// ConfigPath returns the document path under a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, Dir, ConfigFile)
}

// FindRoot resolves the project root containing the row document. The
// candidates are tried in order: the explicit start directory (if any), the
// TOPDOWN_ROOT environment variable, then the working directory. Each
// candidate is walked upward until a directory containing
// .topdown/config.json is found.
func FindRoot(start string) (string, error) {
	var candidates []string
	if start != "" {
		candidates = append(candidates, start)
	}
	if env := os.Getenv("TOPDOWN_ROOT"); env != "" {
		candidates = append(candidates, env)
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, cwd)
	}

	for _, base := range candidates {
		abs, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		for dir := abs; ; {
			if info, err := os.Stat(ConfigPath(dir)); err == nil && !info.IsDir() {
				return dir, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return "", fmt.Errorf("%w: set TOPDOWN_ROOT or run within a project containing %s",
		ErrNotFound, filepath.Join(Dir, ConfigFile))
}

// ParseDocument decodes a row document into a snapshot. The document must be
// a JSON object with a "rows" array; individual malformed row entries are
// skipped, not fatal.
func ParseDocument(data []byte) (*row.Store, error) {
	var doc struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid topdown config: %w", err)
	}
	if doc.Rows == nil {
		return nil, errors.New("invalid topdown config: expected a 'rows' list")
	}
	raws := make([]row.Raw, 0, len(doc.Rows))
	for _, msg := range doc.Rows {
		var raw row.Raw
		if err := json.Unmarshal(msg, &raw); err != nil {
			continue
		}
		raws = append(raws, raw)
	}
	return row.New(raws), nil
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*row.Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}
