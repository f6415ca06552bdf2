package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/topdownlabs/topdown/internal/row"
)

// FileHash returns the truncated sha256 digest of a file's contents.
// A missing or unreadable file hashes to "", which downstream code treats
// as "no input", not an error.
func FileHash(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:DigestLen]
}

// SourceFiles expands a row's source patterns under baseDir and returns the
// matched paths, sorted and deduplicated. Patterns use doublestar glob
// semantics, so "src/**/*.c" works as expected.
func SourceFiles(r row.Row, baseDir string) []string {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range r.Sources {
		matches, err := doublestar.FilepathGlob(filepath.Join(baseDir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files
}

// SourcesHash computes the combined digest of every file matched by the
// row's source patterns: the digest of sorted "name:hash" pairs. Rows with
// no matched (or no readable) files hash to "".
func SourcesHash(r row.Row, baseDir string) string {
	var pairs []string
	for _, f := range SourceFiles(r, baseDir) {
		if h := FileHash(f); h != "" {
			pairs = append(pairs, filepath.Base(f)+":"+h)
		}
	}
	if len(pairs) == 0 {
		return ""
	}
	return Digest(strings.Join(pairs, "|"))
}

// fileCacheSize bounds the per-file hash cache. Large monorepos can map tens
// of thousands of files; beyond this the oldest entries are recomputed on
// demand.
const fileCacheSize = 8192

// FileCache tracks file and per-row source digests across repeated checks,
// reporting what changed since the previous observation. Safe for
// concurrent use.
type FileCache struct {
	baseDir string

	mu    sync.Mutex
	files *lru.Cache[string, string]
	rows  map[string]string
}

// NewFileCache returns an empty cache rooted at baseDir.
func NewFileCache(baseDir string) (*FileCache, error) {
	files, err := lru.New[string, string](fileCacheSize)
	if err != nil {
		return nil, err
	}
	return &FileCache{
		baseDir: baseDir,
		files:   files,
		rows:    make(map[string]string),
	}, nil
}

// UpdateFile rehashes one file and records the result. It returns the
// previously observed digest, the new digest, and whether they differ.
func (c *FileCache) UpdateFile(path string) (prev, curr string, changed bool) {
	key := c.key(path)
	curr = FileHash(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	prev, _ = c.files.Get(key)
	c.files.Add(key, curr)
	return prev, curr, prev != curr
}

// UpdateRowSources rehashes a row's matched source files and records the
// combined digest, reporting whether it changed.
func (c *FileCache) UpdateRowSources(r row.Row) (prev, curr string, changed bool) {
	curr = SourcesHash(r, c.baseDir)

	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.rows[r.ID]
	c.rows[r.ID] = curr
	return prev, curr, prev != curr
}

// FileDigest returns the last observed digest for a file, or "".
func (c *FileCache) FileDigest(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, _ := c.files.Get(c.key(path))
	return h
}

// RowDigest returns the last observed combined sources digest for a row id,
// or "".
func (c *FileCache) RowDigest(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[id]
}

func (c *FileCache) key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
