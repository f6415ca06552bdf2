package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topdownlabs/topdown/internal/dag"
	"github.com/topdownlabs/topdown/internal/row"
)

func newMapper(rows []row.Row) *Mapper {
	s := row.FromRows(rows)
	return NewMapper(s, dag.Build(s))
}

func TestNewMapper_PatternExtraction(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "compile", Args: "gcc -O2 src/*.c main.c", Sources: []string{"include/*.h"}},
		{ID: "lint", Args: "run --strict"},
	})

	assert.Equal(t, []string{"include/*.h", "src/*.c", "main.c"}, m.Patterns("compile"))
	assert.Nil(t, m.Patterns("lint"), "no file-like tokens, no patterns")
	assert.Nil(t, m.Patterns("ghost"))
}

func TestExtractPatterns(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"wildcard", []string{"build", "*.c"}, []string{"*.c"}},
		{"path separator", []string{"cp", "src/util", "dest"}, []string{"src/util"}},
		{"source suffix", []string{"tsc", "app.ts"}, []string{"app.ts"}},
		{"go and rust suffixes", []string{"main.go", "lib.rs"}, []string{"main.go", "lib.rs"}},
		{"plain flags ignored", []string{"-v", "--fast", "all"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractPatterns(tc.tokens))
		})
	}
}

func TestMapFiles(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "compile", Sources: []string{"src/*.c"}},
		{ID: "headers", Sources: []string{"src/*.c", "include/*.h"}},
		{ID: "docs", Sources: []string{"*.md"}},
	})

	mapping := m.MapFiles([]string{"src/main.c", "include/api.h", "unrelated.txt"})

	assert.Equal(t, map[string][]string{
		"src/main.c":    {"compile", "headers"},
		"include/api.h": {"headers"},
	}, mapping, "unmatched files are absent, matched rows are sorted")
}

func TestMapFiles_BackslashNormalization(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "compile", Sources: []string{"src/*.c"}},
	})

	mapping := m.MapFiles([]string{`src\main.c`})
	require.Len(t, mapping, 1)
	assert.Equal(t, []string{"compile"}, mapping[`src\main.c`], "result keys keep the caller's spelling")
}

func TestMatchesAny_DirectoryPrefix(t *testing.T) {
	// "src/*" covers the whole subtree, not just one level.
	assert.True(t, matchesAny("src/deep/nested/file.c", []string{"src/*"}))
	assert.True(t, matchesAny("src/main.c", []string{"src/*.c"}))
	assert.True(t, matchesAny("src/deep/file.c", []string{"src/*.c"}))
	assert.False(t, matchesAny("other/main.c", []string{"src/*"}))
	assert.False(t, matchesAny("srcx/main.c", []string{"src/*"}))
}

func TestMatchesAny_Doublestar(t *testing.T) {
	assert.True(t, matchesAny("a/b/c/d.go", []string{"a/**/*.go"}))
	assert.False(t, matchesAny("a/b/c/d.py", []string{"**/*.go"}))
}

func TestAnalyze(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "compile", Scope: "build", Sources: []string{"src/*.c"}},
		{ID: "test", Scope: "ci", Depends: []string{"compile"}},
		{ID: "package", Depends: []string{"test"}},
		{ID: "unrelated"},
	})

	a := m.Analyze([]string{"src/main.c", "README.txt"})

	assert.Equal(t, []string{"compile"}, a.Direct)
	assert.Equal(t, []string{"compile", "package", "test"}, a.All)
	assert.Equal(t, map[string][]string{
		"build":  {"compile"},
		"ci":     {"test"},
		"config": {"package"},
	}, a.ByScope)
	assert.Equal(t, [][]string{{"test"}, {"package"}}, a.Levels)

	sum := a.Summary()
	assert.Equal(t, 2, sum.FilesChanged)
	assert.Equal(t, 1, sum.FilesMapped)
	assert.Equal(t, 1, sum.DirectTargets)
	assert.Equal(t, 3, sum.TotalTargets)
}

func TestAnalyze_NoMatches(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "compile", Sources: []string{"src/*.c"}},
	})

	a := m.Analyze([]string{"docs/guide.md"})
	assert.Empty(t, a.Direct)
	assert.Empty(t, a.All)
	assert.Empty(t, a.Levels)
	assert.False(t, a.ExceedsThreshold(0))
}

func TestAnalyze_DiamondDedup(t *testing.T) {
	m := newMapper([]row.Row{
		{ID: "a", Sources: []string{"*.c"}},
		{ID: "b", Depends: []string{"a"}},
		{ID: "c", Depends: []string{"a"}},
		{ID: "d", Depends: []string{"b", "c"}},
	})

	a := m.Analyze([]string{"main.c"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, a.All)
	assert.Equal(t, [][]string{{"b", "c"}, {"d"}}, a.Levels, "d appears in one wave only")
}

func TestExceedsThreshold(t *testing.T) {
	a := &Analysis{All: []string{"a", "b", "c"}}

	assert.True(t, a.ExceedsThreshold(2))
	assert.False(t, a.ExceedsThreshold(3), "gate trips only strictly above the limit")
	assert.False(t, a.ExceedsThreshold(-1), "negative limit disables the gate")
}
