package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topdownlabs/topdown/internal/row"
)

// diamond is A -> B, A -> C, B -> D, C -> D in dependency direction:
// D depends on B and C, both of which depend on A.
func diamond() *Graph {
	return Build(row.FromRows([]row.Row{
		{ID: "a"},
		{ID: "b", Depends: []string{"a"}},
		{ID: "c", Depends: []string{"a"}},
		{ID: "d", Depends: []string{"b", "c"}},
	}))
}

func TestBuild_EdgesOnlyBetweenExistingRows(t *testing.T) {
	t.Parallel()

	g := Build(row.FromRows([]row.Row{
		{ID: "a", Depends: []string{"ghost"}},
		{ID: "b", Depends: []string{"a"}},
	}))

	require.Equal(t, 2, g.Len())
	assert.Empty(t, g.Dependencies("a"), "edge to unknown id is omitted")
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
}

func TestDependenciesAndDependents(t *testing.T) {
	g := diamond()

	assert.Equal(t, []string{"b", "c"}, g.Dependencies("d"))
	assert.Equal(t, []string{"b", "c"}, g.Dependents("a"))
	assert.Empty(t, g.Dependencies("a"))
	assert.Empty(t, g.Dependents("d"))
	assert.Empty(t, g.Dependencies("unknown"))
}

func TestTransitiveDeps(t *testing.T) {
	g := diamond()

	assert.Equal(t, []string{"a", "b", "c"}, g.TransitiveDeps("d"))
	assert.Equal(t, []string{"a"}, g.TransitiveDeps("b"))
	assert.Empty(t, g.TransitiveDeps("a"))
}

func TestAffected_DiamondClosure(t *testing.T) {
	g := diamond()

	assert.Equal(t, []string{"b", "c", "d"}, g.Affected("a"))
	assert.Equal(t, []string{"d"}, g.Affected("b"))
	assert.Empty(t, g.Affected("d"))
}

func TestAffected_RootMidLeaf(t *testing.T) {
	g := Build(row.FromRows([]row.Row{
		{ID: "root"},
		{ID: "mid1", Depends: []string{"root"}},
		{ID: "mid2", Depends: []string{"root"}},
		{ID: "leaf", Depends: []string{"mid1", "mid2"}},
	}))

	assert.Equal(t, []string{"leaf", "mid1", "mid2"}, g.Affected("root"))
}
