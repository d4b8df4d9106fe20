package domain_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestGraph_AddTask(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(task("task1")))

	err := g.AddTask(task("task1"))
	require.ErrorIs(t, err, domain.ErrTaskAlreadyExists)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "task1", zErr.Metadata()["task"])
}

func TestGraph_Validate_Order(t *testing.T) {
	g, err := buildGraph(
		task("d", "b", "c"),
		task("c", "a"),
		task("b", "a"),
		task("a"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Order())
	assert.Equal(t, 0, g.Index("a"))
	assert.Equal(t, -1, g.Index("missing"))
	assert.Equal(t, []string{"b", "c"}, g.Dependents("a"))
	assert.Equal(t, []string{"b", "c"}, g.Dependencies("d"))
	assert.True(t, g.Validated())
}

func TestGraph_Validate_Deterministic(t *testing.T) {
	build := func() []string {
		g, err := buildGraph(
			task("z"), task("y"), task("x", "z"), task("w", "y", "x"), task("v"),
		)
		require.NoError(t, err)
		return g.Order()
	}

	first := build()
	for range 20 {
		assert.Equal(t, first, build())
	}
	assert.Equal(t, []string{"v", "y", "z", "x", "w"}, first)
}

func TestGraph_Validate_RespectsEdges(t *testing.T) {
	g, err := buildGraph(
		task("train", "models"),
		task("models", "seed", "staging"),
		task("staging", "seed"),
		task("seed"),
		task("report", "train", "models"),
	)
	require.NoError(t, err)

	order := g.Order()
	for tk := range g.Walk() {
		for _, dep := range tk.Dependencies() {
			assert.Less(t, slices.Index(order, dep), slices.Index(order, tk.ID()),
				"%s must come after %s", tk.ID(), dep)
		}
	}
}

func TestGraph_Validate_Cycle(t *testing.T) {
	_, err := buildGraph(task("A", "B"), task("B", "A"))
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var cycleErr *domain.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "B", "A"}, cycleErr.Cycle)
	assert.ElementsMatch(t, []string{"A", "B"}, cycleErr.Members())
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestGraph_Validate_SelfCycle(t *testing.T) {
	_, err := buildGraph(task("A", "A"))

	var cycleErr *domain.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "A"}, cycleErr.Cycle)
}

func TestGraph_Validate_LongCycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(task("entry", "A")))
	require.NoError(t, g.AddTask(task("A", "B")))
	require.NoError(t, g.AddTask(task("B", "C")))
	require.NoError(t, g.AddTask(task("C", "A")))

	err := g.Validate()

	var cycleErr *domain.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "B", "C", "A"}, cycleErr.Cycle)
	assert.Empty(t, g.Order(), "no partial order on failure")
	assert.False(t, g.Validated())
}

func TestGraph_Validate_MissingDependency(t *testing.T) {
	_, err := buildGraph(task("A", "ghost"))
	require.ErrorIs(t, err, domain.ErrMissingDependency)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "A", zErr.Metadata()["task"])
	assert.Equal(t, "ghost", zErr.Metadata()["dependency"])
}

func TestGraph_DuplicateDependenciesCollapse(t *testing.T) {
	g, err := buildGraph(task("a"), task("b", "a", "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
}

func TestGraph_Roots(t *testing.T) {
	g, err := buildGraph(task("a"), task("b", "a"))
	require.NoError(t, err)

	g.SetRoots("b")
	assert.Equal(t, []string{"b"}, g.Roots())
	assert.True(t, g.IsRoot("b"))
	assert.False(t, g.IsRoot("a"))
}

func TestGraph_WalkStopsEarly(t *testing.T) {
	g, err := buildGraph(task("a"), task("b", "a"), task("c", "b"))
	require.NoError(t, err)

	var seen []string
	for tk := range g.Walk() {
		seen = append(seen, tk.ID())
		if tk.ID() == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 3, g.TaskCount())
}
