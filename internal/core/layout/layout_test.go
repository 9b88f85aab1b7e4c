package layout

import (
	"testing"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spacing = Spacing{NodeSpacing: 200, GenerationSpacing: 150}

func people(ids ...string) []model.Person {
	out := make([]model.Person, len(ids))
	for i, id := range ids {
		out[i] = model.Person{ID: id, Name: "name-" + id}
	}
	return out
}

func pc(from, to string) model.Relationship {
	return model.Relationship{ID: from + to, Type: model.ParentChild, From: from, To: to}
}

func byPerson(placements []model.Placement) map[string][]model.Placement {
	m := make(map[string][]model.Placement)
	for _, p := range placements {
		m[p.PersonID] = append(m[p.PersonID], p)
	}
	return m
}

func extent(placements []model.Placement, tree int) (float64, float64) {
	lo, hi := 0.0, 0.0
	first := true
	for _, p := range placements {
		if p.Tree != tree {
			continue
		}
		if first || p.X < lo {
			lo = p.X
		}
		if first || p.X > hi {
			hi = p.X
		}
		first = false
	}
	return lo, hi
}

func TestCompute_TwoDisjointTrees(t *testing.T) {
	// Tree 1: A -> B, A -> C. Tree 2: D -> E.
	persons := people("A", "B", "C", "D", "E")
	rels := []model.Relationship{pc("A", "B"), pc("A", "C"), pc("D", "E")}

	out := Compute(persons, rels, spacing)
	require.Len(t, out, 5)

	got := byPerson(out)
	assert.Equal(t, 0, got["A"][0].Generation)
	assert.Equal(t, 0, got["D"][0].Generation)
	assert.Equal(t, 1, got["B"][0].Generation)
	assert.Equal(t, 1, got["E"][0].Generation)

	assert.Equal(t, 0.0, got["A"][0].Y)
	assert.Equal(t, 150.0, got["B"][0].Y)

	assert.Equal(t, 0, got["A"][0].Tree)
	assert.Equal(t, 1, got["D"][0].Tree)

	lo0, hi0 := extent(out, 0)
	lo1, hi1 := extent(out, 1)
	assert.Less(t, hi0, lo1, "trees overlap: [%v,%v] and [%v,%v]", lo0, hi0, lo1, hi1)

	// Siblings are one node spacing apart, parent centred above them.
	assert.Equal(t, 200.0, got["C"][0].X-got["B"][0].X)
	assert.Equal(t, (got["B"][0].X+got["C"][0].X)/2, got["A"][0].X)
}

func TestCompute_Deterministic(t *testing.T) {
	persons := people("A", "B", "C", "D")
	rels := []model.Relationship{pc("A", "B"), pc("B", "C"), pc("A", "D")}

	assert.Equal(t, Compute(persons, rels, spacing), Compute(persons, rels, spacing))
}

func TestCompute_ChildUnderTwoParentsIsPlacedPerLink(t *testing.T) {
	persons := people("Mum", "Dad", "Kid")
	rels := []model.Relationship{pc("Mum", "Kid"), pc("Dad", "Kid")}

	out := Compute(persons, rels, spacing)
	got := byPerson(out)

	require.Len(t, got["Kid"], 2)
	assert.NotEqual(t, got["Kid"][0].Tree, got["Kid"][1].Tree)
	assert.Equal(t, "Mum", got["Kid"][0].RootID)
	assert.Equal(t, "Dad", got["Kid"][1].RootID)
}

func TestCompute_SpousesDoNotMovePositions(t *testing.T) {
	persons := people("A", "B", "C")
	rels := []model.Relationship{pc("A", "B")}
	without := Compute(persons, rels, spacing)

	rels = append(rels, model.Relationship{ID: "s", Type: model.Spouse, From: "A", To: "C"})
	with := Compute(persons, rels, spacing)

	require.Len(t, with, len(without))
	for i := range with {
		assert.Equal(t, without[i].X, with[i].X)
		assert.Equal(t, without[i].Y, with[i].Y)
	}
	got := byPerson(with)
	assert.Equal(t, []string{"C"}, got["A"][0].Spouses)
	assert.Equal(t, []string{"A"}, got["C"][0].Spouses)
}

func TestCompute_ManualPositionOverride(t *testing.T) {
	persons := people("A", "B")
	persons[1].Position = &model.Position{X: 42, Y: 7}

	out := Compute(persons, []model.Relationship{pc("A", "B")}, spacing)
	got := byPerson(out)

	assert.True(t, got["B"][0].Manual)
	assert.Equal(t, 42.0, got["B"][0].X)
	assert.Equal(t, 7.0, got["B"][0].Y)
	assert.Equal(t, 1, got["B"][0].Generation)
	assert.False(t, got["A"][0].Manual)
}

func TestCompute_TerminatesOnCycle(t *testing.T) {
	// Only reachable through a trusted import.
	persons := people("A", "B", "C")
	rels := []model.Relationship{pc("A", "B"), pc("B", "C"), pc("C", "A")}

	out := Compute(persons, rels, spacing)

	got := byPerson(out)
	assert.Len(t, got, 3)
	assert.Equal(t, 0, got["A"][0].Generation)
	assert.Equal(t, 2, got["C"][0].Generation)
}

func TestCompute_IgnoresDanglingEdges(t *testing.T) {
	persons := people("A")
	out := Compute(persons, []model.Relationship{pc("Ghost", "A"), pc("A", "Ghost")}, spacing)

	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Generation)
}

func TestCompute_Empty(t *testing.T) {
	assert.Empty(t, Compute(nil, nil, spacing))
}
