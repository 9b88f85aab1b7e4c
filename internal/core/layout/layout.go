// Package layout derives display coordinates for the family graph. Its
// output is disposable: it is recomputed from the graph and the spacing
// settings every time either changes and is never written back.
package layout

import (
	"github.com/agenthands/lineage/internal/core/model"
)

type Spacing struct {
	NodeSpacing       float64
	GenerationSpacing float64
}

func SpacingFrom(s model.Settings) Spacing {
	return Spacing{NodeSpacing: s.NodeSpacing, GenerationSpacing: s.GenerationSpacing}
}

type engine struct {
	spacing  Spacing
	byID     map[string]model.Person
	children map[string][]string
	spouses  map[string][]string
	placed   map[string]bool
	onPath   map[string]bool
	cursor   float64
	tree     int
	out      []model.Placement
}

// Compute lays out every tree of the forest left to right. A root is a
// person that is never the child of a parent-child edge. A child recorded
// under several parents is placed once per link.
func Compute(persons []model.Person, relationships []model.Relationship, spacing Spacing) []model.Placement {
	e := &engine{
		spacing:  spacing,
		byID:     make(map[string]model.Person, len(persons)),
		children: make(map[string][]string),
		spouses:  make(map[string][]string),
		placed:   make(map[string]bool, len(persons)),
		onPath:   make(map[string]bool),
	}
	for _, p := range persons {
		e.byID[p.ID] = p
	}

	hasParent := make(map[string]bool)
	for _, r := range relationships {
		if _, ok := e.byID[r.From]; !ok {
			continue
		}
		if _, ok := e.byID[r.To]; !ok {
			continue
		}
		switch r.Type {
		case model.ParentChild:
			e.children[r.From] = append(e.children[r.From], r.To)
			hasParent[r.To] = true
		case model.Spouse:
			e.spouses[r.From] = append(e.spouses[r.From], r.To)
			e.spouses[r.To] = append(e.spouses[r.To], r.From)
		}
	}

	for _, p := range persons {
		if !hasParent[p.ID] {
			e.layoutTree(p.ID)
		}
	}
	// Members of a parent-child cycle have no root. That only happens with
	// imported data that skipped the forest check.
	for _, p := range persons {
		if !e.placed[p.ID] {
			e.layoutTree(p.ID)
		}
	}

	for i := range e.out {
		pl := &e.out[i]
		if pos := e.byID[pl.PersonID].Position; pos != nil {
			pl.X, pl.Y = pos.X, pos.Y
			pl.Manual = true
		}
	}
	return e.out
}

func (e *engine) layoutTree(rootID string) {
	e.place(rootID, rootID, 0)
	e.tree++
	e.cursor += e.spacing.NodeSpacing
}

// place positions id and its subtree and returns the x of id. Leaves take
// the next free slot; a parent sits centred over its outer children.
func (e *engine) place(id, rootID string, generation int) float64 {
	e.onPath[id] = true
	defer delete(e.onPath, id)

	idx := len(e.out)
	e.out = append(e.out, model.Placement{
		PersonID:   id,
		Name:       e.byID[id].Name,
		Y:          float64(generation) * e.spacing.GenerationSpacing,
		Generation: generation,
		Tree:       e.tree,
		RootID:     rootID,
		Spouses:    append([]string(nil), e.spouses[id]...),
	})
	e.placed[id] = true

	var xs []float64
	for _, child := range e.children[id] {
		if e.onPath[child] {
			continue
		}
		xs = append(xs, e.place(child, rootID, generation+1))
	}

	var x float64
	if len(xs) == 0 {
		x = e.cursor
		e.cursor += e.spacing.NodeSpacing
	} else {
		x = (xs[0] + xs[len(xs)-1]) / 2
	}
	e.out[idx].X = x
	return x
}
