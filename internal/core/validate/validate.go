// Package validate decides whether a proposed relationship may join the
// family graph. Rejections are ordinary results, not errors.
package validate

import (
	"github.com/agenthands/lineage/internal/core/model"
)

type Reason string

const (
	ReasonSelf          Reason = "self-relationship not allowed"
	ReasonDuplicate     Reason = "relationship already exists"
	ReasonCycle         Reason = "relationship would create a cycle"
	ReasonUnknownPerson Reason = "relationship references unknown person"
)

type Result struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"error,omitempty"`
}

func accept() Result { return Result{Valid: true} }

func reject(r Reason) Result { return Result{Valid: false, Reason: r} }

// Validate checks candidate against the existing relationship set. It never
// modifies existing.
func Validate(candidate model.Candidate, existing []model.Relationship) Result {
	if candidate.From == candidate.To {
		return reject(ReasonSelf)
	}

	for _, r := range existing {
		if r.Type == candidate.Type && r.From == candidate.From && r.To == candidate.To {
			return reject(ReasonDuplicate)
		}
	}

	if candidate.Type == model.ParentChild && reaches(existing, candidate.To, candidate.From) {
		return reject(ReasonCycle)
	}

	return accept()
}

// reaches reports whether target is a descendant of start (or start itself)
// following parent-child edges. Each node is expanded at most once.
func reaches(edges []model.Relationship, start, target string) bool {
	children := make(map[string][]string)
	for _, e := range edges {
		if e.Type != model.ParentChild {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u == target {
			return true
		}
		for _, v := range children[u] {
			if !visited[v] {
				visited[v] = true
				queue = append(queue, v)
			}
		}
	}
	return false
}
