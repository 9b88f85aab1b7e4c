package validate

import (
	"github.com/agenthands/lineage/internal/core/model"
)

type Violation struct {
	Relationship model.Relationship `json:"relationship"`
	Reason       Reason             `json:"reason"`
}

// Report is the outcome of replaying a relationship list through Validate.
type Report struct {
	Accepted   []model.Relationship `json:"accepted"`
	Violations []Violation          `json:"violations,omitempty"`
}

func (r Report) OK() bool { return len(r.Violations) == 0 }

// CheckForest replays relationships in order, accepting each one that is
// valid against the edges accepted before it. Edges whose endpoints are not
// among persons are flagged as well. The accepted set always satisfies the
// forest invariant.
func CheckForest(relationships []model.Relationship, persons []model.Person) Report {
	known := make(map[string]bool, len(persons))
	for _, p := range persons {
		known[p.ID] = true
	}

	report := Report{Accepted: make([]model.Relationship, 0, len(relationships))}
	for _, r := range relationships {
		if !known[r.From] || !known[r.To] {
			report.Violations = append(report.Violations, Violation{Relationship: r, Reason: ReasonUnknownPerson})
			continue
		}
		if res := Validate(r.Candidate(), report.Accepted); !res.Valid {
			report.Violations = append(report.Violations, Violation{Relationship: r, Reason: res.Reason})
			continue
		}
		report.Accepted = append(report.Accepted, r)
	}
	return report
}
