package model

type RelationType string

const (
	ParentChild RelationType = "parent-child"
	Spouse      RelationType = "spouse"
	Sibling     RelationType = "sibling"
)

func (t RelationType) Valid() bool {
	switch t {
	case ParentChild, Spouse, Sibling:
		return true
	}
	return false
}

// Relationship links two persons. For ParentChild, From is the parent and
// To the child.
type Relationship struct {
	ID   string       `json:"id" validate:"required"`
	Type RelationType `json:"type" validate:"required,oneof=parent-child spouse sibling"`
	From string       `json:"from" validate:"required"`
	To   string       `json:"to" validate:"required"`
}

// Candidate is a relationship that has not been stored yet.
type Candidate struct {
	Type RelationType `json:"type" validate:"required,oneof=parent-child spouse sibling"`
	From string       `json:"from" validate:"required"`
	To   string       `json:"to" validate:"required"`
}

func (r Relationship) Candidate() Candidate {
	return Candidate{Type: r.Type, From: r.From, To: r.To}
}

// Touches reports whether id is either endpoint of r.
func (r Relationship) Touches(id string) bool {
	return r.From == id || r.To == id
}
