package model

// Placement is one positioned occurrence of a person in the derived layout.
// A person with several recorded parents can have more than one placement.
type Placement struct {
	PersonID   string   `json:"personId"`
	Name       string   `json:"name"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Generation int      `json:"generation"`
	Tree       int      `json:"tree"`
	RootID     string   `json:"rootId"`
	Manual     bool     `json:"manual,omitempty"`
	Spouses    []string `json:"spouses,omitempty"`
}
