package model

// Snapshot is the persisted and exported form of the graph.
type Snapshot struct {
	Members       []Person       `json:"members" validate:"required,dive"`
	Relationships []Relationship `json:"relationships" validate:"required,dive"`
}

// ConfigMessage is the configuration message an embedding host sends.
type ConfigMessage struct {
	InitialData *Snapshot      `json:"initialData,omitempty"`
	Settings    *SettingsPatch `json:"settings,omitempty"`
}

// State is what a persister stores.
type State struct {
	Snapshot Snapshot `json:"snapshot"`
	Settings Settings `json:"settings"`
}
