package model

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings hold display and layout configuration. They never affect graph
// correctness.
type Settings struct {
	NodeSpacing       float64 `json:"nodeSpacing" toml:"node_spacing" validate:"gt=0"`
	GenerationSpacing float64 `json:"generationSpacing" toml:"generation_spacing" validate:"gt=0"`
	Theme             Theme   `json:"theme" toml:"theme" validate:"oneof=light dark"`
	ShowDates         bool    `json:"showDates" toml:"show_dates"`
	ShowPhotos        bool    `json:"showPhotos" toml:"show_photos"`
	ShowNotes         bool    `json:"showNotes" toml:"show_notes"`
}

func DefaultSettings() Settings {
	return Settings{
		NodeSpacing:       200,
		GenerationSpacing: 150,
		Theme:             ThemeLight,
		ShowDates:         true,
		ShowPhotos:        true,
	}
}

type SettingsPatch struct {
	NodeSpacing       *float64 `json:"nodeSpacing,omitempty"`
	GenerationSpacing *float64 `json:"generationSpacing,omitempty"`
	Theme             *Theme   `json:"theme,omitempty"`
	ShowDates         *bool    `json:"showDates,omitempty"`
	ShowPhotos        *bool    `json:"showPhotos,omitempty"`
	ShowNotes         *bool    `json:"showNotes,omitempty"`
}

// Apply returns s with every non-nil patch field copied over.
func (patch SettingsPatch) Apply(s Settings) Settings {
	if patch.NodeSpacing != nil {
		s.NodeSpacing = *patch.NodeSpacing
	}
	if patch.GenerationSpacing != nil {
		s.GenerationSpacing = *patch.GenerationSpacing
	}
	if patch.Theme != nil {
		s.Theme = *patch.Theme
	}
	if patch.ShowDates != nil {
		s.ShowDates = *patch.ShowDates
	}
	if patch.ShowPhotos != nil {
		s.ShowPhotos = *patch.ShowPhotos
	}
	if patch.ShowNotes != nil {
		s.ShowNotes = *patch.ShowNotes
	}
	return s
}
