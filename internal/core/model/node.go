package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Person is a member of the family graph. Dates use the YYYY-MM-DD form of
// an HTML date input; an empty string means unknown.
type Person struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Gender    Gender    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	BirthDate string    `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DeathDate string    `json:"deathDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Photo     string    `json:"photo,omitempty"`
	Note      string    `json:"note,omitempty"`
	Position  *Position `json:"position,omitempty"`
}

// PersonPatch is a partial update. Nil fields are left untouched.
type PersonPatch struct {
	Name          *string   `json:"name,omitempty"`
	Gender        *Gender   `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	BirthDate     *string   `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DeathDate     *string   `json:"deathDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Photo         *string   `json:"photo,omitempty"`
	Note          *string   `json:"note,omitempty"`
	Position      *Position `json:"position,omitempty"`
	ClearPosition bool      `json:"clearPosition,omitempty"`
}

// Apply merges the patch into p.
func (patch PersonPatch) Apply(p *Person) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.BirthDate != nil {
		p.BirthDate = *patch.BirthDate
	}
	if patch.DeathDate != nil {
		p.DeathDate = *patch.DeathDate
	}
	if patch.Photo != nil {
		p.Photo = *patch.Photo
	}
	if patch.Note != nil {
		p.Note = *patch.Note
	}
	if patch.ClearPosition {
		p.Position = nil
	}
	if patch.Position != nil {
		pos := *patch.Position
		p.Position = &pos
	}
}

// Clone returns a copy that shares no pointers with p.
func (p Person) Clone() Person {
	if p.Position != nil {
		pos := *p.Position
		p.Position = &pos
	}
	return p
}
