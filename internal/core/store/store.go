// Package store owns the persons and relationships of a family graph and
// exposes the mutation API used by the host application.
//
// The store never re-validates relationships passed to AddRelationship:
// callers run Validate (or use Connect) first. Imported snapshots are the
// exception and are checked according to the configured ImportPolicy.
package store

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agenthands/lineage/internal/core/community"
	"github.com/agenthands/lineage/internal/core/layout"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/validate"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrForestViolation   = errors.New("snapshot violates the forest invariant")
	ErrInvalidSettings   = errors.New("invalid settings")
)

type ImportPolicy string

const (
	// ImportReject refuses a snapshot containing any violating relationship.
	ImportReject ImportPolicy = "reject"
	// ImportPrune drops violating relationships and keeps the rest.
	ImportPrune ImportPolicy = "prune"
	// ImportTrust accepts relationships as they are.
	ImportTrust ImportPolicy = "trust"
)

func (p ImportPolicy) Valid() bool {
	switch p {
	case ImportReject, ImportPrune, ImportTrust:
		return true
	}
	return false
}

type Store struct {
	mu            sync.RWMutex
	persons       []model.Person
	relationships []model.Relationship
	settings      model.Settings
	selected      string

	newID    func() string
	policy   ImportPolicy
	validate *validator.Validate
}

type Option func(*Store)

// WithIDGenerator replaces the uuid generator, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithImportPolicy(p ImportPolicy) Option {
	return func(s *Store) { s.policy = p }
}

func WithSettings(settings model.Settings) Option {
	return func(s *Store) { s.settings = settings }
}

func New(opts ...Option) *Store {
	s := &Store{
		persons:       []model.Person{},
		relationships: []model.Relationship{},
		settings:      model.DefaultSettings(),
		newID:         func() string { return uuid.New().String() },
		policy:        ImportReject,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ImportPolicy() ImportPolicy {
	return s.policy
}

// AddPerson stores a copy of fields under a fresh id. Any id on fields is
// ignored.
func (s *Store) AddPerson(fields model.Person) model.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := fields.Clone()
	p.ID = s.newID()
	s.persons = append(s.persons, p)
	return p.Clone()
}

// UpdatePerson merges patch into the person with the given id. It reports
// false, and does nothing, when the id is unknown.
func (s *Store) UpdatePerson(id string, patch model.PersonPatch) (model.Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.personIndex(id)
	if i < 0 {
		return model.Person{}, false
	}
	patch.Apply(&s.persons[i])
	return s.persons[i].Clone(), true
}

// DeletePerson removes the person together with every relationship that
// references it.
func (s *Store) DeletePerson(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.personIndex(id)
	if i < 0 {
		return false
	}
	s.persons = append(s.persons[:i], s.persons[i+1:]...)

	kept := s.relationships[:0]
	for _, r := range s.relationships {
		if r.Touches(id) {
			if s.selected == r.ID {
				s.selected = ""
			}
			continue
		}
		kept = append(kept, r)
	}
	s.relationships = kept

	if s.selected == id {
		s.selected = ""
	}
	return true
}

// Validate runs the relationship validator against the current edges and
// members.
func (s *Store) Validate(c model.Candidate) validate.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validateLocked(c)
}

// validateLocked also refuses endpoints that are not members, which the
// pure validator cannot see.
func (s *Store) validateLocked(c model.Candidate) validate.Result {
	if res := validate.Validate(c, s.relationships); !res.Valid {
		return res
	}
	if s.personIndex(c.From) < 0 || s.personIndex(c.To) < 0 {
		return validate.Result{Reason: validate.ReasonUnknownPerson}
	}
	return validate.Result{Valid: true}
}

// AddRelationship stores c unconditionally under a fresh id.
func (s *Store) AddRelationship(c model.Candidate) model.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addRelationshipLocked(c)
}

// Connect validates c and stores it when valid, in one critical section.
func (s *Store) Connect(c model.Candidate) (model.Relationship, validate.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.validateLocked(c)
	if !res.Valid {
		return model.Relationship{}, res
	}
	return s.addRelationshipLocked(c), res
}

func (s *Store) addRelationshipLocked(c model.Candidate) model.Relationship {
	r := model.Relationship{ID: s.newID(), Type: c.Type, From: c.From, To: c.To}
	s.relationships = append(s.relationships, r)
	return r
}

func (s *Store) DeleteRelationship(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.relationships {
		if r.ID == id {
			s.relationships = append(s.relationships[:i], s.relationships[i+1:]...)
			if s.selected == id {
				s.selected = ""
			}
			return true
		}
	}
	return false
}

func (s *Store) Person(id string) (model.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.personIndex(id)
	if i < 0 {
		return model.Person{}, false
	}
	return s.persons[i].Clone(), true
}

func (s *Store) Persons() []model.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePersons(s.persons)
}

func (s *Store) Relationships() []model.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Relationship{}, s.relationships...)
}

// Select marks a person or relationship as the current selection. Unknown
// ids are ignored.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.personIndex(id) < 0 && !s.hasRelationship(id) {
		return false
	}
	s.selected = id
	return true
}

func (s *Store) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings merges patch into the settings. A patch that would leave
// the settings out of bounds is refused and nothing changes.
func (s *Store) UpdateSettings(patch model.SettingsPatch) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSettingsLocked(patch)
}

func (s *Store) updateSettingsLocked(patch model.SettingsPatch) (model.Settings, error) {
	next := patch.Apply(s.settings)
	if err := s.validate.Struct(next); err != nil {
		return s.settings, errors.Join(ErrInvalidSettings, err)
	}
	s.settings = next
	return next, nil
}

// Layout derives positions for the current graph and spacing settings.
func (s *Store) Layout() []model.Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layout.Compute(s.persons, s.relationships, layout.SpacingFrom(s.settings))
}

type Stats struct {
	Persons       int `json:"persons"`
	Relationships int `json:"relationships"`
	Roots         int `json:"roots"`
	Families      int `json:"families"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hasParent := make(map[string]bool)
	for _, r := range s.relationships {
		if r.Type == model.ParentChild {
			hasParent[r.To] = true
		}
	}
	roots := 0
	for _, p := range s.persons {
		if !hasParent[p.ID] {
			roots++
		}
	}
	return Stats{
		Persons:       len(s.persons),
		Relationships: len(s.relationships),
		Roots:         roots,
		Families:      len(community.Detect(s.persons, s.relationships)),
	}
}

func (s *Store) personIndex(id string) int {
	for i, p := range s.persons {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasRelationship(id string) bool {
	for _, r := range s.relationships {
		if r.ID == id {
			return true
		}
	}
	return false
}

func clonePersons(in []model.Person) []model.Person {
	out := make([]model.Person, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
