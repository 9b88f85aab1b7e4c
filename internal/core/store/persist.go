package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/validate"
)

// Persister stores a serialized copy of the graph. Load returns nil, nil
// when nothing has been saved yet.
type Persister interface {
	Save(ctx context.Context, state model.State) error
	Load(ctx context.Context) (*model.State, error)
}

// Save writes the current graph and settings through p.
func (s *Store) Save(ctx context.Context, p Persister) error {
	s.mu.RLock()
	state := model.State{
		Snapshot: model.Snapshot{
			Members:       clonePersons(s.persons),
			Relationships: append([]model.Relationship{}, s.relationships...),
		},
		Settings: s.settings,
	}
	s.mu.RUnlock()

	if err := p.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load replaces the graph and settings with what p holds. It reports false
// when p has nothing saved. Loaded data goes through the same checks as
// LoadSnapshot.
func (s *Store) Load(ctx context.Context, p Persister) (bool, validate.Report, error) {
	state, err := p.Load(ctx)
	if err != nil {
		return false, validate.Report{}, fmt.Errorf("failed to load state: %w", err)
	}
	if state == nil {
		return false, validate.Report{}, nil
	}

	if err := s.validate.Struct(state.Settings); err != nil {
		return false, validate.Report{}, errors.Join(ErrInvalidSettings, err)
	}
	persons, rels, report, err := s.prepareSnapshot(state.Snapshot)
	if err != nil {
		return false, report, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitSnapshotLocked(persons, rels)
	s.settings = state.Settings
	return true, report, nil
}
