package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/validate"
)

// ExportSnapshot returns a deep copy of the graph.
func (s *Store) ExportSnapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Snapshot{
		Members:       clonePersons(s.persons),
		Relationships: append([]model.Relationship{}, s.relationships...),
	}
}

func (s *Store) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.ExportSnapshot(), "", "  ")
}

// ImportJSON parses data as a snapshot and loads it.
func (s *Store) ImportJSON(data []byte) (validate.Report, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return validate.Report{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return s.LoadSnapshot(snap)
}

// LoadSnapshot replaces every person and relationship with those of snap.
// Malformed data, or data the import policy refuses, leaves the store
// untouched. The returned report lists relationships that break the
// forest invariant; under ImportPrune those were dropped.
func (s *Store) LoadSnapshot(snap model.Snapshot) (validate.Report, error) {
	persons, rels, report, err := s.prepareSnapshot(snap)
	if err != nil {
		return report, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitSnapshotLocked(persons, rels)
	return report, nil
}

// ApplyMessage applies a configuration message from an embedding host:
// initial data is loaded as a snapshot and settings are merged. Either both
// parts apply or neither does.
func (s *Store) ApplyMessage(msg model.ConfigMessage) (validate.Report, error) {
	var (
		persons []model.Person
		rels    []model.Relationship
		report  validate.Report
		err     error
	)
	if msg.InitialData != nil {
		persons, rels, report, err = s.prepareSnapshot(*msg.InitialData)
		if err != nil {
			return report, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Settings != nil {
		if _, err := s.updateSettingsLocked(*msg.Settings); err != nil {
			return report, err
		}
	}
	if msg.InitialData != nil {
		s.commitSnapshotLocked(persons, rels)
	}
	return report, nil
}

func (s *Store) prepareSnapshot(snap model.Snapshot) ([]model.Person, []model.Relationship, validate.Report, error) {
	if err := s.checkStructure(snap); err != nil {
		return nil, nil, validate.Report{}, err
	}

	report := validate.CheckForest(snap.Relationships, snap.Members)
	rels := snap.Relationships
	switch s.policy {
	case ImportPrune:
		rels = report.Accepted
	case ImportTrust:
	default:
		if !report.OK() {
			first := report.Violations[0]
			return nil, nil, report, fmt.Errorf("%w: %d relationship(s) rejected, first %q: %s",
				ErrForestViolation, len(report.Violations), first.Relationship.ID, first.Reason)
		}
	}

	return clonePersons(snap.Members), append([]model.Relationship{}, rels...), report, nil
}

func (s *Store) commitSnapshotLocked(persons []model.Person, rels []model.Relationship) {
	s.persons = persons
	s.relationships = rels
	s.selected = ""
}

// checkStructure verifies the shape of snap: both arrays present, required
// fields set, enums and dates well formed and ids unique.
func (s *Store) checkStructure(snap model.Snapshot) error {
	if err := s.validate.Struct(snap); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedSnapshot, describe(err))
	}

	seen := make(map[string]bool, len(snap.Members)+len(snap.Relationships))
	for _, p := range snap.Members {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, p.ID)
		}
		seen[p.ID] = true
	}
	for _, r := range snap.Relationships {
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
