package store

import (
	"context"
	"errors"
	"testing"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveGenerations builds five persons linked by four parent-child edges.
func fiveGenerations(s *Store) {
	var prev model.Person
	for i, name := range []string{"Eve", "Cain", "Enoch", "Irad", "Mehujael"} {
		p := s.AddPerson(model.Person{Name: name, Gender: model.GenderOther, Note: "gen"})
		if i > 0 {
			s.AddRelationship(model.Candidate{Type: model.ParentChild, From: prev.ID, To: p.ID})
		}
		prev = p
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src := newStore()
	fiveGenerations(src)
	snap := src.ExportSnapshot()
	require.Len(t, snap.Members, 5)
	require.Len(t, snap.Relationships, 4)

	dst := New()
	report, err := dst.LoadSnapshot(snap)
	require.NoError(t, err)
	assert.True(t, report.OK())

	assert.Equal(t, snap, dst.ExportSnapshot())
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	src := newStore()
	fiveGenerations(src)
	src.UpdatePerson("id-1", model.PersonPatch{Position: &model.Position{X: 3, Y: 4}})

	data, err := src.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"members"`)
	assert.Contains(t, string(data), `"parent-child"`)

	dst := New()
	_, err = dst.ImportJSON(data)
	require.NoError(t, err)
	assert.Equal(t, src.ExportSnapshot(), dst.ExportSnapshot())
}

func TestLoadSnapshot_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":             `{`,
		"missing members":      `{"relationships": []}`,
		"missing rels":         `{"members": []}`,
		"person without id":    `{"members": [{"name": "A"}], "relationships": []}`,
		"person without name":  `{"members": [{"id": "a"}], "relationships": []}`,
		"bad gender":           `{"members": [{"id": "a", "name": "A", "gender": "x"}], "relationships": []}`,
		"bad date":             `{"members": [{"id": "a", "name": "A", "birthDate": "10/12/1815"}], "relationships": []}`,
		"unknown relationship": `{"members": [], "relationships": [{"id": "r", "type": "cousin", "from": "a", "to": "b"}]}`,
		"duplicate ids":        `{"members": [{"id": "a", "name": "A"}, {"id": "a", "name": "B"}], "relationships": []}`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			fiveGenerations(s)
			before := s.ExportSnapshot()

			_, err := s.ImportJSON([]byte(data))

			assert.ErrorIs(t, err, ErrMalformedSnapshot)
			assert.Equal(t, before, s.ExportSnapshot())
		})
	}
}

func cyclicSnapshot() model.Snapshot {
	return model.Snapshot{
		Members: []model.Person{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}},
		Relationships: []model.Relationship{
			{ID: "r1", Type: model.ParentChild, From: "a", To: "b"},
			{ID: "r2", Type: model.ParentChild, From: "b", To: "c"},
			{ID: "r3", Type: model.ParentChild, From: "c", To: "a"},
		},
	}
}

func TestLoadSnapshot_RejectPolicy(t *testing.T) {
	s := newStore()
	fiveGenerations(s)
	before := s.ExportSnapshot()

	report, err := s.LoadSnapshot(cyclicSnapshot())

	assert.ErrorIs(t, err, ErrForestViolation)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "r3", report.Violations[0].Relationship.ID)
	assert.Equal(t, validate.ReasonCycle, report.Violations[0].Reason)
	assert.Equal(t, before, s.ExportSnapshot())
}

func TestLoadSnapshot_PrunePolicy(t *testing.T) {
	s := newStore(WithImportPolicy(ImportPrune))

	report, err := s.LoadSnapshot(cyclicSnapshot())

	require.NoError(t, err)
	assert.Len(t, report.Violations, 1)
	rels := s.Relationships()
	require.Len(t, rels, 2)
	assert.Equal(t, "r1", rels[0].ID)
	assert.Equal(t, "r2", rels[1].ID)
}

func TestLoadSnapshot_TrustPolicy(t *testing.T) {
	s := newStore(WithImportPolicy(ImportTrust))

	report, err := s.LoadSnapshot(cyclicSnapshot())

	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Len(t, s.Relationships(), 3)
	assert.Len(t, s.Layout(), 3)
}

func TestLoadSnapshot_ClearsSelection(t *testing.T) {
	s := newStore()
	p := s.AddPerson(model.Person{Name: "A"})
	s.Select(p.ID)

	_, err := s.LoadSnapshot(model.Snapshot{Members: []model.Person{}, Relationships: []model.Relationship{}})
	require.NoError(t, err)
	assert.Empty(t, s.Selection())
	assert.Empty(t, s.Persons())
}

func TestApplyMessage(t *testing.T) {
	s := newStore()
	spacing := 300.0
	snap := model.Snapshot{
		Members:       []model.Person{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Relationships: []model.Relationship{{ID: "r", Type: model.ParentChild, From: "a", To: "b"}},
	}

	_, err := s.ApplyMessage(model.ConfigMessage{
		InitialData: &snap,
		Settings:    &model.SettingsPatch{NodeSpacing: &spacing},
	})

	require.NoError(t, err)
	assert.Equal(t, snap, s.ExportSnapshot())
	assert.Equal(t, 300.0, s.Settings().NodeSpacing)
}

func TestApplyMessage_SettingsOnly(t *testing.T) {
	s := newStore()
	fiveGenerations(s)
	before := s.ExportSnapshot()
	show := true

	_, err := s.ApplyMessage(model.ConfigMessage{Settings: &model.SettingsPatch{ShowNotes: &show}})

	require.NoError(t, err)
	assert.True(t, s.Settings().ShowNotes)
	assert.Equal(t, before, s.ExportSnapshot())
}

func TestApplyMessage_AllOrNothing(t *testing.T) {
	s := newStore()
	fiveGenerations(s)
	before := s.ExportSnapshot()
	bad := -5.0
	snap := model.Snapshot{Members: []model.Person{}, Relationships: []model.Relationship{}}

	_, err := s.ApplyMessage(model.ConfigMessage{
		InitialData: &snap,
		Settings:    &model.SettingsPatch{NodeSpacing: &bad},
	})

	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, before, s.ExportSnapshot())

	spacing := 10.0
	broken := model.Snapshot{Members: []model.Person{{ID: "x"}}, Relationships: []model.Relationship{}}
	_, err = s.ApplyMessage(model.ConfigMessage{
		InitialData: &broken,
		Settings:    &model.SettingsPatch{NodeSpacing: &spacing},
	})

	assert.ErrorIs(t, err, ErrMalformedSnapshot)
	assert.Equal(t, 200.0, s.Settings().NodeSpacing)
}

func TestSaveLoad(t *testing.T) {
	p := &MockPersister{}
	src := newStore()
	fiveGenerations(src)
	dark := model.ThemeDark
	_, err := src.UpdateSettings(model.SettingsPatch{Theme: &dark})
	require.NoError(t, err)

	require.NoError(t, src.Save(context.Background(), p))
	assert.Equal(t, 1, p.Saves)

	dst := New()
	ok, report, err := dst.Load(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, report.OK())
	assert.Equal(t, src.ExportSnapshot(), dst.ExportSnapshot())
	assert.Equal(t, model.ThemeDark, dst.Settings().Theme)
}

func TestLoad_NothingSaved(t *testing.T) {
	s := newStore()
	ok, _, err := s.Load(context.Background(), &MockPersister{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveLoad_Errors(t *testing.T) {
	s := newStore()
	fiveGenerations(s)
	before := s.ExportSnapshot()

	err := s.Save(context.Background(), &MockPersister{SaveErr: errors.New("quota exceeded")})
	assert.ErrorContains(t, err, "quota exceeded")

	_, _, err = s.Load(context.Background(), &MockPersister{LoadErr: errors.New("disk gone")})
	assert.ErrorContains(t, err, "disk gone")
	assert.Equal(t, before, s.ExportSnapshot())
}
