package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/driver"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type executedQuery struct {
	Query  string
	Params map[string]interface{}
}

// MockDriver records every query and answers from Results keyed by query.
// Queries run through ExecuteWrite reach Committed only when the work
// succeeds.
type MockDriver struct {
	Executed  []executedQuery
	Committed []executedQuery
	Results   map[string]neo4j.EagerResult
	FailOn    string
	Err       error
}

type mockTx struct {
	d       *MockDriver
	pending []executedQuery
}

// Run answers write queries with one row unless Results says otherwise.
func (t *mockTx) Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	res, err := t.d.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	t.pending = append(t.pending, executedQuery{Query: query, Params: params})
	if _, ok := t.d.Results[query]; ok {
		return res.Records, nil
	}
	return []*neo4j.Record{{}}, nil
}

func (m *MockDriver) ExecuteWrite(ctx context.Context, work func(tx driver.Tx) error) error {
	tx := &mockTx{d: m}
	if err := work(tx); err != nil {
		return err
	}
	m.Committed = append(m.Committed, tx.pending...)
	return nil
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil && (m.FailOn == "" || m.FailOn == query) {
		return neo4j.EagerResult{}, m.Err
	}
	return m.Results[query], nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func (m *MockDriver) queries() []string {
	out := make([]string, len(m.Executed))
	for i, e := range m.Executed {
		out[i] = e.Query
	}
	return out
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func TestMemgraph_Save(t *testing.T) {
	d := &MockDriver{}
	m := NewMemgraph(d, "family")
	m.Now = fixedNow

	require.NoError(t, m.Save(context.Background(), sampleState()))

	assert.Equal(t, []string{
		driver.ClearTreeQuery,
		driver.SavePersonQuery,
		driver.SavePersonQuery,
		driver.SaveRelationshipQuery,
		driver.SaveSettingsQuery,
	}, d.queries())

	ada := d.Executed[1].Params
	assert.Equal(t, "family", ada["tree_id"])
	assert.Equal(t, "a", ada["id"])
	assert.Equal(t, 0, ada["seq"])
	assert.Equal(t, 10.0, ada["pos_x"])
	assert.Nil(t, d.Executed[2].Params["pos_x"])

	rel := d.Executed[3].Params
	assert.Equal(t, "parent-child", rel["kind"])
	assert.Equal(t, "b", rel["from"])
	assert.Equal(t, "a", rel["to"])

	settings := d.Executed[4].Params
	assert.Contains(t, settings["data"], `"theme":"dark"`)
	assert.Equal(t, "2024-05-01T12:00:00Z", settings["saved_at"])
	assert.Equal(t, d.Executed, d.Committed)
}

func TestMemgraph_SaveError(t *testing.T) {
	d := &MockDriver{Err: errors.New("connection refused"), FailOn: driver.SaveRelationshipQuery}
	m := NewMemgraph(d, "family")

	err := m.Save(context.Background(), sampleState())

	assert.ErrorContains(t, err, "failed to save relationship r1")
	assert.ErrorContains(t, err, "connection refused")
	assert.NotContains(t, d.queries(), driver.SaveSettingsQuery)
	assert.Empty(t, d.Committed)
}

func TestMemgraph_FailedSaveKeepsPreviousTree(t *testing.T) {
	d := &MockDriver{}
	m := NewMemgraph(d, "family")
	require.NoError(t, m.Save(context.Background(), sampleState()))
	previous := append([]executedQuery(nil), d.Committed...)

	d.Err = errors.New("connection reset")
	d.FailOn = driver.SavePersonQuery
	err := m.Save(context.Background(), model.State{Settings: model.DefaultSettings(), Snapshot: model.Snapshot{
		Members: []model.Person{{ID: "z", Name: "Zed"}},
	}})

	require.ErrorContains(t, err, "failed to save person z")
	// The clear of the failed save never committed, so Load still sees
	// the earlier members next to the settings node.
	assert.Equal(t, previous, d.Committed)
}

func TestMemgraph_ClearRemovesSettings(t *testing.T) {
	assert.Contains(t, driver.ClearTreeQuery, "TreeSettings")
}

func TestMemgraph_SaveDanglingRelationship(t *testing.T) {
	d := &MockDriver{Results: map[string]neo4j.EagerResult{
		driver.SaveRelationshipQuery: {},
	}}
	m := NewMemgraph(d, "family")

	err := m.Save(context.Background(), sampleState())

	assert.ErrorIs(t, err, ErrDanglingRelationship)
	assert.ErrorContains(t, err, "r1")
	assert.Empty(t, d.Committed)
}

func TestMemgraph_Load(t *testing.T) {
	d := &MockDriver{
		Results: map[string]neo4j.EagerResult{
			driver.GetTreeSettingsQuery: {Records: []*neo4j.Record{
				{Keys: []string{"data"}, Values: []interface{}{`{"nodeSpacing":200,"generationSpacing":150,"theme":"dark","showDates":true,"showPhotos":true,"showNotes":false}`}},
			}},
			driver.GetTreePersonsQuery: {Records: []*neo4j.Record{
				{
					Keys:   []string{"id", "name", "gender", "birth_date", "death_date", "photo", "note", "pos_x", "pos_y"},
					Values: []interface{}{"a", "Ada", "female", "1815-12-10", "", "", "", 10.0, int64(20)},
				},
				{
					Keys:   []string{"id", "name", "gender", "birth_date", "death_date", "photo", "note", "pos_x", "pos_y"},
					Values: []interface{}{"b", "Byron", "male", "", nil, nil, "poet", nil, nil},
				},
			}},
			driver.GetTreeRelationshipsQuery: {Records: []*neo4j.Record{
				{Keys: []string{"id", "kind", "source_id", "target_id"}, Values: []interface{}{"r1", "parent-child", "b", "a"}},
			}},
		},
	}
	m := NewMemgraph(d, "family")

	got, err := m.Load(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleState(), *got)
}

func TestMemgraph_LoadMissingTree(t *testing.T) {
	d := &MockDriver{}
	m := NewMemgraph(d, "family")

	got, err := m.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{driver.GetTreeSettingsQuery}, d.queries())
}

func TestMemgraph_LoadError(t *testing.T) {
	d := &MockDriver{Err: errors.New("db error")}
	m := NewMemgraph(d, "family")

	_, err := m.Load(context.Background())
	assert.ErrorContains(t, err, "db error")
}
