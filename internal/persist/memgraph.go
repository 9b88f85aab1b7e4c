package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/driver"
	"github.com/agenthands/lineage/internal/logger"
)

// ErrDanglingRelationship is returned when a relationship endpoint is not
// among the saved members. Memgraph cannot store such an edge.
var ErrDanglingRelationship = errors.New("relationship references unknown person")

// Memgraph keeps one family tree per tree id as Person nodes joined by
// RELATED edges, plus a TreeSettings node holding the settings as JSON.
type Memgraph struct {
	Driver driver.GraphDriver
	TreeID string
	Now    func() time.Time
}

func NewMemgraph(d driver.GraphDriver, treeID string) *Memgraph {
	return &Memgraph{
		Driver: d,
		TreeID: treeID,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save replaces the stored tree in one write transaction, so a failure
// part way leaves the previous save in place.
func (m *Memgraph) Save(ctx context.Context, state model.State) error {
	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	err = m.Driver.ExecuteWrite(ctx, func(tx driver.Tx) error {
		if _, err := tx.Run(ctx, driver.ClearTreeQuery, map[string]interface{}{"tree_id": m.TreeID}); err != nil {
			return fmt.Errorf("failed to clear tree %s: %w", m.TreeID, err)
		}

		for i, p := range state.Snapshot.Members {
			params := map[string]interface{}{
				"tree_id":    m.TreeID,
				"id":         p.ID,
				"seq":        i,
				"name":       p.Name,
				"gender":     string(p.Gender),
				"birth_date": p.BirthDate,
				"death_date": p.DeathDate,
				"photo":      p.Photo,
				"note":       p.Note,
				"pos_x":      nil,
				"pos_y":      nil,
			}
			if p.Position != nil {
				params["pos_x"] = p.Position.X
				params["pos_y"] = p.Position.Y
			}
			if _, err := tx.Run(ctx, driver.SavePersonQuery, params); err != nil {
				return fmt.Errorf("failed to save person %s: %w", p.ID, err)
			}
		}

		for i, r := range state.Snapshot.Relationships {
			params := map[string]interface{}{
				"tree_id": m.TreeID,
				"id":      r.ID,
				"seq":     i,
				"kind":    string(r.Type),
				"from":    r.From,
				"to":      r.To,
			}
			rows, err := tx.Run(ctx, driver.SaveRelationshipQuery, params)
			if err != nil {
				return fmt.Errorf("failed to save relationship %s: %w", r.ID, err)
			}
			// The MATCH finds no endpoint for a dangling edge and creates nothing.
			if len(rows) == 0 {
				return fmt.Errorf("%w: relationship %s (%s -> %s)", ErrDanglingRelationship, r.ID, r.From, r.To)
			}
		}

		params := map[string]interface{}{
			"tree_id":  m.TreeID,
			"data":     string(settings),
			"saved_at": m.Now().Format(time.RFC3339),
		}
		if _, err := tx.Run(ctx, driver.SaveSettingsQuery, params); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.With("component", "memgraph", "tree", m.TreeID).Debug("tree saved",
		"members", len(state.Snapshot.Members), "relationships", len(state.Snapshot.Relationships))
	return nil
}

func (m *Memgraph) Load(ctx context.Context) (*model.State, error) {
	params := map[string]interface{}{"tree_id": m.TreeID}

	res, err := m.Driver.ExecuteQuery(ctx, driver.GetTreeSettingsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	state := &model.State{Settings: model.DefaultSettings()}
	if data := getString(res.Records[0], "data"); data != "" {
		if err := json.Unmarshal([]byte(data), &state.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings: %w", err)
		}
	}

	res, err = m.Driver.ExecuteQuery(ctx, driver.GetTreePersonsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to read persons: %w", err)
	}
	state.Snapshot.Members = make([]model.Person, 0, len(res.Records))
	for _, rec := range res.Records {
		p := model.Person{
			ID:        getString(rec, "id"),
			Name:      getString(rec, "name"),
			Gender:    model.Gender(getString(rec, "gender")),
			BirthDate: getString(rec, "birth_date"),
			DeathDate: getString(rec, "death_date"),
			Photo:     getString(rec, "photo"),
			Note:      getString(rec, "note"),
		}
		x, okX := getFloat(rec, "pos_x")
		y, okY := getFloat(rec, "pos_y")
		if okX && okY {
			p.Position = &model.Position{X: x, Y: y}
		}
		state.Snapshot.Members = append(state.Snapshot.Members, p)
	}

	res, err = m.Driver.ExecuteQuery(ctx, driver.GetTreeRelationshipsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}
	state.Snapshot.Relationships = make([]model.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		state.Snapshot.Relationships = append(state.Snapshot.Relationships, model.Relationship{
			ID:   getString(rec, "id"),
			Type: model.RelationType(getString(rec, "kind")),
			From: getString(rec, "source_id"),
			To:   getString(rec, "target_id"),
		})
	}

	return state, nil
}

func getString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getFloat(rec *neo4j.Record, key string) (float64, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}
