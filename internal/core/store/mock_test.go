package store

import (
	"context"
	"fmt"

	"github.com/agenthands/lineage/internal/core/model"
)

type MockPersister struct {
	Saved   *model.State
	SaveErr error
	LoadErr error
	Saves   int
}

func (m *MockPersister) Save(ctx context.Context, state model.State) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Saved = &state
	return nil
}

func (m *MockPersister) Load(ctx context.Context) (*model.State, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Saved, nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
