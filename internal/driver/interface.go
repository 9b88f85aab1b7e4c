package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Tx runs queries inside one write transaction and returns their rows.
type Tx interface {
	Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error)
}

type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	// ExecuteWrite commits everything work runs, or nothing if work
	// returns an error. work may be retried on transient failures.
	ExecuteWrite(ctx context.Context, work func(tx Tx) error) error
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
