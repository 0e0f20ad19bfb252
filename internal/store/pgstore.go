// internal/store/pgstore.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"matekasse/internal/inventory"
)

// PostgresStore keeps the state document in a single-row snapshot
// table. Semantics match the file store: every save overwrites the
// whole document.
type PostgresStore struct {
	db     *sql.DB
	vocab  inventory.Vocabulary
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB, vocab inventory.Vocabulary) *PostgresStore {
	return &PostgresStore{
		db:     db,
		vocab:  vocab,
		tracer: otel.Tracer("matekasse/store"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS state_snapshots (
			id         smallint PRIMARY KEY CHECK (id = 1),
			state      jsonb NOT NULL,
			updated_at timestamptz NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context) (*inventory.State, error) {
	ctx, span := p.tracer.Start(ctx, "store.load_snapshot")
	defer span.End()

	var data []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT state
		FROM state_snapshots
		WHERE id = 1
	`).Scan(&data)

	if err == sql.ErrNoRows {
		return inventory.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	state, err := inventory.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return state, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *inventory.State) error {
	ctx, span := p.tracer.Start(ctx, "store.save_snapshot")
	defer span.End()

	data, err := inventory.EncodeState(s, p.vocab)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO state_snapshots (id, state, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at
	`, data, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return nil
}
