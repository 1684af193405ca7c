package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/homeinv/internal/domain"
)

// snapshotQueries holds the dialect-specific statements for the single-row
// inventory_document table.
type snapshotQueries struct {
	load   string
	upsert string
}

var (
	sqliteQueries = snapshotQueries{
		load: `SELECT payload FROM inventory_document WHERE id = 1`,
		upsert: `
			INSERT INTO inventory_document (id, payload, updated_at) VALUES (1, ?, datetime('now'))
			ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
		`,
	}
	postgresQueries = snapshotQueries{
		load: `SELECT payload FROM inventory_document WHERE id = 1`,
		upsert: `
			INSERT INTO inventory_document (id, payload, updated_at) VALUES (1, $1, now())
			ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`,
	}
)

// SnapshotStore keeps the inventory document as one row in a SQL database.
// The payload is the same JSON the FileStore writes.
type SnapshotStore struct {
	db      *sql.DB
	queries snapshotQueries
}

// NewSQLiteStore stores snapshots in a database opened by db.Open.
func NewSQLiteStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db, queries: sqliteQueries}
}

// NewPostgresStore stores snapshots in a database opened by db.OpenPostgres.
func NewPostgresStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db, queries: postgresQueries}
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Inventory, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.queries.load).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewInventory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory snapshot: %w", err)
	}

	inv, err := domain.DecodeDocument([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("inventory snapshot: %w", err)
	}
	return inv, nil
}

func (s *SnapshotStore) Save(ctx context.Context, inv *domain.Inventory) error {
	data, err := domain.EncodeDocument(inv)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.queries.upsert, string(data)); err != nil {
		return fmt.Errorf("failed to save inventory snapshot: %w", err)
	}
	return nil
}
