package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/homeinv/internal/db"
	"github.com/vbonduro/homeinv/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SnapshotStore {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "homeinv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return NewSQLiteStore(d)
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	inv, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.Areas)
}

func TestSQLiteStoreSaveOverwritesSnapshot(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleInventory()))

	next := sampleInventory()
	next.RemoveArea("Attic")
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, slices.Collect(next.Rows()), slices.Collect(got.Rows()))
	assert.Len(t, got.Areas, 1)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM inventory_document`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLiteStoreCorruptPayload(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.db.Exec(`INSERT INTO inventory_document (id, payload) VALUES (1, 'not json')`)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
}

func TestPostgresStoreSaveAndLoad(t *testing.T) {
	dsn := os.Getenv("HOMEINV_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HOMEINV_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	d, err := db.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = d.Exec(`DELETE FROM inventory_document`)
		_ = d.Close()
	})

	s := NewPostgresStore(d)
	want := sampleInventory()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, slices.Collect(want.Rows()), slices.Collect(got.Rows()))
	assert.Equal(t, "Garage", got.Areas[0].Name)
}
