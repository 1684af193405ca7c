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
	"github.com/vbonduro/homeinv/internal/domain"
)

func sampleInventory() *domain.Inventory {
	inv := domain.NewInventory()
	garage := inv.AddArea("Garage")
	garage.AddStorage("Shelf 1").Items = []domain.Item{
		domain.PlainItem("Drill"),
		domain.NamedItem("Saw", "Garage_Shelf 1_Saw_saw.jpg"),
	}
	inv.AddArea("Attic").AddStorage("Box")
	return inv
}

func TestFileStoreLoadMissingIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "home_inventory.json"))
	require.NoError(t, err)

	inv, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.Areas)
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "home_inventory.json"))
	require.NoError(t, err)
	ctx := context.Background()

	want := sampleInventory()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, slices.Collect(want.Rows()), slices.Collect(got.Rows()))
	require.Len(t, got.Areas, 2)
	assert.Equal(t, "Attic", got.Areas[1].Name)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "home_inventory.json"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleInventory()))
	require.NoError(t, s.Save(ctx, domain.NewInventory()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "home_inventory.json", entries[0].Name())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestFileStoreLoadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home_inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Garage": {"Shelf 1": ["Drill", "Hammer"]}}`), 0644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	inv, err := s.Load(context.Background())
	require.NoError(t, err)
	items := inv.Area("Garage").Storage("Shelf 1").Items
	require.Len(t, items, 2)
	assert.True(t, items[0].Legacy())
	assert.Equal(t, "Hammer", items[1].Name())
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home_inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Garage": `), 0644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptDocument))
	assert.Contains(t, err.Error(), path)
}
