package domain

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveFirstTakesEarliestDuplicate(t *testing.T) {
	s := &StorageLocation{Name: "Shelf 1", Items: []Item{
		NamedItem("Bulb", "first.jpg"),
		PlainItem("Fuse"),
		NamedItem("Bulb", "second.jpg"),
	}}

	removed, ok := s.RemoveFirst("Bulb")
	require.True(t, ok)
	assert.Equal(t, "first.jpg", removed.Image())
	require.Len(t, s.Items, 2)
	assert.Equal(t, "second.jpg", s.Items[1].Image())

	_, ok = s.RemoveFirst("Hammer")
	assert.False(t, ok)
}

func TestRemoveFirstMatchesLegacyShape(t *testing.T) {
	s := &StorageLocation{Items: []Item{PlainItem("Drill")}}

	_, ok := s.RemoveFirst("Drill")
	assert.True(t, ok)
	assert.Empty(t, s.Items)
}

func TestCloneIsDeep(t *testing.T) {
	inv := NewInventory()
	inv.AddArea("Garage").AddStorage("Shelf").Items = []Item{PlainItem("Drill")}

	c := inv.Clone()
	c.Area("Garage").Storage("Shelf").Items[0] = PlainItem("Changed")
	c.Area("Garage").AddStorage("Bin")
	c.AddArea("Attic")

	assert.Equal(t, "Drill", inv.Area("Garage").Storage("Shelf").Items[0].Name())
	assert.Len(t, inv.Area("Garage").Storages, 1)
	assert.Len(t, inv.Areas, 1)
}

func TestRowsIsRestartable(t *testing.T) {
	inv := NewInventory()
	inv.AddArea("Garage").AddStorage("Shelf").Items = []Item{PlainItem("Drill"), PlainItem("Saw")}

	seq := inv.Rows()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)

	for r := range seq {
		assert.Equal(t, "Drill", r.Item)
		break
	}
}

func TestImagesAndCounts(t *testing.T) {
	inv := NewInventory()
	a := inv.AddArea("Garage")
	a.AddStorage("Shelf").Items = []Item{NamedItem("Saw", "saw.jpg"), PlainItem("Drill")}
	a.AddStorage("Bin").Items = []Item{NamedItem("Rake", "rake.jpg")}

	assert.Equal(t, []string{"saw.jpg", "rake.jpg"}, a.Images())
	assert.True(t, inv.ReferencesImage("rake.jpg"))
	assert.False(t, inv.ReferencesImage("drill.jpg"))
	assert.False(t, inv.ReferencesImage(""))

	areas, storages, items := inv.Counts()
	assert.Equal(t, 1, areas)
	assert.Equal(t, 2, storages)
	assert.Equal(t, 3, items)
}

func TestErrorKinds(t *testing.T) {
	var err error = &DuplicateError{Kind: "area", Name: "Garage"}
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, `area "Garage" already exists`, err.Error())

	err = &NotFoundError{Kind: "storage", Name: "Shelf"}
	assert.True(t, errors.Is(err, ErrNotFound))

	err = &ValidationError{Field: "area name"}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "area name is required", err.Error())
}
