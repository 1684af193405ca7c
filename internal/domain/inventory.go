package domain

import (
	"iter"
	"slices"
)

// Inventory is the root aggregate: areas in insertion order. Names are the
// only keys; lookups are linear, which is fine for a household.
type Inventory struct {
	Areas []*Area
}

func NewInventory() *Inventory {
	return &Inventory{}
}

// Area returns the named area or nil.
func (inv *Inventory) Area(name string) *Area {
	for _, a := range inv.Areas {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AddArea appends an empty area. Callers check uniqueness first.
func (inv *Inventory) AddArea(name string) *Area {
	a := &Area{Name: name}
	inv.Areas = append(inv.Areas, a)
	return a
}

// RemoveArea detaches the named area and returns it, or nil if absent.
func (inv *Inventory) RemoveArea(name string) *Area {
	for i, a := range inv.Areas {
		if a.Name == name {
			inv.Areas = slices.Delete(inv.Areas, i, i+1)
			return a
		}
	}
	return nil
}

// Storage returns the named storage location or nil.
func (a *Area) Storage(name string) *StorageLocation {
	for _, s := range a.Storages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddStorage appends an empty storage location. Callers check uniqueness first.
func (a *Area) AddStorage(name string) *StorageLocation {
	s := &StorageLocation{Name: name}
	a.Storages = append(a.Storages, s)
	return s
}

// RemoveStorage detaches the named storage location and returns it, or nil.
func (a *Area) RemoveStorage(name string) *StorageLocation {
	for i, s := range a.Storages {
		if s.Name == name {
			a.Storages = slices.Delete(a.Storages, i, i+1)
			return s
		}
	}
	return nil
}

// Images lists every image key owned by items in the area.
func (a *Area) Images() []string {
	var keys []string
	for _, s := range a.Storages {
		keys = append(keys, s.Images()...)
	}
	return keys
}

// RemoveFirst removes the first item whose name matches, whatever its shape.
// Duplicate names are resolved by position: first match wins.
func (s *StorageLocation) RemoveFirst(name string) (Item, bool) {
	for i, it := range s.Items {
		if it.Name() == name {
			s.Items = slices.Delete(s.Items, i, i+1)
			return it, true
		}
	}
	return Item{}, false
}

// Images lists every image key owned by items in the storage location.
func (s *StorageLocation) Images() []string {
	var keys []string
	for _, it := range s.Items {
		if it.HasImage() {
			keys = append(keys, it.Image())
		}
	}
	return keys
}

// Clone returns a deep copy so a mutation can be applied and discarded on failure.
func (inv *Inventory) Clone() *Inventory {
	out := &Inventory{Areas: make([]*Area, 0, len(inv.Areas))}
	for _, a := range inv.Areas {
		ac := &Area{Name: a.Name, Storages: make([]*StorageLocation, 0, len(a.Storages))}
		for _, s := range a.Storages {
			ac.Storages = append(ac.Storages, &StorageLocation{Name: s.Name, Items: slices.Clone(s.Items)})
		}
		out.Areas = append(out.Areas, ac)
	}
	return out
}

// Rows yields the flattened table in area, storage, item insertion order.
// Each range over the sequence walks the inventory afresh.
func (inv *Inventory) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, a := range inv.Areas {
			for _, s := range a.Storages {
				for _, it := range s.Items {
					if !yield(Row{Area: a.Name, Storage: s.Name, Item: it.Name(), Image: it.Image()}) {
						return
					}
				}
			}
		}
	}
}

// ReferencesImage reports whether any item owns the given image key.
func (inv *Inventory) ReferencesImage(key string) bool {
	if key == "" {
		return false
	}
	for r := range inv.Rows() {
		if r.Image == key {
			return true
		}
	}
	return false
}

// Counts returns the number of areas, storage locations and items.
func (inv *Inventory) Counts() (areas, storages, items int) {
	areas = len(inv.Areas)
	for _, a := range inv.Areas {
		storages += len(a.Storages)
		for _, s := range a.Storages {
			items += len(s.Items)
		}
	}
	return areas, storages, items
}
