package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/vbonduro/homeinv/internal/domain"
	"github.com/vbonduro/homeinv/internal/imagestore"
	"github.com/vbonduro/homeinv/internal/metrics"
	"github.com/vbonduro/homeinv/internal/vision"
)

// ErrVisionDisabled is returned by SuggestName when no vision backend is configured.
var ErrVisionDisabled = errors.New("vision backend not configured")

// documentStore is the subset of the store backends that InventoryService requires.
type documentStore interface {
	Load(ctx context.Context) (*domain.Inventory, error)
	Save(ctx context.Context, inv *domain.Inventory) error
}

// ImageUpload is an image attached to a new item.
type ImageUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

// Snapshot is the display state handed back after every operation.
type Snapshot struct {
	Areas    []string
	Storages map[string][]string
	Rows     []domain.Row
}

// InventoryService owns the in-memory inventory and keeps the persisted
// document in step with it. Mutations are serialised; each one works on a
// clone that only replaces the committed inventory after it was saved.
type InventoryService struct {
	docs    documentStore
	images  imagestore.ImageStore
	vision  vision.Suggester
	metrics *metrics.Metrics
	logger  *slog.Logger

	writeMu sync.Mutex

	mu  sync.RWMutex
	inv *domain.Inventory
}

// NewInventoryService loads the persisted inventory. A corrupt document is
// returned as an error; it is never replaced with an empty inventory.
func NewInventoryService(
	ctx context.Context,
	docs documentStore,
	images imagestore.ImageStore,
	suggester vision.Suggester,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*InventoryService, error) {
	inv, err := docs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	s := &InventoryService{
		docs:    docs,
		images:  images,
		vision:  suggester,
		metrics: m,
		logger:  logger,
		inv:     inv,
	}
	s.metrics.SetCounts(inv.Counts())
	areas, storages, items := inv.Counts()
	logger.Info("inventory loaded", "areas", areas, "storages", storages, "items", items)
	return s, nil
}

func (s *InventoryService) current() *domain.Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inv
}

// commit persists next and publishes it. The caller holds writeMu.
func (s *InventoryService) commit(ctx context.Context, next *domain.Inventory) error {
	if err := s.docs.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	s.mu.Lock()
	s.inv = next
	s.mu.Unlock()
	s.metrics.SetCounts(next.Counts())
	return nil
}

// Snapshot returns the display state of the committed inventory.
func (s *InventoryService) Snapshot() Snapshot {
	return snapshotOf(s.current())
}

func snapshotOf(inv *domain.Inventory) Snapshot {
	snap := Snapshot{
		Areas:    make([]string, 0, len(inv.Areas)),
		Storages: make(map[string][]string, len(inv.Areas)),
		Rows:     []domain.Row{},
	}
	for _, a := range inv.Areas {
		snap.Areas = append(snap.Areas, a.Name)
		names := make([]string, 0, len(a.Storages))
		for _, st := range a.Storages {
			names = append(names, st.Name)
		}
		snap.Storages[a.Name] = names
	}
	for r := range inv.Rows() {
		snap.Rows = append(snap.Rows, r)
	}
	return snap
}

// ListFlattened yields one row per item in area, storage, item order. Every
// range over the result reads the inventory committed at that moment.
func (s *InventoryService) ListFlattened() iter.Seq[domain.Row] {
	return func(yield func(domain.Row) bool) {
		for r := range s.current().Rows() {
			if !yield(r) {
				return
			}
		}
	}
}

func (s *InventoryService) AddArea(ctx context.Context, name string) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("add_area", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return s.Snapshot(), &domain.ValidationError{Field: "area name"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	if cur.Area(name) != nil {
		return snapshotOf(cur), &domain.DuplicateError{Kind: "area", Name: name}
	}

	next := cur.Clone()
	next.AddArea(name)
	if err := s.commit(ctx, next); err != nil {
		return snapshotOf(cur), err
	}
	s.logger.Info("area added", "area", name)
	return snapshotOf(next), nil
}

// DeleteArea removes the area with everything in it. Unknown or empty names
// are ignored.
func (s *InventoryService) DeleteArea(ctx context.Context, name string) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("delete_area", err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	if name == "" || cur.Area(name) == nil {
		return snapshotOf(cur), nil
	}

	next := cur.Clone()
	removed := next.RemoveArea(name)
	if err := s.commit(ctx, next); err != nil {
		return snapshotOf(cur), err
	}
	s.logger.Info("area deleted", "area", name)
	s.deleteImages(ctx, "delete_area", next, removed.Images())
	return snapshotOf(next), nil
}

// AddStorage adds a storage location to an existing area. The new name is
// trimmed; area must match an existing area exactly.
func (s *InventoryService) AddStorage(ctx context.Context, area, name string) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("add_storage", err) }()

	name = strings.TrimSpace(name)
	if area == "" {
		return s.Snapshot(), &domain.ValidationError{Field: "area"}
	}
	if name == "" {
		return s.Snapshot(), &domain.ValidationError{Field: "storage name"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	a := cur.Area(area)
	if a == nil {
		return snapshotOf(cur), &domain.NotFoundError{Kind: "area", Name: area}
	}
	if a.Storage(name) != nil {
		return snapshotOf(cur), &domain.DuplicateError{Kind: "storage location", Name: name}
	}

	next := cur.Clone()
	next.Area(area).AddStorage(name)
	if err := s.commit(ctx, next); err != nil {
		return snapshotOf(cur), err
	}
	s.logger.Info("storage added", "area", area, "storage", name)
	return snapshotOf(next), nil
}

// DeleteStorage removes the storage location with its items. The area is
// kept even when this leaves it empty.
func (s *InventoryService) DeleteStorage(ctx context.Context, area, name string) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("delete_storage", err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	if area == "" || name == "" {
		return snapshotOf(cur), nil
	}
	if a := cur.Area(area); a == nil || a.Storage(name) == nil {
		return snapshotOf(cur), nil
	}

	next := cur.Clone()
	removed := next.Area(area).RemoveStorage(name)
	if err := s.commit(ctx, next); err != nil {
		return snapshotOf(cur), err
	}
	s.logger.Info("storage deleted", "area", area, "storage", name)
	s.deleteImages(ctx, "delete_storage", next, removed.Images())
	return snapshotOf(next), nil
}

// AddItem appends an item to a storage location. With an upload, the image is
// stored first under a key derived from the item's location and name, and
// removed again if the inventory cannot be saved.
func (s *InventoryService) AddItem(ctx context.Context, area, storage, name string, upload *ImageUpload) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("add_item", err) }()

	name = strings.TrimSpace(name)
	switch {
	case area == "":
		return s.Snapshot(), &domain.ValidationError{Field: "area"}
	case storage == "":
		return s.Snapshot(), &domain.ValidationError{Field: "storage location"}
	case name == "":
		return s.Snapshot(), &domain.ValidationError{Field: "item name"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	a := cur.Area(area)
	if a == nil {
		return snapshotOf(cur), &domain.NotFoundError{Kind: "area", Name: area}
	}
	if a.Storage(storage) == nil {
		return snapshotOf(cur), &domain.NotFoundError{Kind: "storage location", Name: storage}
	}

	var key string
	if upload != nil && len(upload.Data) > 0 {
		key = imagestore.Key(area, storage, name, imagestore.EnsureExt(upload.Filename, upload.MimeType))
		if err := s.images.Save(ctx, key, upload.MimeType, bytes.NewReader(upload.Data)); err != nil {
			return snapshotOf(cur), fmt.Errorf("failed to save image: %w", err)
		}
		s.logger.Debug("image saved", "key", key, "bytes", len(upload.Data))
	}

	next := cur.Clone()
	st := next.Area(area).Storage(storage)
	st.Items = append(st.Items, domain.NamedItem(name, key))
	if err := s.commit(ctx, next); err != nil {
		// A key already owned by another item was overwritten, not created.
		if key != "" && !cur.ReferencesImage(key) {
			if derr := s.images.Delete(ctx, key); derr != nil {
				s.logger.Error("failed to roll back image after save error", "key", key, "error", derr)
			}
		}
		return snapshotOf(cur), err
	}
	s.logger.Info("item added", "area", area, "storage", storage, "item", name, "image", key)
	return snapshotOf(next), nil
}

// DeleteItems removes one item per selection, matching the first item with
// the selected name. Storage locations emptied by the call are removed, then
// areas emptied by that. Any selection that cannot be resolved aborts the
// whole call without changes.
func (s *InventoryService) DeleteItems(ctx context.Context, selections []domain.Selection) (snap Snapshot, err error) {
	defer func() { s.metrics.ObserveOp("delete_items", err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	if len(selections) == 0 {
		return snapshotOf(cur), nil
	}

	type location struct{ area, storage string }
	var (
		next    = cur.Clone()
		touched []location
		images  []string
	)
	for _, sel := range selections {
		a := next.Area(sel.Area)
		if a == nil {
			return snapshotOf(cur), &domain.NotFoundError{Kind: "area", Name: sel.Area}
		}
		st := a.Storage(sel.Storage)
		if st == nil {
			return snapshotOf(cur), &domain.NotFoundError{Kind: "storage location", Name: sel.Storage}
		}
		it, ok := st.RemoveFirst(sel.Item)
		if !ok {
			return snapshotOf(cur), &domain.NotFoundError{Kind: "item", Name: sel.Item}
		}
		if it.HasImage() {
			images = append(images, it.Image())
		}
		touched = append(touched, location{sel.Area, sel.Storage})
	}

	for _, loc := range touched {
		a := next.Area(loc.area)
		if a == nil {
			continue
		}
		if st := a.Storage(loc.storage); st != nil && len(st.Items) == 0 {
			a.RemoveStorage(loc.storage)
			s.logger.Debug("empty storage pruned", "area", loc.area, "storage", loc.storage)
		}
	}
	for _, loc := range touched {
		if a := next.Area(loc.area); a != nil && len(a.Storages) == 0 {
			next.RemoveArea(loc.area)
			s.logger.Debug("empty area pruned", "area", loc.area)
		}
	}

	if err := s.commit(ctx, next); err != nil {
		return snapshotOf(cur), err
	}
	s.logger.Info("items deleted", "count", len(selections))
	s.deleteImages(ctx, "delete_items", next, images)
	return snapshotOf(next), nil
}

// deleteImages removes images no longer owned by any item in inv. Failures
// are logged and counted; the inventory change already happened.
func (s *InventoryService) deleteImages(ctx context.Context, op string, inv *domain.Inventory, keys []string) {
	for _, key := range keys {
		if inv.ReferencesImage(key) {
			continue
		}
		if err := s.images.Delete(ctx, key); err != nil {
			if errors.Is(err, imagestore.ErrNotFound) {
				s.logger.Warn("image already missing", "op", op, "key", key)
				continue
			}
			s.logger.Error("failed to delete image", "op", op, "key", key, "error", err)
			s.metrics.ImageCleanupFailed(op)
		}
	}
}

// OpenImage returns the image owned by an item. Keys no item references are
// reported as not found even if a file exists.
func (s *InventoryService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.current().ReferencesImage(key) {
		return nil, "", &domain.NotFoundError{Kind: "image", Name: key}
	}
	rc, mimeType, err := s.images.Get(ctx, key)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotFound) {
			return nil, "", &domain.NotFoundError{Kind: "image", Name: key}
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	return rc, mimeType, nil
}

// VisionEnabled reports whether SuggestName has a backend.
func (s *InventoryService) VisionEnabled() bool {
	return s.vision != nil
}

// SuggestName asks the vision backend for an item name for the photo.
func (s *InventoryService) SuggestName(ctx context.Context, imageData []byte, mimeType string) (name string, err error) {
	defer func() { s.metrics.ObserveOp("suggest_name", err) }()

	if s.vision == nil {
		return "", ErrVisionDisabled
	}
	s.logger.Info("vision suggestion started", "mime_type", mimeType, "bytes", len(imageData))
	name, err = s.vision.Suggest(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return "", fmt.Errorf("failed to suggest name: %w", err)
	}
	s.logger.Info("vision suggestion complete", "name", name)
	return name, nil
}
