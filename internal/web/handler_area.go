package web

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vbonduro/homeinv/internal/domain"
	"github.com/vbonduro/homeinv/internal/logging"
	"github.com/vbonduro/homeinv/internal/service"
)

const maxNameLen = 200

var (
	pageFiles = []string{
		"base.html",
		"pages/inventory.html",
		"partials/inventory_panel.html",
		"partials/storage_options.html",
		"partials/name_input.html",
	}
	panelFiles = []string{
		"partials/inventory_panel.html",
		"partials/storage_options.html",
		"partials/name_input.html",
	}
)

// inventoryView is the data behind the inventory page and its panel.
type inventoryView struct {
	service.Snapshot
	Notice        string
	Error         string
	VisionEnabled bool
	ActiveNav     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.newView(s.service.Snapshot())
	if err := s.renderPage(w, http.StatusOK, view, pageFiles...); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}

func (s *Server) handleAddArea(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if msg := checkNameLen("area name", name); msg != "" {
		s.renderInventory(w, r, http.StatusBadRequest, s.failView(msg))
		return
	}

	snap, err := s.service.AddArea(r.Context(), name)
	s.respond(w, r, snap, err, "Added area "+strings.TrimSpace(name))
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	area := r.FormValue("area")

	snap, err := s.service.DeleteArea(r.Context(), area)
	s.respond(w, r, snap, err, "Deleted area "+strings.TrimSpace(area))
}

func (s *Server) handleAddStorage(w http.ResponseWriter, r *http.Request) {
	area, name := r.FormValue("area"), r.FormValue("name")
	if msg := checkNameLen("storage name", name); msg != "" {
		s.renderInventory(w, r, http.StatusBadRequest, s.failView(msg))
		return
	}

	snap, err := s.service.AddStorage(r.Context(), area, name)
	s.respond(w, r, snap, err, "Added storage location "+strings.TrimSpace(name))
}

func (s *Server) handleDeleteStorage(w http.ResponseWriter, r *http.Request) {
	area, storage := r.FormValue("area"), r.FormValue("storage")

	snap, err := s.service.DeleteStorage(r.Context(), area, storage)
	s.respond(w, r, snap, err, "Deleted storage location "+strings.TrimSpace(storage))
}

// handleStorageOptions returns the <option> list for the area's storage
// locations. Unknown areas yield an empty list.
func (s *Server) handleStorageOptions(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("area")
	storages := s.service.Snapshot().Storages[area]

	if err := s.renderPartial(w, http.StatusOK, "storage_options", storages, "partials/storage_options.html"); err != nil {
		logging.FromContext(r.Context()).Error("render partial failed", "error", err)
	}
}

func (s *Server) newView(snap service.Snapshot) inventoryView {
	return inventoryView{
		Snapshot:      snap,
		VisionEnabled: s.service.VisionEnabled(),
		ActiveNav:     "inventory",
	}
}

func (s *Server) failView(msg string) inventoryView {
	view := s.newView(s.service.Snapshot())
	view.Error = msg
	return view
}

// respond renders the snapshot returned by a service call, with either the
// success notice or the error mapped to its HTTP status.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, snap service.Snapshot, err error, notice string) {
	view := s.newView(snap)
	status := http.StatusOK
	if err != nil {
		status = errorStatus(err)
		view.Error = err.Error()
		if status == http.StatusInternalServerError {
			view.Error = "Something went wrong; the inventory was not changed."
			logging.FromContext(r.Context()).Error("inventory operation failed", "path", r.URL.Path, "error", err)
		}
	} else {
		view.Notice = notice
	}
	s.renderInventory(w, r, status, view)
}

// renderInventory sends just the panel to HTMX requests and the full page
// otherwise.
func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request, status int, view inventoryView) {
	var err error
	if r.Header.Get("HX-Request") == "true" {
		err = s.renderPartial(w, status, "inventory_panel", view, panelFiles...)
	} else {
		err = s.renderPage(w, status, view, pageFiles...)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("render inventory failed", "error", err)
	}
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// checkNameLen returns a user-facing message when name is too long.
func checkNameLen(field, name string) string {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLen {
		return field + " too long"
	}
	return ""
}
