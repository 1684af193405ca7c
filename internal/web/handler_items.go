package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vbonduro/homeinv/internal/domain"
)

// handleDeleteItems deletes every checked row. Each "row" value is the
// URL-encoded area, storage and item of one table row.
func (s *Server) handleDeleteItems(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderInventory(w, r, http.StatusBadRequest, s.failView("invalid form"))
		return
	}

	values := r.PostForm["row"]
	if len(values) == 0 {
		view := s.newView(s.service.Snapshot())
		view.Notice = "No items selected"
		s.renderInventory(w, r, http.StatusOK, view)
		return
	}

	selections := make([]domain.Selection, 0, len(values))
	for _, v := range values {
		sel, err := parseSelection(v)
		if err != nil {
			s.renderInventory(w, r, http.StatusBadRequest, s.failView(err.Error()))
			return
		}
		selections = append(selections, sel)
	}

	snap, err := s.service.DeleteItems(r.Context(), selections)
	s.respond(w, r, snap, err, fmt.Sprintf("Deleted %d item(s)", len(selections)))
}

var errRowSelection = errors.New("invalid row selection")

func parseSelection(v string) (domain.Selection, error) {
	q, err := url.ParseQuery(v)
	if err != nil {
		return domain.Selection{}, errRowSelection
	}
	sel := domain.Selection{Area: q.Get("area"), Storage: q.Get("storage"), Item: q.Get("item")}
	// Legacy documents may hold an item with an empty name.
	if sel.Area == "" || sel.Storage == "" || !q.Has("item") {
		return domain.Selection{}, errRowSelection
	}
	return sel, nil
}
