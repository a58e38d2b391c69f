package http

import (
	"net/http"

	"caisse/internal/core"
)

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListInventory(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(items))
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.reports.LowStockItems(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(items))
}

func (s *Server) handleCreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var in core.NewInventoryItem
	if err := s.parser.Parse(w, r, &in); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	item, err := in.ToItem(currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	item, err = s.bookkeeper.CreateInventoryItem(r.Context(), item)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	Created(w, item)
}

func (s *Server) handleGetInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	item, err := lookup(s.store.GetInventoryItem(r.Context(), id, currentUser(r).ID))
	if err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	OK(w, item)
}

func (s *Server) handleUpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	var patch core.InventoryPatch
	if err := s.parser.Parse(w, r, &patch); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	item, err := s.bookkeeper.UpdateInventoryItem(r.Context(), id, currentUser(r).ID, patch)
	if err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	OK(w, item)
}

func (s *Server) handleDeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	if err := s.bookkeeper.DeleteInventoryItem(r.Context(), id, currentUser(r).ID); err != nil {
		writeError(w, r, err, MsgItemNotFound, MsgInternal)
		return
	}
	NoContent(w)
}
