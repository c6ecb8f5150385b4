package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pathfinder-service/internal/infra/memory"
)

// MediaHandler serves finished recordings by id.
type MediaHandler struct {
	store *memory.MediaStore
}

func NewMediaHandler(store *memory.MediaStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Data)))
	_, _ = w.Write(rec.Data)
}
