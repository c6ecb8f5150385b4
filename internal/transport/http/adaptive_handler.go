package http

import (
	"context"
	"net/http"

	"pathfinder-service/internal/adaptive"
	"pathfinder-service/internal/app"
	"pathfinder-service/internal/domain"
)

// AdaptiveBackend is the scoring engine served on the adaptive routes.
type AdaptiveBackend interface {
	app.SessionStarter
	app.AdaptiveService
	Finalize(ctx context.Context, sessionID string) (map[domain.Trait]float64, error)
}

// AdaptiveHandler serves the session, item selection, scoring and recommendation endpoints.
type AdaptiveHandler struct {
	backend     AdaptiveBackend
	recommender app.Recommender
}

func NewAdaptiveHandler(backend AdaptiveBackend, recommender app.Recommender) *AdaptiveHandler {
	return &AdaptiveHandler{backend: backend, recommender: recommender}
}

func (h *AdaptiveHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	sid, err := h.backend.StartSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adaptive.StartSessionResponse{SessionID: sid})
}

func (h *AdaptiveHandler) NextItem(w http.ResponseWriter, r *http.Request) {
	var req adaptive.NextItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	item, err := h.backend.NextItem(r.Context(), req.SessionID, req.Block)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adaptive.NextItemResponse{Item: item})
}

func (h *AdaptiveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req adaptive.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	res, err := h.backend.SubmitResponse(r.Context(), req.SessionID, req.Block, req.ItemID, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdaptiveHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req adaptive.FinalizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	scores, err := h.backend.Finalize(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adaptive.FinalizeResponse{Subscores: scores})
}

func (h *AdaptiveHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req adaptive.RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	recs, err := h.recommender.Recommend(r.Context(), req.Subscores)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
