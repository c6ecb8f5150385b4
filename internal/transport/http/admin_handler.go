package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/auth"
	"pathfinder-service/internal/domain"
)

// AdminHandler serves login and question CRUD for the admin console.
type AdminHandler struct {
	auth      *auth.Service
	questions *app.QuestionService
}

func NewAdminHandler(authSvc *auth.Service, questions *app.QuestionService) *AdminHandler {
	return &AdminHandler{auth: authSvc, questions: questions}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	resp, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequireAdmin rejects requests without an admin bearer token.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.auth.RequireAdmin(bearerToken(r)); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.questions.List(r.Context(), domain.Block(r.URL.Query().Get("block")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.questions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in app.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	item, err := h.questions.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in app.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	item, err := h.questions.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
