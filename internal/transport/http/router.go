package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"pathfinder-service/internal/adaptive"
)

// Routes holds the handlers mounted by NewRouter. Nil handlers are skipped;
// Media is served under the admin routes and needs Admin.
type Routes struct {
	Adaptive    *AdaptiveHandler
	Admin       *AdminHandler
	Media       *MediaHandler
	Assessments *WSHandler
	// AllowedOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	AllowedOrigin string
}

func NewRouter(routes Routes) http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware(routes.AllowedOrigin))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	if h := routes.Adaptive; h != nil {
		r.HandleFunc(adaptive.PathStartSession, h.StartSession).Methods("POST", "OPTIONS")
		r.HandleFunc(adaptive.PathNextItem, h.NextItem).Methods("POST", "OPTIONS")
		r.HandleFunc(adaptive.PathSubmit, h.Submit).Methods("POST", "OPTIONS")
		r.HandleFunc(adaptive.PathFinalize, h.Finalize).Methods("POST", "OPTIONS")
		r.HandleFunc(adaptive.PathRecommendations, h.Recommend).Methods("POST", "OPTIONS")
	}

	if h := routes.Admin; h != nil {
		r.HandleFunc("/api/auth/login", h.Login).Methods("POST", "OPTIONS")

		admin := r.PathPrefix("/api/admin").Subrouter()
		admin.Use(h.RequireAdmin)
		admin.HandleFunc("/questions", h.List).Methods("GET", "OPTIONS")
		admin.HandleFunc("/questions", h.Create).Methods("POST", "OPTIONS")
		admin.HandleFunc("/questions/{id}", h.Get).Methods("GET", "OPTIONS")
		admin.HandleFunc("/questions/{id}", h.Update).Methods("PUT", "OPTIONS")
		admin.HandleFunc("/questions/{id}", h.Delete).Methods("DELETE", "OPTIONS")

		// Recordings are personal data; only the console may fetch them.
		if m := routes.Media; m != nil {
			admin.HandleFunc("/media/{id}", m.Get).Methods("GET", "OPTIONS")
		}
	}

	if h := routes.Assessments; h != nil {
		r.HandleFunc("/ws/assessment", h.ServeWS).Methods("GET")
	}
	return r
}

func corsMiddleware(origin string) mux.MiddlewareFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
