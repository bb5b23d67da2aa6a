package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Services bundles everything the dashboard server exposes.
type Services struct {
	Publisher Publisher
	Refresher Refresher
	Resolver  Resolver
	View      View
	Now       func() time.Time
}

// NewRouter mounts every handler on one router:
//
//	POST /reports/publish
//	POST /reports/refresh
//	GET  /functions/file?path=
//	GET  /workorders/export
//	GET  /workorders/stats
func NewRouter(s Services) *mux.Router {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	r := mux.NewRouter()
	r.Handle("/reports/publish", Publish(s.Publisher)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/reports/refresh", Refresh(s.Refresher)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/functions/file", Resolve(s.Resolver)).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/workorders/export", Export(s.View, now)).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/workorders/stats", Stats(s.View, now)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet, http.MethodOptions)
	r.Use(corsMiddleware)
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Employee-No, X-Role")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
