package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/workorderflow/internal/services"
)

// Resolver resolves an object path to a redirect or its bytes.
type Resolver interface {
	Resolve(ctx context.Context, objectPath string) (*services.Resolution, error)
}

// Resolve handles GET ?path=<object>.
func Resolve(rs Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objectPath := r.URL.Query().Get("path")
		res, err := rs.Resolve(r.Context(), objectPath)
		if err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				slog.Error("Failed to resolve file.", "path", objectPath, "error", err)
			}
			writeError(w, code, err.Error())
			return
		}
		if res.RedirectURL != "" {
			http.Redirect(w, r, res.RedirectURL, http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Data); err != nil {
			slog.Error("Failed to write file.", "path", objectPath, "error", err)
		}
	}
}
