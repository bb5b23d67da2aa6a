package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

// Refresher runs one batch refresh.
type Refresher interface {
	Refresh(ctx context.Context, statuses []models.Status) (*services.Summary, error)
}

// Refresh handles POST {"statuses": ["CLOSE", "PENDING"]}. A ?status=
// query parameter is accepted as a comma separated alternative.
func Refresh(rf Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		statuses, err := refreshStatuses(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		summary, err := rf.Refresh(r.Context(), statuses)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summary.Response())
	}
}

func refreshStatuses(w http.ResponseWriter, r *http.Request) ([]models.Status, error) {
	if raw := r.URL.Query().Get("status"); raw != "" {
		return models.ParseStatuses(raw)
	}
	var req models.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, fmt.Errorf("could not parse JSON")
	}
	if len(req.Statuses) == 0 {
		return nil, fmt.Errorf("at least one status is required")
	}
	for _, st := range req.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q", st)
		}
	}
	return req.Statuses, nil
}
