package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

// Publisher publishes a report, or rewrites only its link.
type Publisher interface {
	Publish(ctx context.Context, key string) (string, error)
	WriteLink(ctx context.Context, key string) (string, error)
}

// Publish handles POST {"workOrderId": ..., "linkOnly": ...}.
func Publish(p Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req models.PublishRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse JSON")
			return
		}
		req.WorkOrderID = strings.TrimSpace(req.WorkOrderID)
		if req.WorkOrderID == "" {
			writeError(w, http.StatusBadRequest, "workOrderId is required")
			return
		}

		publish := p.Publish
		if req.LinkOnly {
			publish = p.WriteLink
		}
		link, err := publish(r.Context(), req.WorkOrderID)
		if err != nil {
			writeJSON(w, statusFor(err), models.PublishResponse{
				Status:      "FAILED",
				WorkOrderID: req.WorkOrderID,
				Stage:       services.StageName(err),
				Error:       err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, models.PublishResponse{
			Status:      "SUCCESS",
			WorkOrderID: req.WorkOrderID,
			ReportLink:  link,
		})
	}
}
