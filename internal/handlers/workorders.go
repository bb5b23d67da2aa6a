package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

const (
	headerEmployeeNo = "X-Employee-No"
	headerRole       = "X-Role"
	dateLayout       = "2006-01-02"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// View is the read side of the work-order table.
type View interface {
	List(ctx context.Context, session models.Session, statuses []models.Status, filter services.ViewFilter) ([]models.WorkOrder, error)
	Stats(ctx context.Context, session models.Session, filter services.ViewFilter) (services.Stats, error)
	ExportXLSX(orders []models.WorkOrder) ([]byte, error)
}

// SessionFromRequest reads the caller's identity. Authentication happens in
// front of this service; it forwards the employee number and role as headers.
func SessionFromRequest(r *http.Request) models.Session {
	return models.Session{
		EmployeeNo: strings.TrimSpace(r.Header.Get(headerEmployeeNo)),
		Role:       strings.TrimSpace(r.Header.Get(headerRole)),
	}
}

// parseFilter reads q, from, to and sort. With neither bound given the
// filter defaults to the current month.
func parseFilter(r *http.Request, now time.Time) (services.ViewFilter, error) {
	q := r.URL.Query()
	filter := services.ViewFilter{Search: q.Get("q")}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			return filter, fmt.Errorf("invalid %s date %q", name, raw)
		}
		*dst = &t
	}
	if filter.From == nil && filter.To == nil && q.Get("all") == "" {
		month := services.CurrentMonth(now)
		filter.From, filter.To = month.From, month.To
	}
	switch strings.ToLower(q.Get("sort")) {
	case "", "asc":
	case "desc":
		filter.Descending = true
	default:
		return filter, fmt.Errorf("invalid sort %q", q.Get("sort"))
	}
	return filter, nil
}

// Export handles GET ?status=&q=&from=&to=&sort=&format=xlsx|json.
func Export(v View, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r, now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var statuses []models.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			if statuses, err = models.ParseStatuses(raw); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		orders, err := v.List(r.Context(), SessionFromRequest(r), statuses, filter)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		switch strings.ToLower(r.URL.Query().Get("format")) {
		case "", "xlsx":
			data, err := v.ExportXLSX(orders)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			name := "workorders-" + now().Format("20060102") + ".xlsx"
			w.Header().Set("Content-Type", xlsxContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		case "json":
			if orders == nil {
				orders = []models.WorkOrder{}
			}
			writeJSON(w, http.StatusOK, orders)
		default:
			writeError(w, http.StatusBadRequest, "format must be xlsx or json")
		}
	}
}

// Stats handles GET ?q=&from=&to= and returns dashboard counts.
func Stats(v View, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r, now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		stats, err := v.Stats(r.Context(), SessionFromRequest(r), filter)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
