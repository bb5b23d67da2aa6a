package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const exportSheet = "Work Orders"

// ViewFilter narrows and orders a listing the way the work-order tables do.
// From and To are calendar days, both inclusive.
type ViewFilter struct {
	Search     string
	From       *time.Time
	To         *time.Time
	Descending bool
}

// CurrentMonth returns a filter covering the calendar month containing now.
func CurrentMonth(now time.Time) ViewFilter {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, -1)
	return ViewFilter{From: &from, To: &to}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// bounds returns [from, until) for the filter's date range.
func (v ViewFilter) bounds() (from, until *time.Time) {
	if v.From != nil {
		f := startOfDay(*v.From)
		from = &f
	}
	if v.To != nil {
		u := startOfDay(*v.To).AddDate(0, 0, 1)
		until = &u
	}
	return from, until
}

// ApplyView filters orders by location search and created_at range, then
// sorts them by location with a collator. The input slice is not modified.
func ApplyView(orders []models.WorkOrder, v ViewFilter) []models.WorkOrder {
	needle := strings.ToLower(strings.TrimSpace(v.Search))
	from, until := v.bounds()

	out := make([]models.WorkOrder, 0, len(orders))
	for _, wo := range orders {
		if needle != "" {
			if wo.Location == nil || !strings.Contains(strings.ToLower(*wo.Location), needle) {
				continue
			}
		}
		if from != nil || until != nil {
			if wo.CreatedAt.IsZero() {
				continue
			}
			if from != nil && wo.CreatedAt.Before(*from) {
				continue
			}
			if until != nil && !wo.CreatedAt.Before(*until) {
				continue
			}
		}
		out = append(out, wo)
	}

	col := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		a := models.DisplayOr(out[i].Location, "")
		b := models.DisplayOr(out[j].Location, "")
		if v.Descending {
			return col.CompareString(b, a) < 0
		}
		return col.CompareString(a, b) < 0
	})
	return out
}

// MonthlyCount is the number of closed or pending PM and CM orders created
// in one calendar month.
type MonthlyCount struct {
	Month string `json:"month"`
	PM    int    `json:"pm"`
	CM    int    `json:"cm"`
}

// Stats summarises a listing for the dashboard.
type Stats struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
	OpenType map[models.Type]int   `json:"open_by_type"`
	Monthly  [12]MonthlyCount      `json:"monthly"`
}

// ComputeStats counts orders by status, open orders by type, and closed or
// pending PM/CM orders by creation month.
func ComputeStats(orders []models.WorkOrder) Stats {
	s := Stats{
		Total:    len(orders),
		ByStatus: map[models.Status]int{},
		OpenType: map[models.Type]int{},
	}
	for _, st := range []models.Status{models.StatusOpen, models.StatusPending, models.StatusClose} {
		s.ByStatus[st] = 0
	}
	for _, t := range models.Types {
		s.OpenType[t] = 0
	}
	for i := range s.Monthly {
		s.Monthly[i].Month = time.Month(i + 1).String()[:3]
	}

	for _, wo := range orders {
		s.ByStatus[wo.Status]++
		if wo.Status == models.StatusOpen {
			s.OpenType[wo.Type]++
		}
		if wo.CreatedAt.IsZero() {
			continue
		}
		if wo.Status != models.StatusClose && wo.Status != models.StatusPending {
			continue
		}
		m := &s.Monthly[wo.CreatedAt.Month()-1]
		switch wo.Type {
		case models.TypePM:
			m.PM++
		case models.TypeCM:
			m.CM++
		}
	}
	return s
}

// WorkOrderView lists work orders on behalf of a session.
type WorkOrderView struct {
	records RecordStore
	logger  *slog.Logger
}

// NewWorkOrderView creates a view backed by the Firestore record store.
func NewWorkOrderView(ctx context.Context) (*WorkOrderView, error) {
	config, err := loadBaseConfig(false)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	records, err := newRecordStore(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewWorkOrderViewWithDeps(records, nil), nil
}

// NewWorkOrderViewWithDeps wires a view from an explicit store. A nil logger
// uses slog.Default().
func NewWorkOrderViewWithDeps(records RecordStore, logger *slog.Logger) *WorkOrderView {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkOrderView{records: records, logger: logger}
}

// List returns the orders the session may see, filtered and sorted.
func (v *WorkOrderView) List(ctx context.Context, session models.Session, statuses []models.Status, filter ViewFilter) ([]models.WorkOrder, error) {
	from, until := filter.bounds()
	q := models.Query{Statuses: statuses, CreatedAfter: from}
	if until != nil {
		last := until.Add(-time.Nanosecond)
		q.CreatedBefore = &last
	}
	q, err := session.Scope(q)
	if err != nil {
		return nil, err
	}
	orders, err := v.records.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	return ApplyView(orders, filter), nil
}

// Stats lists the session's orders and summarises them.
func (v *WorkOrderView) Stats(ctx context.Context, session models.Session, filter ViewFilter) (Stats, error) {
	orders, err := v.List(ctx, session, nil, filter)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(orders), nil
}

var exportHeaders = []string{
	"No SPK", "Order Date", "Lokasi", "Hardisk", "FPS", "DVR Condition",
	"Camera Condition", "UPS", "Alarm", "Panic Button", "Type", "Status", "Link BA",
}

func exportRow(wo *models.WorkOrder) []any {
	return []any{
		models.DisplayOr(wo.SPKNumber, ""),
		models.DisplayOr(&wo.CreatedAt, ""),
		models.DisplayOr(wo.Location, ""),
		models.DisplayOr(wo.StorageDevice, ""),
		models.DisplayOr(wo.FrameRate, ""),
		models.DisplayOr(wo.RecorderState, ""),
		models.DisplayOr(wo.CameraState, ""),
		models.DisplayOr(wo.BackupPower, ""),
		models.DisplayOr(wo.Alarm, ""),
		models.DisplayOr(wo.PanicButton, ""),
		string(wo.Type),
		string(wo.Status),
		models.DisplayOr(wo.ReportLink, ""),
	}
}

// ExportXLSX writes orders, in the given order, to a single-sheet workbook.
func (v *WorkOrderView) ExportXLSX(orders []models.WorkOrder) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := writeExportSheet(f, exportSheet, orders); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	v.logger.Info("Work orders exported.", "rows", len(orders), "elapsedMs", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// writeExportSheet fills sheet with a styled header row and one row per order.
func writeExportSheet(f *excelize.File, sheet string, orders []models.WorkOrder) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx header cell %d: %w", i+1, err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header %q: %w", h, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return fmt.Errorf("xlsx header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	for r := range orders {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("xlsx row %d: %w", r+2, err)
		}
		row := exportRow(&orders[r])
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", r+2, err)
		}
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{
		{"A", "B", 18},
		{"C", "C", 36},
		{"D", "L", 16},
		{"M", "M", 60},
	} {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("xlsx column width %s:%s: %w", w.from, w.to, err)
		}
	}
	return nil
}
