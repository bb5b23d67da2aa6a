package report

import (
	"fmt"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
)

// Placeholder is substituted for any absent value.
const Placeholder = "-"

// Field is one labelled value in the record-detail section.
type Field struct {
	Label string
	Value func(*models.WorkOrder) string
}

// ChecklistRow is one fixed row of the equipment checklist table.
type ChecklistRow struct {
	Item  string
	Value func(*models.WorkOrder) string
}

// Narrative is a free-text box whose height follows its line count.
type Narrative struct {
	Name  string
	Label string
	Value func(*models.WorkOrder) string
}

// Template declares the content of one report variant. The layout engine
// owns every position; a template only says what goes where.
type Template struct {
	Name             string
	Organization     string
	Title            string
	DetailColumns    [][]Field
	ChecklistHeaders [3]string
	Checklist        []ChecklistRow
	Narratives       []Narrative
	Signatures       [2]string
	PhotoTitle       string
}

// Validate checks that the template fits the fixed page geometry.
func (t *Template) Validate() error {
	if t.Title == "" || t.Organization == "" {
		return fmt.Errorf("template %q: title and organization are required", t.Name)
	}
	if len(t.DetailColumns) == 0 || len(t.DetailColumns) > len(detailColumnX) {
		return fmt.Errorf("template %q: need 1..%d detail columns, got %d", t.Name, len(detailColumnX), len(t.DetailColumns))
	}
	for i, col := range t.DetailColumns {
		if len(col) > detailRows {
			return fmt.Errorf("template %q: detail column %d has %d fields, max %d", t.Name, i+1, len(col), detailRows)
		}
	}
	if len(t.Checklist) == 0 || len(t.Checklist) > maxChecklistRows {
		return fmt.Errorf("template %q: need 1..%d checklist rows, got %d", t.Name, maxChecklistRows, len(t.Checklist))
	}
	if len(t.Narratives) == 0 || len(t.Narratives) > maxNarratives {
		return fmt.Errorf("template %q: need 1..%d narratives, got %d", t.Name, maxNarratives, len(t.Narratives))
	}
	return nil
}

func str(get func(*models.WorkOrder) *string) func(*models.WorkOrder) string {
	return func(wo *models.WorkOrder) string { return models.DisplayOr(get(wo), Placeholder) }
}

func count(get func(*models.WorkOrder) *int64) func(*models.WorkOrder) string {
	return func(wo *models.WorkOrder) string { return models.DisplayOr(get(wo), Placeholder) }
}

func when(get func(*models.WorkOrder) *time.Time) func(*models.WorkOrder) string {
	return func(wo *models.WorkOrder) string { return models.DisplayOr(get(wo), Placeholder) }
}

func createdAt(wo *models.WorkOrder) string {
	return models.DisplayOr(&wo.CreatedAt, Placeholder)
}

func workType(wo *models.WorkOrder) string {
	s := string(wo.Type)
	return models.DisplayOr(&s, Placeholder)
}

func workStatus(wo *models.WorkOrder) string {
	s := string(wo.Status)
	return models.DisplayOr(&s, Placeholder)
}

// defaultProblem mirrors what technicians write for routine data checks
// when the problem field was left empty.
func defaultProblem(wo *models.WorkOrder) string {
	if wo.Problem != nil && *wo.Problem != "" {
		return *wo.Problem
	}
	return fmt.Sprintf("Backup Data / Cek Data CCTV (%s)\nJumlah Channel DVR: %s\nJumlah Kamera: %s",
		models.DisplayOr(wo.Location, Placeholder),
		models.DisplayOr(wo.ChannelCount, Placeholder),
		models.DisplayOr(wo.CameraCount, Placeholder),
	)
}

var standardChecklist = []ChecklistRow{
	{Item: "Hardisk", Value: str(func(w *models.WorkOrder) *string { return w.StorageDevice })},
	{Item: "FPS", Value: str(func(w *models.WorkOrder) *string { return w.FrameRate })},
	{Item: "Kondisi DVR", Value: str(func(w *models.WorkOrder) *string { return w.RecorderState })},
	{Item: "Kondisi Kamera", Value: str(func(w *models.WorkOrder) *string { return w.CameraState })},
	{Item: "UPS", Value: str(func(w *models.WorkOrder) *string { return w.BackupPower })},
	{Item: "Alarm", Value: str(func(w *models.WorkOrder) *string { return w.Alarm })},
	{Item: "Panic Button", Value: str(func(w *models.WorkOrder) *string { return w.PanicButton })},
	{Item: "Jumlah Channel DVR", Value: count(func(w *models.WorkOrder) *int64 { return w.ChannelCount })},
	{Item: "Jumlah Kamera", Value: count(func(w *models.WorkOrder) *int64 { return w.CameraCount })},
	{Item: "Model", Value: str(func(w *models.WorkOrder) *string { return w.Model })},
}

var standardDetails = [][]Field{
	{
		{Label: "No SPK", Value: str(func(w *models.WorkOrder) *string { return w.SPKNumber })},
		{Label: "Tanggal Order", Value: createdAt},
		{Label: "Lokasi", Value: str(func(w *models.WorkOrder) *string { return w.Location })},
		{Label: "Dilaporkan Oleh", Value: str(func(w *models.WorkOrder) *string { return w.ReportedBy })},
	},
	{
		{Label: "Waktu Problem", Value: when(func(w *models.WorkOrder) *time.Time { return w.ProblemAt })},
		{Label: "Waktu Mulai", Value: when(func(w *models.WorkOrder) *time.Time { return w.StartedAt })},
		{Label: "Waktu Selesai", Value: when(func(w *models.WorkOrder) *time.Time { return w.FinishedAt })},
		{Label: "Teknisi", Value: str(func(w *models.WorkOrder) *string { return w.AssignedTo })},
	},
	{
		{Label: "Type", Value: workType},
		{Label: "Status", Value: workStatus},
		{Label: "Type Mesin", Value: str(func(w *models.WorkOrder) *string { return w.MachineType })},
		{Label: "Catatan", Value: str(func(w *models.WorkOrder) *string { return w.CustomerNote })},
	},
}

// WorkReport is the field work report issued while an order is open.
func WorkReport(organization string) *Template {
	return &Template{
		Name:             "work-report",
		Organization:     organization,
		Title:            "LAPORAN KERJA",
		DetailColumns:    standardDetails,
		ChecklistHeaders: [3]string{"No", "Perangkat", "Kondisi / Nilai"},
		Checklist:        standardChecklist,
		Narratives: []Narrative{
			{Name: "problem", Label: "PERMASALAHAN", Value: defaultProblem},
			{Name: "resolution", Label: "PENYELESAIAN", Value: str(func(w *models.WorkOrder) *string { return w.Resolution })},
		},
		Signatures: [2]string{"Mengetahui Pelanggan", organization},
		PhotoTitle: "DOKUMENTASI PEKERJAAN",
	}
}

// InspectionReport is the inspection minutes issued once an order is
// pending or closed.
func InspectionReport(organization string) *Template {
	return &Template{
		Name:             "inspection-report",
		Organization:     organization,
		Title:            "BERITA ACARA PEMERIKSAAN CCTV",
		DetailColumns:    standardDetails,
		ChecklistHeaders: [3]string{"No", "Pemeriksaan", "Hasil"},
		Checklist:        standardChecklist,
		Narratives: []Narrative{
			{Name: "problem", Label: "PERMASALAHAN", Value: str(func(w *models.WorkOrder) *string { return w.Problem })},
			{Name: "resolution", Label: "PENYELESAIAN", Value: str(func(w *models.WorkOrder) *string { return w.Resolution })},
		},
		Signatures: [2]string{"Mengetahui Pelanggan", organization},
		PhotoTitle: "DOKUMENTASI",
	}
}

// Catalog picks the template for a work order.
type Catalog struct {
	Open   *Template
	Closed *Template
}

// DefaultCatalog returns the two standard variants for organization.
func DefaultCatalog(organization string) Catalog {
	return Catalog{Open: WorkReport(organization), Closed: InspectionReport(organization)}
}

// For returns the variant matching the order's status.
func (c Catalog) For(wo *models.WorkOrder) *Template {
	if wo.Status == models.StatusOpen || c.Closed == nil {
		return c.Open
	}
	return c.Closed
}
