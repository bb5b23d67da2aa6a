package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a work order.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusPending Status = "PENDING"
	StatusClose   Status = "CLOSE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusClose:
		return true
	}
	return false
}

// ParseStatuses turns a comma separated list such as "CLOSE,PENDING" into statuses.
func ParseStatuses(raw string) ([]Status, error) {
	var out []Status
	seen := make(map[Status]bool)
	for _, part := range strings.Split(raw, ",") {
		s := Status(strings.ToUpper(strings.TrimSpace(part)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one status is required")
	}
	return out, nil
}

// Type classifies the kind of field work.
type Type string

const (
	TypePM      Type = "PM"
	TypeCM      Type = "CM"
	TypeInstall Type = "INSTALL"
	TypePullout Type = "PULLOUT"
)

// Types lists every work order type in display order.
var Types = []Type{TypePM, TypeCM, TypeInstall, TypePullout}

// WorkOrder is one CCTV service ticket as stored in Firestore.
// Optional descriptive fields are pointers; a nil value renders as "-".
type WorkOrder struct {
	ID        string    `firestore:"-" json:"id"`
	SPKNumber *string   `firestore:"no_spk" json:"no_spk,omitempty"`
	Type      Type      `firestore:"type" json:"type"`
	Status    Status    `firestore:"status" json:"status"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`

	Location       *string    `firestore:"lokasi" json:"lokasi,omitempty"`
	ReportedBy     *string    `firestore:"dilaporkan_oleh" json:"dilaporkan_oleh,omitempty"`
	AssignedTo     *string    `firestore:"assigned_to" json:"assigned_to,omitempty"`
	ProblemAt      *time.Time `firestore:"problem_at" json:"problem_at,omitempty"`
	StartedAt      *time.Time `firestore:"started_at" json:"started_at,omitempty"`
	FinishedAt     *time.Time `firestore:"finished_at" json:"finished_at,omitempty"`
	Problem        *string    `firestore:"permasalahan" json:"permasalahan,omitempty"`
	Resolution     *string    `firestore:"penyelesaian" json:"penyelesaian,omitempty"`
	CustomerNote   *string    `firestore:"catatan_pelanggan" json:"catatan_pelanggan,omitempty"`
	MachineType    *string    `firestore:"type_mesin" json:"type_mesin,omitempty"`
	Model          *string    `firestore:"model" json:"model,omitempty"`
	StorageDevice  *string    `firestore:"hardisk" json:"hardisk,omitempty"`
	FrameRate      *string    `firestore:"fps" json:"fps,omitempty"`
	RecorderState  *string    `firestore:"dvr_condition" json:"dvr_condition,omitempty"`
	CameraState    *string    `firestore:"camera_condition" json:"camera_condition,omitempty"`
	BackupPower    *string    `firestore:"ups" json:"ups,omitempty"`
	Alarm          *string    `firestore:"alarm" json:"alarm,omitempty"`
	PanicButton    *string    `firestore:"panic_button" json:"panic_button,omitempty"`
	ChannelCount   *int64     `firestore:"jumlah_channel_dvr" json:"jumlah_channel_dvr,omitempty"`
	CameraCount    *int64     `firestore:"jumlah_kamera" json:"jumlah_kamera,omitempty"`

	// ReportLink is written only by the report publisher.
	ReportLink *string `firestore:"link_ba" json:"link_ba,omitempty"`
}

// DisplayTimeLayout is how timestamps appear in reports and exports.
const DisplayTimeLayout = "02/01/2006 15:04"

// DisplayOr renders an optional value, returning fallback when it is nil,
// blank, or a zero time.
func DisplayOr[T any](v *T, fallback string) string {
	if v == nil {
		return fallback
	}
	var s string
	switch x := any(*v).(type) {
	case string:
		s = strings.TrimSpace(x)
	case time.Time:
		if x.IsZero() {
			return fallback
		}
		s = x.Format(DisplayTimeLayout)
	default:
		s = fmt.Sprint(x)
	}
	if s == "" {
		return fallback
	}
	return s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
