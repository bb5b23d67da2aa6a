package services

import (
	"errors"
	"fmt"
)

// Publish failure stages. A *PublishError carries exactly one of these.
var (
	ErrRecordMissing         = errors.New("record missing")
	ErrCompositionFailed     = errors.New("composition failed")
	ErrUploadFailed          = errors.New("upload failed")
	ErrLinkWriteFailed       = errors.New("link write failed")
	ErrImageResolutionFailed = errors.New("image resolution failed")
)

// ErrRefreshInProgress rejects a batch refresh while another one is running.
var ErrRefreshInProgress = errors.New("a report refresh is already in progress")

var stageNames = map[error]string{
	ErrRecordMissing:         "record_missing",
	ErrCompositionFailed:     "composition_failed",
	ErrUploadFailed:          "upload_failed",
	ErrLinkWriteFailed:       "link_write_failed",
	ErrImageResolutionFailed: "image_resolution_failed",
}

// PublishError reports which stage of a publish failed for which key.
// errors.Is matches both the stage sentinel and the underlying cause.
type PublishError struct {
	Key   string
	Stage error
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v: %v", e.Key, e.Stage, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}

// StageName returns a stable identifier for the failed stage of err, or
// "unknown" when err is not a publish failure.
func StageName(err error) string {
	var pe *PublishError
	if errors.As(err, &pe) {
		if name, ok := stageNames[pe.Stage]; ok {
			return name
		}
	}
	return "unknown"
}
