package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Lllllllleong/workorderflow/internal/models"
	_ "golang.org/x/image/webp"
)

// Images holds the raw blobs for the photo slots, indexed from slot 1 at
// position 0. A nil entry is an absent photo.
type Images [models.PhotoSlots][]byte

// Count returns how many slots hold data.
func (im Images) Count() int {
	n := 0
	for _, b := range im {
		if len(b) > 0 {
			n++
		}
	}
	return n
}

// Photo is a decoded-enough view of an image blob: its format and pixel size.
type Photo struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Ext returns the file extension pdfcpu expects for the photo's format.
func (p *Photo) Ext() string {
	switch p.Format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	}
	return ""
}

// DecodePhoto inspects data and returns its format and dimensions. Blobs
// that are not JPEG, PNG or WebP, or that have no pixels, are rejected.
func DecodePhoto(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unrecognised image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	p := &Photo{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}
	if p.Ext() == "" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return p, nil
}

// Photos is the decoded counterpart of Images.
type Photos [models.PhotoSlots]*Photo
