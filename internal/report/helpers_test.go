package report

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func sampleOrder(status models.Status) *models.WorkOrder {
	return &models.WorkOrder{
		ID:            "wo-1",
		SPKNumber:     models.Ptr("SPK/2025/001"),
		Location:      models.Ptr("Cabang Sudirman"),
		AssignedTo:    models.Ptr("E42"),
		Type:          models.TypePM,
		Status:        status,
		CreatedAt:     time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC),
		StorageDevice: models.Ptr("2TB"),
		FrameRate:     models.Ptr("25"),
		ChannelCount:  models.Ptr(int64(16)),
		Resolution:    models.Ptr("Backup selesai."),
	}
}

func linesOf(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "baris"
	}
	return strings.Join(parts, "\n")
}
