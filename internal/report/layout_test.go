package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrg = "PT. CONTOH"

func fourPhotos() Photos {
	return Photos{
		{Data: []byte{1}, Format: "png", Width: 800, Height: 600},
		{Data: []byte{2}, Format: "jpeg", Width: 600, Height: 800},
		{Data: []byte{3}, Format: "png", Width: 100, Height: 100},
		{Data: []byte{4}, Format: "webp", Width: 1920, Height: 1080},
	}
}

func TestLayoutPlacesAllPhotosInTheirCells(t *testing.T) {
	doc := Layout(WorkReport(testOrg), sampleOrder(models.StatusOpen), fourPhotos())

	require.Len(t, doc.Pages, 2)
	images := doc.Pages[1].Images
	require.Len(t, images, 4)
	for i, im := range images {
		assert.Equal(t, i+1, im.Slot)
		cell, ok := doc.Box(fmt.Sprintf("photo:%d", im.Slot))
		require.True(t, ok)
		assert.Empty(t, cell.Fill, "slot %d should not be a placeholder", im.Slot)
		assert.GreaterOrEqual(t, im.X, cell.X)
		assert.GreaterOrEqual(t, im.Y, cell.Y)
		assert.LessOrEqual(t, im.X+im.W, cell.X+cell.W+1e-9)
		assert.LessOrEqual(t, im.Y+im.H, cell.Y+cell.H+1e-9)
	}
}

func TestLayoutUsesPlaceholdersWithoutPhotos(t *testing.T) {
	doc := Layout(WorkReport(testOrg), sampleOrder(models.StatusOpen), Photos{})

	require.Len(t, doc.Pages, 2)
	assert.Empty(t, doc.Pages[1].Images)
	for slot := 1; slot <= models.PhotoSlots; slot++ {
		cell, ok := doc.Box(fmt.Sprintf("photo:%d", slot))
		require.True(t, ok)
		assert.Equal(t, placeholderColor, cell.Fill)
	}
}

func TestLayoutGridIsFixed(t *testing.T) {
	with := Layout(WorkReport(testOrg), sampleOrder(models.StatusOpen), fourPhotos())
	without := Layout(WorkReport(testOrg), sampleOrder(models.StatusOpen), Photos{})
	for slot := 1; slot <= models.PhotoSlots; slot++ {
		a, _ := with.Box(fmt.Sprintf("photo:%d", slot))
		b, _ := without.Box(fmt.Sprintf("photo:%d", slot))
		assert.Equal(t, [4]float64{a.X, a.Y, a.W, a.H}, [4]float64{b.X, b.Y, b.W, b.H})
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	wo := sampleOrder(models.StatusClose)
	photos := fourPhotos()
	assert.Equal(t, Layout(InspectionReport(testOrg), wo, photos), Layout(InspectionReport(testOrg), wo, photos))
}

func TestNarrativeHeightIsAffineInLineCount(t *testing.T) {
	baseline := sampleOrder(models.StatusOpen)
	baseline.Resolution = models.Ptr(linesOf(1))
	ref := Layout(WorkReport(testOrg), baseline, Photos{})

	for n := 1; n <= MaxNarrativeLines; n++ {
		wo := sampleOrder(models.StatusOpen)
		wo.Resolution = models.Ptr(linesOf(n))
		doc := Layout(WorkReport(testOrg), wo, Photos{})

		sec, ok := doc.Section("narrative:resolution")
		require.True(t, ok)
		assert.Equal(t, float64(n)*LineHeight+NarrativePadding, sec.Height, "n=%d", n)

		box, ok := doc.Box("narrative:resolution")
		require.True(t, ok)
		assert.Equal(t, sec.Height, box.H)

		for _, name := range []string{"header", "details", "checklist", "narrative:problem"} {
			want, _ := ref.Section(name)
			got, ok := doc.Section(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, "section %s moved for n=%d", name, n)
		}
	}
}

func TestNarrativesStayAboveSignatures(t *testing.T) {
	wo := sampleOrder(models.StatusOpen)
	wo.Problem = models.Ptr(linesOf(40))
	wo.Resolution = models.Ptr(linesOf(40))
	doc := Layout(WorkReport(testOrg), wo, Photos{})

	res, _ := doc.Section("narrative:resolution")
	sig, _ := doc.Section("signatures")
	assert.Less(t, res.Top+res.Height, sig.Top)
}

func TestNarrativeLines(t *testing.T) {
	assert.Equal(t, []string{Placeholder}, NarrativeLines("  "))
	assert.Equal(t, []string{"a", "", "b"}, NarrativeLines("a\r\n\r\nb"))

	long := strings.Repeat("kabel ", 40)
	wrapped := NarrativeLines(long)
	assert.Greater(t, len(wrapped), 1)
	for _, ln := range wrapped {
		assert.LessOrEqual(t, len(ln), narrativeWrap)
	}

	capped := NarrativeLines(linesOf(MaxNarrativeLines + 5))
	require.Len(t, capped, MaxNarrativeLines)
	assert.True(t, strings.HasSuffix(capped[MaxNarrativeLines-1], "..."))
}

func TestAbsentFieldsRenderAsPlaceholder(t *testing.T) {
	wo := &models.WorkOrder{ID: "bare", Status: models.StatusOpen}
	doc := Layout(WorkReport(testOrg), wo, Photos{})

	var values []string
	for _, txt := range doc.Pages[0].Texts {
		values = append(values, txt.Value)
	}
	assert.Contains(t, values, "No SPK: -")
	assert.Contains(t, values, "Lokasi: -")
	assert.Contains(t, values, "Catatan: -")
}

func TestCatalogPicksVariantByStatus(t *testing.T) {
	c := DefaultCatalog(testOrg)
	assert.Equal(t, "LAPORAN KERJA", c.For(sampleOrder(models.StatusOpen)).Title)
	assert.Equal(t, "BERITA ACARA PEMERIKSAAN CCTV", c.For(sampleOrder(models.StatusClose)).Title)
	assert.Equal(t, "BERITA ACARA PEMERIKSAAN CCTV", c.For(sampleOrder(models.StatusPending)).Title)

	openOnly := Catalog{Open: WorkReport(testOrg)}
	assert.Equal(t, "LAPORAN KERJA", openOnly.For(sampleOrder(models.StatusClose)).Title)
}

func TestTemplateValidate(t *testing.T) {
	require.NoError(t, WorkReport(testOrg).Validate())
	require.NoError(t, InspectionReport(testOrg).Validate())

	tpl := WorkReport("")
	assert.Error(t, tpl.Validate())

	tpl = WorkReport(testOrg)
	tpl.Checklist = append(tpl.Checklist, ChecklistRow{Item: "extra", Value: func(*models.WorkOrder) string { return "" }})
	assert.Error(t, tpl.Validate())

	tpl = WorkReport(testOrg)
	tpl.Narratives = append(tpl.Narratives, tpl.Narratives[0])
	assert.Error(t, tpl.Validate())
}
