package report

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/mattn/go-runewidth"
)

// Page geometry in PDF points on A4 portrait. Y grows downwards from the
// top edge; the renderer flips it.
const (
	pageWidth    = 595.0
	pageHeight   = 842.0
	marginX      = 30.0
	contentWidth = pageWidth - 2*marginX

	headerOrgY   = 40.0
	headerTitleY = 58.0
	headerRuleY  = 66.0

	rowHeight    = 14.0
	detailTop    = 76.0
	detailRows   = 4
	detailHeight = detailRows*rowHeight + 12
	detailChars  = 38

	checklistTop     = detailTop + detailHeight + 10
	maxChecklistRows = 10
	checklistChars   = 70

	narrativeTop  = checklistTop + (maxChecklistRows+1)*rowHeight + 12
	narrativeGap  = 8.0
	narrativeWrap = 95
	maxNarratives = 2

	signatureTop    = 690.0
	signatureHeight = 120.0
	signatureGap    = 15.0

	photoTitleY = 40.0
	gridTop     = 60.0
	gridGap     = 15.0
	gridRowGap  = 20.0
	cellLabelH  = 16.0
	cellWidth   = (contentWidth - gridGap) / 2
	cellHeight  = 340.0
)

// Narrative boxes grow with their content: height = lines*LineHeight + NarrativePadding.
const (
	LineHeight        = 12.0
	NarrativePadding  = 24.0
	MaxNarrativeLines = 12
)

const (
	ruleColor        = "#000000"
	headerFillColor  = "#D9D9D9"
	placeholderColor = "#E6E6E6"
)

var (
	detailColumnX    = [...]float64{marginX + 6, marginX + 185, marginX + 364}
	checklistColumnW = [3]float64{30, 180, contentWidth - 210}
)

// Document is the fully positioned report, independent of any PDF library.
type Document struct {
	Template string
	Pages    []*Page
}

// Page holds the positioned elements of one page.
type Page struct {
	Sections []Section
	Boxes    []Box
	Texts    []Text
	Images   []Image
}

// Section records the vertical extent of a named block.
type Section struct {
	Name   string
	Top    float64
	Height float64
}

// Box is a rectangle, filled when Fill is set, outlined when Border is true.
type Box struct {
	Name       string
	X, Y, W, H float64
	Fill       string
	Border     bool
}

// Text is a single line; Y is its baseline.
type Text struct {
	Value string
	X, Y  float64
	Size  int
	Bold  bool
}

// Image places a photo slot (1-based) inside its grid cell.
type Image struct {
	Slot       int
	Photo      *Photo
	X, Y, W, H float64
}

func (p *Page) section(name string, top, height float64) {
	p.Sections = append(p.Sections, Section{Name: name, Top: top, Height: height})
}

func (p *Page) text(value string, x, y float64, size int, bold bool) {
	p.Texts = append(p.Texts, Text{Value: value, X: x, Y: y, Size: size, Bold: bold})
}

func (p *Page) centered(value string, y float64, size int, bold bool) {
	factor := 0.5
	if bold {
		factor = 0.56
	}
	w := float64(runewidth.StringWidth(value)) * float64(size) * factor
	x := (pageWidth - w) / 2
	if x < marginX {
		x = marginX
	}
	p.text(value, x, y, size, bold)
}

func (p *Page) box(b Box) {
	p.Boxes = append(p.Boxes, b)
}

// Section returns the named section from any page.
func (d *Document) Section(name string) (Section, bool) {
	for _, p := range d.Pages {
		for _, s := range p.Sections {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Section{}, false
}

// Box returns the named box from any page.
func (d *Document) Box(name string) (Box, bool) {
	for _, p := range d.Pages {
		for _, b := range p.Boxes {
			if b.Name == name {
				return b, true
			}
		}
	}
	return Box{}, false
}

// NarrativeLines splits text into display lines: explicit newlines are
// kept, long lines are wrapped to the box width, and the result is capped
// at MaxNarrativeLines with an ellipsis on the last kept line.
func NarrativeLines(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return []string{Placeholder}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, " \t")
		if para == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, strings.Split(runewidth.Wrap(para, narrativeWrap), "\n")...)
	}
	if len(lines) > MaxNarrativeLines {
		lines = lines[:MaxNarrativeLines]
		last := runewidth.Truncate(lines[MaxNarrativeLines-1], narrativeWrap-3, "")
		lines[MaxNarrativeLines-1] = last + "..."
	}
	return lines
}

// NarrativeHeight is the box height for n lines of narrative text.
func NarrativeHeight(n int) float64 {
	return float64(n)*LineHeight + NarrativePadding
}

// Layout positions every section of the report. It is pure: the same
// template, record and photos always produce an equal Document.
func Layout(t *Template, wo *models.WorkOrder, photos Photos) *Document {
	doc := &Document{Template: t.Name}
	doc.Pages = append(doc.Pages, layoutSummary(t, wo), layoutPhotos(t, photos))
	return doc
}

func layoutSummary(t *Template, wo *models.WorkOrder) *Page {
	p := &Page{}

	p.section("header", 0, headerRuleY+1)
	p.centered(t.Organization, headerOrgY, 14, true)
	p.centered(t.Title, headerTitleY, 12, true)
	p.box(Box{Name: "header-rule", X: marginX, Y: headerRuleY, W: contentWidth, H: 1, Fill: ruleColor})

	p.section("details", detailTop, detailHeight)
	p.box(Box{Name: "details", X: marginX, Y: detailTop, W: contentWidth, H: detailHeight, Border: true})
	for ci, col := range t.DetailColumns {
		for ri, f := range col {
			line := runewidth.Truncate(fmt.Sprintf("%s: %s", f.Label, f.Value(wo)), detailChars, "...")
			p.text(line, detailColumnX[ci], detailTop+16+float64(ri)*rowHeight, 9, false)
		}
	}

	tableHeight := float64(len(t.Checklist)+1) * rowHeight
	p.section("checklist", checklistTop, tableHeight)
	layoutChecklistRow(p, "checklist-header", checklistTop, t.ChecklistHeaders, true)
	for i, row := range t.Checklist {
		cells := [3]string{fmt.Sprint(i + 1), row.Item, runewidth.Truncate(row.Value(wo), checklistChars, "...")}
		layoutChecklistRow(p, fmt.Sprintf("checklist-%d", i+1), checklistTop+float64(i+1)*rowHeight, cells, false)
	}

	y := narrativeTop
	for _, n := range t.Narratives {
		lines := NarrativeLines(n.Value(wo))
		h := NarrativeHeight(len(lines))
		name := "narrative:" + n.Name
		p.section(name, y, h)
		p.box(Box{Name: name, X: marginX, Y: y, W: contentWidth, H: h, Border: true})
		p.text(n.Label, marginX+6, y+12, 10, true)
		for i, ln := range lines {
			p.text(ln, marginX+10, y+26+float64(i)*LineHeight, 10, false)
		}
		y += h + narrativeGap
	}

	p.section("signatures", signatureTop, signatureHeight)
	sigW := (contentWidth - signatureGap) / 2
	for i, label := range t.Signatures {
		x := marginX + float64(i)*(sigW+signatureGap)
		p.box(Box{Name: fmt.Sprintf("signature:%d", i+1), X: x, Y: signatureTop, W: sigW, H: signatureHeight, Border: true})
		p.text(runewidth.Truncate(label, 50, "..."), x+8, signatureTop+signatureHeight-10, 10, true)
	}
	return p
}

func layoutChecklistRow(p *Page, name string, top float64, cells [3]string, header bool) {
	x := marginX
	for i, w := range checklistColumnW {
		b := Box{Name: fmt.Sprintf("%s:%d", name, i+1), X: x, Y: top, W: w, H: rowHeight, Border: true}
		if header {
			b.Fill = headerFillColor
		}
		p.box(b)
		p.text(cells[i], x+4, top+10, 9, header)
		x += w
	}
}

func layoutPhotos(t *Template, photos Photos) *Page {
	p := &Page{}
	p.section("photo-title", 0, photoTitleY+4)
	p.centered(t.PhotoTitle, photoTitleY, 14, true)

	gridHeight := 2*(cellLabelH+cellHeight) + gridRowGap
	p.section("photos", gridTop, gridHeight)
	for i := 0; i < len(photos); i++ {
		col, row := i%2, i/2
		x := marginX + float64(col)*(cellWidth+gridGap)
		top := gridTop + float64(row)*(cellLabelH+cellHeight+gridRowGap)
		p.text(fmt.Sprintf("FOTO %d", i+1), x+2, top+12, 10, false)

		area := Box{Name: fmt.Sprintf("photo:%d", i+1), X: x, Y: top + cellLabelH, W: cellWidth, H: cellHeight}
		ph := photos[i]
		if ph == nil {
			area.Fill = placeholderColor
			p.box(area)
			continue
		}
		area.Border = true
		p.box(area)
		p.Images = append(p.Images, fitImage(i+1, ph, area))
	}
	return p
}

// fitImage scales ph to fit inside area, keeping its aspect ratio, centred.
func fitImage(slot int, ph *Photo, area Box) Image {
	sx := area.W / float64(ph.Width)
	sy := area.H / float64(ph.Height)
	scale := sx
	if sy < scale {
		scale = sy
	}
	w := float64(ph.Width) * scale
	h := float64(ph.Height) * scale
	return Image{
		Slot:  slot,
		Photo: ph,
		X:     area.X + (area.W-w)/2,
		Y:     area.Y + (area.H-h)/2,
		W:     w,
		H:     h,
	}
}
