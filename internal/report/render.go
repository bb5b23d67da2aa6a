package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// The structs below mirror the subset of pdfcpu's JSON page description
// used by the renderer.
type pdfDescription struct {
	Paper string              `json:"paper"`
	Pages map[string]*pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Boxes  []pdfBox   `json:"box,omitempty"`
	Texts  []pdfText  `json:"text,omitempty"`
	Images []pdfImage `json:"image,omitempty"`
}

type pdfBox struct {
	Pos     [2]float64 `json:"pos"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	FillCol string     `json:"fillCol,omitempty"`
	Border  *pdfBorder `json:"border,omitempty"`
}

type pdfBorder struct {
	Width int    `json:"width"`
	Col   string `json:"col"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfImage struct {
	Src    string     `json:"src"`
	Pos    [2]float64 `json:"pos"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Renderer turns a laid-out Document into PDF bytes with pdfcpu.
// It is safe for concurrent use; every render gets its own configuration.
type Renderer struct{}

var disableConfigDir sync.Once

// NewRenderer returns a renderer using pdfcpu's built-in configuration.
// The on-disk config directory is disabled; Cloud Functions only allow
// writes under the temp dir and the core fonts are all the report needs.
func NewRenderer() *Renderer {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Renderer{}
}

func (r *Renderer) newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Render writes photos to a scratch directory, builds the pdfcpu page
// description, renders and optimizes it. The page count of the result is
// checked against the document before returning.
func (r *Renderer) Render(doc *Document) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "report-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	desc, err := buildDescription(doc, tempDir)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page description: %w", err)
	}

	var out bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(payload), &out, r.newConf()); err != nil {
		return nil, fmt.Errorf("pdfcpu create: %w", err)
	}

	var optimized bytes.Buffer
	if err := api.Optimize(bytes.NewReader(out.Bytes()), &optimized, r.newConf()); err != nil {
		return nil, fmt.Errorf("pdfcpu optimize: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(optimized.Bytes()), r.newConf())
	if err != nil {
		return nil, fmt.Errorf("failed to read back rendered PDF: %w", err)
	}
	if pages != len(doc.Pages) {
		return nil, fmt.Errorf("rendered %d pages, expected %d", pages, len(doc.Pages))
	}
	return optimized.Bytes(), nil
}

func buildDescription(doc *Document, tempDir string) (*pdfDescription, error) {
	desc := &pdfDescription{Paper: "A4", Pages: make(map[string]*pdfPage, len(doc.Pages))}
	for pi, page := range doc.Pages {
		var c pdfContent
		for _, b := range page.Boxes {
			pb := pdfBox{
				Pos:     [2]float64{b.X, pageHeight - b.Y - b.H},
				Width:   b.W,
				Height:  b.H,
				FillCol: b.Fill,
			}
			if b.Border {
				pb.Border = &pdfBorder{Width: 1, Col: ruleColor}
			}
			c.Boxes = append(c.Boxes, pb)
		}
		for _, t := range page.Texts {
			font := "Helvetica"
			if t.Bold {
				font = "Helvetica-Bold"
			}
			c.Texts = append(c.Texts, pdfText{
				Value: t.Value,
				Pos:   [2]float64{t.X, pageHeight - t.Y},
				Font:  pdfFont{Name: font, Size: t.Size},
			})
		}
		for _, im := range page.Images {
			src := filepath.Join(tempDir, fmt.Sprintf("p%d-foto%d%s", pi+1, im.Slot, im.Photo.Ext()))
			if err := os.WriteFile(src, im.Photo.Data, 0o600); err != nil {
				return nil, fmt.Errorf("failed to stage photo %d: %w", im.Slot, err)
			}
			c.Images = append(c.Images, pdfImage{
				Src:    src,
				Pos:    [2]float64{im.X, pageHeight - im.Y - im.H},
				Width:  im.W,
				Height: im.H,
			})
		}
		desc.Pages[strconv.Itoa(pi+1)] = &pdfPage{Content: c}
	}
	return desc, nil
}
