package report

import (
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/workorderflow/internal/models"
)

// Composer lays out and renders work order reports.
type Composer struct {
	catalog  Catalog
	renderer *Renderer
}

// NewComposer validates the catalog's templates and returns a composer.
func NewComposer(catalog Catalog) (*Composer, error) {
	if catalog.Open == nil {
		return nil, fmt.Errorf("catalog has no template for open work orders")
	}
	for _, t := range []*Template{catalog.Open, catalog.Closed} {
		if t == nil {
			continue
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return &Composer{catalog: catalog, renderer: NewRenderer()}, nil
}

// DecodePhotos turns raw slot blobs into photos. Slots that are empty or
// cannot be decoded come back nil, with the reason in the returned map.
func DecodePhotos(images Images) (Photos, map[int]error) {
	var photos Photos
	issues := make(map[int]error)
	for i, data := range images {
		if len(data) == 0 {
			continue
		}
		ph, err := DecodePhoto(data)
		if err != nil {
			issues[i+1] = err
			continue
		}
		photos[i] = ph
	}
	return photos, issues
}

// Plan produces the positioned document for wo without rendering it.
func (c *Composer) Plan(wo *models.WorkOrder, images Images) *Document {
	photos, issues := DecodePhotos(images)
	for slot, err := range issues {
		slog.Warn("Photo could not be decoded, using placeholder.", "workOrderId", wo.ID, "slot", slot, "error", err)
	}
	return Layout(c.catalog.For(wo), wo, photos)
}

// Compose renders the report for wo. A photo that cannot be used becomes a
// placeholder; any other failure aborts and no bytes are returned.
func (c *Composer) Compose(wo *models.WorkOrder, images Images) ([]byte, error) {
	if wo == nil {
		return nil, fmt.Errorf("compose: nil work order")
	}
	doc := c.Plan(wo, images)
	out, err := c.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render %s for %s: %w", doc.Template, wo.ID, err)
	}
	return out, nil
}
