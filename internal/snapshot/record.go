package snapshot

import (
	"time"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Record is one product row in a snapshot file
type Record struct {
	ID          string   `json:"id" parquet:"id"`
	Title       string   `json:"title" parquet:"title"`
	Price       float64  `json:"price" parquet:"price"`
	Description string   `json:"description" parquet:"description"`
	Category    string   `json:"category" parquet:"category"`
	Gender      string   `json:"gender,omitempty" parquet:"gender,optional"`
	Status      string   `json:"status" parquet:"status"`
	ImageMain   string   `json:"imageMain" parquet:"image_main"`
	Images      []string `json:"images" parquet:"images,list"`
	// CreatedAtMS is Unix milliseconds
	CreatedAtMS int64 `json:"createdAtMs" parquet:"created_at_ms"`
	UpdatedAtMS int64 `json:"updatedAtMs,omitempty" parquet:"updated_at_ms,optional"`
}

// FromProduct converts a catalog product to a snapshot record
func FromProduct(p models.Product) Record {
	r := Record{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Gender:      p.Gender,
		Status:      p.Status,
		ImageMain:   p.ImageMain,
		Images:      append([]string(nil), p.Images...),
	}
	if !p.CreatedAt.IsZero() {
		r.CreatedAtMS = p.CreatedAt.UnixMilli()
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAtMS = p.UpdatedAt.UnixMilli()
	}
	return r
}

// Product converts the record back, applying the single main image fallback
func (r Record) Product() models.Product {
	p := models.Product{
		ID:          r.ID,
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Gender:      r.Gender,
		Status:      r.Status,
		ImageMain:   r.ImageMain,
		Images:      append([]string(nil), r.Images...),
	}
	if r.CreatedAtMS != 0 {
		p.CreatedAt = time.UnixMilli(r.CreatedAtMS).UTC()
	}
	if r.UpdatedAtMS != 0 {
		p.UpdatedAt = time.UnixMilli(r.UpdatedAtMS).UTC()
	}
	// the main image is always the first of the list
	if len(p.Images) > 0 {
		p.ImageMain = p.Images[0]
	}
	p.NormalizeImages()
	return p
}
