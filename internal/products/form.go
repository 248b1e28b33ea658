package products

import (
	"math"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Mode selects between the create and edit flows
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Form holds the product fields entered by the admin
type Form struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Gender      string  `json:"gender,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type requiredField struct {
	name  string
	value string
}

// Validate checks required fields. Status is only required when editing.
func (f Form) Validate(mode Mode) error {
	required := []requiredField{
		{"title", f.Title},
		{"description", f.Description},
		{"category", f.Category},
	}
	if mode == ModeEdit {
		required = append(required, requiredField{"status", f.Status})
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return models.Invalid(r.name, "is required")
		}
	}
	if math.IsNaN(f.Price) || math.IsInf(f.Price, 0) || f.Price <= 0 {
		return models.Invalid("price", "must be a positive number")
	}
	return nil
}

// StagedImage is an entry of the image list shown on the form. It is either a
// pending local file with a data URL preview, or an image that is already stored.
type StagedImage struct {
	Index   int          `json:"index"`
	Preview string       `json:"preview"`
	URL     string       `json:"url,omitempty"`
	File    *images.File `json:"-"`
}

// Existing reports whether the image is already persisted
func (s StagedImage) Existing() bool {
	return s.File == nil
}

// reindex renumbers images 0..n-1 in their current order
func reindex(staged []StagedImage) []StagedImage {
	for i := range staged {
		staged[i].Index = i
	}
	return staged
}
