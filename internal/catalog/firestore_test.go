package catalog

import (
	"testing"
	"time"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

func TestUpdatesFor(t *testing.T) {
	title := "Linen Shirt"
	price := 49.9
	u := models.ProductUpdate{Title: &title, Price: &price, Images: []string{"a", "b"}}

	updates := updatesFor(u)
	if len(updates) != 3 {
		t.Fatalf("Expected 3 updates, got %d", len(updates))
	}
	expected := []string{"title", "price", "images"}
	for i, path := range expected {
		if updates[i].Path != path {
			t.Errorf("Expected path %s at %d, got %s", path, i, updates[i].Path)
		}
	}

	if got := updatesFor(models.ProductUpdate{}); len(got) != 0 {
		t.Errorf("Expected no updates for empty update, got %d", len(got))
	}
}

func TestProductDocToProduct(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		doc          productDoc
		expectImages []string
		expectStatus string
	}{
		{
			name:         "legacy document without images",
			doc:          productDoc{Title: "Cap", ImageMain: "https://img/cap.jpg", Status: "sold", CreatedAt: created},
			expectImages: []string{"https://img/cap.jpg"},
			expectStatus: "sold",
		},
		{
			name:         "missing status defaults",
			doc:          productDoc{Title: "Cap", ImageMain: "a", Images: []string{"a", "b"}},
			expectImages: []string{"a", "b"},
			expectStatus: models.DefaultStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.doc.toProduct("doc1")
			if p.ID != "doc1" {
				t.Errorf("Expected id doc1, got %s", p.ID)
			}
			if len(p.Images) != len(tt.expectImages) {
				t.Fatalf("Expected images %v, got %v", tt.expectImages, p.Images)
			}
			for i := range p.Images {
				if p.Images[i] != tt.expectImages[i] {
					t.Errorf("Expected images %v, got %v", tt.expectImages, p.Images)
				}
			}
			if p.Status != tt.expectStatus {
				t.Errorf("Expected status %s, got %s", tt.expectStatus, p.Status)
			}
		})
	}
}
