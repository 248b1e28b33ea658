package catalog

import (
	"context"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Collection names in the document store
const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	GendersCollection    = "genders"
)

// Products is the product collection client. Listings are ordered newest first.
type Products interface {
	Create(ctx context.Context, p models.NewProduct) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListByStatus(ctx context.Context, status string) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, u models.ProductUpdate) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// Taxonomy is a named lookup collection such as categories or genders
type Taxonomy interface {
	List(ctx context.Context) ([]models.Category, error)
	Add(ctx context.Context, name string) (string, error)
}

// sortByName orders entries with locale-aware collation
func sortByName(entries []models.Category) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
}

// sortNewestFirst orders products by creation time, descending
func sortNewestFirst(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}
