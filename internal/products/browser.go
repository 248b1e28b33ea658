package products

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Filter narrows the product list. Empty predicates match everything.
type Filter struct {
	Title    string `json:"title,omitempty"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}

// Empty reports whether no predicate is set
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.Title) == "" &&
		strings.TrimSpace(f.Status) == "" &&
		strings.TrimSpace(f.Category) == ""
}

// Match reports whether p satisfies every predicate of f
func (f Filter) Match(p models.Product) bool {
	if t := strings.TrimSpace(f.Title); t != "" &&
		!strings.Contains(strings.ToLower(p.Title), strings.ToLower(t)) {
		return false
	}
	if s := strings.TrimSpace(f.Status); s != "" && !strings.EqualFold(p.Status, s) {
		return false
	}
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(p.Category, c) {
		return false
	}
	return true
}

// FilterProducts returns the products matching f, keeping their order
func FilterProducts(all []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Browser is the product list view with its current filter
type Browser struct {
	products   catalog.Products
	categories catalog.Taxonomy
	logger     *slog.Logger

	mu      sync.RWMutex
	all     []models.Product
	cats    []models.Category
	filter  Filter
	visible []models.Product
	errMsg  string
	loaded  bool
}

// NewBrowser creates a list view over the given catalog
func NewBrowser(products catalog.Products, categories catalog.Taxonomy, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{products: products, categories: categories, logger: logger}
}

// Load fetches products and categories in parallel. Both must succeed; on
// failure the previous contents are kept and a message is set.
func (b *Browser) Load(ctx context.Context) error {
	var (
		all  []models.Product
		cats []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = b.products.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = b.categories.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.Error("Failed to load product list", "err", err)
		b.mu.Lock()
		b.errMsg = MsgLoadFailed
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = all
	b.cats = cats
	b.errMsg = ""
	b.loaded = true
	b.visible = FilterProducts(b.all, b.filter)
	b.logger.Debug("Loaded product list", "products", len(all), "categories", len(cats))
	return nil
}

// Filter applies f to the loaded products and returns the visible list
func (b *Browser) Filter(f Filter) []models.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
	b.visible = FilterProducts(b.all, f)
	return append([]models.Product(nil), b.visible...)
}

// Clear drops the filter and restores the full list
func (b *Browser) Clear() []models.Product {
	return b.Filter(Filter{})
}

// Products returns the visible products
func (b *Browser) Products() []models.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.filter.Empty() {
		return append([]models.Product(nil), b.all...)
	}
	return append([]models.Product(nil), b.visible...)
}

func (b *Browser) Categories() []models.Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Category(nil), b.cats...)
}

func (b *Browser) CurrentFilter() Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

func (b *Browser) ErrorMessage() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.errMsg
}

// Loaded reports whether a load has succeeded at least once
func (b *Browser) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}
