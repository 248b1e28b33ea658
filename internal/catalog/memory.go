package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// MemoryProducts is an in-process product collection
type MemoryProducts struct {
	Now func() time.Time

	mu       sync.RWMutex
	products map[string]models.Product
	seq      []string
}

func NewMemoryProducts() *MemoryProducts {
	return &MemoryProducts{
		Now:      time.Now,
		products: make(map[string]models.Product),
	}
}

func (m *MemoryProducts) Create(ctx context.Context, p models.NewProduct) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	product := models.Product{
		ID:          uuid.NewString(),
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Gender:      p.Gender,
		Status:      models.DefaultStatus,
		ImageMain:   p.ImageMain,
		Images:      append([]string(nil), p.Images...),
		CreatedAt:   m.Now(),
	}
	m.products[product.ID] = product
	m.seq = append(m.seq, product.ID)

	created := product
	return &created, nil
}

func (m *MemoryProducts) List(ctx context.Context) ([]models.Product, error) {
	return m.filter(ctx, func(models.Product) bool { return true })
}

func (m *MemoryProducts) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return m.filter(ctx, func(p models.Product) bool { return p.Category == category })
}

func (m *MemoryProducts) ListByStatus(ctx context.Context, status string) ([]models.Product, error) {
	status = strings.ToLower(status)
	return m.filter(ctx, func(p models.Product) bool { return p.Status == status })
}

func (m *MemoryProducts) filter(ctx context.Context, keep func(models.Product) bool) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Product, 0, len(m.seq))
	// newest insertion first so equal timestamps still list newest first
	for i := len(m.seq) - 1; i >= 0; i-- {
		p, ok := m.products[m.seq[i]]
		if !ok || !keep(p) {
			continue
		}
		p.Images = append([]string(nil), p.Images...)
		p.NormalizeImages()
		result = append(result, p)
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	p.Images = append([]string(nil), p.Images...)
	p.NormalizeImages()
	return &p, nil
}

func (m *MemoryProducts) Update(ctx context.Context, id string, u models.ProductUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ImageMain != nil {
		p.ImageMain = *u.ImageMain
	}
	if u.Images != nil {
		p.Images = append([]string(nil), u.Images...)
	}
	p.UpdatedAt = m.Now()
	m.products[id] = p
	return nil
}

func (m *MemoryProducts) UpdateStatus(ctx context.Context, id, status string) error {
	status = strings.ToLower(status)
	return m.Update(ctx, id, models.ProductUpdate{Status: &status})
}

func (m *MemoryProducts) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.products, id)
	for i, sid := range m.seq {
		if sid == id {
			m.seq = append(m.seq[:i], m.seq[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryTaxonomy is an in-process categories or genders collection
type MemoryTaxonomy struct {
	Now func() time.Time

	mu      sync.RWMutex
	entries []models.Category
}

func NewMemoryTaxonomy(names ...string) *MemoryTaxonomy {
	t := &MemoryTaxonomy{Now: time.Now}
	for _, name := range names {
		_, _ = t.Add(context.Background(), name)
	}
	return t
}

func (t *MemoryTaxonomy) List(ctx context.Context) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	entries := append([]models.Category(nil), t.entries...)
	t.mu.RUnlock()

	sortByName(entries)
	return entries, nil
}

func (t *MemoryTaxonomy) Add(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.Invalid("name", "is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	entry := models.Category{ID: uuid.NewString(), Name: name, CreatedAt: t.Now()}
	t.entries = append(t.entries, entry)
	return entry.ID, nil
}
