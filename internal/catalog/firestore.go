package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// productDoc is the stored shape of a product document
type productDoc struct {
	Title       string    `firestore:"title"`
	Price       float64   `firestore:"price"`
	Description string    `firestore:"description"`
	Category    string    `firestore:"category"`
	Gender      string    `firestore:"gender,omitempty"`
	Status      string    `firestore:"status"`
	ImageMain   string    `firestore:"imageMain"`
	Images      []string  `firestore:"images,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt,omitempty"`
}

func (d productDoc) toProduct(id string) models.Product {
	p := models.Product{
		ID:          id,
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Gender:      d.Gender,
		Status:      d.Status,
		ImageMain:   d.ImageMain,
		Images:      d.Images,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	p.NormalizeImages()
	return p
}

// FirestoreProducts is the product collection backed by Cloud Firestore
type FirestoreProducts struct {
	client *firestore.Client
	Now    func() time.Time
}

func NewFirestoreProducts(client *firestore.Client) *FirestoreProducts {
	return &FirestoreProducts{client: client, Now: time.Now}
}

func (f *FirestoreProducts) collection() *firestore.CollectionRef {
	return f.client.Collection(ProductsCollection)
}

func (f *FirestoreProducts) Create(ctx context.Context, p models.NewProduct) (*models.Product, error) {
	doc := productDoc{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Gender:      p.Gender,
		Status:      models.DefaultStatus,
		ImageMain:   p.ImageMain,
		Images:      p.Images,
		CreatedAt:   f.Now(),
	}

	ref, _, err := f.collection().Add(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	created := doc.toProduct(ref.ID)
	return &created, nil
}

func (f *FirestoreProducts) List(ctx context.Context) ([]models.Product, error) {
	return f.query(ctx, f.collection().OrderBy("createdAt", firestore.Desc))
}

func (f *FirestoreProducts) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	q := f.collection().Where("category", "==", category).OrderBy("createdAt", firestore.Desc)
	return f.query(ctx, q)
}

func (f *FirestoreProducts) ListByStatus(ctx context.Context, status string) ([]models.Product, error) {
	q := f.collection().Where("status", "==", strings.ToLower(status)).OrderBy("createdAt", firestore.Desc)
	return f.query(ctx, q)
}

func (f *FirestoreProducts) query(ctx context.Context, q firestore.Query) ([]models.Product, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(snaps))
	for _, snap := range snaps {
		var doc productDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product %s: %w", snap.Ref.ID, err)
		}
		products = append(products, doc.toProduct(snap.Ref.ID))
	}
	return products, nil
}

func (f *FirestoreProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	snap, err := f.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	if !snap.Exists() {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}

	var doc productDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	p := doc.toProduct(snap.Ref.ID)
	return &p, nil
}

func (f *FirestoreProducts) Update(ctx context.Context, id string, u models.ProductUpdate) error {
	updates := updatesFor(u)
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: f.Now()})

	if _, err := f.collection().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

func (f *FirestoreProducts) UpdateStatus(ctx context.Context, id, status string) error {
	status = strings.ToLower(status)
	return f.Update(ctx, id, models.ProductUpdate{Status: &status})
}

func (f *FirestoreProducts) Delete(ctx context.Context, id string) error {
	if _, err := f.collection().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// updatesFor lists the field paths present in u
func updatesFor(u models.ProductUpdate) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, value interface{}) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.Gender != nil {
		add("gender", *u.Gender)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.ImageMain != nil {
		add("imageMain", *u.ImageMain)
	}
	if u.Images != nil {
		add("images", u.Images)
	}
	return updates
}

type taxonomyDoc struct {
	Name      string    `firestore:"name"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// FirestoreTaxonomy is a categories or genders collection backed by Cloud Firestore
type FirestoreTaxonomy struct {
	client     *firestore.Client
	collection string
	Now        func() time.Time
}

func NewFirestoreTaxonomy(client *firestore.Client, collection string) *FirestoreTaxonomy {
	return &FirestoreTaxonomy{client: client, collection: collection, Now: time.Now}
}

func (f *FirestoreTaxonomy) List(ctx context.Context) ([]models.Category, error) {
	snaps, err := f.client.Collection(f.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", f.collection, err)
	}

	entries := make([]models.Category, 0, len(snaps))
	for _, snap := range snaps {
		var doc taxonomyDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", f.collection, snap.Ref.ID, err)
		}
		entries = append(entries, models.Category{ID: snap.Ref.ID, Name: doc.Name, CreatedAt: doc.CreatedAt})
	}
	sortByName(entries)
	return entries, nil
}

func (f *FirestoreTaxonomy) Add(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.Invalid("name", "is required")
	}

	ref, _, err := f.client.Collection(f.collection).Add(ctx, taxonomyDoc{Name: name, CreatedAt: f.Now()})
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", f.collection, err)
	}
	return ref.ID, nil
}
