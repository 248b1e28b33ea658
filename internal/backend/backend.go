package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/config"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

// Backend is the set of catalog and object store clients selected by configuration
type Backend struct {
	Products   catalog.Products
	Categories catalog.Taxonomy
	Genders    catalog.Taxonomy
	Store      storage.ObjectStore
	// UploadsDir is set when images are stored on local disk
	UploadsDir string

	closers []func() error
}

// Open connects the configured backends. Firebase is only initialised when a
// firestore catalog or firebase object store is selected.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	b := &Backend{}

	var app *firebase.App
	if cfg.Catalog.Backend == "firestore" || cfg.Storage.Backend == "firebase" {
		var err error
		app, err = newFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
	}

	if err := b.openCatalog(ctx, cfg, app); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.openStore(ctx, cfg, app); err != nil {
		b.Close()
		return nil, err
	}

	slog.Info("Backends ready", "catalog", cfg.Catalog.Backend, "storage", cfg.Storage.Backend)
	return b, nil
}

func newFirebaseApp(ctx context.Context, fb config.Firebase) (*firebase.App, error) {
	var opts []option.ClientOption
	if fb.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(fb.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     fb.ProjectID,
		StorageBucket: fb.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase: %w", err)
	}
	return app, nil
}

func (b *Backend) openCatalog(ctx context.Context, cfg config.Config, app *firebase.App) error {
	switch cfg.Catalog.Backend {
	case "firestore":
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open firestore: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		b.useFirestore(client)
	case "memory":
		b.Products = catalog.NewMemoryProducts()
		b.Categories = catalog.NewMemoryTaxonomy()
		b.Genders = catalog.NewMemoryTaxonomy()
	default:
		return fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
	return nil
}

func (b *Backend) useFirestore(client *firestore.Client) {
	b.Products = catalog.NewFirestoreProducts(client)
	b.Categories = catalog.NewFirestoreTaxonomy(client, catalog.CategoriesCollection)
	b.Genders = catalog.NewFirestoreTaxonomy(client, catalog.GendersCollection)
}

func (b *Backend) openStore(ctx context.Context, cfg config.Config, app *firebase.App) error {
	switch cfg.Storage.Backend {
	case "firebase":
		client, err := app.Storage(ctx)
		if err != nil {
			return fmt.Errorf("failed to open firebase storage: %w", err)
		}
		bucket, err := client.Bucket(cfg.Firebase.StorageBucket)
		if err != nil {
			return fmt.Errorf("failed to open bucket %s: %w", cfg.Firebase.StorageBucket, err)
		}
		b.Store = storage.NewFirebaseStore(bucket, cfg.Firebase.StorageBucket)
	case "s3":
		s3cfg := cfg.Storage.S3
		store, err := storage.NewS3Store(storage.S3Config{
			Bucket:        s3cfg.Bucket,
			Region:        s3cfg.Region,
			Endpoint:      s3cfg.Endpoint,
			AccessKey:     s3cfg.AccessKey,
			SecretKey:     s3cfg.SecretKey,
			PublicBaseURL: s3cfg.PublicBaseURL,
		})
		if err != nil {
			return err
		}
		b.Store = store
	case "local":
		b.Store = storage.NewLocalStore(cfg.Storage.LocalDir, "/static")
		b.UploadsDir = cfg.Storage.LocalDir
	case "memory":
		b.Store = storage.NewMemoryStore("/static")
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// Close releases every client that was opened
func (b *Backend) Close() error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
