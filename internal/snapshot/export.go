package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Document is the YAML snapshot layout
type Document struct {
	ExportedAt string           `yaml:"exportedat"`
	Count      int              `yaml:"count"`
	Products   []models.Product `yaml:"products"`
}

// Export writes every product in the catalog to path. The format follows the
// file extension: .parquet, .jsonl or .yaml.
func Export(ctx context.Context, products catalog.Products, path string) (int, error) {
	all, err := products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		err = writeParquet(path, all)
	case ".jsonl", ".json":
		err = writeJSONL(path, all)
	case ".yaml", ".yml":
		err = writeYAML(path, all)
	default:
		return 0, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .yaml)", ext)
	}
	if err != nil {
		return 0, err
	}

	slog.Info("Exported catalog snapshot", "path", path, "products", len(all))
	return len(all), nil
}

func writeParquet(path string, products []models.Product) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	rows := make([]Record, 0, len(products))
	for _, p := range products {
		rows = append(rows, FromProduct(p))
	}

	writer := parquet.NewGenericWriter[Record](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func writeJSONL(path string, products []models.Product) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create jsonl file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, p := range products {
		if err := enc.Encode(FromProduct(p)); err != nil {
			return fmt.Errorf("failed to write product %s: %w", p.ID, err)
		}
	}
	return nil
}

func writeYAML(path string, products []models.Product) error {
	doc := Document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(products),
		Products:   products,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
