package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// Result summarises an import
type Result struct {
	Created int
	Skipped int
}

// Load reads snapshot records from a .parquet or .jsonl file
func Load(path string) ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return loadParquet(path)
	case ".jsonl", ".json":
		return loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// Import creates a product for every record that has at least one image.
// Stored statuses other than the default are restored after creation.
func Import(ctx context.Context, products catalog.Products, path string) (Result, error) {
	records, err := Load(path)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, r := range records {
		p := r.Product()
		if len(p.Images) == 0 {
			slog.Warn("Skipping snapshot row without images", "row", i+1, "title", p.Title)
			res.Skipped++
			continue
		}

		created, err := products.Create(ctx, models.NewProduct{
			Title:       p.Title,
			Price:       p.Price,
			Description: p.Description,
			Category:    p.Category,
			Gender:      p.Gender,
			ImageMain:   p.ImageMain,
			Images:      p.Images,
		})
		if err != nil {
			return res, fmt.Errorf("failed to import row %d: %w", i+1, err)
		}
		if p.Status != "" && !strings.EqualFold(p.Status, models.DefaultStatus) {
			if err := products.UpdateStatus(ctx, created.ID, p.Status); err != nil {
				return res, fmt.Errorf("failed to restore status of row %d: %w", i+1, err)
			}
		}
		res.Created++
	}

	slog.Info("Imported catalog snapshot", "path", path, "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func loadJSONL(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_records", len(records), "total_lines", lineNum)
	return records, nil
}

func loadParquet(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	for {
		// fresh batch so list columns are not shared between reads
		rows := make([]Record, 128)
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}
