package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/lehigh-university-libraries/storeadmin/internal/backend"
	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/config"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Expected %v, got %v (err %v)", tt.want, got, err)
			}
		})
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := newPromptConfirmer(strings.NewReader(tt.input), &out)
		if got := c.Confirm("Delete?"); got != tt.want {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.want, got)
		}
		if !strings.Contains(out.String(), "Delete?") {
			t.Errorf("Expected the prompt to be printed")
		}
	}
}

func TestHashPasswordCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("s3cret\n"))
	root.SetArgs([]string{"hash-password"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")) != nil {
		t.Errorf("Expected printed hash to match, got %q", hash)
	}
}

func TestProductsCreateCmd(t *testing.T) {
	t.Setenv("STOREADMIN_CATALOG_BACKEND", "memory")
	t.Setenv("STOREADMIN_STORAGE_BACKEND", "memory")

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "front.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"products", "create",
		"--title", "Test Shirt", "--price", "10",
		"--description", "Soft cotton", "--category", "Shirts",
		"--image", path,
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v (stderr %s)", err, errOut.String())
	}

	var product models.Product
	if err := json.Unmarshal(out.Bytes(), &product); err != nil {
		t.Fatalf("failed to decode output %q: %v", out.String(), err)
	}
	if product.Title != "Test Shirt" || product.Status != models.DefaultStatus {
		t.Errorf("Unexpected product %+v", product)
	}
	if !strings.HasPrefix(product.ImageMain, "/static/products/") {
		t.Errorf("Expected uploaded main image, got %q", product.ImageMain)
	}
	if !strings.Contains(errOut.String(), "Product created successfully!") {
		t.Errorf("Expected success message, got %q", errOut.String())
	}
}

func TestProductsCreateCmdRejectsMissingImage(t *testing.T) {
	t.Setenv("STOREADMIN_CATALOG_BACKEND", "memory")
	t.Setenv("STOREADMIN_STORAGE_BACKEND", "memory")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"products", "create",
		"--title", "Test Shirt", "--price", "10",
		"--description", "Soft cotton", "--category", "Shirts",
	})

	err := root.Execute()
	if !models.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

// memoryBackend keeps one in-memory catalog across several command runs
func memoryBackend(t *testing.T) (*backend.Backend, opener) {
	t.Helper()
	t.Setenv("STOREADMIN_CATALOG_BACKEND", "memory")
	t.Setenv("STOREADMIN_STORAGE_BACKEND", "memory")
	b := &backend.Backend{
		Products:   catalog.NewMemoryProducts(),
		Categories: catalog.NewMemoryTaxonomy("Shirts"),
		Genders:    catalog.NewMemoryTaxonomy(),
		Store:      storage.NewMemoryStore("/static"),
	}
	return b, func(context.Context, config.Config) (*backend.Backend, error) { return b, nil }
}

func seedProduct(t *testing.T, b *backend.Backend, urls ...string) string {
	t.Helper()
	created, err := b.Products.Create(context.Background(), models.NewProduct{
		Title:       "Linen Shirt",
		Price:       25,
		Description: "Light linen",
		Category:    "Shirts",
		ImageMain:   urls[0],
		Images:      urls,
	})
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return created.ID
}

func TestRemovalOrder(t *testing.T) {
	tests := []struct {
		input []int
		want  []int
	}{
		{input: nil, want: []int{}},
		{input: []int{0, 2}, want: []int{2, 0}},
		{input: []int{2, 0}, want: []int{2, 0}},
		{input: []int{1, 3, 1, 0}, want: []int{3, 1, 0}},
	}

	for _, tt := range tests {
		got := removalOrder(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("input %v: expected %v, got %v", tt.input, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("input %v: expected %v, got %v", tt.input, tt.want, got)
				break
			}
		}
	}
}

func TestProductsEditCmdRemovesImages(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "ascending", args: []string{"--remove-image", "0", "--remove-image", "2"}},
		{name: "descending", args: []string{"--remove-image", "2", "--remove-image", "0"}},
		{name: "comma separated", args: []string{"--remove-image", "2,0,2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, open := memoryBackend(t)
			id := seedProduct(t, b, "/static/a.jpg", "/static/b.jpg", "/static/c.jpg", "/static/d.jpg")

			root := newRootCmd(open)
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(append([]string{"products", "edit", id, "--price", "30"}, tt.args...))

			if err := root.Execute(); err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}

			stored, err := b.Products.Get(context.Background(), id)
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			want := []string{"/static/b.jpg", "/static/d.jpg"}
			if len(stored.Images) != 2 || stored.Images[0] != want[0] || stored.Images[1] != want[1] {
				t.Errorf("Expected images %v, got %v", want, stored.Images)
			}
			if stored.ImageMain != want[0] || stored.Price != 30 {
				t.Errorf("Unexpected stored product %+v", stored)
			}
		})
	}
}

func TestProductsEditCmdRejectsMissingIndex(t *testing.T) {
	b, open := memoryBackend(t)
	id := seedProduct(t, b, "/static/a.jpg")

	root := newRootCmd(open)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"products", "edit", id, "--remove-image", "4"})

	if err := root.Execute(); !models.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestProductsDeleteCmd(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		stdin       string
		wantDeleted bool
		wantOutput  string
	}{
		{name: "declined", stdin: "n\n", wantOutput: "Cancelled"},
		{name: "confirmed at prompt", stdin: "y\n", wantDeleted: true, wantOutput: products.MsgDeleted},
		{name: "yes flag", args: []string{"--yes"}, wantDeleted: true, wantOutput: products.MsgDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, open := memoryBackend(t)
			id := seedProduct(t, b, "/static/a.jpg")

			root := newRootCmd(open)
			var out, errOut bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&errOut)
			root.SetIn(strings.NewReader(tt.stdin))
			root.SetArgs(append([]string{"products", "delete", id}, tt.args...))

			if err := root.Execute(); err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			if !strings.Contains(out.String()+errOut.String(), tt.wantOutput) {
				t.Errorf("Expected output containing %q, got %q / %q", tt.wantOutput, out.String(), errOut.String())
			}

			_, err := b.Products.Get(context.Background(), id)
			if deleted := errors.Is(err, models.ErrNotFound); deleted != tt.wantDeleted {
				t.Errorf("Expected deleted=%v, got err %v", tt.wantDeleted, err)
			}
		})
	}
}
