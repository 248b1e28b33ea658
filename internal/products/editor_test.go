package products

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

func jpegFile(t *testing.T, name string, width, height int) images.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 180, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return images.NewFile(name, "image/jpeg", buf.Bytes())
}

// countingProducts records every catalog call made through it
type countingProducts struct {
	catalog.Products

	mu    sync.Mutex
	calls []string
}

func (c *countingProducts) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *countingProducts) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *countingProducts) Create(ctx context.Context, p models.NewProduct) (*models.Product, error) {
	c.record("create")
	return c.Products.Create(ctx, p)
}

func (c *countingProducts) Update(ctx context.Context, id string, u models.ProductUpdate) error {
	c.record("update")
	return c.Products.Update(ctx, id, u)
}

func (c *countingProducts) Delete(ctx context.Context, id string) error {
	c.record("delete")
	return c.Products.Delete(ctx, id)
}

type failingStore struct{}

func (failingStore) Upload(context.Context, []byte, string, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

type fixture struct {
	products *countingProducts
	memory   *catalog.MemoryProducts
	store    *storage.MemoryStore
	svc      Services
}

func newFixture() *fixture {
	memory := catalog.NewMemoryProducts()
	counting := &countingProducts{Products: memory}
	store := storage.NewMemoryStore("https://cdn.test")
	return &fixture{
		products: counting,
		memory:   memory,
		store:    store,
		svc: Services{
			Products:   counting,
			Categories: catalog.NewMemoryTaxonomy("Shirts", "Dresses"),
			Store:      store,
		},
	}
}

func (f *fixture) seed(t *testing.T, urls ...string) string {
	t.Helper()
	created, err := f.memory.Create(context.Background(), models.NewProduct{
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

func validForm() Form {
	return Form{Title: "Test Shirt", Price: 10, Description: "Cotton", Category: "Shirts"}
}

func TestEditorCreate(t *testing.T) {
	f := newFixture()
	e := NewEditor(f.svc)

	if err := e.Stage(jpegFile(t, "front.jpg", 64, 48)); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	product, err := e.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if e.State() != StateDone {
		t.Errorf("Expected state done, got %s", e.State())
	}
	if e.SuccessMessage() != MsgCreated {
		t.Errorf("Expected %q, got %q", MsgCreated, e.SuccessMessage())
	}
	if f.store.Len() != 1 {
		t.Fatalf("Expected 1 uploaded object, got %d", f.store.Len())
	}
	if !strings.HasPrefix(product.ImageMain, "https://cdn.test/products/") || !strings.HasSuffix(product.ImageMain, ".jpg") {
		t.Errorf("Unexpected main image URL %q", product.ImageMain)
	}
	path := strings.TrimPrefix(product.ImageMain, "https://cdn.test/")
	if _, contentType, ok := f.store.Get(path); !ok || contentType != "image/jpeg" {
		t.Errorf("Expected stored jpeg at %s, got ok=%v type=%q", path, ok, contentType)
	}

	all, err := f.memory.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 catalog entry, got %d", len(all))
	}
	stored := all[0]
	if stored.Title != "Test Shirt" || stored.Price != 10 {
		t.Errorf("Unexpected stored product %+v", stored)
	}
	if stored.Status != models.DefaultStatus {
		t.Errorf("Expected status %q, got %q", models.DefaultStatus, stored.Status)
	}
	if stored.ImageMain != product.ImageMain || len(stored.Images) != 1 || stored.Images[0] != product.ImageMain {
		t.Errorf("Expected images [%s], got main=%s images=%v", product.ImageMain, stored.ImageMain, stored.Images)
	}

	redirect := e.Redirect()
	if redirect == nil || redirect.To != ListPath || redirect.After != 1500*time.Millisecond {
		t.Errorf("Expected redirect to %s after 1.5s, got %+v", ListPath, redirect)
	}
	if v := e.Snapshot(); v.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", v.Progress)
	}
}

func TestEditorCreateRequiresImage(t *testing.T) {
	f := newFixture()
	e := NewEditor(f.svc)

	_, err := e.Submit(context.Background(), validForm())
	if !models.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if e.State() != StateError {
		t.Errorf("Expected state error, got %s", e.State())
	}
	if len(f.products.Calls()) != 0 {
		t.Errorf("Expected no catalog calls, got %v", f.products.Calls())
	}
}

func TestEditorFormValidation(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		form  Form
		field string
	}{
		{name: "missing title", mode: ModeCreate, form: Form{Price: 1, Description: "d", Category: "c"}, field: "title"},
		{name: "blank description", mode: ModeCreate, form: Form{Title: "t", Price: 1, Description: "  ", Category: "c"}, field: "description"},
		{name: "missing category", mode: ModeCreate, form: Form{Title: "t", Price: 1, Description: "d"}, field: "category"},
		{name: "zero price", mode: ModeCreate, form: Form{Title: "t", Description: "d", Category: "c"}, field: "price"},
		{name: "negative price", mode: ModeCreate, form: Form{Title: "t", Price: -3, Description: "d", Category: "c"}, field: "price"},
		{name: "status required on edit", mode: ModeEdit, form: Form{Title: "t", Price: 1, Description: "d", Category: "c"}, field: "status"},
		{name: "status optional on create", mode: ModeCreate, form: Form{Title: "t", Price: 1, Description: "d", Category: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(tt.mode)
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestEditorStageCap(t *testing.T) {
	f := newFixture()
	e := NewEditor(f.svc)
	capMsg := "Maximum of 5 images allowed"

	var batch []images.File
	for i := 0; i < 6; i++ {
		batch = append(batch, jpegFile(t, "p.jpg", 8, 8))
	}

	err := e.Stage(batch...)
	if !models.IsValidation(err) {
		t.Fatalf("Expected cap error, got %v", err)
	}
	if got := len(e.Images()); got != 5 {
		t.Errorf("Expected exactly 5 staged images, got %d", got)
	}
	if e.ErrorMessage() != capMsg {
		t.Errorf("Expected %q, got %q", capMsg, e.ErrorMessage())
	}

	if err := e.Stage(jpegFile(t, "extra.jpg", 8, 8)); err == nil {
		t.Errorf("Expected staging at the cap to fail")
	}
	if got := len(e.Images()); got != 5 {
		t.Errorf("Expected count to stay at 5, got %d", got)
	}

	for i, img := range e.Images() {
		if img.Index != i {
			t.Errorf("Expected index %d, got %d", i, img.Index)
		}
		if !strings.HasPrefix(img.Preview, "data:image/jpeg;base64,") {
			t.Errorf("Expected data URL preview, got %.30s", img.Preview)
		}
	}
}

func TestEditorStageSkipsInvalidFiles(t *testing.T) {
	f := newFixture()
	e := NewEditor(f.svc)

	err := e.Stage(
		images.NewFile("doc.pdf", "application/pdf", []byte("%PDF-1.4")),
		jpegFile(t, "ok.jpg", 8, 8),
	)
	if !models.IsValidation(err) {
		t.Fatalf("Expected validation error for the pdf, got %v", err)
	}
	if got := len(e.Images()); got != 1 {
		t.Errorf("Expected the valid file to be staged, got %d images", got)
	}
}

func TestEditorRemoveImage(t *testing.T) {
	f := newFixture()
	e := NewEditor(f.svc)
	for i := 0; i < 4; i++ {
		if err := e.Stage(jpegFile(t, "p.jpg", 8, 8)); err != nil {
			t.Fatalf("Stage returned error: %v", err)
		}
	}

	if !e.RemoveImage(1) {
		t.Fatalf("Expected index 1 to be removed")
	}
	staged := e.Images()
	if len(staged) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(staged))
	}
	for i, img := range staged {
		if img.Index != i {
			t.Errorf("Expected index %d, got %d", i, img.Index)
		}
	}
	if e.RemoveImage(7) {
		t.Errorf("Expected removing a missing index to report false")
	}
}

func TestEditorLoadAndEdit(t *testing.T) {
	f := newFixture()
	id := f.seed(t, "https://cdn.test/old-1.jpg", "https://cdn.test/old-2.jpg")

	e, err := LoadEditor(context.Background(), f.svc, id)
	if err != nil {
		t.Fatalf("LoadEditor returned error: %v", err)
	}
	view := e.Snapshot()
	if view.Form.Title != "Linen Shirt" || view.Form.Status != models.DefaultStatus {
		t.Errorf("Expected form populated from product, got %+v", view.Form)
	}
	if len(view.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %d", len(view.Categories))
	}
	if len(view.Images) != 2 || view.Images[0].URL != "https://cdn.test/old-1.jpg" {
		t.Fatalf("Expected existing images staged, got %+v", view.Images)
	}

	e.RemoveImage(0)
	if err := e.Stage(jpegFile(t, "new.png.jpg", 16, 16)); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	form := view.Form
	form.Price = 30
	form.Status = "sold"
	product, err := e.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if len(product.Images) != 2 {
		t.Fatalf("Expected 2 images, got %v", product.Images)
	}
	if product.Images[0] != "https://cdn.test/old-2.jpg" {
		t.Errorf("Expected kept image first, got %s", product.Images[0])
	}
	if !strings.HasPrefix(product.Images[1], "https://cdn.test/products/") {
		t.Errorf("Expected new upload second, got %s", product.Images[1])
	}
	if product.ImageMain != product.Images[0] {
		t.Errorf("Expected main image %s, got %s", product.Images[0], product.ImageMain)
	}
	if e.SuccessMessage() != MsgUpdated {
		t.Errorf("Expected %q, got %q", MsgUpdated, e.SuccessMessage())
	}

	stored, err := f.memory.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Price != 30 || stored.Status != "sold" || stored.ImageMain != "https://cdn.test/old-2.jpg" {
		t.Errorf("Unexpected stored product %+v", stored)
	}
}

func TestEditorEditRejectsNoImages(t *testing.T) {
	f := newFixture()
	id := f.seed(t, "https://cdn.test/only.jpg")

	e, err := LoadEditor(context.Background(), f.svc, id)
	if err != nil {
		t.Fatalf("LoadEditor returned error: %v", err)
	}
	form := e.Snapshot().Form
	e.RemoveImage(0)

	if _, err := e.Submit(context.Background(), form); !models.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if e.State() != StateError {
		t.Errorf("Expected state error, got %s", e.State())
	}
	for _, call := range f.products.Calls() {
		if call == "update" {
			t.Errorf("Expected no update call")
		}
	}
	stored, _ := f.memory.Get(context.Background(), id)
	if len(stored.Images) != 1 || stored.Images[0] != "https://cdn.test/only.jpg" {
		t.Errorf("Expected catalog unchanged, got %v", stored.Images)
	}
}

func TestEditorUploadFailureKeepsState(t *testing.T) {
	f := newFixture()
	f.svc.Store = failingStore{}
	e := NewEditor(f.svc)
	if err := e.Stage(jpegFile(t, "a.jpg", 8, 8), jpegFile(t, "b.jpg", 8, 8)); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	if _, err := e.Submit(context.Background(), validForm()); err == nil {
		t.Fatalf("Expected upload failure")
	}
	view := e.Snapshot()
	if view.State != StateError {
		t.Errorf("Expected state error, got %s", view.State)
	}
	if view.Error != MsgProcessingFailed {
		t.Errorf("Expected %q, got %q", MsgProcessingFailed, view.Error)
	}
	if len(view.Images) != 2 || view.Form.Title != "Test Shirt" {
		t.Errorf("Expected form and images kept, got %+v", view)
	}
	if view.Redirect != nil {
		t.Errorf("Expected no redirect on failure")
	}
	if len(f.products.Calls()) != 0 {
		t.Errorf("Expected no catalog calls, got %v", f.products.Calls())
	}

	// retry succeeds once the store is back
	e.svc.Store = f.store
	if _, err := e.Submit(context.Background(), validForm()); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if f.store.Len() != 2 {
		t.Errorf("Expected 2 uploads, got %d", f.store.Len())
	}
}

func TestEditorLoadNotFound(t *testing.T) {
	f := newFixture()

	e, err := LoadEditor(context.Background(), f.svc, "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if e.ErrorMessage() != MsgNotFound {
		t.Errorf("Expected %q, got %q", MsgNotFound, e.ErrorMessage())
	}
	redirect := e.Redirect()
	if redirect == nil || redirect.To != ListPath || redirect.After != 2*time.Second {
		t.Errorf("Expected redirect to %s after 2s, got %+v", ListPath, redirect)
	}
}

type recordingNavigator chan string

func (n recordingNavigator) Navigate(path string) { n <- path }

func TestEditorDelete(t *testing.T) {
	f := newFixture()
	id := f.seed(t, "https://cdn.test/a.jpg")
	nav := make(recordingNavigator, 1)
	f.svc.Navigator = nav
	f.svc.DeleteDelay = 10 * time.Millisecond

	e, err := LoadEditor(context.Background(), f.svc, id)
	if err != nil {
		t.Fatalf("LoadEditor returned error: %v", err)
	}

	var prompt string
	deleted, err := e.Delete(context.Background(), ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	}))
	if err != nil || deleted {
		t.Fatalf("Expected declined delete, got deleted=%v err=%v", deleted, err)
	}
	if !strings.Contains(prompt, "Linen Shirt") {
		t.Errorf("Expected prompt to name the product, got %q", prompt)
	}
	if len(f.products.Calls()) != 0 {
		t.Errorf("Expected no catalog call without confirmation, got %v", f.products.Calls())
	}

	deleted, err = e.Delete(context.Background(), ConfirmFunc(func(string) bool { return true }))
	if err != nil || !deleted {
		t.Fatalf("Expected delete, got deleted=%v err=%v", deleted, err)
	}
	if _, err := f.memory.Get(context.Background(), id); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected product gone, got %v", err)
	}
	if e.State() != StateDeleted {
		t.Errorf("Expected state deleted, got %s", e.State())
	}

	select {
	case path := <-nav:
		if path != ListPath {
			t.Errorf("Expected navigation to %s, got %s", ListPath, path)
		}
	case <-time.After(time.Second):
		t.Errorf("Expected navigation after delete")
	}

	if _, err := e.Submit(context.Background(), validForm()); !errors.Is(err, ErrDeleted) {
		t.Errorf("Expected ErrDeleted after delete, got %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateValidating, true},
		{StateValidating, StateOptimizing, true},
		{StateOptimizing, StateUploading, true},
		{StateUploading, StateSaving, true},
		{StateSaving, StateDone, true},
		{StateUploading, StateError, true},
		{StateError, StateValidating, true},
		{StateDone, StateValidating, true},
		{StateIdle, StateSaving, false},
		{StateValidating, StateDone, false},
		{StateDone, StateError, false},
		{StateDeleted, StateValidating, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEditorSessionsShareUniquePaths(t *testing.T) {
	f := newFixture()
	seen := map[string]string{}

	for i := 0; i < 20; i++ {
		e := NewEditor(f.svc)
		if err := e.Stage(jpegFile(t, "front.jpg", 8, 8)); err != nil {
			t.Fatalf("Stage returned error: %v", err)
		}
		product, err := e.Submit(context.Background(), validForm())
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if other, ok := seen[product.ImageMain]; ok {
			t.Errorf("products %s and %s share image %s", other, product.ID, product.ImageMain)
		}
		seen[product.ImageMain] = product.ID
	}

	if f.store.Len() != 20 {
		t.Errorf("Expected 20 stored objects, got %d", f.store.Len())
	}
}

func TestEditorResubmitDoesNotReupload(t *testing.T) {
	f := newFixture()
	id := f.seed(t, "https://cdn.test/old-1.jpg")

	e, err := LoadEditor(context.Background(), f.svc, id)
	if err != nil {
		t.Fatalf("LoadEditor returned error: %v", err)
	}
	if err := e.Stage(jpegFile(t, "side.jpg", 16, 16)); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	form := e.Snapshot().Form

	first, err := e.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	for i, img := range e.Images() {
		if !img.Existing() || img.URL != first.Images[i] {
			t.Errorf("Expected staged image %d to be %s, got %+v", i, first.Images[i], img)
		}
	}

	second, err := e.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("second Submit returned error: %v", err)
	}
	if f.store.Len() != 1 {
		t.Errorf("Expected 1 stored object, got %d", f.store.Len())
	}
	if len(second.Images) != 2 || second.Images[1] != first.Images[1] {
		t.Errorf("Expected images %v, got %v", first.Images, second.Images)
	}
}
