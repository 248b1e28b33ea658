package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

// ListPath is where a finished or failed form session sends the admin
const ListPath = "/products"

// User-facing messages
const (
	MsgImageCap         = "Maximum of %d images allowed"
	MsgInvalidFile      = "Invalid file"
	MsgLoadFailed       = "Could not load the product data."
	MsgNotFound         = "Product not found."
	MsgProcessingFailed = "Could not process the images. Try again."
	MsgSaveFailed       = "Could not save the product. Try again."
	MsgDeleteFailed     = "Could not delete the product."
	MsgCreated          = "Product created successfully!"
	MsgUpdated          = "Product updated successfully!"
	MsgDeleted          = "Product deleted successfully!"
)

// ErrBusy is returned when an operation is attempted while a submission or deletion is in flight
var ErrBusy = errors.New("a submission is already in progress")

// ErrDeleted is returned when a deleted product's session is used again
var ErrDeleted = errors.New("product has been deleted")

// Navigator moves the admin to another view
type Navigator interface {
	Navigate(path string)
}

// Confirmer asks the admin to confirm a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Redirect is a navigation scheduled after a message has been shown
type Redirect struct {
	To    string
	After time.Duration
}

func (r Redirect) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		To      string `json:"to"`
		AfterMS int64  `json:"after_ms"`
	}{r.To, r.After.Milliseconds()})
}

// Services are the collaborators shared by form sessions
type Services struct {
	Products   catalog.Products
	Categories catalog.Taxonomy
	Store      storage.ObjectStore
	Paths      *storage.PathGenerator
	Images     images.Options
	MaxImages  int

	// SuccessDelay is how long a success message stays up before navigating away
	SuccessDelay time.Duration
	// LoadFailureDelay is how long a load failure stays up before returning to the list
	LoadFailureDelay time.Duration
	// DeleteDelay is how long the delete confirmation stays up
	DeleteDelay time.Duration

	// Navigator is optional. Redirects are always recorded on the session.
	Navigator Navigator
	Logger    *slog.Logger
}

// sharedPaths backs every session that does not bring its own generator, so
// paths stay unique across sessions in one process.
var sharedPaths = storage.NewPathGenerator()

func (s *Services) defaults() {
	if s.MaxImages <= 0 {
		s.MaxImages = 5
	}
	if s.Images == (images.Options{}) {
		s.Images = images.DefaultOptions()
	}
	if s.Paths == nil {
		s.Paths = sharedPaths
	}
	if s.SuccessDelay == 0 {
		s.SuccessDelay = 1500 * time.Millisecond
	}
	if s.LoadFailureDelay == 0 {
		s.LoadFailureDelay = 2 * time.Second
	}
	if s.DeleteDelay == 0 {
		s.DeleteDelay = time.Second
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

// Editor is one create or edit form session. It owns its staged images and
// state and is safe for concurrent use.
type Editor struct {
	svc  Services
	mode Mode
	id   string

	mu         sync.Mutex
	state      State
	form       Form
	product    *models.Product
	categories []models.Category
	staged     []StagedImage
	errMsg     string
	successMsg string
	progress   int
	redirect   *Redirect
}

// NewEditor starts a create session
func NewEditor(svc Services) *Editor {
	svc.defaults()
	return &Editor{svc: svc, mode: ModeCreate}
}

// LoadEditor starts an edit session for product id. The product and the
// category list are fetched in parallel and both must succeed. On failure the
// returned session carries the error message and a redirect to the list.
func LoadEditor(ctx context.Context, svc Services, id string) (*Editor, error) {
	svc.defaults()
	e := &Editor{svc: svc, mode: ModeEdit, id: id}

	var (
		product    *models.Product
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = svc.Products.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = svc.Categories.List(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		svc.Logger.Error("Failed to load product form", "product_id", id, "err", err)
		e.mu.Lock()
		defer e.mu.Unlock()
		e.errMsg = MsgLoadFailed
		if errors.Is(err, models.ErrNotFound) {
			e.errMsg = MsgNotFound
		}
		e.scheduleRedirect(ListPath, svc.LoadFailureDelay)
		return e, err
	}

	e.product = product
	e.categories = categories
	e.form = Form{
		Title:       product.Title,
		Price:       product.Price,
		Description: product.Description,
		Category:    product.Category,
		Gender:      product.Gender,
		Status:      product.Status,
	}
	for _, url := range product.Images {
		if url == "" {
			continue
		}
		e.staged = append(e.staged, StagedImage{Preview: url, URL: url})
	}
	e.staged = reindex(e.staged)
	return e, nil
}

// Stage adds files to the image list. At most MaxImages images can be staged;
// files beyond the remaining slots are dropped and the cap message is shown.
// Invalid files are skipped and their reason is shown. File pickers and drag
// and drop both feed this method.
func (e *Editor) Stage(files ...images.File) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Busy() {
		return ErrBusy
	}
	if e.state == StateDeleted {
		return ErrDeleted
	}

	capMsg := fmt.Sprintf(MsgImageCap, e.svc.MaxImages)
	remaining := e.svc.MaxImages - len(e.staged)
	if remaining <= 0 {
		e.errMsg = capMsg
		return models.Invalid("images", capMsg)
	}

	batch := files
	truncated := len(files) > remaining
	if truncated {
		batch = files[:remaining]
	}

	var firstErr error
	for _, f := range batch {
		if err := images.Validate(f); err != nil {
			e.errMsg = err.Error()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		preview, err := images.ToPreview(f)
		if err != nil {
			e.svc.Logger.Error("Failed to read staged image", "name", f.Name, "err", err)
			e.errMsg = MsgInvalidFile
			if firstErr == nil {
				firstErr = models.Invalid(f.Name, "could not be read")
			}
			continue
		}

		file := f
		e.staged = append(e.staged, StagedImage{Index: len(e.staged), Preview: preview, File: &file})
		e.errMsg = ""
	}

	if truncated {
		e.errMsg = capMsg
		return models.Invalid("images", capMsg)
	}
	return firstErr
}

// RemoveImage drops the image at position index and renumbers the rest.
// It reports whether an image was removed.
func (e *Editor) RemoveImage(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Busy() {
		return false
	}

	kept := make([]StagedImage, 0, len(e.staged))
	for _, img := range e.staged {
		if img.Index != index {
			kept = append(kept, img)
		}
	}
	removed := len(kept) != len(e.staged)
	e.staged = reindex(kept)
	return removed
}

// Submit validates the form, optimizes and uploads newly staged images, then
// creates or updates the product. Existing image URLs keep their order and come
// before new uploads; the first URL becomes the main image. Any failure leaves
// the form and staged images untouched so the admin can retry.
func (e *Editor) Submit(ctx context.Context, form Form) (*models.Product, error) {
	e.mu.Lock()
	if e.state.Busy() {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	if e.state == StateDeleted {
		e.mu.Unlock()
		return nil, ErrDeleted
	}
	if e.mode == ModeEdit && e.product == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("product %s was not loaded", e.id)
	}
	e.form = form
	e.errMsg = ""
	e.successMsg = ""
	e.progress = 0
	e.redirect = nil
	e.transition(StateValidating)
	staged := append([]StagedImage(nil), e.staged...)
	e.mu.Unlock()

	log := e.svc.Logger.With("mode", string(e.mode), "product_id", e.id)

	if err := form.Validate(e.mode); err != nil {
		return nil, e.fail(StateValidating, err.Error(), err)
	}
	if len(staged) == 0 {
		err := models.Invalid("images", "at least one image is required")
		return nil, e.fail(StateValidating, err.Error(), err)
	}

	var (
		existing []string
		pending  []images.File
	)
	for _, img := range staged {
		if img.Existing() {
			existing = append(existing, img.URL)
		} else {
			pending = append(pending, *img.File)
		}
	}

	e.advance(StateOptimizing, 25)
	optimized, err := e.optimizeAll(ctx, pending)
	if err != nil {
		log.Error("Failed to optimize images", "err", err)
		return nil, e.fail(StateOptimizing, MsgProcessingFailed, err)
	}

	e.advance(StateUploading, 50)
	uploaded, err := e.uploadAll(ctx, optimized)
	if err != nil {
		log.Error("Failed to upload images", "err", err)
		return nil, e.fail(StateUploading, MsgProcessingFailed, err)
	}

	urls := append(existing, uploaded...)

	e.advance(StateSaving, 75)
	product, err := e.save(ctx, form, urls)
	if err != nil {
		log.Error("Failed to save product", "err", err)
		return nil, e.fail(StateSaving, MsgSaveFailed, err)
	}

	log.Info("Product saved", "id", product.ID, "images", len(urls), "uploaded", len(uploaded))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(StateDone)
	e.progress = 100
	e.product = product
	e.staged = make([]StagedImage, len(urls))
	for i, url := range urls {
		e.staged[i] = StagedImage{Index: i, Preview: url, URL: url}
	}
	e.successMsg = MsgCreated
	if e.mode == ModeEdit {
		e.successMsg = MsgUpdated
	}
	e.scheduleRedirect(ListPath, e.svc.SuccessDelay)

	result := *product
	return &result, nil
}

// optimizeAll re-encodes every file concurrently, keeping input order
func (e *Editor) optimizeAll(ctx context.Context, files []images.File) ([]images.File, error) {
	out := make([]images.File, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			optimized, err := images.Optimize(f, e.svc.Images)
			if err != nil {
				return err
			}
			out[i] = optimized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// uploadAll uploads every file in parallel and waits for all of them. The
// first failure fails the batch.
func (e *Editor) uploadAll(ctx context.Context, files []images.File) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		path := e.svc.Paths.Generate(f.Name)
		g.Go(func() error {
			data, err := f.ReadAll()
			if err != nil {
				return err
			}
			url, err := e.svc.Store.Upload(gctx, data, path, f.Type)
			if err != nil {
				return fmt.Errorf("upload %s: %w", path, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (e *Editor) save(ctx context.Context, form Form, urls []string) (*models.Product, error) {
	title := strings.TrimSpace(form.Title)
	description := strings.TrimSpace(form.Description)
	category := strings.TrimSpace(form.Category)
	gender := strings.TrimSpace(form.Gender)

	if e.mode == ModeCreate {
		return e.svc.Products.Create(ctx, models.NewProduct{
			Title:       title,
			Price:       form.Price,
			Description: description,
			Category:    category,
			Gender:      gender,
			ImageMain:   urls[0],
			Images:      urls,
		})
	}

	status := strings.TrimSpace(form.Status)
	update := models.ProductUpdate{
		Title:       &title,
		Price:       &form.Price,
		Description: &description,
		Category:    &category,
		Status:      &status,
		ImageMain:   &urls[0],
		Images:      urls,
	}
	if gender != "" {
		update.Gender = &gender
	}
	if err := e.svc.Products.Update(ctx, e.id, update); err != nil {
		return nil, err
	}

	e.mu.Lock()
	updated := *e.product
	e.mu.Unlock()
	updated.Title = title
	updated.Price = form.Price
	updated.Description = description
	updated.Category = category
	updated.Status = status
	if gender != "" {
		updated.Gender = gender
	}
	updated.ImageMain = urls[0]
	updated.Images = urls
	return &updated, nil
}

// Delete removes the product being edited once the admin confirms. Without
// confirmation nothing reaches the catalog and false is returned.
func (e *Editor) Delete(ctx context.Context, confirm Confirmer) (bool, error) {
	e.mu.Lock()
	if e.mode != ModeEdit || e.product == nil {
		e.mu.Unlock()
		return false, fmt.Errorf("no product loaded to delete")
	}
	if e.state.Busy() {
		e.mu.Unlock()
		return false, ErrBusy
	}
	if e.state == StateDeleted {
		e.mu.Unlock()
		return false, ErrDeleted
	}
	title := e.product.Title
	e.mu.Unlock()

	prompt := fmt.Sprintf("Are you sure you want to delete %q?\n\nThis action cannot be undone.", title)
	if confirm == nil || !confirm.Confirm(prompt) {
		return false, nil
	}

	e.mu.Lock()
	e.errMsg = ""
	e.successMsg = ""
	e.transition(StateDeleting)
	e.mu.Unlock()

	if err := e.svc.Products.Delete(ctx, e.id); err != nil {
		e.svc.Logger.Error("Failed to delete product", "product_id", e.id, "err", err)
		return false, e.fail(StateDeleting, MsgDeleteFailed, err)
	}

	e.svc.Logger.Info("Product deleted", "product_id", e.id)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(StateDeleted)
	e.successMsg = MsgDeleted
	e.scheduleRedirect(ListPath, e.svc.DeleteDelay)
	return true, nil
}

// advance moves to the next pipeline stage
func (e *Editor) advance(next State, progress int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(next)
	e.progress = progress
}

// fail moves from stage to the error state, records the message and returns err
func (e *Editor) fail(stage State, message string, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stage {
		e.svc.Logger.Warn("Form failure reported from unexpected state", "state", e.state.String(), "stage", stage.String())
	}
	e.transition(StateError)
	e.errMsg = message
	return err
}

// transition must be called with mu held
func (e *Editor) transition(next State) {
	if !e.state.CanTransition(next) {
		panic(fmt.Sprintf("products: illegal form transition %s -> %s", e.state, next))
	}
	e.state = next
}

// scheduleRedirect must be called with mu held
func (e *Editor) scheduleRedirect(to string, after time.Duration) {
	e.redirect = &Redirect{To: to, After: after}
	if nav := e.svc.Navigator; nav != nil {
		time.AfterFunc(after, func() { nav.Navigate(to) })
	}
}

// View is a point-in-time copy of the session for rendering
type View struct {
	Mode       Mode              `json:"mode"`
	ID         string            `json:"id,omitempty"`
	State      State             `json:"state"`
	Form       Form              `json:"form"`
	Categories []models.Category `json:"categories,omitempty"`
	Images     []StagedImage     `json:"images"`
	Error      string            `json:"error,omitempty"`
	Success    string            `json:"success,omitempty"`
	Progress   int               `json:"progress"`
	Redirect   *Redirect         `json:"redirect,omitempty"`
}

// Snapshot returns the current view of the session
func (e *Editor) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View{
		Mode:       e.mode,
		ID:         e.id,
		State:      e.state,
		Form:       e.form,
		Categories: append([]models.Category(nil), e.categories...),
		Images:     append([]StagedImage{}, e.staged...),
		Error:      e.errMsg,
		Success:    e.successMsg,
		Progress:   e.progress,
	}
	if e.redirect != nil {
		r := *e.redirect
		v.Redirect = &r
	}
	return v
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Images() []StagedImage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]StagedImage(nil), e.staged...)
}

func (e *Editor) ErrorMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

func (e *Editor) SuccessMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.successMsg
}

// Redirect returns the pending navigation, if any
func (e *Editor) Redirect() *Redirect {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.redirect == nil {
		return nil
	}
	r := *e.redirect
	return &r
}

// Product returns the product as last loaded or saved
func (e *Editor) Product() *models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.product == nil {
		return nil
	}
	p := *e.product
	return &p
}
