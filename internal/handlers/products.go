package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
)

// HandleProducts lists products or creates one
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		h.createProduct(w, r)
	default:
		h.methodNotAllowed(w)
	}
}

// HandleProductDetail serves /api/products/{id} and /api/products/{id}/status
func (h *Handler) HandleProductDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/products/"), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		h.writeMessage(w, products.MsgNotFound, http.StatusNotFound)
		return
	}

	switch {
	case sub == "status":
		if r.Method != http.MethodPut {
			h.methodNotAllowed(w)
			return
		}
		h.updateStatus(w, r, id)
	case sub != "":
		h.writeMessage(w, "Not found", http.StatusNotFound)
	case r.Method == http.MethodGet:
		h.showProduct(w, r, id)
	case r.Method == http.MethodPut:
		h.editProduct(w, r, id)
	case r.Method == http.MethodDelete:
		h.deleteProduct(w, r, id)
	default:
		h.methodNotAllowed(w)
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	browser := products.NewBrowser(h.services.Products, h.services.Categories, h.logger)
	if err := browser.Load(r.Context()); err != nil {
		h.writeError(w, err, products.MsgLoadFailed)
		return
	}

	q := r.URL.Query()
	visible := browser.Filter(products.Filter{
		Title:    q.Get("title"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	})
	h.writeJSON(w, http.StatusOK, "", map[string]any{
		"products":   visible,
		"categories": browser.Categories(),
		"filter":     browser.CurrentFilter(),
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseProductForm(w, r)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	files, err := h.uploadedImages(r.Context(), r)
	if err != nil {
		h.writeError(w, err, "")
		return
	}

	editor := products.NewEditor(h.services)
	if len(files) > 0 {
		if err := editor.Stage(files...); err != nil {
			h.writeError(w, err, "")
			return
		}
	}

	if _, err := editor.Submit(r.Context(), form); err != nil {
		h.writeError(w, err, editor.ErrorMessage())
		return
	}
	view := editor.Snapshot()
	h.writeJSON(w, http.StatusCreated, view.Success, map[string]any{
		"product":  editor.Product(),
		"redirect": view.Redirect,
	})
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request, id string) {
	editor, err := products.LoadEditor(r.Context(), h.services, id)
	if err != nil {
		h.writeError(w, err, products.MsgLoadFailed)
		return
	}
	h.writeJSON(w, http.StatusOK, "", editor.Snapshot())
}

// editProduct replaces the product fields. Existing images listed under
// "keep" are preserved in their current order; when no "keep" field is sent
// every existing image is kept. New files are appended after them.
func (h *Handler) editProduct(w http.ResponseWriter, r *http.Request, id string) {
	form, err := h.parseProductForm(w, r)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	files, err := h.uploadedImages(r.Context(), r)
	if err != nil {
		h.writeError(w, err, "")
		return
	}

	editor, err := products.LoadEditor(r.Context(), h.services, id)
	if err != nil {
		h.writeError(w, err, products.MsgLoadFailed)
		return
	}

	if keep, ok := keptImages(r); ok {
		staged := editor.Images()
		for i := len(staged) - 1; i >= 0; i-- {
			if staged[i].Existing() && !keep[staged[i].URL] {
				editor.RemoveImage(staged[i].Index)
			}
		}
	}
	if len(files) > 0 {
		if err := editor.Stage(files...); err != nil {
			h.writeError(w, err, "")
			return
		}
	}

	if _, err := editor.Submit(r.Context(), form); err != nil {
		h.writeError(w, err, editor.ErrorMessage())
		return
	}
	view := editor.Snapshot()
	h.writeJSON(w, http.StatusOK, view.Success, map[string]any{
		"product":  editor.Product(),
		"redirect": view.Redirect,
	})
}

func keptImages(r *http.Request) (map[string]bool, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	values, ok := r.MultipartForm.Value["keep"]
	if !ok {
		return nil, false
	}
	keep := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			keep[v] = true
		}
	}
	return keep, true
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	editor, err := products.LoadEditor(r.Context(), h.services, id)
	if err != nil {
		h.writeError(w, err, products.MsgLoadFailed)
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"
	deleted, err := editor.Delete(r.Context(), products.ConfirmFunc(func(string) bool { return confirmed }))
	if err != nil {
		h.writeError(w, err, products.MsgDeleteFailed)
		return
	}
	if !deleted {
		h.writeMessage(w, "Deletion must be confirmed with confirm=true", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, editor.SuccessMessage(), map[string]any{
		"id":       id,
		"redirect": editor.Redirect(),
	})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	var request struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeMessage(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	status := strings.TrimSpace(request.Status)
	if status == "" {
		h.writeError(w, models.Invalid("status", "is required"), "")
		return
	}

	if _, err := h.services.Products.Get(r.Context(), id); err != nil {
		h.writeError(w, err, products.MsgLoadFailed)
		return
	}
	if err := h.services.Products.UpdateStatus(r.Context(), id, status); err != nil {
		h.writeError(w, err, products.MsgSaveFailed)
		return
	}
	h.writeJSON(w, http.StatusOK, "Status updated", map[string]string{
		"id":     id,
		"status": strings.ToLower(status),
	})
}
