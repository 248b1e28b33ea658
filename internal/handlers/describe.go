package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/storeadmin/internal/assist"
)

// HandleDescribe suggests a description from the product fields and an optional image
func (h *Handler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w)
		return
	}
	if h.assistant == nil {
		h.writeMessage(w, "Description assistant is not configured", http.StatusServiceUnavailable)
		return
	}

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

	req := assist.Request{Title: form.Title, Category: form.Category, Gender: form.Gender}
	if len(files) > 0 {
		req.Image = &files[0]
	}

	description, err := h.assistant.Suggest(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Could not generate a description.")
		return
	}
	h.writeJSON(w, http.StatusOK, "", map[string]string{"description": description})
}
