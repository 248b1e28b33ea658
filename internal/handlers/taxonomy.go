package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
)

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.handleTaxonomy(w, r, h.services.Categories, "Category")
}

func (h *Handler) HandleGenders(w http.ResponseWriter, r *http.Request) {
	h.handleTaxonomy(w, r, h.genders, "Gender")
}

func (h *Handler) handleTaxonomy(w http.ResponseWriter, r *http.Request, taxonomy catalog.Taxonomy, label string) {
	if taxonomy == nil {
		h.writeMessage(w, label+" list is not configured", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := taxonomy.List(r.Context())
		if err != nil {
			h.writeError(w, err, "")
			return
		}
		h.writeJSON(w, http.StatusOK, "", entries)
	case http.MethodPost:
		var request struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeMessage(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := taxonomy.Add(r.Context(), request.Name)
		if err != nil {
			h.writeError(w, err, "")
			return
		}
		h.logger.Info("Added taxonomy entry", "kind", label, "id", id, "name", request.Name)
		h.writeJSON(w, http.StatusCreated, label+" added", map[string]string{"id": id})
	default:
		h.methodNotAllowed(w)
	}
}
