package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
)

// maxFormMemory bounds the in-memory part of a multipart form. The rest spills to disk.
const maxFormMemory = 32 << 20

var errTooLarge = errors.New("upload too large")

// parseProductForm reads a multipart or urlencoded product form
func (h *Handler) parseProductForm(w http.ResponseWriter, r *http.Request) (products.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return products.Form{}, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooBig.Limit)
		}
		return products.Form{}, models.Invalid("", "Failed to read form: "+err.Error())
	}

	form := products.Form{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Gender:      strings.TrimSpace(r.FormValue("gender")),
		Status:      strings.TrimSpace(r.FormValue("status")),
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return form, models.Invalid("price", "must be a positive number")
		}
		form.Price = price
	}
	return form, nil
}

// uploadedImages collects files sent under "files" or "file" plus an optional
// remote "image_url", in that order
func (h *Handler) uploadedImages(ctx context.Context, r *http.Request) ([]images.File, error) {
	var files []images.File
	if r.MultipartForm != nil {
		for _, key := range []string{"files", "file"} {
			for _, header := range r.MultipartForm.File[key] {
				files = append(files, images.FromMultipart(header))
			}
		}
	}

	if imageURL := strings.TrimSpace(r.FormValue("image_url")); imageURL != "" {
		f, err := h.fetcher.Fetch(ctx, imageURL)
		if err != nil {
			return nil, models.Invalid("image_url", fmt.Sprintf("could not be fetched: %v", err))
		}
		files = append(files, f)
	}
	return files, nil
}
