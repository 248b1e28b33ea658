package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/storeadmin/internal/assist"
	"github.com/lehigh-university-libraries/storeadmin/internal/auth"
	"github.com/lehigh-university-libraries/storeadmin/internal/catalog"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

// MsgGeneric is shown for backend failures
const MsgGeneric = "Something went wrong. Try again."

// Options wires the handler to its collaborators
type Options struct {
	Services   products.Services
	Genders    catalog.Taxonomy
	Auth       *auth.Authenticator
	Assistant  *assist.Service
	Fetcher    *images.Fetcher
	StaticDir  string
	UploadsDir string
	Logger     *slog.Logger

	// MaxBodyBytes caps form uploads. Zero means room for MaxImages files of
	// images.MaxFileSize plus 1MB of fields.
	MaxBodyBytes int64
}

type Handler struct {
	services   products.Services
	genders    catalog.Taxonomy
	auth       *auth.Authenticator
	assistant  *assist.Service
	fetcher    *images.Fetcher
	staticDir  string
	uploadsDir string
	maxBody    int64
	logger     *slog.Logger
}

func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = images.NewFetcher()
	}
	if opts.Services.Logger == nil {
		opts.Services.Logger = opts.Logger
	}
	if opts.Services.Paths == nil {
		opts.Services.Paths = storage.NewPathGenerator()
	}
	if opts.MaxBodyBytes <= 0 {
		n := opts.Services.MaxImages
		if n <= 0 {
			n = 5
		}
		opts.MaxBodyBytes = int64(n)*images.MaxFileSize + 1<<20
	}
	return &Handler{
		services:   opts.Services,
		genders:    opts.Genders,
		auth:       opts.Auth,
		assistant:  opts.Assistant,
		fetcher:    opts.Fetcher,
		staticDir:  opts.StaticDir,
		uploadsDir: opts.UploadsDir,
		maxBody:    opts.MaxBodyBytes,
		logger:     opts.Logger,
	}
}

// envelope is the response body of every API route
type envelope struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Message: message, Data: data}); err != nil {
		h.logger.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, message, nil)
}

// writeError maps err to a status code. Backend failures get the generic
// message unless a more specific one is given.
func (h *Handler) writeError(w http.ResponseWriter, err error, message string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeMessage(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		h.writeMessage(w, products.MsgNotFound, http.StatusNotFound)
	case errors.Is(err, auth.ErrUnauthenticated):
		h.writeMessage(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, products.ErrBusy):
		h.writeMessage(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errTooLarge):
		h.writeMessage(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		h.logger.Error("Request failed", "err", err)
		if message == "" {
			message = MsgGeneric
		}
		h.writeMessage(w, message, http.StatusBadGateway)
	}
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter) {
	h.writeMessage(w, "Method not allowed", http.StatusMethodNotAllowed)
}
