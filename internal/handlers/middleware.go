package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/cors"
)

// Routes builds the full HTTP handler. Every /api route except login runs
// behind RequireSession.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	standard := alice.New(h.recoverPanic, h.logRequest, secureHeaders)
	authed := standard.Append(h.RequireSession)

	mux := http.NewServeMux()
	mux.Handle("/api/login", standard.ThenFunc(h.HandleLogin))
	mux.Handle("/api/logout", authed.ThenFunc(h.HandleLogout))
	mux.Handle("/api/products", authed.ThenFunc(h.HandleProducts))
	mux.Handle("/api/products/describe", authed.ThenFunc(h.HandleDescribe))
	mux.Handle("/api/products/", authed.ThenFunc(h.HandleProductDetail))
	mux.Handle("/api/categories", authed.ThenFunc(h.HandleCategories))
	mux.Handle("/api/genders", authed.ThenFunc(h.HandleGenders))
	mux.Handle("/static/", standard.ThenFunc(h.HandleStatic))
	mux.Handle("/", standard.ThenFunc(h.HandleStatic))
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			h.logger.Error("Unable to write healthcheck", "err", err)
		}
	})

	if len(allowedOrigins) == 0 {
		return mux
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// RequireSession rejects requests without a valid admin session
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.auth.Validate(sessionToken(r)); err != nil {
			h.writeError(w, err, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				h.logger.Error("Panic while serving request", "path", r.URL.Path, "err", fmt.Sprint(err))
				h.writeMessage(w, MsgGeneric, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
