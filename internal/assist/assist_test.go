package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/ollama"
	"github.com/lehigh-university-libraries/storeadmin/internal/providers"
)

type stubProvider struct {
	response string
	err      error
	got      providers.Config
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	s.got = config
	return s.response, s.err
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "plain json", response: `{"description": "Soft cotton tee."}`, want: "Soft cotton tee."},
		{name: "fenced json", response: "```json\n{\"description\": \"Linen shirt.\"}\n```", want: "Linen shirt."},
		{name: "raw text fallback", response: "  A lovely dress.  ", want: "A lovely dress."},
		{name: "empty description falls back", response: `{"description": ""}`, want: `{"description": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDescription(tt.response); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	stub := &stubProvider{response: `{"description":"Relaxed fit shirt."}`}
	s := NewWithProvider(stub, "test-model")

	image := images.NewFile("shirt.png", "image/png", []byte("\x89PNG\r\n\x1a\nrest"))
	got, err := s.Suggest(context.Background(), Request{Title: "Blue Shirt", Category: "Shirts", Image: &image})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if got != "Relaxed fit shirt." {
		t.Errorf("Expected description, got %q", got)
	}
	if stub.got.Model != "test-model" {
		t.Errorf("Expected model test-model, got %s", stub.got.Model)
	}
	if !strings.Contains(stub.got.Prompt, "Title: Blue Shirt") || !strings.Contains(stub.got.Prompt, "Category: Shirts") {
		t.Errorf("Expected prompt to include product fields, got %q", stub.got.Prompt)
	}
	if stub.got.Image == nil || stub.got.Image.MimeType != "image/png" {
		t.Errorf("Expected image attached, got %+v", stub.got.Image)
	}
}

func TestSuggestErrors(t *testing.T) {
	s := NewWithProvider(&stubProvider{err: errors.New("offline")}, "m")
	if _, err := s.Suggest(context.Background(), Request{Title: "x"}); err == nil {
		t.Errorf("Expected provider error to propagate")
	}
	if _, err := s.Suggest(context.Background(), Request{}); !models.IsValidation(err) {
		t.Errorf("Expected validation error without title or image, got %v", err)
	}

	bad := images.NewFile("doc.pdf", "application/pdf", []byte("%PDF"))
	if _, err := s.Suggest(context.Background(), Request{Title: "x", Image: &bad}); !models.IsValidation(err) {
		t.Errorf("Expected validation error for a pdf, got %v", err)
	}
}

func TestNewServiceProviders(t *testing.T) {
	for _, name := range []string{"", "ollama", "gemini", "openai"} {
		if _, err := NewService(Settings{Provider: name}); err != nil {
			t.Errorf("Expected provider %q to be supported, got %v", name, err)
		}
	}
	if _, err := NewService(Settings{Provider: "bard"}); err == nil {
		t.Errorf("Expected unknown provider to fail")
	}
}

func TestSuggestWithOllama(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected /api/generate, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": `{"description":"Warm wool coat."}`})
	}))
	defer server.Close()

	s := NewWithProvider(ollama.New(server.URL), "llava")
	image := images.NewFile("coat.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff, 0xe0})
	got, err := s.Suggest(context.Background(), Request{Title: "Coat", Image: &image})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if got != "Warm wool coat." {
		t.Errorf("Expected description, got %q", got)
	}
	if payload["model"] != "llava" {
		t.Errorf("Expected model llava, got %v", payload["model"])
	}
	if imgs, ok := payload["images"].([]any); !ok || len(imgs) != 1 {
		t.Errorf("Expected one base64 image, got %v", payload["images"])
	}
}
