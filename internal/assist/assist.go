package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/gemini"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/ollama"
	"github.com/lehigh-university-libraries/storeadmin/internal/openai"
	"github.com/lehigh-university-libraries/storeadmin/internal/providers"
)

// Request describes the product a description is wanted for
type Request struct {
	Title    string
	Category string
	Gender   string
	Image    *images.File
}

// Settings selects and configures the provider
type Settings struct {
	Provider     string
	Model        string
	Temperature  float64
	OllamaURL    string
	GeminiAPIKey string
	OpenAIAPIKey string
}

// Service suggests product descriptions with an LLM
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewService picks the configured provider, defaulting to ollama
func NewService(s Settings) (*Service, error) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		name = "ollama"
	}

	var p providers.Provider
	switch name {
	case "ollama":
		p = ollama.New(s.OllamaURL)
	case "gemini":
		p = gemini.New(s.GeminiAPIKey)
	case "openai":
		p = openai.New(s.OpenAIAPIKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", s.Provider)
	}

	model := s.Model
	if model == "" {
		model = DefaultModel(name)
	}
	temperature := s.Temperature
	if temperature == 0 {
		temperature = 0.4
	}
	return &Service{provider: p, model: model, temperature: temperature}, nil
}

// NewWithProvider builds a service around an existing provider
func NewWithProvider(p providers.Provider, model string) *Service {
	return &Service{provider: p, model: model, temperature: 0.4}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o"
	default:
		return "mistral-small3.2:24b"
	}
}

// Suggest asks the provider for a short shop description
func (s *Service) Suggest(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Title) == "" && req.Image == nil {
		return "", models.Invalid("title", "a title or an image is required")
	}

	config := providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      buildPrompt(req),
	}
	if req.Image != nil {
		if err := images.Validate(*req.Image); err != nil {
			return "", err
		}
		data, err := req.Image.ReadAll()
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		config.Image = &providers.Image{Data: data, MimeType: req.Image.Type}
	}

	raw, err := s.provider.GenerateText(ctx, config)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	description := extractDescription(raw)
	if description == "" {
		return "", fmt.Errorf("%s returned an empty description", s.provider.Name())
	}
	slog.Info("Generated product description", "provider", s.provider.Name(), "model", s.model, "length", len(description))
	return description, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You write listings for a small clothing shop. ")
	b.WriteString("Write a product description of two or three sentences in a warm, plain tone. ")
	b.WriteString("Mention material, colour and fit only when they are known or clearly visible. ")
	b.WriteString("Do not invent brand names or sizes.\n\n")
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if req.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", req.Gender)
	}
	if req.Image != nil {
		b.WriteString("A photo of the item is attached.\n")
	}
	b.WriteString("\nRespond with JSON only: {\"description\": \"...\"}")
	return b.String()
}

// extractDescription reads the JSON answer, falling back to the raw text
func extractDescription(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var result struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		slog.Warn("Failed to parse JSON response, using raw output", "error", err)
		return response
	}
	if result.Description == "" {
		slog.Warn("JSON parsed but description is empty, using raw output")
		return response
	}
	return strings.TrimSpace(result.Description)
}
