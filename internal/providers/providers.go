package providers

import (
	"context"
)

// Image is an inline picture sent along with the prompt
type Image struct {
	Data     []byte
	MimeType string
}

// Config represents the configuration for one LLM request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       *Image
}

// Provider defines the interface for an LLM provider
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, config Config) (string, error)
}
