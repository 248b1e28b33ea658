package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/assist"
	"github.com/lehigh-university-libraries/storeadmin/internal/backend"
	"github.com/lehigh-university-libraries/storeadmin/internal/config"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
	"github.com/lehigh-university-libraries/storeadmin/internal/storage"
)

// services builds the form controller collaborators from configuration
func services(cfg config.Config, b *backend.Backend) products.Services {
	return products.Services{
		Products:   b.Products,
		Categories: b.Categories,
		Store:      b.Store,
		Paths:      storage.NewPathGenerator(),
		MaxImages:  cfg.Images.MaxImages,
		Images: images.Options{
			MaxWidth:  cfg.Images.MaxWidth,
			MaxHeight: cfg.Images.MaxHeight,
			Quality:   cfg.Images.Quality,
		},
	}
}

func assistSettings(a config.Assistant) assist.Settings {
	return assist.Settings{
		Provider:     a.Provider,
		Model:        a.Model,
		Temperature:  a.Temperature,
		OllamaURL:    a.OllamaURL,
		GeminiAPIKey: a.GeminiAPIKey,
		OpenAIAPIKey: a.OpenAIAPIKey,
	}
}

// promptConfirmer asks on the terminal and accepts y or yes
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s\n[y/N]: ", prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
