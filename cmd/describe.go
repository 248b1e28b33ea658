package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/assist"
	"github.com/lehigh-university-libraries/storeadmin/internal/images"
)

func newDescribeCmd(g *globals) *cobra.Command {
	var req assist.Request
	var imagePath, provider, model string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Suggest a product description with an LLM",
		Long: `Asks the configured LLM provider (ollama, gemini or openai) for a short
product description based on the title, category and an optional photo.`,
		Example: `  # Describe from a photo with a local Ollama vision model
  storeadmin describe --title "Linen Shirt" --image shirt.jpg --model llava

  # Use Gemini
  storeadmin describe --title "Red Dress" --category Dresses --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := assistSettings(g.cfg.Assistant)
			if provider != "" {
				settings.Provider = provider
				settings.Model = ""
			}
			if model != "" {
				settings.Model = model
			}
			service, err := assist.NewService(settings)
			if err != nil {
				return err
			}

			if imagePath != "" {
				file, err := images.OpenFile(imagePath)
				if err != nil {
					return err
				}
				req.Image = &file
			}

			description, err := service.Suggest(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), description)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Product title")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category name")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Gender tag")
	cmd.Flags().StringVar(&imagePath, "image", "", "Photo of the product")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (ollama, gemini, openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults to provider's default)")

	return cmd
}
