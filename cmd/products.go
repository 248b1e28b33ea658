package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/storeadmin/internal/images"
	"github.com/lehigh-university-libraries/storeadmin/internal/models"
	"github.com/lehigh-university-libraries/storeadmin/internal/products"
)

func newProductsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "List, create, edit and delete products",
	}

	cmd.AddCommand(newProductsListCmd(g))
	cmd.AddCommand(newProductsShowCmd(g))
	cmd.AddCommand(newProductsCreateCmd(g))
	cmd.AddCommand(newProductsEditCmd(g))
	cmd.AddCommand(newProductsDeleteCmd(g))
	cmd.AddCommand(newProductsStatusCmd(g))

	return cmd
}

func newProductsListCmd(g *globals) *cobra.Command {
	var filter products.Filter
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, newest first",
		Example: `  # Every product
  storeadmin products list

  # Sold shirts
  storeadmin products list --title shirt --status sold`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			browser := products.NewBrowser(b.Products, b.Categories, nil)
			if err := browser.Load(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", products.MsgLoadFailed, err)
			}
			visible := browser.Filter(filter)

			if asJSON {
				return printJSON(cmd.OutOrStdout(), visible)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRICE\tCATEGORY\tSTATUS\tIMAGES")
			for _, p := range visible {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%d\n", p.ID, p.Title, p.Price, p.Category, p.Status, len(p.Images))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filter.Title, "title", "", "Only titles containing this text (case-insensitive)")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only this status")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func newProductsShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			p, err := b.Products.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

// productFlags are shared by create and edit
type productFlags struct {
	form      products.Form
	price     string
	images    []string
	imageURLs []string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.form.Title, "title", "", "Product title")
	cmd.Flags().StringVar(&f.price, "price", "", "Price")
	cmd.Flags().StringVar(&f.form.Description, "description", "", "Description")
	cmd.Flags().StringVar(&f.form.Category, "category", "", "Category name")
	cmd.Flags().StringVar(&f.form.Gender, "gender", "", "Gender tag")
	cmd.Flags().StringSliceVar(&f.images, "image", nil, "Image file to upload (repeatable)")
	cmd.Flags().StringSliceVar(&f.imageURLs, "image-url", nil, "Remote image to download and upload (repeatable)")
}

func (f *productFlags) parsePrice() error {
	if f.price == "" {
		return nil
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(f.price), 64)
	if err != nil {
		return models.Invalid("price", "must be a positive number")
	}
	f.form.Price = price
	return nil
}

// stage opens every image flag and hands the files to the editor
func (f *productFlags) stage(cmd *cobra.Command, editor *products.Editor) error {
	var files []images.File
	for _, path := range f.images {
		file, err := images.OpenFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	fetcher := images.NewFetcher()
	for _, url := range f.imageURLs {
		file, err := fetcher.Fetch(cmd.Context(), url)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil
	}
	return editor.Stage(files...)
}

func newProductsCreateCmd(g *globals) *cobra.Command {
	flags := &productFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product with one or more images",
		Example: `  storeadmin products create --title "Test Shirt" --price 10 \
    --description "Soft cotton" --category Shirts --image front.jpg --image back.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.parsePrice(); err != nil {
				return err
			}
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			editor := products.NewEditor(services(g.cfg, b))
			if err := flags.stage(cmd, editor); err != nil {
				return err
			}
			product, err := editor.Submit(cmd.Context(), flags.form)
			if err != nil {
				return submitError(editor, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), editor.SuccessMessage())
			return printJSON(cmd.OutOrStdout(), product)
		},
	}
	flags.register(cmd)

	return cmd
}

func newProductsEditCmd(g *globals) *cobra.Command {
	flags := &productFlags{}
	var remove []int
	var status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a product; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		Example: `  # Mark as sold and replace the second image
  storeadmin products edit abc123 --status sold --remove-image 1 --image side.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.parsePrice(); err != nil {
				return err
			}
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			editor, err := products.LoadEditor(cmd.Context(), services(g.cfg, b), args[0])
			if err != nil {
				return err
			}

			form := editor.Snapshot().Form
			mergeForm(&form, flags.form, cmd)
			if cmd.Flags().Changed("status") {
				form.Status = status
			}

			// highest index first so earlier positions stay valid
			for _, index := range removalOrder(remove) {
				if !editor.RemoveImage(index) {
					return models.Invalid("remove-image", fmt.Sprintf("no image at index %d", index))
				}
			}
			if err := flags.stage(cmd, editor); err != nil {
				return err
			}

			product, err := editor.Submit(cmd.Context(), form)
			if err != nil {
				return submitError(editor, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), editor.SuccessMessage())
			return printJSON(cmd.OutOrStdout(), product)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Status label")
	cmd.Flags().IntSliceVar(&remove, "remove-image", nil, "Index of an existing image to remove (repeatable)")

	return cmd
}

// mergeForm copies the flags the user set over the loaded values
func mergeForm(dst *products.Form, src products.Form, cmd *cobra.Command) {
	changed := cmd.Flags().Changed
	if changed("title") {
		dst.Title = src.Title
	}
	if changed("price") {
		dst.Price = src.Price
	}
	if changed("description") {
		dst.Description = src.Description
	}
	if changed("category") {
		dst.Category = src.Category
	}
	if changed("gender") {
		dst.Gender = src.Gender
	}
}

func submitError(editor *products.Editor, err error) error {
	if models.IsValidation(err) {
		return err
	}
	return fmt.Errorf("%s: %w", editor.ErrorMessage(), err)
}

func newProductsDeleteCmd(g *globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			editor, err := products.LoadEditor(cmd.Context(), services(g.cfg, b), args[0])
			if err != nil {
				return err
			}

			var confirmer products.Confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				confirmer = products.ConfirmFunc(func(string) bool { return true })
			}
			deleted, err := editor.Delete(cmd.Context(), confirmer)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), editor.SuccessMessage())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}

func newProductsStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a product's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := strings.TrimSpace(args[1])
			if status == "" {
				return models.Invalid("status", "is required")
			}
			b, err := g.open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			if _, err := b.Products.Get(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return fmt.Errorf("%s: %w", products.MsgNotFound, err)
				}
				return err
			}
			if err := b.Products.UpdateStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], strings.ToLower(status))
			return nil
		},
	}
}

// removalOrder returns the distinct indexes in descending order
func removalOrder(indexes []int) []int {
	out := slices.Clone(indexes)
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out
}
