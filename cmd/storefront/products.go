package main

import (
	"fmt"
	"os"
	"path/filepath"

	"storefront/browse"
	"storefront/client"
	"storefront/models"

	"github.com/spf13/cobra"
)

type productFlags struct {
	name        string
	price       float64
	description string
	categoryID  string
	imgTitle    string
	alt         string
	image       string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().Float64Var(&f.price, "price", 0, "product price")
	cmd.Flags().StringVar(&f.description, "description", "", "product description")
	cmd.Flags().StringVar(&f.categoryID, "category", "", "category id")
	cmd.Flags().StringVar(&f.imgTitle, "img-title", "", "image title")
	cmd.Flags().StringVar(&f.alt, "alt", "", "image alt text")
	cmd.Flags().StringVar(&f.image, "image", "", "path to a jpg, jpeg, png or gif file")
}

// form builds the request body. The image file, if any, must be closed by
// the caller.
func (f *productFlags) form(cmd *cobra.Command) (client.ProductForm, *os.File, error) {
	input := models.ProductInput{
		Name:        f.name,
		Description: f.description,
		CategoryID:  f.categoryID,
		ImgTitle:    f.imgTitle,
		Alt:         f.alt,
	}
	if cmd.Flags().Changed("price") {
		p := f.price
		input.Price = &p
	}
	form := client.ProductForm{Input: input}
	if f.image == "" {
		return form, nil, nil
	}
	file, err := os.Open(f.image)
	if err != nil {
		return form, nil, fmt.Errorf("open image: %w", err)
	}
	form.Image = &client.ImageFile{Filename: filepath.Base(f.image), Content: file}
	return form, file, nil
}

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage products",
	}
	cmd.AddCommand(c.productsListCmd(), c.productShowCmd())

	var createFlags productFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product with an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, file, err := createFlags.form(cmd)
			if err != nil {
				return err
			}
			if file != nil {
				defer file.Close()
			}
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			product, err := c.client.CreateProduct(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created product %s (%s) image %s\n", product.Name, product.ID, c.client.ImageURL(product.Img))
			return nil
		},
	}
	createFlags.register(create)

	var updateFlags productFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product's fields, optionally with a new image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, file, err := updateFlags.form(cmd)
			if err != nil {
				return err
			}
			if file != nil {
				defer file.Close()
			}
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			product, err := c.client.UpdateProduct(ctx, args[0], form)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Updated product %s (%s)\n", product.Name, product.ID)
			return nil
		},
	}
	updateFlags.register(update)

	cmd.AddCommand(create, update, &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			if err := c.client.DeleteProduct(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted product %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func (c *cli) productsListCmd() *cobra.Command {
	state := browse.New()
	var category, sortBy, order string
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of products, searched and sorted within that page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state.SetCategory(category)
			state.SetPage(page)
			if err := state.SetSort(sortBy, order); err != nil {
				return err
			}

			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			result, err := c.client.ListProducts(ctx, state.Params())
			if err != nil {
				return err
			}

			w := c.table()
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tCATEGORY")
			for _, p := range state.Apply(result.Products) {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Price, categoryName(p))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			pg := result.Pagination
			fmt.Fprintf(c.out, "Page %d of %d (%d products)\n", pg.Current, pg.Pages, pg.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", browse.AllCategories, "category id, or \"all\"")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&state.Search, "search", "", "case-insensitive text to find in name or description")
	cmd.Flags().StringVar(&sortBy, "sort", browse.SortByName, "sort key: name or price")
	cmd.Flags().StringVar(&order, "order", browse.OrderAsc, "sort order: asc or desc")
	return cmd
}

func (c *cli) productShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product and related products from its category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			product, err := c.client.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}

			w := c.table()
			fmt.Fprintf(w, "ID\t%s\n", product.ID)
			fmt.Fprintf(w, "Name\t%s\n", product.Name)
			fmt.Fprintf(w, "Price\t%.2f\n", product.Price)
			fmt.Fprintf(w, "Description\t%s\n", product.Description)
			fmt.Fprintf(w, "Category\t%s\n", categoryName(*product))
			fmt.Fprintf(w, "Image\t%s\n", c.client.ImageURL(product.Img))
			fmt.Fprintf(w, "Image title\t%s\n", product.ImgTitle)
			fmt.Fprintf(w, "Alt\t%s\n", product.Alt)
			if err := w.Flush(); err != nil {
				return err
			}

			if product.Category == nil {
				return nil
			}
			page, err := c.client.ListProductsByCategory(ctx, product.Category.ID, browse.RelatedParams())
			if err != nil {
				c.log.Warnf("Failed to load related products: %v", err)
				return nil
			}
			related := browse.Related(page.Products, product.ID)
			if len(related) == 0 {
				return nil
			}
			fmt.Fprintln(c.out, "\nRelated products:")
			for _, p := range related {
				fmt.Fprintf(c.out, "  %s  %s  %.2f\n", p.ID, p.Name, p.Price)
			}
			return nil
		},
	}
}

func categoryName(p models.Product) string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
