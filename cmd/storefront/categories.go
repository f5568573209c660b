package main

import (
	"fmt"

	"storefront/models"

	"github.com/spf13/cobra"
)

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "List and manage categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			categories, err := c.client.ListCategories(ctx)
			if err != nil {
				return err
			}
			w := c.table()
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, cat := range categories {
				fmt.Fprintf(w, "%s\t%s\t%s\n", cat.ID, cat.Name, cat.Description)
			}
			return w.Flush()
		},
	})

	var input models.CategoryInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			category, err := c.client.CreateCategory(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created category %s (%s)\n", category.Name, category.ID)
			return nil
		},
	}
	categoryFlags(create, &input)

	var updateInput models.CategoryInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a category's name and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			category, err := c.client.UpdateCategory(ctx, args[0], updateInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Updated category %s (%s)\n", category.Name, category.ID)
			return nil
		},
	}
	categoryFlags(update, &updateInput)

	cmd.AddCommand(create, update, &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category that has no products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			if err := c.client.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted category %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func categoryFlags(cmd *cobra.Command, input *models.CategoryInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "category name")
	cmd.Flags().StringVar(&input.Description, "description", "", "category description")
}
