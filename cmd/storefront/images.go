package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) imagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Inspect uploaded images",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List uploaded images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			list, err := c.client.ListImages(ctx)
			if err != nil {
				return err
			}
			w := c.table()
			fmt.Fprintln(w, "FILENAME\tURL")
			for _, img := range list {
				fmt.Fprintf(w, "%s\t%s\n", img.Filename, img.FullURL)
			}
			return w.Flush()
		},
	}, &cobra.Command{
		Use:   "details <filename>",
		Short: "Show size and timestamps of an uploaded image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()
			details, err := c.client.ImageDetails(ctx, args[0])
			if err != nil {
				return err
			}
			w := c.table()
			fmt.Fprintf(w, "Filename\t%s\n", details.Filename)
			fmt.Fprintf(w, "URL\t%s\n", details.FullURL)
			fmt.Fprintf(w, "Size\t%d bytes\n", details.Size)
			fmt.Fprintf(w, "Created\t%s\n", details.Created.Format(time.RFC3339))
			fmt.Fprintf(w, "Modified\t%s\n", details.Modified.Format(time.RFC3339))
			return w.Flush()
		},
	})
	return cmd
}
