package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"storefront/client"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type cli struct {
	apiURL  string
	verbose bool
	timeout time.Duration

	out    io.Writer
	log    *logrus.Logger
	client *client.Client
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, log: logrus.New()}
	c.log.SetOutput(errOut)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse and manage the storefront catalog",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.log.SetLevel(logrus.DebugLevel)
			}
			api, err := client.New(c.apiURL, nil, c.log)
			if err != nil {
				return err
			}
			c.client = api
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	apiDefault := client.DefaultAPIURL
	if env := os.Getenv("STOREFRONT_API"); env != "" {
		apiDefault = env
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api", apiDefault, "API base URL (env STOREFRONT_API)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "per-command timeout")

	root.AddCommand(
		c.categoriesCmd(),
		c.productsCmd(),
		c.imagesCmd(),
	)
	return root
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}
