package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "minishop",
		Short:         "Product catalog, wishlist and cart API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")

	root.AddCommand(
		newServeCmd(&configFile),
		newValidateCmd(&configFile),
		newHashPasswordCmd(),
		newVersionCmd(),
	)
	return root
}
