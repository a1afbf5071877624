package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
)

func newValidateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored document against the store invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}

			backend, _, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			doc, ok, err := backend.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no stored document found")
			}

			out := cmd.OutOrStdout()
			violations := catalog.Check(doc)
			for _, v := range violations {
				fmt.Fprintln(out, v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d violation(s)", len(violations))
			}

			fmt.Fprintf(out, "ok: %d products, %d wishlisted, %d cart lines\n",
				len(doc.Products), len(doc.WishlistedProductIDs), len(doc.ShoppingCart))
			return nil
		},
	}
}
