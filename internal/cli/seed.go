package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beesmart/beesmart/internal/demo"
)

func newSeedProductsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-products",
		Short: "Insert the default product catalog",
		Long: `Insert the default products (Miel, Cera, Polen, Propóleo, Jalea real).
Products that already exist, in any letter case, are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			added, err := store.Products.SeedDefaults(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to seed products: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d product(s)\n", added)
			return nil
		},
	}
}

func newSeedDemoCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Fill the store with sample apiaries, hives and records",
		Long: `Insert sample apiaries with hives, inspections and harvests dated
relative to today. Refuses to touch a store that already has apiaries
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := commandContext(cmd)
			existing, err := store.Apiaries.List(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				return fmt.Errorf("store already has %d apiaries, use --force to add demo data anyway", len(existing))
			}

			sum, err := demo.Generate(ctx, store.DemoRepositories(), time.Now(), a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d apiaries, %d hives, %d inspections, %d harvests\n",
				sum.Apiaries, sum.Hives, sum.Inspections, sum.Harvests)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Add demo data to a non-empty store")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
