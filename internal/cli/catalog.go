package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the requirement catalog",
	}

	var as string
	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import requirements from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			actor, err := resolveActor(ctx, a, as)
			if err != nil {
				return err
			}
			res, err := a.Services.Catalog.ImportCSV(ctx, actor, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d duplicates\n", res.Created, res.Duplicates)
			return nil
		},
	}
	importCmd.Flags().StringVar(&as, "as", defaultCLIActor, "Email recorded as the importer")
	catalogCmd.AddCommand(importCmd)
	return catalogCmd
}
