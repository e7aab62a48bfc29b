package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/scd-backend/internal/app"
	"github.com/yungbote/scd-backend/internal/data/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			svc, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := db.AutoMigrateAll(svc.DB()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(db.Models()))
			return nil
		},
	}
}
