package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/scd-backend/internal/app"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

const defaultCLIActor = "cli@localhost"

// NewRootCmd builds the scd command tree.
func NewRootCmd(version string) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "scd",
		Short:         "Success criteria document service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				return os.Setenv("SCD_CONFIG_FILE", configFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides SCD_CONFIG_FILE)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newUserCmd())
	return root
}

func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// resolveActor maps an email onto a user row so CLI writes carry a real id.
func resolveActor(ctx context.Context, a *app.App, email string) (scdcore.Actor, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		email = defaultCLIActor
	}
	u, err := a.Repos.User.EnsureByEmail(dbctx.Context{Ctx: ctx}, email, "")
	if err != nil {
		return scdcore.Actor{}, fmt.Errorf("resolve actor %s: %w", email, err)
	}
	return scdcore.Actor{ID: u.ID, Email: u.Email}, nil
}
