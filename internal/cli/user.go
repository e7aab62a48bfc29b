package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user access",
	}
	userCmd.AddCommand(newUserToggleCmd("disable", true))
	userCmd.AddCommand(newUserToggleCmd("enable", false))
	return userCmd
}

// newUserToggleCmd builds disable/enable. A disabled user cannot mint tokens
// and its existing tokens stop authenticating at the next validation check.
func newUserToggleCmd(name string, disabled bool) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   name,
		Short: strings.ToUpper(name[:1]) + name[1:] + " a user by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			dbc := dbctx.Context{Ctx: ctx}
			u, err := a.Repos.User.GetByEmail(dbc, email)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("no user with email %s", email)
			}
			if err := a.Repos.User.SetDisabled(dbc, u.ID, disabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", u.Email, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user")
	return cmd
}
