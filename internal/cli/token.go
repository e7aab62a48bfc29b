package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Access token utilities",
	}

	var email string
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a development access token",
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
			tok, exp, err := a.Services.Tokens.Mint(ctx, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}
	mintCmd.Flags().StringVar(&email, "email", "", "Email the token is issued to")
	tokenCmd.AddCommand(mintCmd)
	return tokenCmd
}
