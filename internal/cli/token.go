package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/assembly-floor/pkg/jwt"
)

// NewTokenCmd mints an administrator token
func NewTokenCmd(deps *Dependencies) *cobra.Command {
	var (
		name   string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an administrator bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			manager := jwt.NewManager(deps.Config.JWT.AdminSecret, expiry, deps.Config.JWT.Issuer)
			token, err := manager.GenerateAdminToken(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name recorded in the token")
	cmd.Flags().DurationVar(&expiry, "expiry", deps.Config.JWT.Expiry, "token lifetime")
	return cmd
}
