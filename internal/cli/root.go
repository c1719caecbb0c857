// Package cli implements the assemblyctl operator commands
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/pkg/config"
)

// Dependencies are shared by every command
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewRootCmd builds the assemblyctl command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assemblyctl",
		Short:         "Operate an assembly-floor deployment",
		Long:          "Operator tooling for assembly-floor: schema migrations and administrator tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewMigrateCmd(deps))
	rootCmd.AddCommand(NewTokenCmd(deps))

	return rootCmd
}
