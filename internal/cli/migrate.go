package cli

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/assembly-floor/internal/infrastructure/database"
)

// NewMigrateCmd applies or rolls back the SQL migrations
func NewMigrateCmd(deps *Dependencies) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, limit, verb := migrate.Up, 0, "applied"
			if args[0] == "down" {
				direction, limit, verb = migrate.Down, 1, "rolled back"
			}

			if deps.Config.Database.Driver != "postgres" {
				return fmt.Errorf("migrations need DB_DRIVER=postgres, got %q", deps.Config.Database.Driver)
			}

			db, err := database.NewPostgresDB(deps.Config, deps.Logger)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			n, err := database.Migrate(db, dir, direction, limit, deps.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) %s\n", n, verb)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", deps.Config.Database.MigrationsDir, "directory holding the migration files")
	return cmd
}
