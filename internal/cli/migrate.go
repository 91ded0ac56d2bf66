package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"guardian/internal/platform/config"
	"guardian/internal/platform/postgres"
	"guardian/internal/platform/sqlite"
)

func (a *app) newMigrateCommand() *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the database schema.",
		Long: `Migrate applies the embedded schema migrations. With --to it moves a
Postgres schema to that version; down rolls Postgres back completely.
SQLite databases only migrate up.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			target := -1
			switch {
			case cmd.Flags().Changed("to"):
				if to < 0 {
					return errors.New("--to must not be negative")
				}
				target = to
			case direction == "down":
				target = 0
			}

			store := a.v.GetString("store")
			if store == config.BackendMemory {
				return errors.New("the memory store has no schema; use --store sqlite or --store postgres")
			}
			db, err := a.openDB(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()

			var version uint
			if store == config.BackendSQLite {
				if target >= 0 {
					return errors.New("sqlite databases only migrate up")
				}
				version, err = sqlite.Migrate(db)
			} else {
				version, err = postgres.Migrate(db, target)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", store, version)
			return err
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "Target schema version (postgres only)")
	return cmd
}
