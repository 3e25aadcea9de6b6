package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	for _, sub := range []struct{ name, short string }{
		{"up", "Apply every pending migration"},
		{"down", "Roll back the latest migration"},
		{"status", "Print the state of each migration"},
	} {
		name := sub.name
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := database.Migrate(cmd.Context(), db, name); err != nil {
					return err
				}
				a.logger.Info("migrate done", zap.String("command", name))
				return nil
			},
		})
	}
	return cmd
}
