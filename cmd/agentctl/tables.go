package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

func newTablesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage the table inventory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert the default tables 1-10 into an empty inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := repository.NewTableRepo(db).SeedDefaults(cmd.Context(), model.DefaultTableCapacities)
			if err != nil {
				return fmt.Errorf("seed tables: %w", err)
			}
			if n == 0 {
				a.logger.Info("tables already present, nothing seeded")
				return nil
			}
			a.logger.Info("tables seeded", zap.Int("count", n))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			tables, err := repository.NewTableRepo(db).ListAll(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tCAPACITY\tACTIVE")
			for _, t := range tables {
				fmt.Fprintf(w, "%d\t%d\t%d\t%t\n", t.ID, t.Number, t.Capacity, t.Active)
			}
			return w.Flush()
		},
	})
	return cmd
}
