package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/database"
)

// app carries what every subcommand needs once the root command has
// loaded the environment.
type app struct {
	env    string
	logger *zap.Logger
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "agentctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "agentctl",
		Short:         "Operate the restaurant phone agent: schema, tables, scoring and experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.env = os.Getenv("APP_ENV")
			if a.env == "" {
				a.env = "dev"
			}
			logger, err := config.NewLogger(a.env)
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.AddCommand(
		newMigrateCommand(a),
		newTablesCommand(a),
		newScoreCommand(a),
		newExperimentsCommand(a),
		newTokenCommand(a),
		newSynthCommand(a),
	)
	return cmd
}

// openDB connects with the DB_* settings.
func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(config.LoadDB())
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	return db, nil
}
