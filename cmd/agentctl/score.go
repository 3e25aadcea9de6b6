package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/llm"
	"github.com/iliyamo/restaurant-phone-agent/internal/quality"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

// qualityService builds the scorer the server uses.  The judge is only
// attached when an API key is configured.
func (a *app) qualityService(db *sql.DB) *quality.Service {
	llmCfg := config.LoadLLMConfig()
	var judge quality.Judge
	if llmCfg.APIKey != "" {
		judge = llm.NewClient(llm.Config{
			APIKey:      llmCfg.APIKey,
			Model:       llmCfg.Model,
			MaxTokens:   llmCfg.MaxTokens,
			Temperature: llmCfg.Temperature,
			Timeout:     llmCfg.Timeout,
		}, nil, a.logger.Named("llm"))
	}
	return quality.NewService(repository.NewCallRepo(db), quality.NewScorer(judge, a.logger.Named("quality")), nil, a.logger.Named("quality"))
}

func newScoreCommand(a *app) *cobra.Command {
	var (
		pending bool
		limit   int
		judge   bool
	)
	cmd := &cobra.Command{
		Use:   "score [call_id]",
		Short: "Score one call, or every call still waiting for the judge",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending == (len(args) == 1) {
				return errors.New("pass either a call id or --pending")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			svc := a.qualityService(db)

			if pending {
				n, err := svc.AnalyzePending(cmd.Context(), limit)
				a.logger.Info("pending calls scored", zap.Int("count", n))
				return err
			}

			q, err := svc.Analyze(cmd.Context(), args[0], judge)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(q); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "score calls that have no judged score yet")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum calls scored with --pending")
	cmd.Flags().BoolVar(&judge, "judge", true, "ask the AI judge for naturalness and professionalism")
	return cmd
}
