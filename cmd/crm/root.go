package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crosscrm/crm/internal/agent"
	"github.com/crosscrm/crm/internal/config"
	"github.com/crosscrm/crm/internal/database"
	"github.com/crosscrm/crm/internal/logging"
	"github.com/crosscrm/crm/internal/store"
)

// app carries what every subcommand shares.
type app struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "crm",
		Short:         "Sales pipeline CRM with analytics and AI agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			log.Logger = a.log
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (default $CRM_CONFIG)")

	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newAgentCmd(a),
	)
	return cmd
}

// openStore opens the configured database and applies pending migrations.
// The returned function closes the database.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	db, err := database.Open(a.cfg.DBDriver, a.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

// newLLM returns nil when no API key is configured.
func (a *app) newLLM() (agent.LLM, error) {
	c, err := agent.NewOpenAIClient(agent.OpenAIConfig{
		APIKey:        a.cfg.OpenAIKey,
		Model:         a.cfg.OpenAIModel,
		BaseURL:       a.cfg.OpenAIBaseURL,
		Timeout:       a.cfg.LLMTimeout,
		RatePerMinute: a.cfg.LLMRatePerMinute,
	}, a.log)
	if errors.Is(err, agent.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
