package main

import (
	"fmt"
	"log/slog"

	"github.com/simp-lee/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/simp-lee/advocates/internal/config"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "advocates",
		Short:         "Searchable directory of healthcare advocates",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "path to configuration file")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newSearchCmd(opts),
	)
	return cmd
}

// store is an opened configuration, logger and database for one command run.
type store struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

func (s *store) Close() {
	if err := config.CloseDatabase(s.db); err != nil {
		s.log.Error("database close error", slog.Any("error", err))
	}
	if err := s.log.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
}

// openStore loads configuration and connects to the configured database.
func openStore(configPath string) (*store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("setup database: %w", err)
	}

	return &store{cfg: cfg, log: log, db: db}, nil
}
