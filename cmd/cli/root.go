// Package cli implements the compliance-admin command line tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/infrastructure/monitoring"
	"github.com/openbaseline/compliance/internal/infrastructure/persistence/postgres"
	"github.com/openbaseline/compliance/pkg/logger"
)

// rootCmd is the base command of the compliance-admin binary.
var rootCmd = &cobra.Command{
	Use:   "compliance-admin",
	Short: "Administrative CLI for the compliance service",
	Long: `compliance-admin performs administrative tasks against the compliance
service database: importing benchmark datastreams, inspecting tailoring
artifacts, and rebuilding cached policy counters.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliEnv bundles the dependencies every admin command needs.
type cliEnv struct {
	cfg    *config.Config
	logger logger.Logger
	db     *gorm.DB
}

// newCLIEnv loads configuration and opens the database connection.
func newCLIEnv(ctx context.Context) (*cliEnv, error) {
	log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.NewDBConnection(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &cliEnv{cfg: cfg, logger: log, db: db}, nil
}
