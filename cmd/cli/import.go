package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appservice "github.com/openbaseline/compliance/internal/application/service"
	"github.com/openbaseline/compliance/internal/domain/models"
	domainservice "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/internal/infrastructure/audit"
	"github.com/openbaseline/compliance/internal/infrastructure/catalog"
	"github.com/openbaseline/compliance/internal/infrastructure/datastream"
	"github.com/openbaseline/compliance/internal/infrastructure/monitoring"
	"github.com/openbaseline/compliance/internal/infrastructure/persistence/postgres"
)

// baselineCatalog is the shape of the supported baselines file.
type baselineCatalog struct {
	Baselines []models.SupportedBaseline `yaml:"baselines"`
}

var importCatalogPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import benchmark datastreams from the supported baselines catalog",
	Long: `Reads the supported baselines catalog, selects the preferred revision per
OS major version and content version, downloads and parses each datastream,
and persists new benchmarks with their canonical profiles. Benchmarks that
were already imported are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := newCLIEnv(ctx)
		if err != nil {
			return err
		}

		catalogPath := importCatalogPath
		if catalogPath == "" {
			catalogPath = env.cfg.Datastream.CatalogPath
		}
		if catalogPath == "" {
			return fmt.Errorf("no baselines catalog given: use --catalog or datastream.catalog_path")
		}

		raw, err := os.ReadFile(catalogPath)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", catalogPath, err)
		}
		var cat baselineCatalog
		if err := yaml.Unmarshal(raw, &cat); err != nil {
			return fmt.Errorf("parse catalog %s: %w", catalogPath, err)
		}

		importService := appservice.NewImportAppService(
			domainservice.NewBaselineSelector(env.logger),
			datastream.NewHTTPDownloader(&env.cfg.Datastream, env.logger),
			datastream.NewXCCDFParser(env.logger),
			catalog.NewCachedRuleRepository(postgres.NewRuleRepository(env.db, env.logger), env.logger),
			postgres.NewProfileRepository(env.db, env.logger),
			postgres.NewTxManager(env.db),
			audit.NewGormAuditService(env.db, env.logger),
			monitoring.NewMetrics(),
			env.logger,
		)

		summary, err := importService.ImportBaselines(ctx, cat.Baselines)
		if err != nil {
			return err
		}

		fmt.Printf("selected: %d\nimported: %d\nskipped:  %d\n",
			summary.Selected, summary.Imported, summary.Skipped)
		for _, pkg := range summary.Failed {
			fmt.Printf("failed:   %s\n", pkg)
		}
		if len(summary.Failed) > 0 {
			return fmt.Errorf("%d baseline(s) failed to import", len(summary.Failed))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCatalogPath, "catalog", "",
		"path to the supported baselines yaml file")
	rootCmd.AddCommand(importCmd)
}
