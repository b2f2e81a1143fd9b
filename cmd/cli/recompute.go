package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appservice "github.com/openbaseline/compliance/internal/application/service"
	domainservice "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/internal/infrastructure/audit"
	"github.com/openbaseline/compliance/internal/infrastructure/monitoring"
	"github.com/openbaseline/compliance/internal/infrastructure/persistence/postgres"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute <policy-id>",
	Short: "Rebuild the cached counters and scores of a policy",
	Long: `Recomputes a policy's cached counters and every member profile's cached
score from the stored test results. The write path keeps these caches current;
this command exists as a backfill after manual data surgery.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		policyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid policy id %q: %w", args[0], err)
		}

		env, err := newCLIEnv(ctx)
		if err != nil {
			return err
		}

		resultService := appservice.NewResultAppService(
			postgres.NewResultRepository(env.db, env.logger),
			postgres.NewProfileRepository(env.db, env.logger),
			postgres.NewPolicyRepository(env.db, env.logger),
			postgres.NewTxManager(env.db),
			domainservice.NewLocalPolicyLocker(),
			audit.NewGormAuditService(env.db, env.logger),
			monitoring.NewMetrics(),
			env.logger,
		)

		if err := resultService.RecomputePolicy(ctx, policyID); err != nil {
			return err
		}
		fmt.Printf("policy %s recomputed\n", policyID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
