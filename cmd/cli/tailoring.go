package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appservice "github.com/openbaseline/compliance/internal/application/service"
	domainservice "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/internal/infrastructure/catalog"
	"github.com/openbaseline/compliance/internal/infrastructure/monitoring"
	"github.com/openbaseline/compliance/internal/infrastructure/persistence/postgres"
)

var tailoringOutputPath string

var tailoringCmd = &cobra.Command{
	Use:   "tailoring <profile-id>",
	Short: "Render the tailoring document of a profile",
	Long: `Renders the XCCDF tailoring document of a tailored profile to stdout or a
file. Canonical and untailored profiles produce no document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profileID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid profile id %q: %w", args[0], err)
		}

		env, err := newCLIEnv(ctx)
		if err != nil {
			return err
		}

		profileService := appservice.NewProfileAppService(
			postgres.NewProfileRepository(env.db, env.logger),
			postgres.NewPolicyRepository(env.db, env.logger),
			catalog.NewCachedRuleRepository(postgres.NewRuleRepository(env.db, env.logger), env.logger),
			postgres.NewObjectiveRepository(env.db, env.logger),
			postgres.NewTxManager(env.db),
			domainservice.NewTailoringService(env.logger),
			domainservice.NewNopAuditService(),
			monitoring.NewMetrics(),
			env.logger,
		)

		content, err := profileService.GetTailoringFile(ctx, profileID)
		if err != nil {
			return err
		}
		if content == nil {
			fmt.Fprintln(os.Stderr, "profile is not tailored, no document produced")
			return nil
		}

		if tailoringOutputPath != "" {
			return os.WriteFile(tailoringOutputPath, content, 0o644)
		}
		fmt.Print(string(content))
		return nil
	},
}

func init() {
	tailoringCmd.Flags().StringVarP(&tailoringOutputPath, "output", "o", "",
		"write the document to a file instead of stdout")
	rootCmd.AddCommand(tailoringCmd)
}
