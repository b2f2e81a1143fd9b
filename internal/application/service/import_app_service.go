package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openbaseline/compliance/internal/application/dto"
	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/constants"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// defaultDownloadConcurrency bounds parallel datastream downloads.
const defaultDownloadConcurrency = 4

// ImportAppService drives the datastream import pipeline: select the
// preferred baseline revisions, download and parse their content, and persist
// each new benchmark together with its canonical profiles. A failure on one
// descriptor never aborts the siblings.
type ImportAppService struct {
	selector    *domain.BaselineSelector
	downloader  domain.DatastreamDownloader
	parser      domain.DatastreamParser
	ruleRepo    repository.RuleRepository
	profileRepo repository.ProfileRepository
	txManager   repository.TxManager
	audit       domain.AuditService
	metrics     domain.MetricsRecorder
	logger      logger.Logger
	concurrency int
}

// NewImportAppService creates an ImportAppService.
func NewImportAppService(
	selector *domain.BaselineSelector,
	downloader domain.DatastreamDownloader,
	parser domain.DatastreamParser,
	ruleRepo repository.RuleRepository,
	profileRepo repository.ProfileRepository,
	txManager repository.TxManager,
	audit domain.AuditService,
	metrics domain.MetricsRecorder,
	log logger.Logger,
) *ImportAppService {
	return &ImportAppService{
		selector:    selector,
		downloader:  downloader,
		parser:      parser,
		ruleRepo:    ruleRepo,
		profileRepo: profileRepo,
		txManager:   txManager,
		audit:       audit,
		metrics:     metrics,
		logger:      log.WithComponent("ImportAppService"),
		concurrency: defaultDownloadConcurrency,
	}
}

type importOutcome struct {
	baseline  models.SupportedBaseline
	benchmark *models.Benchmark
	profiles  []domain.ParsedProfile
	err       error
}

// ImportBaselines runs the full pipeline over the given descriptors and
// returns a summary of what was selected, imported, skipped, and failed.
// Benchmarks already present under the same (ref_id, version) are skipped
// without touching their existing profiles.
func (s *ImportAppService) ImportBaselines(ctx context.Context, baselines []models.SupportedBaseline) (*dto.ImportSummary, error) {
	selected := s.selector.SelectPreferred(ctx, baselines)
	summary := &dto.ImportSummary{Selected: len(selected)}

	s.logger.Info(ctx, "Starting datastream import",
		logger.Fields{"descriptors": len(baselines), "selected": len(selected)})

	outcomes := s.fetchAll(ctx, selected)

	for _, outcome := range outcomes {
		if outcome.err != nil {
			summary.Failed = append(summary.Failed, outcome.baseline.Package)
			s.metrics.RecordDatastreamImport("failed")
			s.logAudit(ctx, "", constants.AuditEventDatastreamDownloadError,
				fmt.Sprintf("Failed to download datastream file %s", outcome.baseline.Package),
				map[string]interface{}{
					"package":          outcome.baseline.Package,
					"os_major_version": outcome.baseline.OSMajorVersion,
					"error":            outcome.err.Error(),
				})
			continue
		}

		imported, err := s.persistBenchmark(ctx, outcome)
		if err != nil {
			summary.Failed = append(summary.Failed, outcome.baseline.Package)
			s.metrics.RecordDatastreamImport("failed")
			s.logger.Error(ctx, "Failed to persist imported benchmark", err,
				logger.Fields{"package": outcome.baseline.Package})
			continue
		}
		if imported {
			summary.Imported++
			s.metrics.RecordDatastreamImport("imported")
		} else {
			summary.Skipped++
			s.metrics.RecordDatastreamImport("skipped")
		}
	}

	s.logger.Info(ctx, "Datastream import finished",
		logger.Fields{
			"selected": summary.Selected,
			"imported": summary.Imported,
			"skipped":  summary.Skipped,
			"failed":   len(summary.Failed),
		})
	return summary, nil
}

// fetchAll downloads and parses the selected descriptors with bounded
// concurrency. Errors are captured per descriptor so one bad download cannot
// cancel the rest of the batch.
func (s *ImportAppService) fetchAll(ctx context.Context, selected []models.SupportedBaseline) []importOutcome {
	outcomes := make([]importOutcome, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, baseline := range selected {
		g.Go(func() error {
			outcomes[i] = s.fetchOne(gctx, baseline)
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()
	return outcomes
}

func (s *ImportAppService) fetchOne(ctx context.Context, baseline models.SupportedBaseline) importOutcome {
	path, err := s.downloader.Download(ctx, baseline)
	if err != nil {
		return importOutcome{baseline: baseline, err: errors.ErrDownloadFailure(baseline.Package, err)}
	}

	benchmark, profiles, err := s.parser.Parse(ctx, path, baseline)
	if err != nil {
		return importOutcome{baseline: baseline, err: err}
	}
	return importOutcome{baseline: baseline, benchmark: benchmark, profiles: profiles}
}

// persistBenchmark writes one benchmark and its canonical profiles inside a
// single transaction. It reports false when the benchmark was already
// imported.
func (s *ImportAppService) persistBenchmark(ctx context.Context, outcome importOutcome) (bool, error) {
	benchmark := outcome.benchmark

	exists, err := s.ruleRepo.BenchmarkExists(ctx, benchmark.RefID, benchmark.Version)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug(ctx, "Benchmark already imported, skipping",
			logger.Fields{"ref_id": benchmark.RefID, "version": benchmark.Version})
		return false, nil
	}

	ruleIDs := make([]uuid.UUID, len(benchmark.Rules))
	for i, rule := range benchmark.Rules {
		ruleIDs[i] = rule.ID
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ruleRepo.SaveBenchmark(ctx, benchmark); err != nil {
			return err
		}
		for _, parsed := range outcome.profiles {
			profile := canonicalProfile(benchmark, parsed)
			if err := s.profileRepo.Save(ctx, profile); err != nil {
				return err
			}
			// Save persists the row only; the effective rule set lives in the
			// join table and must be written explicitly.
			if err := s.profileRepo.ReplaceRules(ctx, profile.ID, ruleIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logAudit(ctx, "", constants.AuditEventDatastreamImported,
		fmt.Sprintf("Imported datastream %s version %s with %d rules and %d canonical profiles",
			benchmark.RefID, benchmark.Version, len(benchmark.Rules), len(outcome.profiles)),
		map[string]interface{}{
			"benchmark_ref_id": benchmark.RefID,
			"version":          benchmark.Version,
			"rule_count":       len(benchmark.Rules),
			"profile_count":    len(outcome.profiles),
		})
	return true, nil
}

// canonicalProfile builds the canonical profile row for a profile declared in
// a datastream. Canonical profiles carry the benchmark's full rule set and
// belong to no account or policy.
func canonicalProfile(benchmark *models.Benchmark, parsed domain.ParsedProfile) *models.Profile {
	now := time.Now().UTC()
	return &models.Profile{
		ID:          uuid.New(),
		RefID:       parsed.RefID,
		Name:        parsed.Title,
		Description: parsed.Description,
		Canonical:   true,
		BenchmarkID: benchmark.ID,
		Rules:       benchmark.Rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *ImportAppService) logAudit(ctx context.Context, accountID string, eventType constants.AuditEventType, message string, metadata map[string]interface{}) {
	event := models.NewAuditEvent(accountID, eventType, message).WithMetadata(metadata)
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to emit audit event", err,
			logger.Fields{"event_type": eventType})
	}
}
