package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// RuleRepoImpl implements RuleRepository on PostgreSQL.
type RuleRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewRuleRepository creates a PostgreSQL-backed rule catalog repository.
func NewRuleRepository(db *gorm.DB, log logger.Logger) repository.RuleRepository {
	return &RuleRepoImpl{db: db, logger: log.WithComponent("RuleRepository")}
}

func (r *RuleRepoImpl) FindByBenchmark(ctx context.Context, benchmarkID uuid.UUID) ([]models.Rule, error) {
	var rules []models.Rule
	err := dbFromContext(ctx, r.db).
		Where("benchmark_id = ?", benchmarkID).
		Order("precedence, ref_id").
		Find(&rules).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to load benchmark rules", err,
			logger.Fields{"benchmark_id": benchmarkID})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return rules, nil
}

func (r *RuleRepoImpl) FindBenchmark(ctx context.Context, benchmarkID uuid.UUID) (*models.Benchmark, error) {
	var benchmark models.Benchmark
	err := dbFromContext(ctx, r.db).Where("id = ?", benchmarkID).First(&benchmark).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBenchmarkNotFound(benchmarkID)
		}
		r.logger.Error(ctx, "Failed to retrieve benchmark", err,
			logger.Fields{"benchmark_id": benchmarkID})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &benchmark, nil
}

func (r *RuleRepoImpl) BenchmarkExists(ctx context.Context, refID, version string) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).
		Model(&models.Benchmark{}).
		Where("ref_id = ? AND version = ?", refID, version).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return count > 0, nil
}

func (r *RuleRepoImpl) SaveBenchmark(ctx context.Context, benchmark *models.Benchmark) error {
	// Rules ride along through the association; one insert batch per 500
	// keeps the statement size bounded for large benchmarks.
	err := dbFromContext(ctx, r.db).
		Session(&gorm.Session{CreateBatchSize: 500}).
		Create(benchmark).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to save benchmark", err,
			logger.Fields{"ref_id": benchmark.RefID, "version": benchmark.Version})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}

	r.logger.Info(ctx, "Benchmark saved",
		logger.Fields{
			"benchmark_id": benchmark.ID,
			"ref_id":       benchmark.RefID,
			"version":      benchmark.Version,
			"rule_count":   len(benchmark.Rules),
		})
	return nil
}
