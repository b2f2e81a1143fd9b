// Package catalog provides a read-through cache in front of the rule catalog.
// Benchmarks and their rule sets are immutable after import, which makes them
// safe to cache aggressively.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	"github.com/openbaseline/compliance/pkg/logger"
)

const (
	defaultTTL      = 15 * time.Minute
	cleanupInterval = 30 * time.Minute
)

// CachedRuleRepository decorates a RuleRepository with an in-process cache.
// Reads are cached; writes pass through and drop the affected entries.
type CachedRuleRepository struct {
	inner  repository.RuleRepository
	cache  *gocache.Cache
	logger logger.Logger
}

// NewCachedRuleRepository wraps the given repository with a read-through
// cache.
func NewCachedRuleRepository(inner repository.RuleRepository, log logger.Logger) repository.RuleRepository {
	return &CachedRuleRepository{
		inner:  inner,
		cache:  gocache.New(defaultTTL, cleanupInterval),
		logger: log.WithComponent("CachedRuleRepository"),
	}
}

func rulesKey(benchmarkID uuid.UUID) string     { return "rules:" + benchmarkID.String() }
func benchmarkKey(benchmarkID uuid.UUID) string { return "benchmark:" + benchmarkID.String() }
func existsKey(refID, version string) string    { return "exists:" + refID + ":" + version }

func (r *CachedRuleRepository) FindByBenchmark(ctx context.Context, benchmarkID uuid.UUID) ([]models.Rule, error) {
	if cached, ok := r.cache.Get(rulesKey(benchmarkID)); ok {
		return cached.([]models.Rule), nil
	}

	rules, err := r.inner.FindByBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(rulesKey(benchmarkID), rules, gocache.DefaultExpiration)
	r.logger.Debug(ctx, "Cached benchmark rule set",
		logger.Fields{"benchmark_id": benchmarkID, "rule_count": len(rules)})
	return rules, nil
}

func (r *CachedRuleRepository) FindBenchmark(ctx context.Context, benchmarkID uuid.UUID) (*models.Benchmark, error) {
	if cached, ok := r.cache.Get(benchmarkKey(benchmarkID)); ok {
		return cached.(*models.Benchmark), nil
	}

	benchmark, err := r.inner.FindBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(benchmarkKey(benchmarkID), benchmark, gocache.DefaultExpiration)
	return benchmark, nil
}

func (r *CachedRuleRepository) BenchmarkExists(ctx context.Context, refID, version string) (bool, error) {
	// Only a positive answer is cacheable: an import may create the
	// benchmark right after a negative lookup.
	if _, ok := r.cache.Get(existsKey(refID, version)); ok {
		return true, nil
	}

	exists, err := r.inner.BenchmarkExists(ctx, refID, version)
	if err != nil {
		return false, err
	}
	if exists {
		r.cache.Set(existsKey(refID, version), true, gocache.DefaultExpiration)
	}
	return exists, nil
}

func (r *CachedRuleRepository) SaveBenchmark(ctx context.Context, benchmark *models.Benchmark) error {
	if err := r.inner.SaveBenchmark(ctx, benchmark); err != nil {
		return err
	}
	r.cache.Delete(rulesKey(benchmark.ID))
	r.cache.Delete(benchmarkKey(benchmark.ID))
	r.cache.Set(existsKey(benchmark.RefID, benchmark.Version), true, gocache.DefaultExpiration)
	return nil
}
