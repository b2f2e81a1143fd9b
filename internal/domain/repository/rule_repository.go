package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name RuleRepository --output mocks --outpkg mocks

// RuleRepository is the read-mostly rule catalog plus the batch write path
// used by the datastream import pipeline.
type RuleRepository interface {
	// FindByBenchmark returns all rules of a benchmark ordered by precedence.
	FindByBenchmark(ctx context.Context, benchmarkID uuid.UUID) ([]models.Rule, error)

	// FindBenchmark retrieves a benchmark without its rules.
	FindBenchmark(ctx context.Context, benchmarkID uuid.UUID) (*models.Benchmark, error)

	// BenchmarkExists reports whether a benchmark with the given ref_id and
	// content version has already been imported.
	BenchmarkExists(ctx context.Context, refID, version string) (bool, error)

	// SaveBenchmark persists a benchmark together with its rules in one batch.
	SaveBenchmark(ctx context.Context, benchmark *models.Benchmark) error
}
