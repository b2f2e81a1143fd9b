package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name TestResultRepository --output mocks --outpkg mocks

// TestResultRepository persists test results and their rule results.
type TestResultRepository interface {
	// Create inserts a result with its rule results. A write violating the
	// (profile, host, end_time) natural key fails with a duplicate_result
	// error; it is never silently overwritten.
	Create(ctx context.Context, result *models.TestResult) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.TestResult, error)

	// Delete removes a result and its rule results.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindLatestByProfile returns the latest result per host for one profile.
	FindLatestByProfile(ctx context.Context, profileID uuid.UUID) ([]models.TestResult, error)

	// FindLatestByPolicy returns the latest result per (profile, host) across
	// all profiles of a policy, rule results included.
	FindLatestByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.TestResult, error)
}
