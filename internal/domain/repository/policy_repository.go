package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name PolicyRepository --output mocks --outpkg mocks

// PolicyRepository persists policies and their cached counters.
type PolicyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Policy, error)

	Save(ctx context.Context, policy *models.Policy) error

	// UpdateCounters overwrites the policy's cached counters in place.
	UpdateCounters(ctx context.Context, policyID uuid.UUID, counters models.PolicyCounters) error

	// SetBusinessObjective associates (or clears, with nil) the policy's
	// business objective.
	SetBusinessObjective(ctx context.Context, policyID uuid.UUID, objectiveID *uuid.UUID) error
}
