// Package repository defines the persistence contracts of the domain layer.
// Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name ProfileRepository --output mocks --outpkg mocks

// ProfileRepository persists profiles and their rule associations.
type ProfileRepository interface {
	// FindByID retrieves a profile without its rule associations.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// FindParent resolves the profile's canonical ancestor. Returns
	// (nil, nil) for canonical profiles, which have none.
	FindParent(ctx context.Context, profile *models.Profile) (*models.Profile, error)

	// GetRules returns the profile's effective rule set.
	GetRules(ctx context.Context, profileID uuid.UUID) ([]models.Rule, error)

	// ReplaceRules overwrites the profile's effective rule set with the given
	// rule ids. Callers are responsible for ancestor fencing.
	ReplaceRules(ctx context.Context, profileID uuid.UUID, ruleIDs []uuid.UUID) error

	// Save creates or updates a profile record.
	Save(ctx context.Context, profile *models.Profile) error

	// UpdateScore overwrites the profile's cached score. A nil score clears it.
	UpdateScore(ctx context.Context, profileID uuid.UUID, score *float64) error

	// UpdateOSMinorVersion sets the profile's OS minor version.
	UpdateOSMinorVersion(ctx context.Context, profileID uuid.UUID, version string) error
}
