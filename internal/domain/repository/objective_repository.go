package repository

import (
	"context"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name BusinessObjectiveRepository --output mocks --outpkg mocks

// BusinessObjectiveRepository persists per-account business objectives.
type BusinessObjectiveRepository interface {
	// FindOrCreate returns the objective with the given title for the
	// account, creating it lazily on first use. The created flag reports
	// whether a new row was written.
	FindOrCreate(ctx context.Context, accountID, title string) (objective *models.BusinessObjective, created bool, err error)
}
