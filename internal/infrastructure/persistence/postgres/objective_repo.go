package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// ObjectiveRepoImpl implements BusinessObjectiveRepository on PostgreSQL.
type ObjectiveRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewObjectiveRepository creates a PostgreSQL-backed business objective
// repository.
func NewObjectiveRepository(db *gorm.DB, log logger.Logger) repository.BusinessObjectiveRepository {
	return &ObjectiveRepoImpl{db: db, logger: log.WithComponent("ObjectiveRepository")}
}

func (r *ObjectiveRepoImpl) FindOrCreate(ctx context.Context, accountID, title string) (*models.BusinessObjective, bool, error) {
	db := dbFromContext(ctx, r.db)

	var objective models.BusinessObjective
	err := db.Where("account_id = ? AND title = ?", accountID, title).First(&objective).Error
	if err == nil {
		return &objective, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		r.logger.Error(ctx, "Failed to look up business objective", err,
			logger.Fields{"account_id": accountID, "title": title})
		return nil, false, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}

	objective = models.BusinessObjective{
		ID:        uuid.New(),
		Title:     title,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&objective).Error; err != nil {
		// A concurrent creator beat us to the unique (account, title) pair;
		// the existing row wins.
		if isUniqueViolation(err) {
			var existing models.BusinessObjective
			if ferr := db.Where("account_id = ? AND title = ?", accountID, title).
				First(&existing).Error; ferr == nil {
				return &existing, false, nil
			}
		}
		r.logger.Error(ctx, "Failed to create business objective", err,
			logger.Fields{"account_id": accountID, "title": title})
		return nil, false, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}

	r.logger.Info(ctx, "Business objective created",
		logger.Fields{"business_objective_id": objective.ID, "title": title})
	return &objective, true, nil
}
