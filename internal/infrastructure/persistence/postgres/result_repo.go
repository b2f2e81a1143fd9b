package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// ResultRepoImpl implements TestResultRepository on PostgreSQL.
type ResultRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewResultRepository creates a PostgreSQL-backed test result repository.
func NewResultRepository(db *gorm.DB, log logger.Logger) repository.TestResultRepository {
	return &ResultRepoImpl{db: db, logger: log.WithComponent("ResultRepository")}
}

func (r *ResultRepoImpl) Create(ctx context.Context, result *models.TestResult) error {
	err := dbFromContext(ctx, r.db).
		Session(&gorm.Session{CreateBatchSize: 500}).
		Create(result).Error
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn(ctx, "Rejected duplicate test result",
				logger.Fields{
					"profile_id": result.ProfileID,
					"host_id":    result.HostID,
					"end_time":   result.EndTime,
				})
			return errors.ErrDuplicateResult(result.ProfileID, result.HostID, result.EndTime)
		}
		r.logger.Error(ctx, "Failed to create test result", err,
			logger.Fields{"profile_id": result.ProfileID, "host_id": result.HostID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *ResultRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.TestResult, error) {
	var result models.TestResult
	err := dbFromContext(ctx, r.db).
		Preload("RuleResults").
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrResultNotFound(id)
		}
		r.logger.Error(ctx, "Failed to retrieve test result", err,
			logger.Fields{"test_result_id": id})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &result, nil
}

func (r *ResultRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)

	// Rule results go first; the schema cascade covers PostgreSQL but the
	// explicit delete keeps sqlite-backed tests honest.
	if err := db.Where("test_result_id = ?", id).Delete(&models.RuleResult{}).Error; err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}

	result := db.Where("id = ?", id).Delete(&models.TestResult{})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to delete test result", result.Error,
			logger.Fields{"test_result_id": id})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrResultNotFound(id)
	}
	return nil
}

func (r *ResultRepoImpl) FindLatestByProfile(ctx context.Context, profileID uuid.UUID) ([]models.TestResult, error) {
	db := dbFromContext(ctx, r.db)

	latest := db.Model(&models.TestResult{}).
		Select("profile_id, host_id, MAX(end_time) AS end_time").
		Where("profile_id = ?", profileID).
		Group("profile_id, host_id")

	var results []models.TestResult
	err := db.Model(&models.TestResult{}).
		Joins("JOIN (?) latest ON test_results.profile_id = latest.profile_id"+
			" AND test_results.host_id = latest.host_id"+
			" AND test_results.end_time = latest.end_time", latest).
		Preload("RuleResults").
		Order("test_results.host_id").
		Find(&results).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to load latest results for profile", err,
			logger.Fields{"profile_id": profileID})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return results, nil
}

func (r *ResultRepoImpl) FindLatestByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.TestResult, error) {
	db := dbFromContext(ctx, r.db)

	profileIDs := db.Model(&models.Profile{}).
		Select("id").
		Where("policy_id = ?", policyID)

	latest := db.Model(&models.TestResult{}).
		Select("profile_id, host_id, MAX(end_time) AS end_time").
		Where("profile_id IN (?)", profileIDs).
		Group("profile_id, host_id")

	var results []models.TestResult
	err := db.Model(&models.TestResult{}).
		Joins("JOIN (?) latest ON test_results.profile_id = latest.profile_id"+
			" AND test_results.host_id = latest.host_id"+
			" AND test_results.end_time = latest.end_time", latest).
		Preload("RuleResults").
		Order("test_results.profile_id, test_results.host_id").
		Find(&results).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to load latest results for policy", err,
			logger.Fields{"policy_id": policyID})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return results, nil
}

// isUniqueViolation matches both gorm's translated duplicate key error and the
// raw PostgreSQL unique_violation, which TranslateError misses for batch
// inserts on some driver versions.
func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
