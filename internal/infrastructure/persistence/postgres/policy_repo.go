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

// PolicyRepoImpl implements PolicyRepository on PostgreSQL.
type PolicyRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewPolicyRepository creates a PostgreSQL-backed policy repository.
func NewPolicyRepository(db *gorm.DB, log logger.Logger) repository.PolicyRepository {
	return &PolicyRepoImpl{db: db, logger: log.WithComponent("PolicyRepository")}
}

func (r *PolicyRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	err := dbFromContext(ctx, r.db).
		Preload("Profiles").
		Where("id = ?", id).
		First(&policy).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPolicyNotFound(id)
		}
		r.logger.Error(ctx, "Failed to retrieve policy", err,
			logger.Fields{"policy_id": id})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &policy, nil
}

func (r *PolicyRepoImpl) Save(ctx context.Context, policy *models.Policy) error {
	policy.UpdatedAt = time.Now().UTC()
	if err := dbFromContext(ctx, r.db).Omit("Profiles").Save(policy).Error; err != nil {
		r.logger.Error(ctx, "Failed to save policy", err,
			logger.Fields{"policy_id": policy.ID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *PolicyRepoImpl) UpdateCounters(ctx context.Context, policyID uuid.UUID, counters models.PolicyCounters) error {
	result := dbFromContext(ctx, r.db).
		Model(&models.Policy{}).
		Where("id = ?", policyID).
		Updates(map[string]interface{}{
			"test_result_host_count": counters.TestResultHostCount,
			"compliant_host_count":   counters.CompliantHostCount,
			"unsupported_host_count": counters.UnsupportedHostCount,
			"passed_rule_count":      counters.PassedRuleCount,
			"total_rule_count":       counters.TotalRuleCount,
			"score":                  counters.Score,
			"updated_at":             time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update policy counters", result.Error,
			logger.Fields{"policy_id": policyID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrPolicyNotFound(policyID)
	}

	r.logger.Debug(ctx, "Policy counters updated",
		logger.Fields{
			"policy_id":              policyID,
			"test_result_host_count": counters.TestResultHostCount,
			"compliant_host_count":   counters.CompliantHostCount,
		})
	return nil
}

func (r *PolicyRepoImpl) SetBusinessObjective(ctx context.Context, policyID uuid.UUID, objectiveID *uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Model(&models.Policy{}).
		Where("id = ?", policyID).
		Updates(map[string]interface{}{
			"business_objective_id": objectiveID,
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to set business objective", result.Error,
			logger.Fields{"policy_id": policyID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrPolicyNotFound(policyID)
	}
	return nil
}
