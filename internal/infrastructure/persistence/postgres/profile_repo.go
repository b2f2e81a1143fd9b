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

// ProfileRepoImpl implements ProfileRepository on PostgreSQL.
type ProfileRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewProfileRepository creates a PostgreSQL-backed profile repository.
func NewProfileRepository(db *gorm.DB, log logger.Logger) repository.ProfileRepository {
	return &ProfileRepoImpl{db: db, logger: log.WithComponent("ProfileRepository")}
}

func (r *ProfileRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := dbFromContext(ctx, r.db).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProfileNotFound(id)
		}
		r.logger.Error(ctx, "Failed to retrieve profile", err,
			logger.Fields{"profile_id": id})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return &profile, nil
}

func (r *ProfileRepoImpl) FindParent(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.ParentProfileID == nil {
		return nil, nil
	}
	return r.FindByID(ctx, *profile.ParentProfileID)
}

func (r *ProfileRepoImpl) GetRules(ctx context.Context, profileID uuid.UUID) ([]models.Rule, error) {
	var rules []models.Rule
	err := dbFromContext(ctx, r.db).
		Model(&models.Rule{}).
		Joins("JOIN profile_rules ON profile_rules.rule_id = rules.id").
		Where("profile_rules.profile_id = ?", profileID).
		Order("rules.precedence, rules.ref_id").
		Find(&rules).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to load profile rules", err,
			logger.Fields{"profile_id": profileID})
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return rules, nil
}

func (r *ProfileRepoImpl) ReplaceRules(ctx context.Context, profileID uuid.UUID, ruleIDs []uuid.UUID) error {
	stubs := make([]models.Rule, len(ruleIDs))
	for i, id := range ruleIDs {
		stubs[i] = models.Rule{ID: id}
	}

	db := dbFromContext(ctx, r.db)
	err := db.Model(&models.Profile{ID: profileID}).Association("Rules").Replace(&stubs)
	if err != nil {
		r.logger.Error(ctx, "Failed to replace profile rules", err,
			logger.Fields{"profile_id": profileID, "rule_count": len(ruleIDs)})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}

	r.logger.Debug(ctx, "Replaced profile rule set",
		logger.Fields{"profile_id": profileID, "rule_count": len(ruleIDs)})
	return nil
}

func (r *ProfileRepoImpl) Save(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	if err := dbFromContext(ctx, r.db).Omit("Rules").Save(profile).Error; err != nil {
		r.logger.Error(ctx, "Failed to save profile", err,
			logger.Fields{"profile_id": profile.ID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *ProfileRepoImpl) UpdateScore(ctx context.Context, profileID uuid.UUID, score *float64) error {
	result := dbFromContext(ctx, r.db).
		Model(&models.Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]interface{}{
			"score":      score,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update profile score", result.Error,
			logger.Fields{"profile_id": profileID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrProfileNotFound(profileID)
	}
	return nil
}

func (r *ProfileRepoImpl) UpdateOSMinorVersion(ctx context.Context, profileID uuid.UUID, version string) error {
	// The empty -> value transition is one-way; the guard is part of the
	// update so concurrent writers cannot overwrite an existing pin.
	result := dbFromContext(ctx, r.db).
		Model(&models.Profile{}).
		Where("id = ? AND (os_minor_version IS NULL OR os_minor_version = '')", profileID).
		Updates(map[string]interface{}{
			"os_minor_version": version,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update profile OS minor version", result.Error,
			logger.Fields{"profile_id": profileID})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug(ctx, "OS minor version already set, skipping",
			logger.Fields{"profile_id": profileID})
	}
	return nil
}
