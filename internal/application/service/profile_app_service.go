// Package service contains the application services orchestrating the domain
// core: profile lifecycle and tailoring, test result aggregation, and the
// datastream import pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/application/dto"
	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/repository"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/constants"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// ProfileAppService orchestrates profile creation and tailoring: ancestor-
// fenced rule-set mutation, delta computation, tailoring document rendering,
// and the one-way OS minor version transition.
type ProfileAppService struct {
	profileRepo   repository.ProfileRepository
	policyRepo    repository.PolicyRepository
	ruleRepo      repository.RuleRepository
	objectiveRepo repository.BusinessObjectiveRepository
	txManager     repository.TxManager
	tailoring     *domain.TailoringService
	audit         domain.AuditService
	metrics       domain.MetricsRecorder
	logger        logger.Logger
}

// NewProfileAppService creates a ProfileAppService.
func NewProfileAppService(
	profileRepo repository.ProfileRepository,
	policyRepo repository.PolicyRepository,
	ruleRepo repository.RuleRepository,
	objectiveRepo repository.BusinessObjectiveRepository,
	txManager repository.TxManager,
	tailoring *domain.TailoringService,
	audit domain.AuditService,
	metrics domain.MetricsRecorder,
	log logger.Logger,
) *ProfileAppService {
	return &ProfileAppService{
		profileRepo:   profileRepo,
		policyRepo:    policyRepo,
		ruleRepo:      ruleRepo,
		objectiveRepo: objectiveRepo,
		txManager:     txManager,
		tailoring:     tailoring,
		audit:         audit,
		metrics:       metrics,
		logger:        log.WithComponent("ProfileAppService"),
	}
}

// CreateProfile creates a customer profile under a new or existing policy.
// The profile starts with its canonical parent's full rule set, i.e.
// untailored. A business objective named in the request is created lazily on
// first use within the account.
func (s *ProfileAppService) CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*models.Profile, error) {
	parent, err := s.profileRepo.FindByID(ctx, req.ParentProfileID)
	if err != nil {
		return nil, err
	}
	if !parent.IsCanonical() {
		return nil, errors.ErrInvalidRequest("parent profile must be canonical")
	}

	var profile *models.Profile
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		policyID, err := s.resolvePolicy(ctx, req)
		if err != nil {
			return err
		}

		threshold := req.ComplianceThreshold
		if threshold <= 0 {
			threshold = constants.DefaultComplianceThreshold
		}

		now := time.Now().UTC()
		profile = &models.Profile{
			ID:                  uuid.New(),
			RefID:               parent.RefID,
			Name:                req.Name,
			Description:         req.Description,
			AccountID:           req.AccountID,
			ComplianceThreshold: threshold,
			OSMinorVersion:      req.OSMinorVersion,
			ParentProfileID:     &parent.ID,
			PolicyID:            &policyID,
			BenchmarkID:         parent.BenchmarkID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.profileRepo.Save(ctx, profile); err != nil {
			return err
		}

		parentRules, err := s.profileRepo.GetRules(ctx, parent.ID)
		if err != nil {
			return err
		}
		ruleIDs := make([]uuid.UUID, 0, len(parentRules))
		for _, r := range parentRules {
			ruleIDs = append(ruleIDs, r.ID)
		}
		return s.profileRepo.ReplaceRules(ctx, profile.ID, ruleIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, req.AccountID, constants.AuditEventProfileCreated,
		fmt.Sprintf("Created profile %s from canonical profile %s", profile.ID, parent.ID),
		map[string]interface{}{"profile_id": profile.ID, "parent_profile_id": parent.ID})

	return profile, nil
}

// resolvePolicy joins the policy named in the request or creates a fresh one,
// wiring up the business objective when a title is given.
func (s *ProfileAppService) resolvePolicy(ctx context.Context, req dto.CreateProfileRequest) (uuid.UUID, error) {
	if req.PolicyID != nil {
		policy, err := s.policyRepo.FindByID(ctx, *req.PolicyID)
		if err != nil {
			return uuid.Nil, err
		}
		return policy.ID, nil
	}

	policy := models.NewPolicy(req.Name, req.AccountID)
	if req.ComplianceThreshold > 0 {
		policy.ComplianceThreshold = req.ComplianceThreshold
	}
	if req.BusinessObjective != "" {
		objective, created, err := s.objectiveRepo.FindOrCreate(ctx, req.AccountID, req.BusinessObjective)
		if err != nil {
			return uuid.Nil, err
		}
		policy.BusinessObjectiveID = &objective.ID
		if created {
			s.logAudit(ctx, req.AccountID, constants.AuditEventBusinessObjectiveUsed,
				fmt.Sprintf("Created business objective %q (%s)", objective.Title, objective.ID),
				map[string]interface{}{"business_objective_id": objective.ID})
		}
	}
	if err := s.policyRepo.Save(ctx, policy); err != nil {
		return uuid.Nil, err
	}
	return policy.ID, nil
}

// UpdateProfileRules replaces a profile's effective rule set. Requested rules
// outside the canonical ancestor's benchmark are silently fenced out before
// they can affect stored state: tailoring may subtract from or restore the
// vendor baseline, never graft in unrelated rules. The returned summary and
// the audit line report the delta against the previous stored state.
func (s *ProfileAppService) UpdateProfileRules(ctx context.Context, profileID uuid.UUID, requestedRefIDs []string) (*dto.RuleUpdateSummary, error) {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.IsCanonical() {
		return nil, errors.ErrInvalidRequest("canonical profile rule sets are immutable")
	}

	parent, err := s.profileRepo.FindParent(ctx, profile)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, errors.ErrMissingAncestor(profile.ID)
	}

	// The previous rule set is read in the same transaction that replaces it,
	// so the reported delta always describes the committed previous state even
	// under concurrent updates to the same profile.
	var (
		accepted []models.Rule
		fenced   []string
		previous []models.Rule
	)
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		benchmarkRules, err := s.ruleRepo.FindByBenchmark(ctx, parent.BenchmarkID)
		if err != nil {
			return err
		}

		accepted, fenced = fenceRules(requestedRefIDs, benchmarkRules)
		if len(fenced) > 0 {
			s.logger.Info(ctx, "Dropped rules outside the canonical ancestor's benchmark",
				logger.Fields{"profile_id": profile.ID, "fenced_ref_ids": fenced})
		}

		previous, err = s.profileRepo.GetRules(ctx, profile.ID)
		if err != nil {
			return err
		}

		acceptedIDs := make([]uuid.UUID, 0, len(accepted))
		for _, r := range accepted {
			acceptedIDs = append(acceptedIDs, r.ID)
		}
		return s.profileRepo.ReplaceRules(ctx, profile.ID, acceptedIDs)
	})
	if err != nil {
		return nil, err
	}

	added, removed := s.tailoring.ComputeDelta(accepted, previous)
	s.metrics.RecordRulesUpdated(len(added), len(removed))
	s.logAudit(ctx, profile.AccountID, constants.AuditEventProfileRulesUpdated,
		fmt.Sprintf("Updated rule assignments of profile %s: %d rules added, %d rules removed",
			profile.ID, len(added), len(removed)),
		map[string]interface{}{
			"profile_id":     profile.ID,
			"added_count":    len(added),
			"removed_count":  len(removed),
			"fenced_ref_ids": fenced,
		})

	return &dto.RuleUpdateSummary{
		ProfileID:     profile.ID,
		AddedCount:    len(added),
		RemovedCount:  len(removed),
		FencedRefIDs:  fenced,
		AcceptedCount: len(accepted),
	}, nil
}

// fenceRules intersects the requested ref_ids with the canonical benchmark's
// rule set. Requested ids without a matching benchmark rule are returned as
// fenced, preserving request order.
func fenceRules(requestedRefIDs []string, benchmarkRules []models.Rule) (accepted []models.Rule, fenced []string) {
	byRefID := make(map[string]models.Rule, len(benchmarkRules))
	for _, r := range benchmarkRules {
		byRefID[r.RefID] = r
	}

	seen := make(map[string]struct{}, len(requestedRefIDs))
	accepted = make([]models.Rule, 0, len(requestedRefIDs))
	for _, refID := range requestedRefIDs {
		if _, dup := seen[refID]; dup {
			continue
		}
		seen[refID] = struct{}{}
		if rule, ok := byRefID[refID]; ok {
			accepted = append(accepted, rule)
		} else {
			fenced = append(fenced, refID)
		}
	}
	return accepted, fenced
}

// TailoringDelta computes the profile's delta against its canonical ancestor.
func (s *ProfileAppService) TailoringDelta(ctx context.Context, profileID uuid.UUID) (*dto.TailoringDelta, error) {
	profile, profileRules, parent, parentRules, err := s.loadAncestry(ctx, profileID)
	if err != nil {
		return nil, err
	}

	delta := &dto.TailoringDelta{
		ProfileID:          profile.ID,
		AddedRefIDs:        []string{},
		RemovedRefIDs:      []string{},
		TailoredRuleRefIDs: models.RuleSelections{},
	}
	if profile.IsCanonical() || parent == nil {
		return delta, nil
	}

	added, removed := s.tailoring.ComputeDelta(profileRules, parentRules)
	for _, r := range added {
		delta.AddedRefIDs = append(delta.AddedRefIDs, r.RefID)
	}
	for _, r := range removed {
		delta.RemovedRefIDs = append(delta.RemovedRefIDs, r.RefID)
	}
	delta.Tailored = len(added)+len(removed) > 0
	delta.TailoredRuleRefIDs = s.tailoring.TailoredRuleRefIDs(profile, profileRules, parentRules)
	return delta, nil
}

// GetTailoringFile renders the profile's tailoring document. Canonical and
// untailored profiles yield no content.
func (s *ProfileAppService) GetTailoringFile(ctx context.Context, profileID uuid.UUID) ([]byte, error) {
	profile, profileRules, parent, parentRules, err := s.loadAncestry(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.IsCanonical() {
		return nil, nil
	}

	benchmark, err := s.ruleRepo.FindBenchmark(ctx, parent.BenchmarkID)
	if err != nil {
		return nil, err
	}
	return s.tailoring.RenderTailoringFile(ctx, profile, parent, benchmark, profileRules, parentRules)
}

// loadAncestry loads a profile, its rules, and its parent's rules. A missing
// parent on a non-canonical profile is an invariant violation and surfaces
// unmodified.
func (s *ProfileAppService) loadAncestry(ctx context.Context, profileID uuid.UUID) (*models.Profile, []models.Rule, *models.Profile, []models.Rule, error) {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if profile.IsCanonical() {
		return profile, nil, nil, nil, nil
	}

	parent, err := s.profileRepo.FindParent(ctx, profile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if parent == nil {
		return nil, nil, nil, nil, errors.ErrMissingAncestor(profile.ID)
	}

	profileRules, err := s.profileRepo.GetRules(ctx, profile.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	parentRules, err := s.profileRepo.GetRules(ctx, parent.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return profile, profileRules, parent, parentRules, nil
}

// SetOSMinorVersion records the profile's OS minor version the first time a
// concrete value is seen. The empty -> value transition is one-way; later
// values and empty input are ignored.
func (s *ProfileAppService) SetOSMinorVersion(ctx context.Context, profileID uuid.UUID, version string) error {
	if version == "" {
		return nil
	}
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.HasOSMinorVersion() {
		return nil
	}

	if err := s.profileRepo.UpdateOSMinorVersion(ctx, profile.ID, version); err != nil {
		return err
	}
	s.logAudit(ctx, profile.AccountID, constants.AuditEventProfileOSMinorSet,
		fmt.Sprintf("Setting OS minor version %s for profile %s", version, profile.ID),
		map[string]interface{}{"profile_id": profile.ID, "os_minor_version": version})
	return nil
}

// SetBusinessObjective assigns (or clears, with an empty title) the policy's
// business objective, creating the objective lazily on first use.
func (s *ProfileAppService) SetBusinessObjective(ctx context.Context, policyID uuid.UUID, title string) error {
	policy, err := s.policyRepo.FindByID(ctx, policyID)
	if err != nil {
		return err
	}
	if title == "" {
		return s.policyRepo.SetBusinessObjective(ctx, policy.ID, nil)
	}

	objective, created, err := s.objectiveRepo.FindOrCreate(ctx, policy.AccountID, title)
	if err != nil {
		return err
	}
	if created {
		s.logAudit(ctx, policy.AccountID, constants.AuditEventBusinessObjectiveUsed,
			fmt.Sprintf("Created business objective %q (%s)", objective.Title, objective.ID),
			map[string]interface{}{"business_objective_id": objective.ID})
	}
	return s.policyRepo.SetBusinessObjective(ctx, policy.ID, &objective.ID)
}

// logAudit emits an audit event, logging but not propagating sink failures:
// a broken audit pipe must not fail the underlying state change.
func (s *ProfileAppService) logAudit(ctx context.Context, accountID string, eventType constants.AuditEventType, message string, metadata map[string]interface{}) {
	event := models.NewAuditEvent(accountID, eventType, message).WithMetadata(metadata)
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to emit audit event", err,
			logger.Fields{"event_type": eventType})
	}
}
