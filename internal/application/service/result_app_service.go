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

// ResultAppService ingests and deletes test results and propagates every
// mutation into the cached aggregates: the owning profile's score and the
// owning policy's counters. Recomputation runs inside the same transaction as
// the result write, so no reader ever observes a result without its cache
// update. A per-policy lock serializes sibling-profile recomputation.
type ResultAppService struct {
	resultRepo  repository.TestResultRepository
	profileRepo repository.ProfileRepository
	policyRepo  repository.PolicyRepository
	txManager   repository.TxManager
	locker      domain.PolicyLocker
	audit       domain.AuditService
	metrics     domain.MetricsRecorder
	logger      logger.Logger
}

// NewResultAppService creates a ResultAppService.
func NewResultAppService(
	resultRepo repository.TestResultRepository,
	profileRepo repository.ProfileRepository,
	policyRepo repository.PolicyRepository,
	txManager repository.TxManager,
	locker domain.PolicyLocker,
	audit domain.AuditService,
	metrics domain.MetricsRecorder,
	log logger.Logger,
) *ResultAppService {
	return &ResultAppService{
		resultRepo:  resultRepo,
		profileRepo: profileRepo,
		policyRepo:  policyRepo,
		txManager:   txManager,
		locker:      locker,
		audit:       audit,
		metrics:     metrics,
		logger:      log.WithComponent("ResultAppService"),
	}
}

// IngestResult stores one scan outcome and recomputes the dependent cached
// fields. A write violating the (profile, host, end_time) natural key is
// rejected with a duplicate_result error and leaves all caches untouched.
func (s *ResultAppService) IngestResult(ctx context.Context, req dto.IngestResultRequest) (*models.TestResult, error) {
	if err := validateIngestRequest(req); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.FindByID(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	result := &models.TestResult{
		ID:        uuid.New(),
		ProfileID: req.ProfileID,
		HostID:    req.HostID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Score:     req.Score,
		Supported: req.Supported,
		CreatedAt: time.Now().UTC(),
	}
	for _, rr := range req.RuleResults {
		result.RuleResults = append(result.RuleResults, models.RuleResult{
			ID:           uuid.New(),
			TestResultID: result.ID,
			RuleID:       rr.RuleID,
			Result:       rr.Result,
		})
	}

	err = s.withPolicySerialization(ctx, profile, func(ctx context.Context) error {
		return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.resultRepo.Create(ctx, result); err != nil {
				return err
			}
			return s.recompute(ctx, profile)
		})
	})
	if err != nil {
		if errors.IsDuplicateResult(err) {
			s.metrics.RecordResultIngested("duplicate")
		} else {
			s.metrics.RecordResultIngested("error")
		}
		return nil, err
	}

	s.metrics.RecordResultIngested("ok")
	s.logAudit(ctx, profile.AccountID, constants.AuditEventResultIngested,
		fmt.Sprintf("Ingested test result %s for profile %s host %s: score %.1f, %d rule results",
			result.ID, result.ProfileID, result.HostID, result.Score, len(result.RuleResults)),
		map[string]interface{}{
			"test_result_id": result.ID,
			"profile_id":     result.ProfileID,
			"host_id":        result.HostID,
			"score":          result.Score,
		})

	return result, nil
}

// DeleteResult removes a result and recomputes the dependent cached fields in
// the same transaction. Updates to immutable results are modeled as delete
// followed by create.
func (s *ResultAppService) DeleteResult(ctx context.Context, resultID uuid.UUID) error {
	result, err := s.resultRepo.FindByID(ctx, resultID)
	if err != nil {
		return err
	}
	profile, err := s.profileRepo.FindByID(ctx, result.ProfileID)
	if err != nil {
		return err
	}

	err = s.withPolicySerialization(ctx, profile, func(ctx context.Context) error {
		return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.resultRepo.Delete(ctx, result.ID); err != nil {
				return err
			}
			return s.recompute(ctx, profile)
		})
	})
	if err != nil {
		return err
	}

	s.metrics.RecordResultDeleted()
	s.logAudit(ctx, profile.AccountID, constants.AuditEventResultDeleted,
		fmt.Sprintf("Deleted test result %s of profile %s host %s",
			result.ID, result.ProfileID, result.HostID),
		map[string]interface{}{
			"test_result_id": result.ID,
			"profile_id":     result.ProfileID,
			"host_id":        result.HostID,
		})
	return nil
}

// RecomputePolicy rebuilds the cached counters of a policy and the cached
// scores of all its profiles from the committed result set. Used as an
// administrative backfill; the outcome is identical to the incremental
// recomputation the write path performs.
func (s *ResultAppService) RecomputePolicy(ctx context.Context, policyID uuid.UUID) error {
	return s.locker.WithPolicyLock(ctx, policyID, func(ctx context.Context) error {
		return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			policy, err := s.policyRepo.FindByID(ctx, policyID)
			if err != nil {
				return err
			}
			for i := range policy.Profiles {
				if err := s.recomputeProfileScore(ctx, &policy.Profiles[i]); err != nil {
					return err
				}
			}
			return s.recomputePolicyCounters(ctx, policy.ID)
		})
	})
}

// withPolicySerialization wraps fn in the per-policy lock when the profile
// belongs to a policy. Profiles without a policy (canonical ones) only carry
// their own cached score and need no cross-profile serialization.
func (s *ResultAppService) withPolicySerialization(ctx context.Context, profile *models.Profile, fn func(ctx context.Context) error) error {
	if profile.PolicyID == nil {
		return fn(ctx)
	}
	return s.locker.WithPolicyLock(ctx, *profile.PolicyID, fn)
}

// recompute rebuilds the profile's cached score and, when the profile belongs
// to a policy, the policy's cached counters. It always derives from the
// result set visible to the current transaction, never from an in-memory
// snapshot.
func (s *ResultAppService) recompute(ctx context.Context, profile *models.Profile) error {
	start := time.Now()
	defer func() { s.metrics.RecordRecomputeDuration(time.Since(start)) }()

	if err := s.recomputeProfileScore(ctx, profile); err != nil {
		return err
	}
	if profile.PolicyID == nil {
		return nil
	}
	return s.recomputePolicyCounters(ctx, *profile.PolicyID)
}

func (s *ResultAppService) recomputeProfileScore(ctx context.Context, profile *models.Profile) error {
	results, err := s.resultRepo.FindLatestByProfile(ctx, profile.ID)
	if err != nil {
		return err
	}
	score := domain.ProfileScore(results)
	return s.profileRepo.UpdateScore(ctx, profile.ID, score)
}

func (s *ResultAppService) recomputePolicyCounters(ctx context.Context, policyID uuid.UUID) error {
	policy, err := s.policyRepo.FindByID(ctx, policyID)
	if err != nil {
		return err
	}
	results, err := s.resultRepo.FindLatestByPolicy(ctx, policy.ID)
	if err != nil {
		return err
	}
	counters := domain.ComputePolicyCounters(results, policy.Threshold())
	return s.policyRepo.UpdateCounters(ctx, policy.ID, counters)
}

func validateIngestRequest(req dto.IngestResultRequest) error {
	if req.ProfileID == uuid.Nil {
		return errors.ErrInvalidRequest("profile_id is required")
	}
	if req.HostID == uuid.Nil {
		return errors.ErrInvalidRequest("host_id is required")
	}
	if req.EndTime.IsZero() {
		return errors.ErrInvalidRequest("end_time is required")
	}
	if req.Score < 0 || req.Score > constants.MaxScore {
		return errors.ErrInvalidRequest("score must be between 0 and 100")
	}
	return nil
}

func (s *ResultAppService) logAudit(ctx context.Context, accountID string, eventType constants.AuditEventType, message string, metadata map[string]interface{}) {
	event := models.NewAuditEvent(accountID, eventType, message).WithMetadata(metadata)
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to emit audit event", err,
			logger.Fields{"event_type": eventType})
	}
}
