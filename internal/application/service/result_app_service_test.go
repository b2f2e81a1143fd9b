package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openbaseline/compliance/internal/application/dto"
	"github.com/openbaseline/compliance/internal/domain/models"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/constants"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

type resultServiceFixture struct {
	resultRepo  *mockResultRepo
	profileRepo *mockProfileRepo
	policyRepo  *mockPolicyRepo
	txManager   *fakeTxManager
	service     *ResultAppService
}

func newResultServiceFixture() *resultServiceFixture {
	f := &resultServiceFixture{
		resultRepo:  new(mockResultRepo),
		profileRepo: new(mockProfileRepo),
		policyRepo:  new(mockPolicyRepo),
		txManager:   &fakeTxManager{},
	}
	log := logger.NewNoopLogger()
	f.service = NewResultAppService(
		f.resultRepo, f.profileRepo, f.policyRepo, f.txManager,
		domain.NewLocalPolicyLocker(), domain.NewNopAuditService(),
		domain.NewNopMetrics(), log,
	)
	return f
}

func policyProfile(policyID uuid.UUID) *models.Profile {
	return &models.Profile{
		ID:        uuid.New(),
		AccountID: "acct-1",
		PolicyID:  &policyID,
	}
}

func ingestRequest(profileID uuid.UUID, score float64) dto.IngestResultRequest {
	return dto.IngestResultRequest{
		ProfileID: profileID,
		HostID:    uuid.New(),
		StartTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
		Score:     score,
		Supported: true,
	}
}

func TestIngestResult_RecomputesCachesInSameTransaction(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	policyID := uuid.New()
	profile := policyProfile(policyID)
	policy := &models.Policy{ID: policyID, ComplianceThreshold: 90}
	req := ingestRequest(profile.ID, 95)

	latest := []models.TestResult{{
		ID: uuid.New(), ProfileID: profile.ID, HostID: req.HostID,
		EndTime: req.EndTime, Score: 95, Supported: true,
	}}

	f.profileRepo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	f.resultRepo.On("Create", ctx, mock.AnythingOfType("*models.TestResult")).Return(nil)
	f.resultRepo.On("FindLatestByProfile", ctx, profile.ID).Return(latest, nil)
	f.profileRepo.On("UpdateScore", ctx, profile.ID, mock.MatchedBy(func(score *float64) bool {
		return score != nil && *score == 95
	})).Return(nil)
	f.policyRepo.On("FindByID", ctx, policyID).Return(policy, nil)
	f.resultRepo.On("FindLatestByPolicy", ctx, policyID).Return(latest, nil)
	f.policyRepo.On("UpdateCounters", ctx, policyID, mock.MatchedBy(func(c models.PolicyCounters) bool {
		return c.TestResultHostCount == 1 && c.CompliantHostCount == 1
	})).Return(nil)

	result, err := f.service.IngestResult(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, req.HostID, result.HostID)
	assert.Equal(t, 1, f.txManager.calls, "result write and cache recompute share one transaction")
	f.resultRepo.AssertExpectations(t)
	f.policyRepo.AssertExpectations(t)
}

func TestIngestResult_DuplicateNaturalKeyIsRejected(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	policyID := uuid.New()
	profile := policyProfile(policyID)
	req := ingestRequest(profile.ID, 80)

	f.profileRepo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	f.resultRepo.On("Create", ctx, mock.AnythingOfType("*models.TestResult")).
		Return(errors.ErrDuplicateResult(profile.ID, req.HostID, req.EndTime))

	result, err := f.service.IngestResult(ctx, req)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsDuplicateResult(err))
	f.resultRepo.AssertNotCalled(t, "FindLatestByProfile", mock.Anything, mock.Anything)
	f.profileRepo.AssertNotCalled(t, "UpdateScore", mock.Anything, mock.Anything, mock.Anything)
	f.policyRepo.AssertNotCalled(t, "UpdateCounters", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestResult_ValidatesScoreBounds(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	req := ingestRequest(uuid.New(), 120)
	_, err := f.service.IngestResult(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, constants.ErrCodeInvalidRequest))

	req = ingestRequest(uuid.New(), -1)
	_, err = f.service.IngestResult(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, constants.ErrCodeInvalidRequest))

	f.profileRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestIngestResult_ProfileWithoutPolicySkipsCounterRecompute(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	profile := &models.Profile{ID: uuid.New(), AccountID: "acct-1"}
	req := ingestRequest(profile.ID, 50)

	f.profileRepo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	f.resultRepo.On("Create", ctx, mock.AnythingOfType("*models.TestResult")).Return(nil)
	f.resultRepo.On("FindLatestByProfile", ctx, profile.ID).Return([]models.TestResult{}, nil)
	f.profileRepo.On("UpdateScore", ctx, profile.ID, (*float64)(nil)).Return(nil)

	_, err := f.service.IngestResult(ctx, req)

	require.NoError(t, err)
	f.policyRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.policyRepo.AssertNotCalled(t, "UpdateCounters", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteResult_RecomputesCaches(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	policyID := uuid.New()
	profile := policyProfile(policyID)
	policy := &models.Policy{ID: policyID}
	result := &models.TestResult{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		HostID:    uuid.New(),
		EndTime:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	f.resultRepo.On("FindByID", ctx, result.ID).Return(result, nil)
	f.profileRepo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	f.resultRepo.On("Delete", ctx, result.ID).Return(nil)
	f.resultRepo.On("FindLatestByProfile", ctx, profile.ID).Return([]models.TestResult{}, nil)
	f.profileRepo.On("UpdateScore", ctx, profile.ID, (*float64)(nil)).Return(nil)
	f.policyRepo.On("FindByID", ctx, policyID).Return(policy, nil)
	f.resultRepo.On("FindLatestByPolicy", ctx, policyID).Return([]models.TestResult{}, nil)
	f.policyRepo.On("UpdateCounters", ctx, policyID, mock.MatchedBy(func(c models.PolicyCounters) bool {
		return c.TestResultHostCount == 0 && c.Score == nil
	})).Return(nil)

	err := f.service.DeleteResult(ctx, result.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, f.txManager.calls)
	f.resultRepo.AssertExpectations(t)
	f.policyRepo.AssertExpectations(t)
}

func TestDeleteResult_UnknownResultSurfacesNotFound(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	resultID := uuid.New()
	f.resultRepo.On("FindByID", ctx, resultID).Return(nil, errors.ErrResultNotFound(resultID))

	err := f.service.DeleteResult(ctx, resultID)

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	f.resultRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRecomputePolicy_RebuildsAllProfileScores(t *testing.T) {
	f := newResultServiceFixture()
	ctx := context.Background()

	policyID := uuid.New()
	profileA := models.Profile{ID: uuid.New(), PolicyID: &policyID}
	profileB := models.Profile{ID: uuid.New(), PolicyID: &policyID}
	policy := &models.Policy{ID: policyID, Profiles: []models.Profile{profileA, profileB}}

	f.policyRepo.On("FindByID", ctx, policyID).Return(policy, nil)
	f.resultRepo.On("FindLatestByProfile", ctx, profileA.ID).Return([]models.TestResult{}, nil)
	f.resultRepo.On("FindLatestByProfile", ctx, profileB.ID).Return([]models.TestResult{}, nil)
	f.profileRepo.On("UpdateScore", ctx, profileA.ID, (*float64)(nil)).Return(nil)
	f.profileRepo.On("UpdateScore", ctx, profileB.ID, (*float64)(nil)).Return(nil)
	f.resultRepo.On("FindLatestByPolicy", ctx, policyID).Return([]models.TestResult{}, nil)
	f.policyRepo.On("UpdateCounters", ctx, policyID, mock.AnythingOfType("models.PolicyCounters")).Return(nil)

	err := f.service.RecomputePolicy(ctx, policyID)

	require.NoError(t, err)
	f.profileRepo.AssertExpectations(t)
	f.resultRepo.AssertExpectations(t)
}
