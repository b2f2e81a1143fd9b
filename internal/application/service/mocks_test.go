package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/openbaseline/compliance/internal/domain/models"
	domain "github.com/openbaseline/compliance/internal/domain/service"
)

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindParent(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) GetRules(ctx context.Context, profileID uuid.UUID) ([]models.Rule, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rule), args.Error(1)
}

func (m *mockProfileRepo) ReplaceRules(ctx context.Context, profileID uuid.UUID, ruleIDs []uuid.UUID) error {
	args := m.Called(ctx, profileID, ruleIDs)
	return args.Error(0)
}

func (m *mockProfileRepo) Save(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockProfileRepo) UpdateScore(ctx context.Context, profileID uuid.UUID, score *float64) error {
	args := m.Called(ctx, profileID, score)
	return args.Error(0)
}

func (m *mockProfileRepo) UpdateOSMinorVersion(ctx context.Context, profileID uuid.UUID, version string) error {
	args := m.Called(ctx, profileID, version)
	return args.Error(0)
}

type mockPolicyRepo struct {
	mock.Mock
}

func (m *mockPolicyRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Policy), args.Error(1)
}

func (m *mockPolicyRepo) Save(ctx context.Context, policy *models.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *mockPolicyRepo) UpdateCounters(ctx context.Context, policyID uuid.UUID, counters models.PolicyCounters) error {
	args := m.Called(ctx, policyID, counters)
	return args.Error(0)
}

func (m *mockPolicyRepo) SetBusinessObjective(ctx context.Context, policyID uuid.UUID, objectiveID *uuid.UUID) error {
	args := m.Called(ctx, policyID, objectiveID)
	return args.Error(0)
}

type mockRuleRepo struct {
	mock.Mock
}

func (m *mockRuleRepo) FindByBenchmark(ctx context.Context, benchmarkID uuid.UUID) ([]models.Rule, error) {
	args := m.Called(ctx, benchmarkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rule), args.Error(1)
}

func (m *mockRuleRepo) FindBenchmark(ctx context.Context, benchmarkID uuid.UUID) (*models.Benchmark, error) {
	args := m.Called(ctx, benchmarkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Benchmark), args.Error(1)
}

func (m *mockRuleRepo) BenchmarkExists(ctx context.Context, refID, version string) (bool, error) {
	args := m.Called(ctx, refID, version)
	return args.Bool(0), args.Error(1)
}

func (m *mockRuleRepo) SaveBenchmark(ctx context.Context, benchmark *models.Benchmark) error {
	args := m.Called(ctx, benchmark)
	return args.Error(0)
}

type mockResultRepo struct {
	mock.Mock
}

func (m *mockResultRepo) Create(ctx context.Context, result *models.TestResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockResultRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.TestResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestResult), args.Error(1)
}

func (m *mockResultRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockResultRepo) FindLatestByProfile(ctx context.Context, profileID uuid.UUID) ([]models.TestResult, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestResult), args.Error(1)
}

func (m *mockResultRepo) FindLatestByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.TestResult, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestResult), args.Error(1)
}

type mockObjectiveRepo struct {
	mock.Mock
}

func (m *mockObjectiveRepo) FindOrCreate(ctx context.Context, accountID, title string) (*models.BusinessObjective, bool, error) {
	args := m.Called(ctx, accountID, title)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.BusinessObjective), args.Bool(1), args.Error(2)
}

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) Download(ctx context.Context, baseline models.SupportedBaseline) (string, error) {
	args := m.Called(ctx, baseline)
	return args.String(0), args.Error(1)
}

type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(ctx context.Context, path string, baseline models.SupportedBaseline) (*models.Benchmark, []domain.ParsedProfile, error) {
	args := m.Called(ctx, path, baseline)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Benchmark), args.Get(1).([]domain.ParsedProfile), args.Error(2)
}

// fakeTxManager runs the function directly; transactional behavior is covered
// by the integration tests. The optional hooks let tests assert which calls
// happen inside the transaction boundary.
type fakeTxManager struct {
	calls   int
	inTx    bool
	onEnter func()
	onExit  func()
}

func (f *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.inTx = true
	if f.onEnter != nil {
		f.onEnter()
	}
	err := fn(ctx)
	f.inTx = false
	if f.onExit != nil {
		f.onExit()
	}
	return err
}
