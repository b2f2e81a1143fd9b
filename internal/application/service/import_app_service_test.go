package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openbaseline/compliance/internal/domain/models"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

type importServiceFixture struct {
	downloader  *mockDownloader
	parser      *mockParser
	ruleRepo    *mockRuleRepo
	profileRepo *mockProfileRepo
	txManager   *fakeTxManager
	service     *ImportAppService
}

func newImportServiceFixture() *importServiceFixture {
	f := &importServiceFixture{
		downloader:  new(mockDownloader),
		parser:      new(mockParser),
		ruleRepo:    new(mockRuleRepo),
		profileRepo: new(mockProfileRepo),
		txManager:   &fakeTxManager{},
	}
	log := logger.NewNoopLogger()
	f.service = NewImportAppService(
		domain.NewBaselineSelector(log), f.downloader, f.parser,
		f.ruleRepo, f.profileRepo, f.txManager,
		domain.NewNopAuditService(), domain.NewNopMetrics(), log,
	)
	return f
}

func importBaseline(osMajor, version, revision string) models.SupportedBaseline {
	return models.SupportedBaseline{
		ID:             fmt.Sprintf("RHEL-%s-%s", osMajor, revision),
		Package:        fmt.Sprintf("scap-security-guide-%s-%s.el%s", version, revision, osMajor),
		Version:        version,
		OSMajorVersion: osMajor,
	}
}

func importBenchmark(refID, version string, ruleCount int) *models.Benchmark {
	b := &models.Benchmark{
		ID:      uuid.New(),
		RefID:   refID,
		Title:   refID,
		Version: version,
	}
	for i := 0; i < ruleCount; i++ {
		b.Rules = append(b.Rules, models.Rule{
			ID:          uuid.New(),
			RefID:       fmt.Sprintf("rule_%d", i),
			Precedence:  i,
			BenchmarkID: b.ID,
		})
	}
	return b
}

func TestImportBaselines_ImportsBenchmarkWithCanonicalProfiles(t *testing.T) {
	f := newImportServiceFixture()
	ctx := context.Background()

	baseline := importBaseline("8", "0.1.57", "3")
	benchmark := importBenchmark("xccdf_org.example_benchmark_RHEL-8", "0.1.57", 3)
	profiles := []domain.ParsedProfile{
		{RefID: "xccdf_org.example_profile_cis", Title: "CIS Benchmark"},
		{RefID: "xccdf_org.example_profile_stig", Title: "STIG"},
	}

	f.downloader.On("Download", mock.Anything, baseline).Return("/tmp/ds-rhel8.xml", nil)
	f.parser.On("Parse", mock.Anything, "/tmp/ds-rhel8.xml", baseline).Return(benchmark, profiles, nil)
	f.ruleRepo.On("BenchmarkExists", ctx, benchmark.RefID, benchmark.Version).Return(false, nil)
	f.ruleRepo.On("SaveBenchmark", ctx, benchmark).Return(nil)
	f.profileRepo.On("Save", ctx, mock.MatchedBy(func(p *models.Profile) bool {
		return p.Canonical && p.BenchmarkID == benchmark.ID && len(p.Rules) == 3
	})).Return(nil).Twice()
	f.profileRepo.On("ReplaceRules", ctx, mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 3 && ids[0] == benchmark.Rules[0].ID
	})).Return(nil).Twice()

	summary, err := f.service.ImportBaselines(ctx, []models.SupportedBaseline{baseline})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Selected)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Failed)
	f.ruleRepo.AssertExpectations(t)
	f.profileRepo.AssertExpectations(t)
}

func TestImportBaselines_SelectsHighestRevisionPerBucket(t *testing.T) {
	f := newImportServiceFixture()
	ctx := context.Background()

	older := importBaseline("7", "0.1.25", "12")
	newer := importBaseline("7", "0.1.25", "13")
	benchmark := importBenchmark("xccdf_org.example_benchmark_RHEL-7", "0.1.25", 1)

	// Only the revision 13 descriptor may be fetched.
	f.downloader.On("Download", mock.Anything, newer).Return("/tmp/ds-rhel7.xml", nil)
	f.parser.On("Parse", mock.Anything, "/tmp/ds-rhel7.xml", newer).
		Return(benchmark, []domain.ParsedProfile{}, nil)
	f.ruleRepo.On("BenchmarkExists", ctx, benchmark.RefID, benchmark.Version).Return(false, nil)
	f.ruleRepo.On("SaveBenchmark", ctx, benchmark).Return(nil)

	summary, err := f.service.ImportBaselines(ctx, []models.SupportedBaseline{older, newer})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Selected)
	assert.Equal(t, 1, summary.Imported)
	f.downloader.AssertNumberOfCalls(t, "Download", 1)
	f.downloader.AssertNotCalled(t, "Download", mock.Anything, older)
}

func TestImportBaselines_SkipsAlreadyImportedBenchmark(t *testing.T) {
	f := newImportServiceFixture()
	ctx := context.Background()

	baseline := importBaseline("9", "0.1.60", "1")
	benchmark := importBenchmark("xccdf_org.example_benchmark_RHEL-9", "0.1.60", 2)

	f.downloader.On("Download", mock.Anything, baseline).Return("/tmp/ds-rhel9.xml", nil)
	f.parser.On("Parse", mock.Anything, "/tmp/ds-rhel9.xml", baseline).
		Return(benchmark, []domain.ParsedProfile{}, nil)
	f.ruleRepo.On("BenchmarkExists", ctx, benchmark.RefID, benchmark.Version).Return(true, nil)

	summary, err := f.service.ImportBaselines(ctx, []models.SupportedBaseline{baseline})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	f.ruleRepo.AssertNotCalled(t, "SaveBenchmark", mock.Anything, mock.Anything)
	f.profileRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestImportBaselines_DownloadFailureDoesNotAbortSiblings(t *testing.T) {
	f := newImportServiceFixture()
	ctx := context.Background()

	broken := importBaseline("7", "0.1.25", "13")
	healthy := importBaseline("8", "0.1.57", "3")
	benchmark := importBenchmark("xccdf_org.example_benchmark_RHEL-8", "0.1.57", 1)

	f.downloader.On("Download", mock.Anything, broken).Return("", fmt.Errorf("connect: connection refused"))
	f.downloader.On("Download", mock.Anything, healthy).Return("/tmp/ds-rhel8.xml", nil)
	f.parser.On("Parse", mock.Anything, "/tmp/ds-rhel8.xml", healthy).
		Return(benchmark, []domain.ParsedProfile{}, nil)
	f.ruleRepo.On("BenchmarkExists", ctx, benchmark.RefID, benchmark.Version).Return(false, nil)
	f.ruleRepo.On("SaveBenchmark", ctx, benchmark).Return(nil)

	summary, err := f.service.ImportBaselines(ctx, []models.SupportedBaseline{broken, healthy})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Selected)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, []string{broken.Package}, summary.Failed)
}

func TestImportBaselines_EmptyCatalog(t *testing.T) {
	f := newImportServiceFixture()

	summary, err := f.service.ImportBaselines(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Selected)
	assert.Equal(t, 0, summary.Imported)
	f.downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}
