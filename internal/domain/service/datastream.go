package service

import (
	"context"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name DatastreamDownloader --output mocks --outpkg mocks

// DatastreamDownloader fetches the packaged content of a selected baseline
// and returns a locally readable file path. Failures are transient and scoped
// to the single descriptor; they never abort sibling downloads.
type DatastreamDownloader interface {
	Download(ctx context.Context, baseline models.SupportedBaseline) (string, error)
}

// ParsedProfile is a canonical profile declared inside a datastream.
type ParsedProfile struct {
	RefID       string
	Title       string
	Description string
}

//go:generate mockery --name DatastreamParser --output mocks --outpkg mocks

// DatastreamParser extracts the benchmark, its rules, and the declared
// canonical profiles from a downloaded datastream file.
type DatastreamParser interface {
	Parse(ctx context.Context, path string, baseline models.SupportedBaseline) (*models.Benchmark, []ParsedProfile, error)
}
