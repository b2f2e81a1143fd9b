package service

import (
	"context"
	"sort"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/pkg/logger"
	"github.com/openbaseline/compliance/pkg/rpmvers"
)

// BaselineSelector picks, out of all packaged baseline revisions the upstream
// catalog publishes, the single preferred revision per (OS major version,
// content version) bucket. Re-released patch revisions of the same logical
// content would otherwise create duplicate benchmarks and fragment profile
// ancestry.
type BaselineSelector struct {
	logger logger.Logger
}

// NewBaselineSelector creates a BaselineSelector.
func NewBaselineSelector(log logger.Logger) *BaselineSelector {
	return &BaselineSelector{logger: log.WithComponent("BaselineSelector")}
}

type bucketKey struct {
	osMajor string
	version string
}

type candidate struct {
	baseline  models.SupportedBaseline
	revision  string
	malformed bool
	order     int
}

// SelectPreferred returns at most one descriptor per (OS major, content
// version) bucket: the one with the highest package revision under rpm
// version ordering. Descriptors whose revision cannot be parsed rank below
// every well-formed sibling but never abort selection for other buckets. Ties
// on identical revisions keep the first descriptor encountered. The output is
// ordered by (OS major, content version) so repeated runs are deterministic.
func (s *BaselineSelector) SelectPreferred(ctx context.Context, baselines []models.SupportedBaseline) []models.SupportedBaseline {
	best := make(map[bucketKey]candidate, len(baselines))

	for i, baseline := range baselines {
		key := bucketKey{baseline.OSMajorVersion, baseline.Version}

		revision, err := rpmvers.PackageRevision(baseline.Package, baseline.Version)
		malformed := err != nil
		if malformed {
			s.logger.Warn(ctx, "Skipping rank for baseline with malformed revision",
				logger.Fields{"package": baseline.Package, "os_major_version": baseline.OSMajorVersion})
		}

		cand := candidate{baseline: baseline, revision: revision, malformed: malformed, order: i}
		current, ok := best[key]
		if !ok {
			best[key] = cand
			continue
		}
		if beats(cand, current) {
			best[key] = cand
		}
	}

	selected := make([]models.SupportedBaseline, 0, len(best))
	for _, cand := range best {
		selected = append(selected, cand.baseline)
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].OSMajorVersion != selected[j].OSMajorVersion {
			return selected[i].OSMajorVersion < selected[j].OSMajorVersion
		}
		return selected[i].Version < selected[j].Version
	})
	return selected
}

// beats reports whether the challenger outranks the current bucket holder. A
// malformed revision never beats a well-formed one, and equal revisions keep
// the incumbent, which preserves first-encountered stability.
func beats(challenger, incumbent candidate) bool {
	if challenger.malformed {
		return false
	}
	if incumbent.malformed {
		return true
	}
	return rpmvers.Compare(challenger.revision, incumbent.revision) > 0
}
