package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

func baseline(id, pkg, version, osMajor, osMinor string) models.SupportedBaseline {
	return models.SupportedBaseline{
		ID:             id,
		Package:        pkg,
		Version:        version,
		OSMajorVersion: osMajor,
		OSMinorVersion: osMinor,
	}
}

func packages(baselines []models.SupportedBaseline) []string {
	out := make([]string, 0, len(baselines))
	for _, b := range baselines {
		out = append(out, b.Package)
	}
	return out
}

func TestSelectPreferred(t *testing.T) {
	ctx := context.Background()
	selector := service.NewBaselineSelector(logger.NewNoopLogger())

	t.Run("HighestRevisionWins", func(t *testing.T) {
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("rhel-7.9", "scap-security-guide-0.1.49-12.el7", "0.1.49", "7", "9"),
			baseline("rhel-7.8", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "8"),
		})
		require.Len(t, selected, 1)
		assert.Equal(t, "scap-security-guide-0.1.49-13.el7", selected[0].Package)
	})

	t.Run("BucketsPerOSMajor", func(t *testing.T) {
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("rhel-7.9", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "9"),
			baseline("rhel-7.8", "scap-security-guide-0.1.49-12.el7", "0.1.49", "7", "8"),
			baseline("rhel-8.4", "scap-security-guide-0.1.57-3.el8_4", "0.1.57", "8", "4"),
			baseline("rhel-8.5", "scap-security-guide-0.1.57-5.el8", "0.1.57", "8", "5"),
		})
		got := packages(selected)
		assert.Contains(t, got, "scap-security-guide-0.1.49-13.el7")
		assert.Contains(t, got, "scap-security-guide-0.1.57-5.el8")
		assert.NotContains(t, got, "scap-security-guide-0.1.49-12.el7")
		assert.NotContains(t, got, "scap-security-guide-0.1.57-3.el8_4")
	})

	t.Run("SameVersionOnMultipleMajors", func(t *testing.T) {
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("rhel-7.9", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "9"),
			baseline("rhel-8.0", "scap-security-guide-0.1.49-2.el8", "0.1.49", "8", "0"),
		})
		assert.Len(t, selected, 2)
	})

	t.Run("TieKeepsFirstEncountered", func(t *testing.T) {
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("first", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "9"),
			baseline("second", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "8"),
		})
		require.Len(t, selected, 1)
		assert.Equal(t, "first", selected[0].ID)
	})

	t.Run("MalformedNeverBeatsWellFormed", func(t *testing.T) {
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("broken", "scap-security-guide", "0.1.49", "7", "9"),
			baseline("ok", "scap-security-guide-0.1.49-1.el7", "0.1.49", "7", "8"),
		})
		require.Len(t, selected, 1)
		assert.Equal(t, "ok", selected[0].ID)

		// Order independence: the malformed entry loses either way.
		selected = selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("ok", "scap-security-guide-0.1.49-1.el7", "0.1.49", "7", "8"),
			baseline("broken", "scap-security-guide", "0.1.49", "7", "9"),
		})
		require.Len(t, selected, 1)
		assert.Equal(t, "ok", selected[0].ID)
	})

	t.Run("MalformedAloneStillSelected", func(t *testing.T) {
		// A bad catalog entry must not block its own bucket entirely when
		// nothing else is available, nor unrelated buckets either.
		selected := selector.SelectPreferred(ctx, []models.SupportedBaseline{
			baseline("broken", "scap-security-guide", "0.1.49", "7", "9"),
			baseline("other", "scap-security-guide-0.1.57-5.el8", "0.1.57", "8", "5"),
		})
		assert.Len(t, selected, 2)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		assert.Empty(t, selector.SelectPreferred(ctx, nil))
	})

	t.Run("DeterministicOutputOrder", func(t *testing.T) {
		input := []models.SupportedBaseline{
			baseline("rhel-8.5", "scap-security-guide-0.1.57-5.el8", "0.1.57", "8", "5"),
			baseline("rhel-7.9", "scap-security-guide-0.1.49-13.el7", "0.1.49", "7", "9"),
		}
		first := selector.SelectPreferred(ctx, input)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, selector.SelectPreferred(ctx, input))
		}
		assert.Equal(t, "7", first[0].OSMajorVersion)
	})
}
