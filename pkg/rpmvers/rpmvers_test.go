package rpmvers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openbaseline/compliance/pkg/rpmvers"
)

func TestCompare(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Equal", "13.el7", "13.el7", 0},
		{"NumericNotLexicographic", "13.el7", "9.el7", 1},
		{"LowerRevision", "12.el7", "13.el7", -1},
		{"SuffixedRelease", "5.el8", "3.el8_4", 1},
		{"LongerNumericWins", "0.1.57", "0.1.49", 1},
		{"MorePrecisePatch", "1.0.1", "1.0", 1},
		{"NumericBeatsAlpha", "1.0", "1.a", 1},
		{"AlphaOrder", "1.a", "1.b", -1},
		{"TildeSortsFirst", "1.0~rc1", "1.0", -1},
		{"TildeBothSides", "1.0~rc1", "1.0~rc2", -1},
		{"LeadingZeros", "007", "7", 0},
		{"SeparatorsIgnored", "1..0", "1.0", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, rpmvers.Compare(tc.a, tc.b))
			assert.Equal(t, -tc.expected, rpmvers.Compare(tc.b, tc.a))
		})
	}
}

func TestPackageRevision(t *testing.T) {
	rev, err := rpmvers.PackageRevision("scap-security-guide-0.1.49-13.el7", "0.1.49")
	assert.NoError(t, err)
	assert.Equal(t, "13.el7", rev)

	rev, err = rpmvers.PackageRevision("scap-security-guide-0.1.57-3.el8_4", "0.1.57")
	assert.NoError(t, err)
	assert.Equal(t, "3.el8_4", rev)

	_, err = rpmvers.PackageRevision("scap-security-guide", "0.1.49")
	assert.Error(t, err)

	_, err = rpmvers.PackageRevision("scap-security-guide-0.1.49-", "0.1.49")
	assert.Error(t, err)
}
