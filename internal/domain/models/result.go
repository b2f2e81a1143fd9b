package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Rule result outcomes as reported by the scanner.
const (
	RuleResultPass          = "pass"
	RuleResultFail          = "fail"
	RuleResultError         = "error"
	RuleResultNotApplicable = "notapplicable"
	RuleResultNotSelected   = "notselected"
)

// TestResult is one scan outcome for a (profile, host) pair. Results are
// immutable per natural key: at most one result may exist per
// (profile, host, end_time), and updates are modeled as delete + create.
type TestResult struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `json:"profile_id" gorm:"type:uuid;index:idx_results_natural_key,unique"`
	HostID    uuid.UUID `json:"host_id" gorm:"type:uuid;index:idx_results_natural_key,unique"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time" gorm:"index:idx_results_natural_key,unique"`
	Score     float64   `json:"score"`
	Supported bool      `json:"supported"`

	RuleResults []RuleResult `json:"rule_results,omitempty" gorm:"foreignKey:TestResultID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

// RuleResult is the pass/fail outcome of a single rule within a test result.
type RuleResult struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TestResultID uuid.UUID `json:"test_result_id" gorm:"type:uuid;index"`
	RuleID       uuid.UUID `json:"rule_id" gorm:"type:uuid;index"`
	Result       string    `json:"result"`
}

// Passed reports whether the rule outcome counts as passing.
func (r RuleResult) Passed() bool {
	return r.Result == RuleResultPass
}

// LatestResults reduces a result set to the latest result per (profile, host)
// pair, latest being the maximum end_time. Output is ordered by
// (profile, host) for determinism.
func LatestResults(results []TestResult) []TestResult {
	type key struct {
		profile uuid.UUID
		host    uuid.UUID
	}
	latest := make(map[key]TestResult, len(results))
	for _, r := range results {
		k := key{r.ProfileID, r.HostID}
		if cur, ok := latest[k]; !ok || r.EndTime.After(cur.EndTime) {
			latest[k] = r
		}
	}

	out := make([]TestResult, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfileID != out[j].ProfileID {
			return out[i].ProfileID.String() < out[j].ProfileID.String()
		}
		return out[i].HostID.String() < out[j].HostID.String()
	})
	return out
}
