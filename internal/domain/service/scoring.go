package service

import (
	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

// The scoring functions are pure: they operate on an already-materialized,
// committed result set and are invoked by the aggregation pipeline inside the
// same transaction as the triggering result write. Recomputing from the same
// input always yields identical output.

// ProfileScore computes a profile's cached score: the arithmetic mean of the
// latest-per-host scores. Hosts that last reported an unsupported result are
// excluded. Returns nil when no supported results exist.
func ProfileScore(results []models.TestResult) *float64 {
	latest := models.LatestResults(results)

	var sum float64
	var count int
	for _, r := range latest {
		if !r.Supported {
			continue
		}
		sum += r.Score
		count++
	}
	if count == 0 {
		return nil
	}
	score := sum / float64(count)
	return &score
}

// ComputePolicyCounters derives the policy's cached counters from the
// latest-per-(profile, host) results under the policy. A host counts as
// compliant when every one of its latest results is supported and scores at
// or above the threshold.
func ComputePolicyCounters(results []models.TestResult, threshold float64) models.PolicyCounters {
	latest := models.LatestResults(results)

	type hostState struct {
		compliant   bool
		unsupported bool
		seen        bool
	}
	hosts := make(map[uuid.UUID]*hostState)

	counters := models.PolicyCounters{}
	var scoreSum float64
	var scoreCount int

	for _, r := range latest {
		state, ok := hosts[r.HostID]
		if !ok {
			state = &hostState{compliant: true}
			hosts[r.HostID] = state
		}
		state.seen = true
		if !r.Supported {
			state.unsupported = true
			state.compliant = false
		} else {
			if r.Score < threshold {
				state.compliant = false
			}
			scoreSum += r.Score
			scoreCount++
		}

		for _, rr := range r.RuleResults {
			switch rr.Result {
			case models.RuleResultNotSelected, models.RuleResultNotApplicable:
				continue
			}
			counters.TotalRuleCount++
			if rr.Passed() {
				counters.PassedRuleCount++
			}
		}
	}

	counters.TestResultHostCount = len(hosts)
	for _, state := range hosts {
		if state.unsupported {
			counters.UnsupportedHostCount++
		}
		if state.compliant {
			counters.CompliantHostCount++
		}
	}
	if scoreCount > 0 {
		score := scoreSum / float64(scoreCount)
		counters.Score = &score
	}

	return counters
}
