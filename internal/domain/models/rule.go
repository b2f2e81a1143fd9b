// Package models defines the domain entities of the compliance service:
// benchmarks and rules produced by the datastream import pipeline, profiles
// with their tailoring ancestry, policies with cached counters, and test
// results with their rule-level outcomes.
package models

import (
	"sort"

	"github.com/google/uuid"
)

// Rule is a single compliance check within a benchmark. Rules are immutable
// once published; a new baseline revision produces a new benchmark with new
// rule rows rather than mutating existing ones.
type Rule struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RefID       string    `json:"ref_id" gorm:"index:idx_rules_ref_benchmark,unique"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`

	// Precedence is the stable display and diff ordering of the rule within
	// its benchmark. It is not necessarily insertion order.
	Precedence int `json:"precedence"`

	BenchmarkID uuid.UUID `json:"benchmark_id" gorm:"type:uuid;index:idx_rules_ref_benchmark,unique"`
}

// Benchmark is a named, versioned collection of rules produced from one
// baseline revision. Immutable after creation.
type Benchmark struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RefID          string    `json:"ref_id" gorm:"index:idx_benchmarks_ref_version,unique"`
	Title          string    `json:"title"`
	Version        string    `json:"version" gorm:"index:idx_benchmarks_ref_version,unique"`
	OSMajorVersion string    `json:"os_major_version"`

	Rules []Rule `json:"rules,omitempty" gorm:"foreignKey:BenchmarkID"`
}

// SortRulesByPrecedence orders rules by precedence, falling back to ref_id so
// the order is total and deterministic. The input slice is not modified.
func SortRulesByPrecedence(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Precedence != sorted[j].Precedence {
			return sorted[i].Precedence < sorted[j].Precedence
		}
		return sorted[i].RefID < sorted[j].RefID
	})
	return sorted
}

// DiffRules computes the minimal rule-level delta between a profile's
// effective rule set and its parent's. Added rules are present in rules but
// not in parentRules; removed rules the reverse. Both outputs are ordered by
// precedence so repeated invocations over the same snapshot are
// byte-identical.
func DiffRules(rules, parentRules []Rule) (added, removed []Rule) {
	inParent := make(map[uuid.UUID]struct{}, len(parentRules))
	for _, r := range parentRules {
		inParent[r.ID] = struct{}{}
	}
	inProfile := make(map[uuid.UUID]struct{}, len(rules))
	for _, r := range rules {
		inProfile[r.ID] = struct{}{}
	}

	added = make([]Rule, 0)
	for _, r := range rules {
		if _, ok := inParent[r.ID]; !ok {
			added = append(added, r)
		}
	}
	removed = make([]Rule, 0)
	for _, r := range parentRules {
		if _, ok := inProfile[r.ID]; !ok {
			removed = append(removed, r)
		}
	}

	return SortRulesByPrecedence(added), SortRulesByPrecedence(removed)
}
