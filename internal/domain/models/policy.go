package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/pkg/constants"
)

// Policy aggregates sibling profiles scoped to the same account and canonical
// ancestor. It owns the business objective association, the compliance
// threshold default, and the cached counters derived from the policy's
// current result set.
type Policy struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	AccountID           string     `json:"account_id" gorm:"index"`
	ComplianceThreshold float64    `json:"compliance_threshold"`
	BusinessObjectiveID *uuid.UUID `json:"business_objective_id,omitempty" gorm:"type:uuid"`

	// Cached counters, recomputed in place (overwrite semantics) from the
	// latest-per-(profile, host) results under this policy.
	TestResultHostCount  int      `json:"test_result_host_count"`
	CompliantHostCount   int      `json:"compliant_host_count"`
	UnsupportedHostCount int      `json:"unsupported_host_count"`
	PassedRuleCount      int      `json:"passed_rule_count"`
	TotalRuleCount       int      `json:"total_rule_count"`
	Score                *float64 `json:"score,omitempty"`

	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:PolicyID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPolicy creates a policy with the default compliance threshold.
func NewPolicy(name, accountID string) *Policy {
	now := time.Now().UTC()
	return &Policy{
		ID:                  uuid.New(),
		Name:                name,
		AccountID:           accountID,
		ComplianceThreshold: constants.DefaultComplianceThreshold,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Threshold returns the policy's compliance threshold, falling back to the
// default when unset.
func (p *Policy) Threshold() float64 {
	if p.ComplianceThreshold <= 0 {
		return constants.DefaultComplianceThreshold
	}
	return p.ComplianceThreshold
}

// PolicyCounters is the denormalized summary written back onto a policy after
// every test result mutation.
type PolicyCounters struct {
	TestResultHostCount  int
	CompliantHostCount   int
	UnsupportedHostCount int
	PassedRuleCount      int
	TotalRuleCount       int
	Score                *float64
}

// Apply overwrites the policy's cached fields with the freshly computed
// counters.
func (p *Policy) Apply(c PolicyCounters) {
	p.TestResultHostCount = c.TestResultHostCount
	p.CompliantHostCount = c.CompliantHostCount
	p.UnsupportedHostCount = c.UnsupportedHostCount
	p.PassedRuleCount = c.PassedRuleCount
	p.TotalRuleCount = c.TotalRuleCount
	p.Score = c.Score
	p.UpdatedAt = time.Now().UTC()
}
