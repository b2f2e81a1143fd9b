// Package dto defines the request and response shapes exchanged between the
// application services and the transport layer.
package dto

import (
	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
)

// CreateProfileRequest creates a new customer profile. A new profile always
// creates (or joins) exactly one policy.
type CreateProfileRequest struct {
	Name               string    `json:"name" binding:"required"`
	Description        string    `json:"description"`
	AccountID          string    `json:"account_id" binding:"required"`
	ParentProfileID    uuid.UUID `json:"parent_profile_id" binding:"required"`
	PolicyID           *uuid.UUID `json:"policy_id,omitempty"`
	ComplianceThreshold float64  `json:"compliance_threshold"`
	BusinessObjective  string    `json:"business_objective"`
	OSMinorVersion     string    `json:"os_minor_version"`
}

// UpdateRulesRequest replaces a profile's effective rule set.
type UpdateRulesRequest struct {
	RuleRefIDs []string `json:"rule_ref_ids" binding:"required"`
}

// RuleUpdateSummary reports a rule-set mutation relative to the previous
// stored state, for audit purposes.
type RuleUpdateSummary struct {
	ProfileID     uuid.UUID `json:"profile_id"`
	AddedCount    int       `json:"added_count"`
	RemovedCount  int       `json:"removed_count"`
	FencedRefIDs  []string  `json:"fenced_ref_ids,omitempty"`
	AcceptedCount int       `json:"accepted_count"`
}

// TailoringDelta is the computed delta of a profile against its canonical
// ancestor.
type TailoringDelta struct {
	ProfileID          uuid.UUID             `json:"profile_id"`
	Tailored           bool                  `json:"tailored"`
	AddedRefIDs        []string              `json:"added_ref_ids"`
	RemovedRefIDs      []string              `json:"removed_ref_ids"`
	TailoredRuleRefIDs models.RuleSelections `json:"tailored_rule_ref_ids"`
}
