package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileKind is the tagged classification of a profile. Canonical profiles
// are vendor-published roots of a tailoring ancestry; external profiles come
// from reports referencing content we never published; everything else is a
// customer profile that may or may not be tailored.
type ProfileKind string

const (
	ProfileKindCanonical ProfileKind = "canonical"
	ProfileKindExternal  ProfileKind = "external"
	ProfileKindCustomer  ProfileKind = "customer"
)

// Profile is the central entity: a customer-tailored (or vendor-published)
// variant of a benchmark's rule set, owned by a policy.
type Profile struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RefID               string     `json:"ref_id" gorm:"index"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	AccountID           string     `json:"account_id" gorm:"index"`
	ComplianceThreshold float64    `json:"compliance_threshold"`
	BusinessObjectiveID *uuid.UUID `json:"business_objective_id,omitempty" gorm:"type:uuid"`

	// OSMinorVersion constrains the profile to one OS minor version. Empty
	// means unconstrained. The empty -> value transition is one-way.
	OSMinorVersion string `json:"os_minor_version"`

	Canonical bool `json:"canonical"`
	External  bool `json:"external"`

	// ParentProfileID is nil only for canonical profiles, which have no
	// ancestor. For every other profile it resolves to the canonical profile
	// this one was tailored from.
	ParentProfileID *uuid.UUID `json:"parent_profile_id,omitempty" gorm:"type:uuid;index"`

	PolicyID    *uuid.UUID `json:"policy_id,omitempty" gorm:"type:uuid;index"`
	BenchmarkID uuid.UUID  `json:"benchmark_id" gorm:"type:uuid;index"`

	// Score is the cached compliance score, recomputed from the committed
	// test result set on every result write. Nil when no results exist.
	Score *float64 `json:"score,omitempty"`

	// Rules is the profile's effective rule set. For canonical profiles it
	// always equals the benchmark's full rule set.
	Rules []Rule `json:"rules,omitempty" gorm:"many2many:profile_rules"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind returns the tagged variant of the profile.
func (p *Profile) Kind() ProfileKind {
	switch {
	case p.Canonical:
		return ProfileKindCanonical
	case p.External:
		return ProfileKindExternal
	default:
		return ProfileKindCustomer
	}
}

// IsCanonical reports whether the profile is a vendor-published baseline.
// Canonical profiles are never tailored.
func (p *Profile) IsCanonical() bool {
	return p.Canonical
}

// HasOSMinorVersion reports whether the profile is pinned to an OS minor
// version.
func (p *Profile) HasOSMinorVersion() bool {
	return p.OSMinorVersion != ""
}

// RuleSelection is one entry of a tailoring delta: the rule's external ref_id
// and whether it is selected (added relative to the ancestor) or deselected
// (removed). A slice keeps the precedence-derived insertion order that a map
// would lose.
type RuleSelection struct {
	RefID    string `json:"ref_id"`
	Selected bool   `json:"selected"`
}

// RuleSelections is the ordered tailoring delta of a profile.
type RuleSelections []RuleSelection

// Map flattens the selections into a ref_id -> selected lookup. Ordering is
// lost; use the slice form wherever determinism matters.
func (s RuleSelections) Map() map[string]bool {
	m := make(map[string]bool, len(s))
	for _, sel := range s {
		m[sel.RefID] = sel.Selected
	}
	return m
}

// BusinessObjective is a per-account label that policies may reference. It is
// created lazily on first use of a new title within an account and never
// deleted by this core.
type BusinessObjective struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string    `json:"title" gorm:"index:idx_objectives_account_title,unique"`
	AccountID string    `json:"account_id" gorm:"index:idx_objectives_account_title,unique"`
	CreatedAt time.Time `json:"created_at"`
}
