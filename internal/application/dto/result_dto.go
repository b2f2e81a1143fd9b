package dto

import (
	"time"

	"github.com/google/uuid"
)

// RuleResultInput is one rule outcome within an uploaded scan report.
type RuleResultInput struct {
	RuleID uuid.UUID `json:"rule_id" binding:"required"`
	Result string    `json:"result" binding:"required"`
}

// IngestResultRequest uploads one scan outcome for a (profile, host) pair.
type IngestResultRequest struct {
	ProfileID   uuid.UUID         `json:"profile_id" binding:"required"`
	HostID      uuid.UUID         `json:"host_id" binding:"required"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time" binding:"required"`
	Score       float64           `json:"score"`
	Supported   bool              `json:"supported"`
	RuleResults []RuleResultInput `json:"rule_results"`
}

// ImportSummary reports the outcome of a datastream import run.
type ImportSummary struct {
	Selected int      `json:"selected"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}
