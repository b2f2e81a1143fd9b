// Package constants defines shared codes, defaults, and context keys for the
// compliance service.
package constants

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal          ErrorCode = "internal_error"
	ErrCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeDuplicateResult   ErrorCode = "duplicate_result"
	ErrCodeMissingAncestor   ErrorCode = "missing_ancestor"
	ErrCodeMalformedRevision ErrorCode = "malformed_revision"
	ErrCodeDownloadFailure   ErrorCode = "download_failure"
)

// AuditEventType identifies a domain event emitted on a state change.
type AuditEventType string

const (
	AuditEventProfileCreated          AuditEventType = "profile.created"
	AuditEventProfileRulesUpdated     AuditEventType = "profile.rules_updated"
	AuditEventProfileOSMinorSet       AuditEventType = "profile.os_minor_version_set"
	AuditEventResultIngested          AuditEventType = "test_result.ingested"
	AuditEventResultDeleted           AuditEventType = "test_result.deleted"
	AuditEventPolicyCountersUpdated   AuditEventType = "policy.counters_updated"
	AuditEventBusinessObjectiveUsed   AuditEventType = "business_objective.created"
	AuditEventDatastreamImported      AuditEventType = "datastream.imported"
	AuditEventDatastreamDownloadError AuditEventType = "datastream.download_failed"
)

// ContextKey is the type used for values stored in a context.Context.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyTraceID   ContextKey = "trace_id"
	ContextKeyAccountID ContextKey = "account_id"
)

// DefaultComplianceThreshold is the percentage of passing rules a host needs
// for its latest result to count as compliant, unless the policy overrides it.
const DefaultComplianceThreshold = 100.0

// MaxScore is the upper bound of a test result score.
const MaxScore = 100.0
