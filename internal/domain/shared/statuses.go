package shared

// RunStatus defines reconciliation run states
type RunStatus string

const (
	RunStatusPending    RunStatus = "PENDING"
	RunStatusProcessing RunStatus = "PROCESSING"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
)

// FailureReason defines run failure categories
type FailureReason string

const (
	FailureReasonBudgetNotFound    FailureReason = "BUDGET_NOT_FOUND"
	FailureReasonLedgerUnavailable FailureReason = "LEDGER_UNAVAILABLE"
	FailureReasonInvalidRequest    FailureReason = "INVALID_REQUEST"
	FailureReasonStorageFailed     FailureReason = "STORAGE_FAILED"
	FailureReasonPublishFailed     FailureReason = "PUBLISH_FAILED"
	FailureReasonUnknownError      FailureReason = "UNKNOWN_ERROR"
)

// PatchKind distinguishes storefront-match patches from gratuity patches
type PatchKind string

const (
	PatchKindMatch PatchKind = "MATCH"
	PatchKindTip   PatchKind = "TIP"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
