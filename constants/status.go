package constants

// RunStatus is the canonical status for a single keyword run.
type RunStatus string

// Stable values (store these exact strings in the journal).
const (
	RunStatusPending   RunStatus = "PENDING"   // row selected, nothing submitted yet
	RunStatusSubmitted RunStatus = "SUBMITTED" // report job accepted by the remote API
	RunStatusPolling   RunStatus = "POLLING"   // waiting on report completion
	RunStatusReady     RunStatus = "READY"     // article published, sheet updated
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure
	RunStatusTimedOut  RunStatus = "TIMED_OUT" // poll deadline exceeded
)

// Sheet-facing status strings. These land in the spreadsheet's status column
// for a human to read, so they stay readable rather than canonical.
const (
	SheetStatusPending = "pending"
	SheetStatusReady   = "Ready for review"
	SheetStatusFailed  = "failed"
)
