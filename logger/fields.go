package logger

// Standard field names for consistent structured logging across repodata.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldIngestionID = "ingestion_id"
	FieldRepoID      = "repo_id"
	FieldVersionID   = "version_id"

	// Ingestion details
	FieldURL      = "url"
	FieldTag      = "tag"
	FieldAttempts = "attempts"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldNextPollMS = "next_poll_ms"

	// Errors
	FieldError       = "error"
	FieldRecoverable = "recoverable"
)
