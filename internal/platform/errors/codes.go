// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Match errors
	CodeMatchInvalidCupCount Code = "MATCH_INVALID_CUP_COUNT"
	CodeMatchEmptyRoster     Code = "MATCH_EMPTY_ROSTER"
	CodeMatchComplete        Code = "MATCH_COMPLETE"
	CodeMatchNotFound        Code = "MATCH_NOT_FOUND"

	// Shot errors
	CodeInvalidSelection Code = "INVALID_SELECTION"
	CodeIncompleteShot   Code = "INCOMPLETE_SHOT"
	CodeInvalidSide      Code = "INVALID_SIDE"

	// Undo / redemption errors
	CodeNothingToUndo     Code = "NOTHING_TO_UNDO"
	CodeNotRedemption     Code = "NOT_REDEMPTION"
	CodeRedemptionPending Code = "REDEMPTION_PENDING"

	// Rerack errors
	CodeRerackSlotMismatch Code = "RERACK_SLOT_MISMATCH"
	CodeRerackNotNeeded    Code = "RERACK_NOT_NEEDED"

	// Filter errors
	CodeInvalidFilter Code = "INVALID_FILTER"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageFailure Code = "STORAGE_FAILURE"
)
