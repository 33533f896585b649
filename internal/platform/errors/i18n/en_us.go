package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeMatchInvalidCupCount = "MATCH_INVALID_CUP_COUNT"
	CodeMatchEmptyRoster     = "MATCH_EMPTY_ROSTER"
	CodeMatchComplete        = "MATCH_COMPLETE"
	CodeMatchNotFound        = "MATCH_NOT_FOUND"
	CodeInvalidSelection     = "INVALID_SELECTION"
	CodeIncompleteShot       = "INCOMPLETE_SHOT"
	CodeInvalidSide          = "INVALID_SIDE"
	CodeNothingToUndo        = "NOTHING_TO_UNDO"
	CodeNotRedemption        = "NOT_REDEMPTION"
	CodeRedemptionPending    = "REDEMPTION_PENDING"
	CodeRerackSlotMismatch   = "RERACK_SLOT_MISMATCH"
	CodeRerackNotNeeded      = "RERACK_NOT_NEEDED"
	CodeInvalidFilter        = "INVALID_FILTER"
	CodeNotFound             = "NOT_FOUND"
	CodeStorageFailure       = "STORAGE_FAILURE"
)

// The en-US catalog is compiled in so the base locale works even when the
// locales directory is missing or incomplete. Other locales come from the
// YAML catalog with fallback to these messages.
func init() {
	RegisterCatalog("en-US", enUSCatalog)
}

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Match errors
		CodeMatchInvalidCupCount: "Cup count {{.CupCount}} is not supported",
		CodeMatchEmptyRoster:     "Each side needs at least one player",
		CodeMatchComplete:        "Match is already complete",
		CodeMatchNotFound:        "The requested match was not found",

		// Shot errors
		CodeInvalidSelection: "Cup {{.CupID}} is not available",
		CodeIncompleteShot:   "A {{.Kind}} shot needs {{.Missing}}",
		CodeInvalidSide:      "Side must be A or B",

		// Undo / redemption errors
		CodeNothingToUndo:     "There is no shot to undo",
		CodeNotRedemption:     "Match is not in redemption",
		CodeRedemptionPending: "Resolve redemption before the next shot",

		// Rerack errors
		CodeRerackSlotMismatch: "Rerack needs {{.Want}} slots, got {{.Got}}",
		CodeRerackNotNeeded:    "There is nothing to rerack",

		// Filter errors
		CodeInvalidFilter: "Filter expression is invalid",

		// Storage errors
		CodeNotFound:       "The requested resource was not found",
		CodeStorageFailure: "Storage operation failed",
	},
}
