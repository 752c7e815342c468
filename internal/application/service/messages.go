package service

// User-facing reasons carried by validation and precondition errors
const (
	MsgNotAllApproved       = "All daily time records must be approved before sign off"
	MsgNoEntries            = "Time sheet has no daily time records to sign off"
	MsgLocked               = "Time sheet is signed off and locked"
	MsgEntryNotFound        = "Time record not found"
	MsgTimesheetNotFound    = "Time sheet not found"
	MsgAdminOnlyReset       = "Only administrators can reset a time sheet"
	MsgAdminOnlyUnapprove   = "Only administrators can unapprove a time record"
	MsgEntryWrongLocation   = "Time record belongs to another location"
	MsgHeaderWrongLocation  = "Time sheet belongs to another location"
	MsgNotApproved          = "Time record is not approved"
	MsgConflict             = "Time record was changed by someone else, reload and try again"
	MsgClockOrder           = "Clock Out must be after Clock In"
	MsgBreakMinutes         = "Break Minutes must be a whole number of minutes, zero or more"
	MsgNothingToChange      = "Nothing to change"
	MsgExtraTimeDecided     = "Additional time has already been confirmed or denied"
	MsgNoAdditionalTime     = "Time record has no additional time to confirm"
	MsgBadDecision          = "Decision must be confirm or deny"
	MsgPruneNeedsLocation   = "A location is required to remove stale time records"
	MsgProviderNotAvailable = "Scheduling provider is not configured"
)

func badTimeMessage(label string) string {
	return label + " must be a date and time (YYYY-MM-DD HH:MM) or a time of day (HH:MM)"
}
