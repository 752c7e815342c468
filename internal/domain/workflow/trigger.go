package workflow

// Trigger is an event that can cause a state transition
type Trigger string

const (
	TriggerApprove   Trigger = "APPROVE"
	TriggerUnapprove Trigger = "UNAPPROVE"
	TriggerArchive   Trigger = "ARCHIVE"
	TriggerFinalize  Trigger = "FINALIZE"
	TriggerReset     Trigger = "RESET"
	TriggerEdit      Trigger = "EDIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
