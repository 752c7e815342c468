package workflow

// State is a lifecycle state shared by entries and timesheets
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateArchived  State = "archived"
	StateFinalized State = "finalized"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateApproved:  true,
	StateArchived:  true,
	StateFinalized: true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is known
func (s State) IsValid() bool {
	return validStates[s]
}
