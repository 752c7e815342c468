package entity

// Role distinguishes administrators from location-scoped clients
type Role string

const (
	RoleAdmin  Role = "administrator"
	RoleClient Role = "client"
)

// Actor is the identity behind a command
type Actor struct {
	UserID      int64  `json:"user_id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	LocationID  int64  `json:"location_id,omitempty"`
}

// IsAdmin reports whether the actor is unscoped
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may act on records at locationID
func (a Actor) CanAccess(locationID int64) bool {
	return a.IsAdmin() || (a.Role == RoleClient && a.LocationID == locationID)
}

var (
	// AutoApprover is recorded for entries approved by the weekly job
	AutoApprover = Actor{Login: "system", DisplayName: "Automatically Approved", Role: RoleAdmin}

	// ProviderSync is recorded for changes applied from the scheduling provider
	ProviderSync = Actor{Login: "system", DisplayName: "Scheduling Provider Sync", Role: RoleAdmin}
)
