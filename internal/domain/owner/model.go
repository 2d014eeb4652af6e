package owner

// Totals carries the backend-computed lifetime counters for an owner.
type Totals struct {
	Viewings     int     `json:"viewings"`
	RewardPoints float64 `json:"rewardPoints"`
}

// Profile holds state for the Owner concept as supplied by the backend.
// The backend is authoritative: the portal re-fetches the profile after any
// action that changes points or status instead of computing new values.
type Profile struct {
	OwnerNumber string `json:"ownerNumber" validate:"required"`
	Name        string `json:"name"`
	JoinedYear  int    `json:"joinedYear"`
	IsActive    bool   `json:"isActive"`
	Totals      Totals `json:"totals"`
}

// AvailablePoints returns the spendable reward balance.
// INVARIANT: Profile fields are not mutated
func (p Profile) AvailablePoints() float64 {
	return p.Totals.RewardPoints
}

// DisplayName returns the owner's name, falling back to "Owner".
// INVARIANT: Profile fields are not mutated
func (p Profile) DisplayName() string {
	if p.Name == "" {
		return "Owner"
	}
	return p.Name
}
