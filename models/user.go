package models

// UserRecord mirrors the user document owned by the quest backend. The runtime
// only ever holds a read-only cached copy that is replaced wholesale on every
// successful fetch; it is never merged field by field.
type UserRecord struct {
	WalletAddress       string            `json:"wallet_address"`
	RandomName          string            `json:"random_name,omitempty"`
	Points              int               `json:"points"`
	IsWhitelisted       bool              `json:"is_whitelisted"`
	PlayAllowanceSOL    float64           `json:"play_allowance_sol"`
	LastTasksCompletion map[string]string `json:"last_tasks_completion,omitempty"`
}

// Clone returns a deep copy so callers can hand out records without exposing
// the cached copy to mutation.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	cp := *u
	if u.LastTasksCompletion != nil {
		cp.LastTasksCompletion = make(map[string]string, len(u.LastTasksCompletion))
		for k, v := range u.LastTasksCompletion {
			cp.LastTasksCompletion[k] = v
		}
	}
	return &cp
}

// DisplayName prefers the random name assigned at registration, falling back
// to a shortened wallet address.
func (u *UserRecord) DisplayName() string {
	if u == nil {
		return "Unknown User"
	}
	if u.RandomName != "" {
		return u.RandomName
	}
	if len(u.WalletAddress) > 8 {
		return u.WalletAddress[:8] + "..."
	}
	if u.WalletAddress != "" {
		return u.WalletAddress
	}
	return "Unknown User"
}

// PlayAllowance returns the play allowance in SOL, defaulting to 1 when the
// backend has not assigned one yet.
func (u *UserRecord) PlayAllowance() float64 {
	if u == nil || u.PlayAllowanceSOL <= 0 {
		return 1
	}
	return u.PlayAllowanceSOL
}
