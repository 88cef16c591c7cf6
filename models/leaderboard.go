package models

// LeaderboardUser is one backend leaderboard entry as it appears on the wire.
type LeaderboardUser struct {
	WalletAddress string `json:"walletAddress"`
	RandomName    string `json:"randomName,omitempty"`
	Points        int    `json:"points"`
}

// DisplayName prefers the random name, falling back to a shortened address.
func (u LeaderboardUser) DisplayName() string {
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

// LeaderboardPage is one page of ranking data plus the global total used for
// pagination. It is transient: recomputed on every navigation, never cached.
type LeaderboardPage struct {
	Users []LeaderboardUser `json:"users"`
	Total int               `json:"total"`
}
