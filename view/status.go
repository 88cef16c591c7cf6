package view

import (
	"fmt"

	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/utils"
)

// StatusView is the rendered account status panel.
type StatusView struct {
	LoggedIn       bool    `json:"logged_in"`
	DisplayName    string  `json:"display_name,omitempty"`
	Points         int     `json:"points"`
	Whitelisted    bool    `json:"whitelisted"`
	WhitelistLabel string  `json:"whitelist_label,omitempty"`
	Allowance      float64 `json:"allowance"`
	Spent          float64 `json:"spent"`
	AllowanceLabel string  `json:"allowance_label,omitempty"`
	AllowanceWarn  string  `json:"allowance_warn,omitempty"`
	PlayEnabled    bool    `json:"play_enabled"`
}

// Status renders the account panel. spent is the session's consumed
// allowance and playCost the price of one more game; the play control is
// enabled only while another game still fits under the allowance.
func Status(record *models.UserRecord, spent, playCost float64, presaleOnly bool) StatusView {
	if record == nil {
		return StatusView{}
	}

	allowance := record.PlayAllowance()
	v := StatusView{
		LoggedIn:       true,
		DisplayName:    utils.SanitizeText(record.DisplayName()),
		Points:         record.Points,
		Whitelisted:    record.IsWhitelisted,
		Allowance:      allowance,
		Spent:          spent,
		AllowanceLabel: fmt.Sprintf("%.4f / %.4f SOL", spent, allowance),
	}
	if record.IsWhitelisted {
		v.WhitelistLabel = "Whitelisted"
	}

	switch {
	case spent+playCost > allowance:
		v.AllowanceWarn = "exhausted"
	case spent >= allowance*0.8:
		v.AllowanceWarn = "low"
	}

	v.PlayEnabled = spent+playCost <= allowance && (!presaleOnly || record.IsWhitelisted)
	return v
}
