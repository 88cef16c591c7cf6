package view

// LoginModalView is the rendered wallet-connect modal.
type LoginModalView struct {
	ProviderDetected bool     `json:"provider_detected"`
	Fields           []string `json:"fields"`
	ButtonLabel      string   `json:"button_label"`
	ButtonEnabled    bool     `json:"button_enabled"`
	InstallHint      string   `json:"install_hint,omitempty"`
}

// loginFields are the form inputs the modal always renders.
var loginFields = []string{"wallet_address", "twitter_username", "telegram_username"}

// LoginModal renders the connect modal. The sign button is disabled while a
// login is already in flight, and replaced by an install hint when no wallet
// provider is available.
func LoginModal(providerDetected, inFlight bool) LoginModalView {
	if !providerDetected {
		return LoginModalView{
			Fields:      loginFields,
			ButtonLabel: "Wallet not found",
			InstallHint: "Install a Solana wallet to continue",
		}
	}
	if inFlight {
		return LoginModalView{
			ProviderDetected: true,
			Fields:           loginFields,
			ButtonLabel:      "Connecting...",
		}
	}
	return LoginModalView{
		ProviderDetected: true,
		Fields:           loginFields,
		ButtonLabel:      "Connect Wallet",
		ButtonEnabled:    true,
	}
}
