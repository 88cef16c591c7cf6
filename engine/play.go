package engine

import (
	"context"
	"errors"
)

var (
	// ErrLoginRequired is returned when no user record is loaded yet.
	ErrLoginRequired = errors.New("login required")
	// ErrPresaleOnly gates play to whitelisted wallets during presale.
	ErrPresaleOnly = errors.New("presale is limited to whitelisted wallets")
	// ErrAllowanceExhausted is returned when the session has spent the
	// wallet's whole play allowance.
	ErrAllowanceExhausted = errors.New("play allowance exhausted")
)

// PlayResult reports one play: how much of the allowance is now spent and
// what the allowance ceiling is.
type PlayResult struct {
	Spent     float64 `json:"spent"`
	Allowance float64 `json:"allowance"`
}

// Play runs one paid game round: gate on presale whitelist and remaining
// allowance, spend, then refresh and broadcast the user record. The spend is
// committed before the refresh, so a refresh failure never refunds it.
func (o *Orchestrator) Play(ctx context.Context) (*PlayResult, error) {
	address, ok := o.session.Address()
	if !ok {
		return nil, ErrNotConnected
	}

	rec := o.backend.CurrentUserData()
	if rec == nil {
		return nil, ErrLoginRequired
	}

	if o.session.GetFlags().PresaleOnly && !rec.IsWhitelisted {
		o.notifier.Notify(NoticeWarning, "Presale access is limited to whitelisted wallets")
		return nil, ErrPresaleOnly
	}

	allowance := rec.PlayAllowance()
	if o.session.Consumed()+o.playCost > allowance {
		o.notifier.Notify(NoticeWarning, "Play allowance exhausted for this session")
		return nil, ErrAllowanceExhausted
	}

	o.session.ConsumeAllowance(o.playCost)
	o.log.Infow("play spent", "wallet", address, "cost", o.playCost, "consumed", o.session.Consumed())

	fresh, err := o.backend.GetUserData(ctx, address)
	if err != nil {
		o.log.Warnw("refresh after play failed", "wallet", address, "err", err)
		o.notifier.Notify(NoticeError, "Play recorded but refresh failed")
	} else {
		o.bus.Publish(fresh, o.clk.Now())
		o.notifier.Notify(NoticeSuccess, "Good luck!")
	}

	return &PlayResult{Spent: o.session.Consumed(), Allowance: allowance}, nil
}
