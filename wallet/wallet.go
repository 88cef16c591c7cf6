// Package wallet wraps the injected Solana wallet surface the runtime talks
// to. The runtime never constructs or verifies signatures itself; it only
// builds the human-readable messages and delegates signing to the provider.
package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

var (
	// ErrNotInstalled means no wallet provider is available. Permanent:
	// surfaced as a disabled affordance, never retried.
	ErrNotInstalled = errors.New("wallet provider not installed")
	// ErrUserRejected means the user declined the connection prompt.
	ErrUserRejected = errors.New("wallet connection rejected")
	// ErrSigningFailed means the provider failed or refused to sign.
	ErrSigningFailed = errors.New("wallet signing failed")
)

// Provider is the surface consumed from an injected wallet.
// Connect with onlyIfTrusted set must not prompt the user and must fail
// silently when the wallet was not previously authorized.
type Provider interface {
	Connect(ctx context.Context, onlyIfTrusted bool) (string, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// LoginMessage builds the message signed during login. The action tag and
// timestamp reduce replay ambiguity; this is not full replay protection.
func LoginMessage(now time.Time) []byte {
	return []byte(fmt.Sprintf("Login DApp - %d", now.UnixMilli()))
}

// CompleteTaskMessage builds the message signed for a task completion.
func CompleteTaskMessage(taskID string, now time.Time) []byte {
	return []byte(fmt.Sprintf("Complete task - %s - %d", taskID, now.UnixMilli()))
}

// EncodeSignature converts raw signature bytes to the base64 form the backend
// expects.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// ValidateAddress rejects strings that cannot be a Solana wallet address
// before any network call is made: base58 encoded, 32 to 44 characters.
func ValidateAddress(address string) error {
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("invalid wallet address length %d", len(address))
	}
	if _, err := base58.Decode(address); err != nil {
		return fmt.Errorf("invalid wallet address encoding: %w", err)
	}
	return nil
}
