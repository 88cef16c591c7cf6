package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mr-tron/base58"
)

// LocalProvider stands in for a browser extension wallet: an ed25519 keypair
// loaded from a solana-keygen style id.json file. A missing keypair file is
// the NotInstalled condition.
type LocalProvider struct {
	path          string
	preauthorized bool

	mu        sync.Mutex
	key       ed25519.PrivateKey
	address   string
	connected bool
}

// NewLocalProvider creates a provider reading the keypair at path.
// preauthorized controls whether a trusted (silent) connect succeeds,
// mirroring a wallet that remembers an earlier approval.
func NewLocalProvider(path string, preauthorized bool) *LocalProvider {
	return &LocalProvider{path: path, preauthorized: preauthorized}
}

// Connect loads the keypair and returns the base58 public address. With
// onlyIfTrusted set it never "prompts": it fails with ErrUserRejected unless
// the provider was preauthorized.
func (p *LocalProvider) Connect(ctx context.Context, onlyIfTrusted bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if onlyIfTrusted && !p.preauthorized {
		return "", ErrUserRejected
	}
	if p.connected {
		return p.address, nil
	}

	key, err := loadKeypair(p.path)
	if err != nil {
		return "", err
	}

	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return "", ErrNotInstalled
	}

	p.key = key
	p.address = base58.Encode(pub)
	p.connected = true
	return p.address, nil
}

// SignMessage signs with the connected keypair.
func (p *LocalProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil, fmt.Errorf("%w: wallet not connected", ErrSigningFailed)
	}
	return ed25519.Sign(p.key, message), nil
}

// loadKeypair reads a solana-keygen id.json file: a JSON array of 64 bytes,
// the 32-byte seed followed by the 32-byte public key.
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInstalled
		}
		return nil, fmt.Errorf("read keypair: %w", err)
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(ints))
	}
	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, b := range ints {
		if b < 0 || b > 255 {
			return nil, fmt.Errorf("keypair byte %d out of range", i)
		}
		key[i] = byte(b)
	}
	return key, nil
}
