// Package wallet supplies owner identifiers for connecting chat participants.
package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrNoAddress is returned when a provider has no address to hand out.
var ErrNoAddress = errors.New("no wallet address available")

// Provider hands out the owner identifier of a connecting participant.
type Provider interface {
	Address(ctx context.Context) (string, error)
}

// Mock generates a fresh random address on every call, in the
// "0x" + 40 hex digits shape of an Ethereum account.
type Mock struct{}

// Address returns a new random address.
func (Mock) Address(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate address: %w", err)
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Static always returns the same address.
type Static string

// Address returns the configured address or ErrNoAddress when it is empty.
func (s Static) Address(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoAddress
	}
	return string(s), nil
}

// Disabled refuses every request; used when mock wallets are turned off and
// clients must bring their own owner identifier.
type Disabled struct{}

// Address always fails with ErrNoAddress.
func (Disabled) Address(context.Context) (string, error) {
	return "", ErrNoAddress
}
