// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package bip32

import (
	"errors"
	"fmt"
)

var (
	// ErrPathTooLong is returned when a path is deeper than the policy allows.
	ErrPathTooLong = errors.New("bip32 path too long")
	// ErrIndexTooLarge is returned when a component exceeds the index ceiling.
	ErrIndexTooLarge = errors.New("bip32 index too large")
	// ErrPathPrefix is returned when a path is outside the allowed subtree.
	ErrPathPrefix = errors.New("bip32 path prefix not allowed")
)

// HathorPrefix is the subtree the application is allowed to derive from.
var HathorPrefix = Path{44 | Hardened, 280 | Hardened}

// Policy bounds the paths the device accepts.
type Policy struct {
	MaxDepth int
	Prefix   Path
	// MaxIndex bounds the unhardened value of every component. Zero disables
	// the check.
	MaxIndex uint32
}

// DefaultPolicy is 5 components under 44'/280' with 20 bit indices.
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth: 5,
		Prefix:   HathorPrefix,
		MaxIndex: 1 << 20,
	}
}

// Check validates p against the policy.
func (pol Policy) Check(p Path) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrPathEncoding)
	}
	if pol.MaxDepth > 0 && len(p) > pol.MaxDepth {
		return fmt.Errorf("%w: %d > %d", ErrPathTooLong, len(p), pol.MaxDepth)
	}
	if pol.MaxIndex > 0 {
		for _, c := range p {
			if c&^Hardened >= pol.MaxIndex {
				return fmt.Errorf("%w: %d", ErrIndexTooLarge, c&^Hardened)
			}
		}
	}
	if len(pol.Prefix) > 0 && !p.HasPrefix(pol.Prefix) {
		return fmt.Errorf("%w: %s", ErrPathPrefix, p)
	}
	return nil
}
