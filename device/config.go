// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/hathornetwork/ledger-go/bip32"
)

// SpeculosMnemonic is the seed the Speculos emulator boots with.
const SpeculosMnemonic = "glory promote mansion idle axis finger extra february uncover one trip resource " +
	"lawn turtle enact monster seven myth punch hobby comfort wild raise skin"

// MaxPathDepth bounds Paths.MaxDepth: the deepest path a legacy change
// record can carry.
const MaxPathDepth = 15

// Config holds the device policy.
type Config struct {
	AppName    string
	Version    [3]uint8
	Mnemonic   string
	Passphrase string

	Paths bip32.Policy

	// MaxTokens bounds the custom tokens of a transaction and the registry.
	MaxTokens int
	// MaxScriptLen bounds output scripts and, with it, the reassembly arena.
	MaxScriptLen int
	// SessionTimeout discards a SIGN_TX session left idle that long. Zero
	// keeps sessions open until they end or fail.
	SessionTimeout time.Duration
}

// DefaultConfig mirrors the application shipped on the device.
func DefaultConfig() Config {
	return Config{
		AppName:        "Hathor",
		Version:        [3]uint8{1, 0, 0},
		Mnemonic:       SpeculosMnemonic,
		Paths:          bip32.DefaultPolicy(),
		MaxTokens:      10,
		MaxScriptLen:   128,
		SessionTimeout: time.Minute,
	}
}

// Validate checks the bounds the protocol relies on.
func (c Config) Validate() error {
	if c.AppName == "" || len(c.AppName) > 255 {
		return errors.New("device: invalid app name")
	}
	if c.Paths.MaxDepth < 1 || c.Paths.MaxDepth > MaxPathDepth {
		return fmt.Errorf("device: max path depth must be in [1, %d]", MaxPathDepth)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 0x7F {
		return errors.New("device: max tokens must be in [1, 127]")
	}
	if c.MaxScriptLen < 25 || c.MaxScriptLen > 0xFFFF {
		return errors.New("device: max script length must be in [25, 65535]")
	}
	if c.SessionTimeout < 0 {
		return errors.New("device: negative session timeout")
	}
	return nil
}
