// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package token models custom token information as it travels between the
// host and the device.
package token

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// UIDLen is the size of a token uid.
	UIDLen = 32
	// MaxSymbolLen and MaxNameLen are the printable ASCII limits the device
	// enforces.
	MaxSymbolLen = 5
	MaxNameLen   = 30
	// SignatureLen is the size of the signature the device issues.
	SignatureLen = 32
)

var (
	ErrInvalidUID   = errors.New("token uid must be 64 hex characters")
	ErrMalformed    = errors.New("malformed token data")
	ErrNotPrintable = errors.New("token text is not printable ascii")
)

// UID identifies a custom token.
type UID [UIDLen]byte

// ParseUID decodes a uid from exactly 64 hex characters.
func ParseUID(s string) (UID, error) {
	var uid UID
	if len(s) != 2*UIDLen {
		return uid, fmt.Errorf("%w: got %d characters", ErrInvalidUID, len(s))
	}
	if _, err := hex.Decode(uid[:], []byte(s)); err != nil {
		return uid, fmt.Errorf("%w: %v", ErrInvalidUID, err)
	}
	return uid, nil
}

// MustParseUID is ParseUID for constants.
func MustParseUID(s string) UID {
	uid, err := ParseUID(s)
	if err != nil {
		panic(err)
	}
	return uid
}

func (u UID) String() string {
	return hex.EncodeToString(u[:])
}

// Token is the information a user signs to mark a custom token as trusted.
type Token struct {
	Version uint8
	UID     UID
	Symbol  string
	Name    string
}

// New builds a token from its hex uid.
func New(version uint8, symbol, name, uidHex string) (Token, error) {
	uid, err := ParseUID(uidHex)
	if err != nil {
		return Token{}, err
	}
	return Token{Version: version, UID: uid, Symbol: symbol, Name: name}, nil
}

// Serialize encodes version, uid, symbol and name. A non nil signature is
// appended without a length prefix and takes the rest of the APDU.
func (t Token) Serialize(signature []byte) []byte {
	out := make([]byte, 0, 1+UIDLen+2+len(t.Symbol)+len(t.Name)+len(signature))
	out = append(out, t.Version)
	out = append(out, t.UID[:]...)
	out = append(out, byte(len(t.Symbol)))
	out = append(out, t.Symbol...)
	out = append(out, byte(len(t.Name)))
	out = append(out, t.Name...)
	return append(out, signature...)
}

// Validate checks the limits the device applies to symbol and name.
func (t Token) Validate() error {
	if len(t.Symbol) == 0 || len(t.Symbol) > MaxSymbolLen {
		return fmt.Errorf("%w: symbol length %d", ErrMalformed, len(t.Symbol))
	}
	if len(t.Name) == 0 || len(t.Name) > MaxNameLen {
		return fmt.Errorf("%w: name length %d", ErrMalformed, len(t.Name))
	}
	if !printable(t.Symbol) || !printable(t.Name) {
		return ErrNotPrintable
	}
	return nil
}

// Parse decodes a token from the start of buf and returns the bytes consumed.
// Whatever follows is the caller's, usually a signature.
func Parse(buf []byte) (Token, int, error) {
	var t Token
	off := 0
	if len(buf) < 1+UIDLen+1 {
		return t, 0, fmt.Errorf("%w: %d bytes", ErrMalformed, len(buf))
	}
	t.Version = buf[off]
	off++
	copy(t.UID[:], buf[off:off+UIDLen])
	off += UIDLen

	symbol, n, err := readVar(buf[off:], MaxSymbolLen)
	if err != nil {
		return t, 0, fmt.Errorf("symbol: %w", err)
	}
	off += n
	name, n, err := readVar(buf[off:], MaxNameLen)
	if err != nil {
		return t, 0, fmt.Errorf("name: %w", err)
	}
	off += n

	t.Symbol = string(symbol)
	t.Name = string(name)
	if err := t.Validate(); err != nil {
		return t, 0, err
	}
	return t, off, nil
}

func readVar(buf []byte, max int) ([]byte, int, error) {
	if len(buf) < 1 {
		return nil, 0, fmt.Errorf("%w: missing length", ErrMalformed)
	}
	l := int(buf[0])
	if l > max {
		return nil, 0, fmt.Errorf("%w: length %d > %d", ErrMalformed, l, max)
	}
	if len(buf) < 1+l {
		return nil, 0, fmt.Errorf("%w: truncated", ErrMalformed)
	}
	return buf[1 : 1+l], 1 + l, nil
}

// printable accepts 0x20-0x7f, which rules out emoji and other utf-8.
func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] >= 0x80 {
			return false
		}
	}
	return true
}

