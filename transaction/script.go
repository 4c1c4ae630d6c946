// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package transaction

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqual       = 0x87
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	pushHash      = 0x14

	// HashLen is the size of a public key or script hash.
	HashLen = 20
	// AddressLen is version || hash || checksum.
	AddressLen = 25
)

// Address versions on mainnet.
const (
	VersionP2PKH byte = 0x28
	VersionP2SH  byte = 0x64
)

var ErrScript = errors.New("transaction: unsupported script")

// ScriptKind is the output script template.
type ScriptKind int

const (
	ScriptP2PKH ScriptKind = iota
	ScriptP2SH
)

// P2PKHScript pays to a public key hash.
func P2PKHScript(pkh []byte) []byte {
	out := []byte{opDup, opHash160, pushHash}
	out = append(out, pkh...)
	return append(out, opEqualVerify, opCheckSig)
}

// P2SHScript pays to a script hash.
func P2SHScript(sh []byte) []byte {
	out := []byte{opHash160, pushHash}
	out = append(out, sh...)
	return append(out, opEqual)
}

// ParseScript recognises the two templates the device can display.
func ParseScript(script []byte) (ScriptKind, []byte, error) {
	switch {
	case len(script) == 25 && bytes.HasPrefix(script, []byte{opDup, opHash160, pushHash}) &&
		script[23] == opEqualVerify && script[24] == opCheckSig:
		return ScriptP2PKH, script[3:23], nil
	case len(script) == 23 && bytes.HasPrefix(script, []byte{opHash160, pushHash}) &&
		script[22] == opEqual:
		return ScriptP2SH, script[2:22], nil
	}
	return 0, nil, fmt.Errorf("%w: %x", ErrScript, script)
}

// AddressBytes builds version || hash || checksum.
func AddressBytes(kind ScriptKind, hash []byte) []byte {
	version := VersionP2PKH
	if kind == ScriptP2SH {
		version = VersionP2SH
	}
	return base58.Decode(base58.CheckEncode(hash, version))
}

// Address encodes the base58 address of a script.
func Address(kind ScriptKind, hash []byte) string {
	version := VersionP2PKH
	if kind == ScriptP2SH {
		version = VersionP2SH
	}
	return base58.CheckEncode(hash, version)
}

// EncodeAddress renders raw address bytes as base58.
func EncodeAddress(raw []byte) (string, error) {
	if len(raw) != AddressLen {
		return "", fmt.Errorf("address must be %d bytes, got %d", AddressLen, len(raw))
	}
	return base58.Encode(raw), nil
}

// DecodeAddress returns the version and hash of a base58 address.
func DecodeAddress(addr string) (byte, []byte, error) {
	hash, version, err := base58.CheckDecode(addr)
	if err != nil {
		return 0, nil, err
	}
	if len(hash) != HashLen {
		return 0, nil, fmt.Errorf("address hash must be %d bytes, got %d", HashLen, len(hash))
	}
	return version, hash, nil
}
