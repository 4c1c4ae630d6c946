// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package apdu

import "fmt"

// Ins is an instruction code understood by the application.
type Ins uint8

const (
	InsGetAppAndVersion     Ins = 0x01 // dashboard builtin, CLA 0xB0
	InsGetVersion           Ins = 0x03 // application version
	InsGetAddress           Ins = 0x04 // address of a BIP32 path
	InsGetXPub              Ins = 0x05 // extended public key of a BIP32 path
	InsSignTx               Ins = 0x06 // stream, review and sign a transaction
	InsSignTokenData        Ins = 0x07 // sign custom token information
	InsSendTokenData        Ins = 0x08 // register signed token information
	InsVerifyTokenSignature Ins = 0x09 // check a token signature
	InsResetTokenSignatures Ins = 0x0A // invalidate every token signature
)

// Valid reports whether the code is one of the known instructions.
func (i Ins) Valid() bool {
	switch i {
	case InsGetAppAndVersion, InsGetVersion, InsGetAddress, InsGetXPub, InsSignTx,
		InsSignTokenData, InsSendTokenData, InsVerifyTokenSignature, InsResetTokenSignatures:
		return true
	}
	return false
}

func (i Ins) String() string {
	switch i {
	case InsGetAppAndVersion:
		return "GET_APP_AND_VERSION"
	case InsGetVersion:
		return "GET_VERSION"
	case InsGetAddress:
		return "GET_ADDRESS"
	case InsGetXPub:
		return "GET_XPUB"
	case InsSignTx:
		return "SIGN_TX"
	case InsSignTokenData:
		return "SIGN_TOKEN_DATA"
	case InsSendTokenData:
		return "SEND_TOKEN_DATA"
	case InsVerifyTokenSignature:
		return "VERIFY_TOKEN_SIGNATURE"
	case InsResetTokenSignatures:
		return "RESET_TOKEN_SIGNATURES"
	}
	return fmt.Sprintf("INS(0x%02x)", uint8(i))
}
