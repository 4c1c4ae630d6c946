// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package apdu

import "fmt"

// StatusWord is the 2 byte trailer of every response.
type StatusWord uint16

const (
	SWOK                   StatusWord = 0x9000
	SWDeny                 StatusWord = 0x6985
	SWBOLOSPathPrefix      StatusWord = 0x6982
	SWWrongP1P2            StatusWord = 0x6A86
	SWWrongDataLength      StatusWord = 0x6A87
	SWInsNotSupported      StatusWord = 0x6D00
	SWClaNotSupported      StatusWord = 0x6E00
	SWWrongResponseLength  StatusWord = 0xB000
	SWDisplayBIP32PathFail StatusWord = 0xB001
	SWDisplayAddressFail   StatusWord = 0xB002
	SWDisplayAmountFail    StatusWord = 0xB003
	SWWrongTxLength        StatusWord = 0xB004
	SWTxParsingFail        StatusWord = 0xB005
	SWTxHashFail           StatusWord = 0xB006
	SWBadState             StatusWord = 0xB007
	SWSignatureFail        StatusWord = 0xB008
	SWInvalidSignature     StatusWord = 0xB009
	SWInternal             StatusWord = 0x6F00
)

var statusNames = map[StatusWord]string{
	SWOK:                   "ok",
	SWDeny:                 "denied by user",
	SWBOLOSPathPrefix:      "path prefix not allowed",
	SWWrongP1P2:            "wrong p1/p2",
	SWWrongDataLength:      "wrong data length",
	SWInsNotSupported:      "instruction not supported",
	SWClaNotSupported:      "class not supported",
	SWWrongResponseLength:  "wrong response length",
	SWDisplayBIP32PathFail: "display bip32 path failed",
	SWDisplayAddressFail:   "display address failed",
	SWDisplayAmountFail:    "display amount failed",
	SWWrongTxLength:        "wrong transaction length",
	SWTxParsingFail:        "transaction parsing failed",
	SWTxHashFail:           "transaction hash failed",
	SWBadState:             "bad state",
	SWSignatureFail:        "signature failed",
	SWInvalidSignature:     "invalid signature",
	SWInternal:             "internal error",
}

func (sw StatusWord) String() string {
	if name, ok := statusNames[sw]; ok {
		return fmt.Sprintf("0x%04x (%s)", uint16(sw), name)
	}
	return fmt.Sprintf("0x%04x", uint16(sw))
}
