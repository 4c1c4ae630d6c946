// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package apdu

import (
	"errors"
	"fmt"
	"sync"
)

// Error kinds reported by the device. Match them with errors.Is.
var (
	ErrClaNotSupported  = errors.New("class not supported")
	ErrInsNotSupported  = errors.New("instruction not supported")
	ErrWrongP1P2        = errors.New("wrong p1/p2")
	ErrWrongDataLength  = errors.New("wrong data length")
	ErrBOLOSPathPrefix  = errors.New("bip32 path prefix not allowed")
	ErrBadState         = errors.New("bad state")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrDenied           = errors.New("denied by user")
	ErrTxParsing        = errors.New("transaction rejected")
	ErrDevice           = errors.New("device error")
)

// DeviceError is a failure signaled by the device through its status word.
type DeviceError struct {
	Code StatusWord
	Ins  Ins
	Kind error
}

func (e *DeviceError) Error() string {
	kind := e.Kind
	if kind == nil {
		kind = ErrDevice
	}
	if e.Ins != 0 {
		return fmt.Sprintf("ledger: %s: %v (sw %s)", e.Ins, kind, e.Code)
	}
	return fmt.Sprintf("ledger: %v (sw %s)", kind, e.Code)
}

func (e *DeviceError) Unwrap() error {
	if e.Kind == nil {
		return ErrDevice
	}
	return e.Kind
}

type statusRange struct {
	lo, hi StatusWord
	kind   error
}

var (
	registryMu sync.RWMutex
	exact      = map[StatusWord]error{
		SWClaNotSupported:  ErrClaNotSupported,
		SWInsNotSupported:  ErrInsNotSupported,
		SWWrongP1P2:        ErrWrongP1P2,
		SWWrongDataLength:  ErrWrongDataLength,
		SWBOLOSPathPrefix:  ErrBOLOSPathPrefix,
		SWBadState:         ErrBadState,
		SWInvalidSignature: ErrInvalidSignature,
		SWDeny:             ErrDenied,
		SWWrongTxLength:    ErrTxParsing,
		SWTxParsingFail:    ErrTxParsing,
	}
	ranges = []statusRange{
		{0x6D00, 0x6DFF, ErrInsNotSupported},
		{0x6E00, 0x6EFF, ErrClaNotSupported},
	}
)

// RegisterStatus maps every status word in [lo, hi] to kind. Exact matches
// take precedence, then ranges in registration order.
func RegisterStatus(lo, hi StatusWord, kind error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if lo == hi {
		exact[lo] = kind
		return
	}
	ranges = append(ranges, statusRange{lo: lo, hi: hi, kind: kind})
}

// KindOf returns the error kind registered for sw, ErrDevice when unknown.
func KindOf(sw StatusWord) error {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if kind, ok := exact[sw]; ok {
		return kind
	}
	for _, r := range ranges {
		if sw >= r.lo && sw <= r.hi {
			return r.kind
		}
	}
	return ErrDevice
}

// ErrorFromStatus converts a status word into an error, nil for SWOK.
func ErrorFromStatus(sw StatusWord, ins Ins) error {
	if sw == SWOK {
		return nil
	}
	return &DeviceError{Code: sw, Ins: ins, Kind: KindOf(sw)}
}

// StatusOf extracts the status word carried by err. Errors that are not
// DeviceErrors map to fallback.
func StatusOf(err error, fallback StatusWord) StatusWord {
	if err == nil {
		return SWOK
	}
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Code
	}
	return fallback
}
