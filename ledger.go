// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package ledger_go reaches a device running the Hathor application: over
// USB HID by default, or the emulator with the ledger_mock and ledger_zemu
// build tags. The HTTP and TCP transports talk to an emulator directly.
package ledger_go

import (
	"github.com/hathornetwork/ledger-go/device"
	"github.com/hathornetwork/ledger-go/logging"
)

var log = logging.Named("ledger")

// LedgerAdmin defines the interface for managing Ledger devices.
type LedgerAdmin interface {
	CountDevices() int
	ListDevices() ([]string, error)
	Connect(deviceIndex int) (LedgerDevice, error)
}

// LedgerDevice defines the interface for interacting with a Ledger device.
// Exchange returns the status word and the data of the answer; the error
// reports transport failures only.
type LedgerDevice interface {
	Exchange(command []byte) (uint16, []byte, error)
	Close() error
}

var (
	_ LedgerDevice = (*device.Device)(nil)
	_ LedgerDevice = (*HTTPTransport)(nil)
	_ LedgerDevice = (*TCPTransport)(nil)
)
