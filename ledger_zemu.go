//go:build ledger_zemu
// +build ledger_zemu

// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"errors"
	"os"
)

// EnvZemuAddr names the APDU socket of the emulator.
const EnvZemuAddr = "HATHOR_ZEMU_ADDR"

const defaultZemuAddr = "127.0.0.1:9999"

// LedgerAdminZemu connects to an emulator over its APDU socket.
type LedgerAdminZemu struct {
	Addr string
}

func NewLedgerAdmin() LedgerAdmin {
	addr := os.Getenv(EnvZemuAddr)
	if addr == "" {
		addr = defaultZemuAddr
	}
	return &LedgerAdminZemu{Addr: addr}
}

func (admin *LedgerAdminZemu) CountDevices() int {
	return 1
}

func (admin *LedgerAdminZemu) ListDevices() ([]string, error) {
	return []string{admin.Addr}, nil
}

func (admin *LedgerAdminZemu) Connect(deviceIndex int) (LedgerDevice, error) {
	if deviceIndex != 0 {
		return nil, errors.New("device not found")
	}
	t, err := NewTCPTransport(admin.Addr)
	if err != nil {
		return nil, err
	}
	return t, nil
}
