//go:build ledger_mock
// +build ledger_mock

// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"errors"

	"github.com/hathornetwork/ledger-go/device"
)

// LedgerAdminMock exposes one emulated device running in process.
type LedgerAdminMock struct {
	Config  device.Config
	Options []device.Option
}

func NewLedgerAdmin() LedgerAdmin {
	return &LedgerAdminMock{Config: device.DefaultConfig()}
}

func (admin *LedgerAdminMock) CountDevices() int {
	return 1
}

func (admin *LedgerAdminMock) ListDevices() ([]string, error) {
	return []string{"mock"}, nil
}

func (admin *LedgerAdminMock) Connect(deviceIndex int) (LedgerDevice, error) {
	if deviceIndex != 0 {
		return nil, errors.New("device not found")
	}
	dev, err := device.New(admin.Config, admin.Options...)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
