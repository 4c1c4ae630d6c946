//go:build !ledger_mock && !ledger_zemu
// +build !ledger_mock,!ledger_zemu

// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/hid"

	"github.com/hathornetwork/ledger-go/apdu"
)

const (
	VendorLedger         = 0x2c97
	UsagePageLedgerNanoS = 0xffa0
	Channel              = 0x0101
	PacketSize           = 64
	ReadTimeout          = 20 * time.Second
)

type LedgerAdminHID struct{}

type LedgerDeviceHID struct {
	device      *hid.Device
	mu          sync.Mutex
	readCo      *sync.Once
	readChannel chan []byte
}

// list of supported product ids as well as their corresponding interfaces
// based on https://github.com/LedgerHQ/ledger-live/blob/develop/libs/ledgerjs/packages/devices/src/index.ts
var supportedLedgerProductID = map[uint8]int{
	0x40: 0, // Ledger Nano X
	0x10: 0, // Ledger Nano S
	0x50: 0, // Ledger Nano S Plus
	0x60: 0, // Ledger Stax
	0x70: 0, // Ledger Flex
}

func NewLedgerAdmin() LedgerAdmin {
	return &LedgerAdminHID{}
}

func ledgerDevices() []hid.DeviceInfo {
	var found []hid.DeviceInfo
	for _, d := range hid.Enumerate(0, 0) {
		if d.VendorID == VendorLedger && isLedgerDevice(d) {
			found = append(found, d)
		}
	}
	return found
}

func (admin *LedgerAdminHID) ListDevices() ([]string, error) {
	devices := ledgerDevices()
	if len(devices) == 0 {
		log.Debug("No devices. Ledger LOCKED OR Other Program/Web Browser may have control of device.")
	}

	paths := make([]string, 0, len(devices))
	for _, d := range devices {
		logDeviceInfo(d)
		paths = append(paths, d.Path)
	}
	return paths, nil
}

func logDeviceInfo(d hid.DeviceInfo) {
	log.Debugw("hid device",
		"path", d.Path,
		"vendor", fmt.Sprintf("%x", d.VendorID),
		"product", fmt.Sprintf("%x", d.ProductID),
		"release", fmt.Sprintf("%x", d.Release),
		"serial", d.Serial,
		"manufacturer", d.Manufacturer,
		"name", d.Product,
		"usage_page", fmt.Sprintf("%x", d.UsagePage),
		"usage", fmt.Sprintf("%x", d.Usage),
	)
}

func isLedgerDevice(d hid.DeviceInfo) bool {
	deviceFound := d.UsagePage == UsagePageLedgerNanoS

	// Workarounds for possible empty usage pages
	productIDMM := uint8(d.ProductID >> 8)
	if interfaceID, supported := supportedLedgerProductID[productIDMM]; deviceFound || (supported && (interfaceID == d.Interface)) {
		return true
	}

	return false
}

func (admin *LedgerAdminHID) CountDevices() int {
	return len(ledgerDevices())
}

func (admin *LedgerAdminHID) Connect(deviceIndex int) (LedgerDevice, error) {
	devices := ledgerDevices()
	if deviceIndex < 0 || deviceIndex >= len(devices) {
		return nil, errors.New("device not found")
	}
	device, err := devices[deviceIndex].Open()
	if err != nil {
		return nil, err
	}
	return &LedgerDeviceHID{device: device, readCo: &sync.Once{}, readChannel: make(chan []byte)}, nil
}

func (ledger *LedgerDeviceHID) write(buffer []byte) (int, error) {
	totalBytes := len(buffer)
	totalWrittenBytes := 0
	for totalBytes > totalWrittenBytes {
		writtenBytes, err := ledger.device.Write(buffer[totalWrittenBytes:])
		if err != nil {
			return totalWrittenBytes, err
		}
		totalWrittenBytes += writtenBytes
	}
	return totalWrittenBytes, nil
}

func (ledger *LedgerDeviceHID) Read() <-chan []byte {
	ledger.readCo.Do(func() {
		go ledger.readThread()
	})
	return ledger.readChannel
}

func (ledger *LedgerDeviceHID) readThread() {
	defer close(ledger.readChannel)
	for {
		buffer := make([]byte, PacketSize)
		readBytes, err := ledger.device.Read(buffer)
		if err != nil {
			return
		}
		ledger.readChannel <- buffer[:readBytes]
	}
}

func (ledger *LedgerDeviceHID) Exchange(command []byte) (uint16, []byte, error) {
	if len(command) < apdu.HeaderLen {
		return 0, nil, errors.New("APDU commands should not be smaller than 5")
	}
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	log.Debugf("[HID] => %x", command)

	if err := ledger.sendChunks(command); err != nil {
		return 0, nil, err
	}

	response, err := UnwrapResponseAPDU(Channel, ledger.Read(), ReadTimeout)
	if err != nil {
		return 0, nil, err
	}
	log.Debugf("[HID] <= %x", response)

	sw, data, err := apdu.ParseResponse(response)
	if err != nil {
		return 0, nil, err
	}
	return uint16(sw), data, nil
}

func (ledger *LedgerDeviceHID) sendChunks(command []byte) error {
	chunks, err := WrapCommandAPDU(Channel, command, PacketSize)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := ledger.write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (ledger *LedgerDeviceHID) Close() error {
	return ledger.device.Close()
}
