// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"fmt"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/transaction"
)

// VersionMagic opens the GET_VERSION answer.
const VersionMagic = "HTR"

func (d *Device) getVersion() []byte {
	v := d.cfg.Version
	return append([]byte(VersionMagic), v[0], v[1], v[2])
}

// getAppAndVersion answers the dashboard query: format, name, version and
// flags.
func (d *Device) getAppAndVersion() []byte {
	v := d.cfg.Version
	version := fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
	out := []byte{0x01, byte(len(d.cfg.AppName))}
	out = append(out, d.cfg.AppName...)
	out = append(out, byte(len(version)))
	out = append(out, version...)
	return append(out, 0x01, 0x00)
}

func (d *Device) getAddress(data []byte) ([]byte, error) {
	path, err := d.readPath(data)
	if err != nil {
		return nil, err
	}
	addr, err := d.keys.Address(path)
	if err != nil {
		return nil, reject(apdu.SWInternal, err)
	}
	text, err := transaction.EncodeAddress(addr)
	if err != nil {
		return nil, reject(apdu.SWDisplayAddressFail, err)
	}
	if err := d.confirm(Prompt{Kind: PromptAddress, Path: path, Address: text}); err != nil {
		return nil, err
	}
	return addr, nil
}

func (d *Device) getXPub(data []byte) ([]byte, error) {
	path, err := d.readPath(data)
	if err != nil {
		return nil, err
	}
	if err := d.confirm(Prompt{Kind: PromptXPub, Path: path}); err != nil {
		return nil, err
	}
	xpub, err := d.keys.XPub(path)
	if err != nil {
		return nil, reject(apdu.SWInternal, err)
	}
	return xpub.MarshalBinary()
}
