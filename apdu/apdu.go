// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package apdu implements the command and response framing spoken by the
// Hathor application: a fixed 5 byte header followed by up to 255 bytes of
// data, answered by optional data and a 2 byte status word.
package apdu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// CLA is the instruction class of the Hathor application.
	CLA uint8 = 0xE0
	// CLABolos is the class of the commands built into the dashboard.
	CLABolos uint8 = 0xB0

	// HeaderLen is CLA || INS || P1 || P2 || Lc.
	HeaderLen = 5
	// MaxPayloadLen is the largest value Lc can carry.
	MaxPayloadLen = 255
	// StatusLen is the size of the response trailer.
	StatusLen = 2
)

// ErrPayloadTooLong is returned when the data does not fit in Lc. Splitting
// the data is up to the caller.
var ErrPayloadTooLong = errors.New("apdu: payload longer than 255 bytes")

// Command is a decoded command APDU.
type Command struct {
	CLA  uint8
	INS  Ins
	P1   uint8
	P2   uint8
	Data []byte
}

// Serialize encodes the header and data of a command.
func Serialize(cla uint8, ins Ins, p1, p2 uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLong, len(payload))
	}
	out := make([]byte, HeaderLen, HeaderLen+len(payload))
	out[0] = cla
	out[1] = byte(ins)
	out[2] = p1
	out[3] = p2
	out[4] = byte(len(payload))
	return append(out, payload...), nil
}

// MarshalBinary encodes the command.
func (c Command) MarshalBinary() ([]byte, error) {
	return Serialize(c.CLA, c.INS, c.P1, c.P2, c.Data)
}

// ParseCommand decodes a raw command APDU. Malformed framing is reported as
// a DeviceError carrying SWWrongDataLength so the device can answer with it.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) < HeaderLen {
		return Command{}, &DeviceError{Code: SWWrongDataLength, Kind: ErrWrongDataLength}
	}
	lc := int(raw[4])
	if len(raw)-HeaderLen != lc {
		return Command{}, &DeviceError{Code: SWWrongDataLength, Kind: ErrWrongDataLength}
	}
	cmd := Command{
		CLA: raw[0],
		INS: Ins(raw[1]),
		P1:  raw[2],
		P2:  raw[3],
	}
	if lc > 0 {
		cmd.Data = make([]byte, lc)
		copy(cmd.Data, raw[HeaderLen:])
	}
	return cmd, nil
}

// ParseResponse splits a raw response into its status word and data.
func ParseResponse(raw []byte) (StatusWord, []byte, error) {
	if len(raw) < StatusLen {
		return 0, nil, fmt.Errorf("apdu: response too short: %d bytes", len(raw))
	}
	n := len(raw) - StatusLen
	sw := StatusWord(binary.BigEndian.Uint16(raw[n:]))
	return sw, raw[:n], nil
}

// Response encodes data followed by the status word.
func Response(sw StatusWord, data []byte) []byte {
	out := make([]byte, len(data), len(data)+StatusLen)
	copy(out, data)
	return binary.BigEndian.AppendUint16(out, uint16(sw))
}
