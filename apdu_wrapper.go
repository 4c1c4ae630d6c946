// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const tagAPDU = 0x05

var (
	ErrPacketSize   = errors.New("packet size must be greater than the packet header")
	ErrCommandSize  = errors.New("command does not fit a 2 byte length")
	ErrReadTimeout  = errors.New("timeout reading from device")
	ErrPipeClosed   = errors.New("read channel closed")
	ErrInvalidFrame = errors.New("invalid hid frame")
)

// packetHeader is channel(2) || tag(1) || sequence(2).
func packetHeader(channel uint16, seq uint16) []byte {
	header := make([]byte, 5)
	binary.BigEndian.PutUint16(header[0:2], channel)
	header[2] = tagAPDU
	binary.BigEndian.PutUint16(header[3:5], seq)
	return header
}

// WrapCommandAPDU turns the command into a sequence of HID packets. The first
// packet carries the 2 byte command length after its header; every packet is
// padded to packetSize.
func WrapCommandAPDU(channel uint16, command []byte, packetSize int) ([][]byte, error) {
	if packetSize <= 7 {
		return nil, ErrPacketSize
	}
	if len(command) > 0xFFFF {
		return nil, ErrCommandSize
	}

	payload := binary.BigEndian.AppendUint16(nil, uint16(len(command)))
	payload = append(payload, command...)

	var packets [][]byte
	for seq := uint16(0); len(payload) > 0; seq++ {
		packet := make([]byte, packetSize)
		n := copy(packet, packetHeader(channel, seq))
		n = copy(packet[n:], payload)
		payload = payload[n:]
		packets = append(packets, packet)
	}
	return packets, nil
}

// frameReader reassembles one response from HID packets.
type frameReader struct {
	channel uint16
	seq     uint16
	total   int
	data    []byte
}

// feed consumes one packet and reports whether the response is complete.
func (f *frameReader) feed(packet []byte) (bool, error) {
	if len(packet) < 5 {
		return false, fmt.Errorf("%w: %d byte packet", ErrInvalidFrame, len(packet))
	}
	if ch := binary.BigEndian.Uint16(packet[0:2]); ch != f.channel {
		return false, fmt.Errorf("%w: channel 0x%04x", ErrInvalidFrame, ch)
	}
	if packet[2] != tagAPDU {
		return false, fmt.Errorf("%w: tag 0x%02x", ErrInvalidFrame, packet[2])
	}
	if seq := binary.BigEndian.Uint16(packet[3:5]); seq != f.seq {
		return false, fmt.Errorf("%w: sequence %d, expected %d", ErrInvalidFrame, seq, f.seq)
	}
	body := packet[5:]
	if f.seq == 0 {
		if len(body) < 2 {
			return false, fmt.Errorf("%w: missing length", ErrInvalidFrame)
		}
		f.total = int(binary.BigEndian.Uint16(body))
		f.data = make([]byte, 0, f.total)
		body = body[2:]
	}
	f.seq++

	need := f.total - len(f.data)
	if len(body) > need {
		body = body[:need]
	}
	f.data = append(f.data, body...)
	return len(f.data) == f.total, nil
}

// UnwrapResponseAPDU reads packets from pipe until a whole response is in.
// Each packet must arrive within timeout.
func UnwrapResponseAPDU(channel uint16, pipe <-chan []byte, timeout time.Duration) ([]byte, error) {
	f := frameReader{channel: channel}
	for {
		select {
		case packet, ok := <-pipe:
			if !ok {
				return nil, ErrPipeClosed
			}
			done, err := f.feed(packet)
			if err != nil {
				return nil, err
			}
			if done {
				return f.data, nil
			}
		case <-time.After(timeout):
			return nil, ErrReadTimeout
		}
	}
}
