// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package transaction

import (
	"errors"
	"fmt"

	"github.com/hathornetwork/ledger-go/bip32"
)

const (
	// ChangeListVersion is the first byte of the multi change encoding.
	ChangeListVersion uint8 = 0x01
	// legacyChangeFlag tags the legacy single change record.
	legacyChangeFlag uint8 = 0x80
	legacyDepthMask  uint8 = 0x0F

	// MaxChangeOutputs is one change per token plus HTR.
	MaxChangeOutputs = 11
)

var ErrChangeInfo = errors.New("transaction: invalid change info")

// ChangeInfo tells the device which output returns funds to the wallet so it
// can skip its review.
type ChangeInfo struct {
	Index uint8
	Path  bip32.Path
}

// LegacyBytes is the single change record of the first protocol version:
// 0x80|depth || index || components.
func (c ChangeInfo) LegacyBytes() ([]byte, error) {
	if len(c.Path) == 0 || len(c.Path) > int(legacyDepthMask) {
		return nil, fmt.Errorf("%w: depth %d", ErrChangeInfo, len(c.Path))
	}
	out := []byte{legacyChangeFlag | byte(len(c.Path)), c.Index}
	for _, comp := range c.Path.Components() {
		out = append(out, comp...)
	}
	return out, nil
}

// AppendBinary appends index || path to b.
func (c ChangeInfo) AppendBinary(b []byte) []byte {
	b = append(b, c.Index)
	return c.Path.AppendBinary(b)
}

// EncodeNoChangeLegacy is the first protocol's "no change" marker.
func EncodeNoChangeLegacy() []byte {
	return []byte{0x00}
}

// EncodeChangeList encodes version || count || records.
func EncodeChangeList(list []ChangeInfo) ([]byte, error) {
	if len(list) > MaxChangeOutputs {
		return nil, fmt.Errorf("%w: %d change outputs", ErrChangeInfo, len(list))
	}
	out := []byte{ChangeListVersion, byte(len(list))}
	for _, c := range list {
		if len(c.Path) == 0 || len(c.Path) > MaxListLen {
			return nil, fmt.Errorf("%w: depth %d", ErrChangeInfo, len(c.Path))
		}
		out = c.AppendBinary(out)
	}
	return out, nil
}

// EncodeChanges picks the encoding for the protocol in use. The legacy
// protocol carries at most one change, extra entries are dropped.
func EncodeChanges(list []ChangeInfo, legacy bool) ([]byte, error) {
	if !legacy {
		return EncodeChangeList(list)
	}
	if len(list) == 0 {
		return EncodeNoChangeLegacy(), nil
	}
	return list[0].LegacyBytes()
}

// ReadLegacyChange decodes the record started by tag, the first byte of the
// payload. ok is false when the tag says there is no change.
func ReadLegacyChange(tag uint8, buf []byte) (c ChangeInfo, n int, ok bool, err error) {
	if tag&legacyChangeFlag == 0 {
		return c, 0, false, nil
	}
	depth := int(tag & legacyDepthMask)
	if depth == 0 {
		return c, 0, false, fmt.Errorf("%w: empty path", ErrChangeInfo)
	}
	need := 1 + 4*depth
	if len(buf) < need {
		return c, 0, false, ErrShortBuffer
	}
	c.Index = buf[0]
	raw := append([]byte{byte(depth)}, buf[1:need]...)
	path, _, err := bip32.Read(raw, 0)
	if err != nil {
		return c, 0, false, fmt.Errorf("%w: %v", ErrChangeInfo, err)
	}
	c.Path = path
	return c, need, true, nil
}

// ReadChange decodes one index || path record of the change list.
func ReadChange(buf []byte, maxDepth int) (ChangeInfo, int, error) {
	var c ChangeInfo
	if len(buf) < 2 {
		return c, 0, ErrShortBuffer
	}
	c.Index = buf[0]
	depth := int(buf[1])
	if maxDepth > 0 && depth > maxDepth {
		return c, 0, fmt.Errorf("%w: %w", ErrChangeInfo, bip32.ErrPathTooLong)
	}
	if len(buf) < 2+4*depth {
		return c, 0, ErrShortBuffer
	}
	path, n, err := bip32.Read(buf[1:], maxDepth)
	if err != nil {
		return c, 0, fmt.Errorf("%w: %w", ErrChangeInfo, err)
	}
	c.Path = path
	return c, 1 + n, nil
}
