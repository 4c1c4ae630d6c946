// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package transaction

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// TokenDataAuthorityMask marks an authority output.
	TokenDataAuthorityMask uint8 = 0x80
	// TokenDataIndexMask selects the token: 0 is HTR, i is Tokens[i-1].
	TokenDataIndexMask uint8 = 0x7F

	// MaxScriptLen is the largest script a 2 byte length can describe.
	MaxScriptLen = math.MaxUint16
)

var ErrValue = errors.New("output value out of range")

// Output is a transaction output.
type Output struct {
	Value     int64
	TokenData uint8
	Script    []byte
}

// NewOutput sets the authority bit on tokenIndex when authority is true.
func NewOutput(value int64, script []byte, tokenIndex uint8, authority bool) Output {
	td := tokenIndex & TokenDataIndexMask
	if authority {
		td |= TokenDataAuthorityMask
	}
	return Output{Value: value, TokenData: td, Script: script}
}

// IsAuthority reports whether the output carries token authority.
func (o Output) IsAuthority() bool {
	return o.TokenData&TokenDataAuthorityMask != 0
}

// TokenIndex is the 1-based position in the transaction token list, 0 for HTR.
func (o Output) TokenIndex() uint8 {
	return o.TokenData & TokenDataIndexMask
}

// ValueLen is 4 for values that fit in 31 bits, 8 otherwise.
func ValueLen(v int64) int {
	if v < 0 || v > math.MaxInt32 {
		return 8
	}
	return 4
}

// AppendValue encodes v. Values outside [0, 2^31) are written as the 8 byte
// two's complement of -v, so the first byte has its high bit set for every
// positive value that needs the long form.
func AppendValue(b []byte, v int64) []byte {
	if ValueLen(v) == 8 {
		return binary.BigEndian.AppendUint64(b, uint64(-v))
	}
	return binary.BigEndian.AppendUint32(b, uint32(v))
}

// ReadValue decodes a value from the start of buf and returns the bytes used.
func ReadValue(buf []byte) (int64, int, error) {
	if len(buf) < 1 {
		return 0, 0, ErrShortBuffer
	}
	if buf[0]&0x80 == 0 {
		if len(buf) < 4 {
			return 0, 0, ErrShortBuffer
		}
		return int64(binary.BigEndian.Uint32(buf)), 4, nil
	}
	if len(buf) < 8 {
		return 0, 0, ErrShortBuffer
	}
	raw := int64(binary.BigEndian.Uint64(buf))
	if raw == math.MinInt64 {
		return 0, 0, fmt.Errorf("%w: %d", ErrValue, raw)
	}
	return -raw, 8, nil
}

// Len is the size of the wire form.
func (o Output) Len() int {
	return ValueLen(o.Value) + 1 + 2 + len(o.Script)
}

// AppendBinary appends value, token data and the length prefixed script.
func (o Output) AppendBinary(b []byte) ([]byte, error) {
	if len(o.Script) > MaxScriptLen {
		return nil, fmt.Errorf("script too long: %d", len(o.Script))
	}
	b = AppendValue(b, o.Value)
	b = append(b, o.TokenData)
	b = binary.BigEndian.AppendUint16(b, uint16(len(o.Script)))
	return append(b, o.Script...), nil
}

// ReadOutput decodes one output from the start of buf. ErrShortBuffer means more
// bytes are needed.
func ReadOutput(buf []byte) (Output, int, error) {
	var o Output
	v, n, err := ReadValue(buf)
	if err != nil {
		return o, 0, err
	}
	if len(buf) < n+3 {
		return o, 0, ErrShortBuffer
	}
	o.Value = v
	o.TokenData = buf[n]
	scriptLen := int(binary.BigEndian.Uint16(buf[n+1:]))
	n += 3
	if len(buf) < n+scriptLen {
		return o, 0, ErrShortBuffer
	}
	o.Script = append([]byte(nil), buf[n:n+scriptLen]...)
	return o, n + scriptLen, nil
}

func (o Output) String() string {
	return fmt.Sprintf("TxOutput(value=%d, token_data=%d, script=%x)", o.Value, o.TokenData, o.Script)
}
