// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package bip32 encodes derivation paths between their text form
// ("m/44'/280'/0'/0/10") and the wire form (count byte followed by big
// endian 32 bit components).
package bip32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Hardened is the bit set on hardened components.
const Hardened uint32 = 0x80000000

// MaxFormatDepth bounds the paths Format will render.
const MaxFormatDepth = 10

// ErrPathFormat is matched by every *PathFormatError.
var ErrPathFormat = errors.New("bip32 path format error")

// ErrPathEncoding is returned by Read for truncated or inconsistent data.
var ErrPathEncoding = errors.New("bip32 path encoding error")

// PathFormatError reports a path string that cannot be parsed.
type PathFormatError struct {
	Path   string
	Reason string
}

func (e *PathFormatError) Error() string {
	return fmt.Sprintf("bip32 path format error: '%s': %s", e.Path, e.Reason)
}

func (e *PathFormatError) Is(target error) bool {
	return target == ErrPathFormat
}

// Path is a sequence of derivation indices.
type Path []uint32

// Parse reads a slash separated path. The leading "m" is optional.
func Parse(s string) (Path, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) > 0 && parts[0] == "m" {
		parts = parts[1:]
	}
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return nil, &PathFormatError{Path: s, Reason: "empty path"}
	}

	path := make(Path, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'")
		digits := strings.TrimSuffix(part, "'")
		if digits == "" {
			return nil, &PathFormatError{Path: s, Reason: "empty component"}
		}
		v, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			return nil, &PathFormatError{Path: s, Reason: fmt.Sprintf("component %q is not a number", part)}
		}
		if uint32(v)&Hardened != 0 {
			return nil, &PathFormatError{Path: s, Reason: fmt.Sprintf("component %q out of range", part)}
		}
		if hardened {
			v |= uint64(Hardened)
		}
		path = append(path, uint32(v))
	}
	return path, nil
}

// MustParse is Parse for constant paths.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path with the "m/" prefix.
func (p Path) String() string {
	return "m/" + p.join()
}

// Format renders the path without the "m/" prefix, the way the device shows
// it. Empty paths and paths deeper than MaxFormatDepth are refused.
func (p Path) Format() (string, error) {
	if len(p) == 0 || len(p) > MaxFormatDepth {
		return "", fmt.Errorf("%w: depth %d", ErrPathEncoding, len(p))
	}
	return p.join(), nil
}

func (p Path) join() string {
	var b strings.Builder
	for i, c := range p {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.FormatUint(uint64(c&^Hardened), 10))
		if c&Hardened != 0 {
			b.WriteByte('\'')
		}
	}
	return b.String()
}

// Components returns each component as 4 big endian bytes.
func (p Path) Components() [][]byte {
	out := make([][]byte, len(p))
	for i, c := range p {
		out[i] = binary.BigEndian.AppendUint32(nil, c)
	}
	return out
}

// MarshalBinary prepends the component count to the components.
func (p Path) MarshalBinary() ([]byte, error) {
	if len(p) > 255 {
		return nil, fmt.Errorf("%w: depth %d", ErrPathEncoding, len(p))
	}
	return p.AppendBinary(make([]byte, 0, 1+4*len(p))), nil
}

// AppendBinary appends the wire form of p to b. Depth above 255 is truncated
// by the count byte; MarshalBinary refuses it.
func (p Path) AppendBinary(b []byte) []byte {
	b = append(b, byte(len(p)))
	for _, c := range p {
		b = binary.BigEndian.AppendUint32(b, c)
	}
	return b
}

// Equal reports whether both paths hold the same components.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p starts with prefix.
func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && p[:len(prefix)].Equal(prefix)
}

// Read decodes a wire path from the start of buf and returns the number of
// bytes consumed. maxDepth bounds the count byte, zero means no bound.
func Read(buf []byte, maxDepth int) (Path, int, error) {
	if len(buf) < 1 {
		return nil, 0, fmt.Errorf("%w: missing length", ErrPathEncoding)
	}
	depth := int(buf[0])
	if depth == 0 {
		return nil, 0, fmt.Errorf("%w: empty path", ErrPathEncoding)
	}
	if maxDepth > 0 && depth > maxDepth {
		return nil, 0, fmt.Errorf("%w: depth %d", ErrPathTooLong, depth)
	}
	n := 1 + 4*depth
	if len(buf) < n {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrPathEncoding, n, len(buf))
	}
	path := make(Path, depth)
	for i := range path {
		path[i] = binary.BigEndian.Uint32(buf[1+4*i:])
	}
	return path, n, nil
}
