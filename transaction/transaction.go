// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package transaction holds the transaction model and its canonical byte
// layout, which is both what gets signed and what is streamed to the device.
package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/token"
)

const (
	// HeaderLen is version(2) || tokens(1) || inputs(1) || outputs(1).
	HeaderLen = 5
	// InputLen is tx_id(32) || index(1) || data_len(2).
	InputLen = 35
	// MaxListLen is the largest count a single byte can carry.
	MaxListLen = 255
)

var (
	// ErrShortBuffer means the data ends before the element it started.
	ErrShortBuffer = errors.New("transaction: short buffer")
	ErrTooMany     = errors.New("transaction: more than 255 entries")
	ErrInputData   = errors.New("transaction: input data length must be 0")
	ErrTrailing    = errors.New("transaction: trailing bytes")
)

// Input spends an output of a previous transaction. Path is kept on the host
// and only sent when the input signature is requested.
type Input struct {
	TxID  [32]byte
	Index uint8
	Path  bip32.Path
}

// AppendBinary appends tx_id, index and the reserved zero data length.
func (in Input) AppendBinary(b []byte) []byte {
	b = append(b, in.TxID[:]...)
	b = append(b, in.Index)
	return append(b, 0x00, 0x00)
}

// ReadInput decodes one input from the start of buf.
func ReadInput(buf []byte) (Input, error) {
	var in Input
	if len(buf) < InputLen {
		return in, ErrShortBuffer
	}
	copy(in.TxID[:], buf[:32])
	in.Index = buf[32]
	if dataLen := binary.BigEndian.Uint16(buf[33:]); dataLen != 0 {
		return in, fmt.Errorf("%w: got %d", ErrInputData, dataLen)
	}
	return in, nil
}

func (in Input) String() string {
	return fmt.Sprintf("TxInput(tx_id=%x, index=%d, bip32_path=%s)", in.TxID, in.Index, in.Path)
}

// Transaction is the unsigned transaction sent to the device.
//
// The serialized form is computed once, on the first call to SighashAllData
// or SighashAll, and reused afterwards; mutating the fields after that point
// does not change what gets signed. Do not copy a Transaction after use.
type Transaction struct {
	Version uint16
	Tokens  []token.UID
	Inputs  []Input
	Outputs []Output

	sighash sighashCell
}

// sighashCell is written at most once.
type sighashCell struct {
	once sync.Once
	data []byte
	err  error
}

func (c *sighashCell) get(compute func() ([]byte, error)) ([]byte, error) {
	c.once.Do(func() {
		c.data, c.err = compute()
	})
	return c.data, c.err
}

// New builds a transaction.
func New(version uint16, tokens []token.UID, inputs []Input, outputs []Output) *Transaction {
	return &Transaction{Version: version, Tokens: tokens, Inputs: inputs, Outputs: outputs}
}

// Serialize encodes the header, tokens, inputs and outputs in that order.
func (tx *Transaction) Serialize() ([]byte, error) {
	if len(tx.Tokens) > MaxListLen || len(tx.Inputs) > MaxListLen || len(tx.Outputs) > MaxListLen {
		return nil, fmt.Errorf("%w: tokens=%d inputs=%d outputs=%d",
			ErrTooMany, len(tx.Tokens), len(tx.Inputs), len(tx.Outputs))
	}
	size := HeaderLen + token.UIDLen*len(tx.Tokens) + InputLen*len(tx.Inputs)
	for _, o := range tx.Outputs {
		size += o.Len()
	}

	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint16(out, tx.Version)
	out = append(out, byte(len(tx.Tokens)), byte(len(tx.Inputs)), byte(len(tx.Outputs)))
	for _, uid := range tx.Tokens {
		out = append(out, uid[:]...)
	}
	for _, in := range tx.Inputs {
		out = in.AppendBinary(out)
	}
	for _, o := range tx.Outputs {
		var err error
		if out, err = o.AppendBinary(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SighashAllData returns the bytes that are signed. The first result is
// cached for the lifetime of tx.
func (tx *Transaction) SighashAllData() ([]byte, error) {
	data, err := tx.sighash.get(tx.Serialize)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// SighashAll is the SHA-256 of SighashAllData.
func (tx *Transaction) SighashAll() ([32]byte, error) {
	data, err := tx.sighash.get(tx.Serialize)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Deserialize decodes a transaction. Input paths are not on the wire and stay
// empty.
func Deserialize(buf []byte) (*Transaction, error) {
	if len(buf) < HeaderLen {
		return nil, ErrShortBuffer
	}
	tx := &Transaction{Version: binary.BigEndian.Uint16(buf)}
	numTokens, numInputs, numOutputs := int(buf[2]), int(buf[3]), int(buf[4])
	off := HeaderLen

	for i := 0; i < numTokens; i++ {
		if len(buf) < off+token.UIDLen {
			return nil, fmt.Errorf("token %d: %w", i, ErrShortBuffer)
		}
		var uid token.UID
		copy(uid[:], buf[off:])
		tx.Tokens = append(tx.Tokens, uid)
		off += token.UIDLen
	}
	for i := 0; i < numInputs; i++ {
		in, err := ReadInput(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.Inputs = append(tx.Inputs, in)
		off += InputLen
	}
	for i := 0; i < numOutputs; i++ {
		o, n, err := ReadOutput(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		tx.Outputs = append(tx.Outputs, o)
		off += n
	}
	if off != len(buf) {
		return nil, fmt.Errorf("%w: %d", ErrTrailing, len(buf)-off)
	}
	return tx, nil
}

func (tx *Transaction) String() string {
	tokens := make([]string, len(tx.Tokens))
	for i, uid := range tx.Tokens {
		tokens[i] = uid.String()
	}
	inputs := make([]string, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.String()
	}
	outputs := make([]string, len(tx.Outputs))
	for i, o := range tx.Outputs {
		outputs[i] = o.String()
	}
	return fmt.Sprintf("Transaction(tokens=[%s], inputs=[%s], outputs=[%s])",
		strings.Join(tokens, ", "), strings.Join(inputs, ", "), strings.Join(outputs, ", "))
}
