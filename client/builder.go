// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package client

import (
	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/token"
	"github.com/hathornetwork/ledger-go/transaction"
)

// SIGN_TX p1 values.
const (
	p1SendData   uint8 = 0x00
	p1Signature  uint8 = 0x01
	p1EndSession uint8 = 0x02
)

// Builder encodes the command APDUs of the Hathor application.
type Builder struct {
	// CLA is the class byte of application commands.
	CLA uint8
}

// NewBuilder returns a builder for the default class.
func NewBuilder() Builder {
	return Builder{CLA: apdu.CLA}
}

func (b Builder) serialize(ins apdu.Ins, p1, p2 uint8, data []byte) ([]byte, error) {
	return apdu.Serialize(b.CLA, ins, p1, p2, data)
}

func (b Builder) GetAppAndVersion() ([]byte, error) {
	return apdu.Serialize(apdu.CLABolos, apdu.InsGetAppAndVersion, 0, 0, nil)
}

func (b Builder) GetVersion() ([]byte, error) {
	return b.serialize(apdu.InsGetVersion, 0, 0, nil)
}

func (b Builder) GetAddress(path bip32.Path) ([]byte, error) {
	data, err := path.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return b.serialize(apdu.InsGetAddress, 0, 0, data)
}

func (b Builder) GetXPub(path bip32.Path) ([]byte, error) {
	data, err := path.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return b.serialize(apdu.InsGetXPub, 0, 0, data)
}

// SignTxChunk is one SIGN_TX data command and the output records that end in
// it, which the device reviews before answering.
type SignTxChunk struct {
	Command []byte
	Outputs int
	Last    bool
}

// SignTxSendData chunks the change info and the transaction, numbering the
// chunks with p2.
func (b Builder) SignTxSendData(tx *transaction.Transaction, changes []transaction.ChangeInfo, legacy bool) ([]SignTxChunk, error) {
	prefix, err := transaction.EncodeChanges(changes, legacy)
	if err != nil {
		return nil, err
	}
	chunks, err := transaction.ChunkOutputs(prefix, tx, transaction.MaxChunkLen)
	if err != nil {
		return nil, err
	}
	if len(chunks) > 256 {
		return nil, transaction.ErrTooMany
	}
	out := make([]SignTxChunk, len(chunks))
	for i, c := range chunks {
		cmd, err := b.serialize(apdu.InsSignTx, p1SendData, uint8(i), c.Data)
		if err != nil {
			return nil, err
		}
		out[i] = SignTxChunk{Command: cmd, Outputs: c.Outputs, Last: c.Last}
	}
	return out, nil
}

// SignTxSignatures asks for one signature per input, in input order.
func (b Builder) SignTxSignatures(tx *transaction.Transaction) ([][]byte, error) {
	out := make([][]byte, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		data, err := in.Path.MarshalBinary()
		if err != nil {
			return nil, err
		}
		cmd, err := b.serialize(apdu.InsSignTx, p1Signature, 0, data)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (b Builder) SignTxEnd() ([]byte, error) {
	return b.serialize(apdu.InsSignTx, p1EndSession, 0, nil)
}

func (b Builder) SignTokenData(t token.Token) ([]byte, error) {
	return b.serialize(apdu.InsSignTokenData, 0, 0, t.Serialize(nil))
}

// SendTokenData registers t with its signature at slot.
func (b Builder) SendTokenData(t token.Token, signature []byte, slot uint8) ([]byte, error) {
	return b.serialize(apdu.InsSendTokenData, slot, 0, t.Serialize(signature))
}

func (b Builder) VerifyTokenSignature(t token.Token, signature []byte) ([]byte, error) {
	return b.serialize(apdu.InsVerifyTokenSignature, 0, 0, t.Serialize(signature))
}

func (b Builder) ResetTokenSignatures() ([]byte, error) {
	return b.serialize(apdu.InsResetTokenSignatures, 0, 0, nil)
}
