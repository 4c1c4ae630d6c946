// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package client drives the Hathor application: it turns wallet operations
// into ordered APDU sequences and decodes the answers.
package client

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/logging"
	"github.com/hathornetwork/ledger-go/token"
	"github.com/hathornetwork/ledger-go/transaction"
)

const (
	versionLen = 6
	xpubLen    = 65 + 32 + 4
)

// Exchanger sends one command APDU and returns the status word and data of
// the answer. The error is for transport failures only.
type Exchanger interface {
	Exchange(command []byte) (uint16, []byte, error)
}

// XPub is the decoded GET_XPUB answer.
type XPub struct {
	PublicKey   []byte
	ChainCode   []byte
	Fingerprint []byte
}

// SignTxOptions describes the change outputs of a transaction.
type SignTxOptions struct {
	Changes []transaction.ChangeInfo
	// Legacy uses the single change encoding; only Changes[0] is sent.
	Legacy bool
}

// Command runs wallet operations over an Exchanger.
type Command struct {
	builder Builder
	dev     Exchanger
	log     *zap.SugaredLogger
}

func New(dev Exchanger) *Command {
	return &Command{builder: NewBuilder(), dev: dev, log: logging.Named("client")}
}

// Builder returns the APDU builder in use.
func (c *Command) Builder() Builder { return c.builder }

func (c *Command) exchange(ins apdu.Ins, command []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	sw, data, err := c.dev.Exchange(command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ins, err)
	}
	if err := apdu.ErrorFromStatus(apdu.StatusWord(sw), ins); err != nil {
		c.log.Debugw("command failed", "ins", ins.String(), "sw", apdu.StatusWord(sw).String())
		return nil, err
	}
	return data, nil
}

func responseLength(ins apdu.Ins, data []byte, want int) error {
	if len(data) != want {
		return &apdu.DeviceError{
			Code: apdu.SWWrongResponseLength,
			Ins:  ins,
			Kind: fmt.Errorf("response of %d bytes, expected %d", len(data), want),
		}
	}
	return nil
}

// GetAppAndVersion returns the name and version of the running application.
func (c *Command) GetAppAndVersion() (string, string, error) {
	cmd, err := c.builder.GetAppAndVersion()
	data, err := c.exchange(apdu.InsGetAppAndVersion, cmd, err)
	if err != nil {
		return "", "", err
	}
	// format(1) || name_len(1) || name || version_len(1) || version || flags
	off := 1
	fields := make([]string, 2)
	for i := range fields {
		if len(data) < off+1 || len(data) < off+1+int(data[off]) {
			return "", "", responseLength(apdu.InsGetAppAndVersion, data, off+1)
		}
		l := int(data[off])
		fields[i] = string(data[off+1 : off+1+l])
		off += 1 + l
	}
	return fields[0], fields[1], nil
}

// GetVersion returns the "HTR" magic and the application version.
func (c *Command) GetVersion() (magic string, major, minor, patch uint8, err error) {
	cmd, err := c.builder.GetVersion()
	data, err := c.exchange(apdu.InsGetVersion, cmd, err)
	if err != nil {
		return "", 0, 0, 0, err
	}
	if err := responseLength(apdu.InsGetVersion, data, versionLen); err != nil {
		return "", 0, 0, 0, err
	}
	return string(data[:3]), data[3], data[4], data[5], nil
}

// GetAddress shows the address of path on the device and returns it.
func (c *Command) GetAddress(path bip32.Path) (string, error) {
	cmd, err := c.builder.GetAddress(path)
	data, err := c.exchange(apdu.InsGetAddress, cmd, err)
	if err != nil {
		return "", err
	}
	if err := responseLength(apdu.InsGetAddress, data, transaction.AddressLen); err != nil {
		return "", err
	}
	return transaction.EncodeAddress(data)
}

func (c *Command) GetXPub(path bip32.Path) (XPub, error) {
	cmd, err := c.builder.GetXPub(path)
	data, err := c.exchange(apdu.InsGetXPub, cmd, err)
	if err != nil {
		return XPub{}, err
	}
	if err := responseLength(apdu.InsGetXPub, data, xpubLen); err != nil {
		return XPub{}, err
	}
	return XPub{PublicKey: data[:65], ChainCode: data[65:97], Fingerprint: data[97:]}, nil
}

// SignTx streams tx, collects one signature per input and closes the
// session. A failure leaves the device to discard the session.
func (c *Command) SignTx(tx *transaction.Transaction, opts SignTxOptions) ([][]byte, error) {
	chunks, err := c.builder.SignTxSendData(tx, opts.Changes, opts.Legacy)
	if err != nil {
		return nil, err
	}
	for i, chunk := range chunks {
		if _, err := c.exchange(apdu.InsSignTx, chunk.Command, nil); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		c.log.Debugw("chunk sent", "chunk", i, "outputs", chunk.Outputs, "last", chunk.Last)
	}

	requests, err := c.builder.SignTxSignatures(tx)
	if err != nil {
		return nil, err
	}
	signatures := make([][]byte, 0, len(requests))
	for i, req := range requests {
		sig, err := c.exchange(apdu.InsSignTx, req, nil)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		signatures = append(signatures, sig)
	}

	end, err := c.builder.SignTxEnd()
	if _, err := c.exchange(apdu.InsSignTx, end, err); err != nil {
		return nil, err
	}
	return signatures, nil
}

func (c *Command) SignTokenData(t token.Token) ([]byte, error) {
	cmd, err := c.builder.SignTokenData(t)
	data, err := c.exchange(apdu.InsSignTokenData, cmd, err)
	if err != nil {
		return nil, err
	}
	if err := responseLength(apdu.InsSignTokenData, data, token.SignatureLen); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Command) SendTokenData(t token.Token, signature []byte, slot uint8) error {
	cmd, err := c.builder.SendTokenData(t, signature, slot)
	_, err = c.exchange(apdu.InsSendTokenData, cmd, err)
	return err
}

// SendTokenDataList registers tokens in order, starting a new list.
func (c *Command) SendTokenDataList(tokens []token.Token, signatures [][]byte) error {
	if len(tokens) != len(signatures) {
		return fmt.Errorf("%d tokens with %d signatures", len(tokens), len(signatures))
	}
	if len(tokens) > 255 {
		return fmt.Errorf("%d tokens do not fit the slot byte", len(tokens))
	}
	for i, t := range tokens {
		if err := c.SendTokenData(t, signatures[i], uint8(i)); err != nil {
			return fmt.Errorf("token %s: %w", t.Symbol, err)
		}
	}
	return nil
}

func (c *Command) VerifyTokenSignature(t token.Token, signature []byte) error {
	cmd, err := c.builder.VerifyTokenSignature(t, signature)
	_, err = c.exchange(apdu.InsVerifyTokenSignature, cmd, err)
	return err
}

func (c *Command) ResetTokenSignatures() error {
	cmd, err := c.builder.ResetTokenSignatures()
	_, err = c.exchange(apdu.InsResetTokenSignatures, cmd, err)
	return err
}
