// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/transaction"
)

// SIGN_TX p1 values.
const (
	SignTxSendData   uint8 = 0x00
	SignTxSignature  uint8 = 0x01
	SignTxEndSession uint8 = 0x02
)

// State is the SIGN_TX session state.
type State int

const (
	StateIdle State = iota
	StateReceivingData
	StateAwaitingSignatures
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReceivingData:
		return "receiving data"
	case StateAwaitingSignatures:
		return "awaiting signatures"
	case StateDone:
		return "done"
	}
	return "unknown"
}

type session struct {
	state    State
	parser   *txParser
	nextSeq  int
	reviewed int
	signed   int
	sighash  []byte
	lastSeen time.Time
}

// discard wipes every buffer of the session and returns it to idle.
func (s *session) discard() {
	s.parser.Wipe()
	clear(s.sighash)
	*s = session{parser: s.parser}
}

// signTx runs one SIGN_TX step. Any failure ends the session.
func (d *Device) signTx(cmd apdu.Command) ([]byte, error) {
	data, err := d.signTxStep(cmd)
	if err != nil {
		if d.session.state != StateIdle {
			d.log.Infow("sign tx session discarded", "state", d.session.state, "reason", err)
		}
		d.session.discard()
		return nil, err
	}
	d.session.lastSeen = d.now()
	return data, nil
}

func (d *Device) signTxStep(cmd apdu.Command) ([]byte, error) {
	s := &d.session
	switch cmd.P1 {
	case SignTxSendData:
		if len(cmd.Data) == 0 {
			return nil, rejectf(apdu.SWWrongDataLength, "empty chunk")
		}
		switch s.state {
		case StateIdle:
			if cmd.P2 != 0 {
				return nil, rejectf(apdu.SWBadState, "first chunk has sequence %d", cmd.P2)
			}
			s.state = StateReceivingData
		case StateReceivingData:
			if int(cmd.P2) != s.nextSeq {
				return nil, rejectf(apdu.SWBadState, "chunk %d, expected %d", cmd.P2, s.nextSeq)
			}
		default:
			return nil, rejectf(apdu.SWBadState, "data chunk while %s", s.state)
		}
		s.nextSeq++
		return nil, d.receive(cmd.Data)

	case SignTxSignature:
		if cmd.P2 != 0 {
			return nil, rejectf(apdu.SWWrongP1P2, "p2=0x%02x", cmd.P2)
		}
		if len(cmd.Data) == 0 {
			return nil, rejectf(apdu.SWWrongDataLength, "missing path")
		}
		if s.state != StateAwaitingSignatures {
			return nil, rejectf(apdu.SWBadState, "signature request while %s", s.state)
		}
		if s.signed >= s.parser.Inputs() {
			return nil, rejectf(apdu.SWBadState, "all %d inputs already signed", s.signed)
		}
		path, err := d.readPath(cmd.Data)
		if err != nil {
			return nil, err
		}
		// The full node verifies ECDSA-SHA256 over the sighash digest.
		digest := sha256.Sum256(s.sighash)
		sig, err := d.keys.Sign(path, digest[:])
		if err != nil {
			return nil, reject(apdu.SWSignatureFail, err)
		}
		s.signed++
		d.log.Debugw("input signed", "input", s.signed, "of", s.parser.Inputs(), "path", path.String())
		return sig, nil

	case SignTxEndSession:
		if cmd.P2 != 0 {
			return nil, rejectf(apdu.SWWrongP1P2, "p2=0x%02x", cmd.P2)
		}
		if len(cmd.Data) != 0 {
			return nil, rejectf(apdu.SWWrongDataLength, "%d bytes of data", len(cmd.Data))
		}
		if s.state != StateAwaitingSignatures {
			return nil, rejectf(apdu.SWBadState, "end while %s", s.state)
		}
		if s.signed != s.parser.Inputs() {
			return nil, rejectf(apdu.SWBadState, "%d of %d inputs signed", s.signed, s.parser.Inputs())
		}
		s.state = StateDone
		d.log.Infow("sign tx session done", "inputs", s.signed)
		s.discard()
		return nil, nil
	}
	return nil, rejectf(apdu.SWWrongP1P2, "p1=0x%02x", cmd.P1)
}

// receive feeds a chunk to the parser, reviews the outputs it completes and
// confirms the transaction after the last one.
func (d *Device) receive(chunk []byte) error {
	s := &d.session
	p := s.parser
	err := p.Feed(chunk, func(index int, out transaction.Output, kind transaction.ScriptKind, scriptHash []byte) error {
		if p.IsChange(index) {
			return nil
		}
		s.reviewed++
		review := &OutputReview{
			Index:     s.reviewed,
			Total:     p.Displayed(),
			Address:   transaction.Address(kind, scriptHash),
			Symbol:    p.tokenSymbol(out),
			Amount:    out.Value,
			Authority: out.IsAuthority(),
		}
		return d.confirm(Prompt{Kind: PromptOutput, Address: review.Address, Output: review})
	})
	if err != nil {
		return err
	}
	if !p.Done() {
		return nil
	}
	if err := d.confirm(Prompt{Kind: PromptTransaction}); err != nil {
		return err
	}
	s.sighash = p.Sighash()
	if len(s.sighash) == 0 {
		return reject(apdu.SWTxHashFail, errors.New("empty sighash"))
	}
	s.state = StateAwaitingSignatures
	d.log.Debugw("transaction received", "inputs", p.Inputs(), "outputs", p.Outputs(), "sighash", s.sighash)
	return nil
}
