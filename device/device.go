// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package device emulates the Hathor application of a hardware wallet: it
// consumes APDUs one at a time and answers them the way the secure element
// does, including the streaming SIGN_TX session and the token slots.
package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/logging"
)

// rejection is a failure the device reports with a status word.
type rejection struct {
	sw     apdu.StatusWord
	reason error
}

func (r *rejection) Error() string {
	return fmt.Sprintf("%s: %v", r.sw, r.reason)
}

func (r *rejection) Unwrap() error { return r.reason }

func reject(sw apdu.StatusWord, reason error) error {
	return &rejection{sw: sw, reason: reason}
}

func rejectf(sw apdu.StatusWord, format string, args ...any) error {
	return &rejection{sw: sw, reason: fmt.Errorf(format, args...)}
}

// pathRejection maps a path policy failure to its status word.
func pathRejection(err error) error {
	if errors.Is(err, bip32.ErrPathPrefix) {
		return reject(apdu.SWBOLOSPathPrefix, err)
	}
	return reject(apdu.SWWrongDataLength, err)
}

func statusOf(err error) apdu.StatusWord {
	var r *rejection
	if errors.As(err, &r) {
		return r.sw
	}
	return apdu.SWInternal
}

// Option configures a Device.
type Option func(*Device)

// WithStore sets where the token secret lives. The default keeps it in memory.
func WithStore(s SecretStore) Option {
	return func(d *Device) { d.store = s }
}

// WithConfirmer sets who answers the prompts. The default approves all.
func WithConfirmer(c Confirmer) Option {
	return func(d *Device) { d.confirmer = c }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Device) { d.log = l }
}

// WithClock replaces time.Now for session timeouts.
func WithClock(now func() time.Time) Option {
	return func(d *Device) { d.now = now }
}

// Device is an emulated secure element. It processes one APDU at a time; a
// command arriving while another one runs is refused with BadState.
type Device struct {
	mu sync.Mutex

	cfg       Config
	keys      *Keychain
	store     SecretStore
	confirmer Confirmer
	log       *zap.SugaredLogger
	now       func() time.Time

	session  session
	registry registry
}

// New builds a device from cfg.
func New(cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	keys, err := NewKeychain(cfg.Mnemonic, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	d := &Device{
		cfg:       cfg,
		keys:      keys,
		confirmer: AutoApprove,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		d.store = NewMemoryStore()
	}
	if d.log == nil {
		d.log = logging.Named("device")
	}
	d.session.parser = newTxParser(cfg, d.registry.symbol)
	d.registry.max = cfg.MaxTokens
	return d, nil
}

// Config returns the policy the device runs with.
func (d *Device) Config() Config { return d.cfg }

// State returns the SIGN_TX session state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.state
}

// Exchange processes one APDU and returns the status word and response data.
// The error is reserved for transports; the device reports every failure
// through the status word.
func (d *Device) Exchange(command []byte) (uint16, []byte, error) {
	if !d.mu.TryLock() {
		d.log.Warnw("command refused, device busy")
		return uint16(apdu.SWBadState), nil, nil
	}
	defer d.mu.Unlock()

	d.log.Debugf("=> %x", command)
	d.expireSession()
	data, err := d.dispatch(command)
	sw := apdu.SWOK
	if err != nil {
		sw = statusOf(err)
		data = nil
		d.log.Debugw("command rejected", "sw", sw.String(), "reason", err)
	}
	d.log.Debugf("<= %x%04x", data, uint16(sw))
	return uint16(sw), data, nil
}

// Close releases the secret store.
func (d *Device) Close() error {
	return d.store.Close()
}

func (d *Device) expireSession() {
	if d.session.state == StateIdle || d.cfg.SessionTimeout <= 0 {
		return
	}
	if idle := d.now().Sub(d.session.lastSeen); idle > d.cfg.SessionTimeout {
		d.log.Infow("discarding abandoned session", "state", d.session.state, "idle", idle)
		d.session.discard()
	}
}

// rule is the p1/p2 and data contract of an instruction.
type rule struct {
	anyP1 bool
	data  bool
}

var rules = map[apdu.Ins]rule{
	apdu.InsGetAppAndVersion:     {},
	apdu.InsGetVersion:           {},
	apdu.InsGetAddress:           {data: true},
	apdu.InsGetXPub:              {data: true},
	apdu.InsSignTokenData:        {data: true},
	apdu.InsSendTokenData:        {anyP1: true, data: true},
	apdu.InsVerifyTokenSignature: {data: true},
	apdu.InsResetTokenSignatures: {},
}

// dispatch checks class, instruction, p1/p2 and data presence in that order
// before running the handler.
func (d *Device) dispatch(raw []byte) ([]byte, error) {
	cmd, err := apdu.ParseCommand(raw)
	if err != nil {
		return nil, reject(apdu.SWWrongDataLength, err)
	}

	switch cmd.CLA {
	case apdu.CLA:
		if cmd.INS == apdu.InsGetAppAndVersion || !cmd.INS.Valid() {
			return nil, rejectf(apdu.SWInsNotSupported, "instruction 0x%02x", uint8(cmd.INS))
		}
	case apdu.CLABolos:
		if cmd.INS != apdu.InsGetAppAndVersion {
			return nil, rejectf(apdu.SWInsNotSupported, "instruction 0x%02x", uint8(cmd.INS))
		}
	default:
		return nil, rejectf(apdu.SWClaNotSupported, "class 0x%02x", cmd.CLA)
	}

	if cmd.INS == apdu.InsSignTx {
		return d.signTx(cmd)
	}
	if err := checkRule(cmd, rules[cmd.INS]); err != nil {
		return nil, err
	}
	if d.session.state != StateIdle {
		return nil, rejectf(apdu.SWBadState, "%s during a %s session", cmd.INS, d.session.state)
	}

	switch cmd.INS {
	case apdu.InsGetAppAndVersion:
		return d.getAppAndVersion(), nil
	case apdu.InsGetVersion:
		return d.getVersion(), nil
	case apdu.InsGetAddress:
		return d.getAddress(cmd.Data)
	case apdu.InsGetXPub:
		return d.getXPub(cmd.Data)
	case apdu.InsSignTokenData:
		return d.signTokenData(cmd.Data)
	case apdu.InsSendTokenData:
		return d.sendTokenData(cmd.P1, cmd.Data)
	case apdu.InsVerifyTokenSignature:
		return d.verifyTokenSignature(cmd.Data)
	case apdu.InsResetTokenSignatures:
		return d.resetTokenSignatures()
	}
	return nil, rejectf(apdu.SWInsNotSupported, "instruction %s", cmd.INS)
}

func checkRule(cmd apdu.Command, r rule) error {
	if (!r.anyP1 && cmd.P1 != 0) || cmd.P2 != 0 {
		return rejectf(apdu.SWWrongP1P2, "p1=0x%02x p2=0x%02x", cmd.P1, cmd.P2)
	}
	if r.data != (len(cmd.Data) > 0) {
		return rejectf(apdu.SWWrongDataLength, "%d bytes of data", len(cmd.Data))
	}
	return nil
}

// readPath decodes a path that must fill data and pass the policy.
func (d *Device) readPath(data []byte) (bip32.Path, error) {
	path, n, err := bip32.Read(data, 0)
	if err != nil {
		return nil, reject(apdu.SWWrongDataLength, err)
	}
	if n != len(data) {
		return nil, rejectf(apdu.SWWrongDataLength, "%d trailing bytes after path", len(data)-n)
	}
	if err := d.cfg.Paths.Check(path); err != nil {
		return nil, pathRejection(err)
	}
	return path, nil
}

func (d *Device) confirm(p Prompt) error {
	if !d.confirmer.Confirm(p) {
		return rejectf(apdu.SWDeny, "%s denied", p.Kind)
	}
	return nil
}
