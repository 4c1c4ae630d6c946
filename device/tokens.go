// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/token"
)

// registry holds the tokens sent with SEND_TOKEN_DATA, one per slot.
type registry struct {
	max   int
	slots []token.Token
}

func (r *registry) symbol(uid token.UID) (string, bool) {
	for _, t := range r.slots {
		if t.UID == uid {
			return t.Symbol, true
		}
	}
	return "", false
}

func (r *registry) reset() {
	r.slots = r.slots[:0]
}

// Registered returns the tokens in slot order.
func (d *Device) Registered() []token.Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]token.Token(nil), d.registry.slots...)
}

// tokenSignature is SHA-256(secret || uid || symbol || name || version).
func tokenSignature(secret []byte, t token.Token) []byte {
	h := sha256.New()
	h.Write(secret)
	h.Write(t.UID[:])
	h.Write([]byte(t.Symbol))
	h.Write([]byte(t.Name))
	h.Write([]byte{t.Version})
	return h.Sum(nil)
}

// parseSignedToken splits data into the token and the signature after it.
func parseSignedToken(data []byte) (token.Token, []byte, error) {
	t, n, err := token.Parse(data)
	if err != nil {
		return t, nil, reject(apdu.SWWrongDataLength, err)
	}
	return t, data[n:], nil
}

func (d *Device) checkSignature(t token.Token, sig []byte) error {
	secret, err := d.store.Secret()
	if err != nil {
		return reject(apdu.SWInternal, err)
	}
	if len(sig) != token.SignatureLen || subtle.ConstantTimeCompare(sig, tokenSignature(secret, t)) != 1 {
		return rejectf(apdu.SWInvalidSignature, "token %s", t.UID)
	}
	return nil
}

func (d *Device) signTokenData(data []byte) ([]byte, error) {
	t, rest, err := parseSignedToken(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, rejectf(apdu.SWWrongDataLength, "%d trailing bytes", len(rest))
	}
	if err := d.confirm(Prompt{Kind: PromptTokenData, Token: &t}); err != nil {
		return nil, err
	}
	secret, err := d.store.Secret()
	if err != nil {
		return nil, reject(apdu.SWInternal, err)
	}
	return tokenSignature(secret, t), nil
}

func (d *Device) sendTokenData(slot uint8, data []byte) ([]byte, error) {
	if slot == 0 {
		d.registry.reset()
	}
	if int(slot) != len(d.registry.slots) {
		return nil, rejectf(apdu.SWWrongP1P2, "slot %d, expected %d", slot, len(d.registry.slots))
	}
	if len(d.registry.slots) >= d.registry.max {
		d.registry.reset()
		return nil, rejectf(apdu.SWWrongDataLength, "registry holds at most %d tokens", d.registry.max)
	}
	t, sig, err := parseSignedToken(data)
	if err != nil {
		return nil, err
	}
	if err := d.checkSignature(t, sig); err != nil {
		return nil, err
	}
	d.registry.slots = append(d.registry.slots, t)
	d.log.Debugw("token registered", "slot", slot, "uid", t.UID.String(), "symbol", t.Symbol)
	return nil, nil
}

func (d *Device) verifyTokenSignature(data []byte) ([]byte, error) {
	t, sig, err := parseSignedToken(data)
	if err != nil {
		return nil, err
	}
	return nil, d.checkSignature(t, sig)
}

func (d *Device) resetTokenSignatures() ([]byte, error) {
	if err := d.confirm(Prompt{Kind: PromptResetTokenSignatures}); err != nil {
		return nil, err
	}
	if _, err := d.store.Rotate(); err != nil {
		return nil, reject(apdu.SWInternal, err)
	}
	d.registry.reset()
	d.log.Infow("token signatures reset")
	return nil, nil
}
