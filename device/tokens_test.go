// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/token"
	"github.com/hathornetwork/ledger-go/transaction"
)

func testToken(i int) token.Token {
	var uid token.UID
	uid[0] = byte(i + 1)
	uid[31] = 0xff
	return token.Token{Version: 1, UID: uid, Symbol: fmt.Sprintf("TK%d", i), Name: fmt.Sprintf("Token %d", i)}
}

func signToken(t *testing.T, d *Device, tk token.Token) []byte {
	t.Helper()
	sw, sig := exchange(t, d, apdu.InsSignTokenData, 0, 0, tk.Serialize(nil))
	require.Equal(t, apdu.SWOK, sw)
	require.Len(t, sig, token.SignatureLen)
	return sig
}

func TestTokenSignatureLifecycle(t *testing.T) {
	d := newTestDevice(t)
	tk := testToken(0)

	sig := signToken(t, d, tk)
	require.Equal(t, sig, signToken(t, d, tk), "signing is deterministic")

	sw, _ := exchange(t, d, apdu.InsVerifyTokenSignature, 0, 0, tk.Serialize(sig))
	require.Equal(t, apdu.SWOK, sw)

	sw, _ = exchange(t, d, apdu.InsVerifyTokenSignature, 0, 0, tk.Serialize(bytes.Repeat([]byte{7}, 70)))
	require.Equal(t, apdu.SWInvalidSignature, sw)
	sw, _ = exchange(t, d, apdu.InsVerifyTokenSignature, 0, 0, tk.Serialize(sig[:31]))
	require.Equal(t, apdu.SWInvalidSignature, sw)

	other := tk
	other.Name = "Renamed"
	sw, _ = exchange(t, d, apdu.InsVerifyTokenSignature, 0, 0, other.Serialize(sig))
	require.Equal(t, apdu.SWInvalidSignature, sw)

	sw, _ = exchange(t, d, apdu.InsResetTokenSignatures, 0, 0, nil)
	require.Equal(t, apdu.SWOK, sw)

	sw, _ = exchange(t, d, apdu.InsVerifyTokenSignature, 0, 0, tk.Serialize(sig))
	require.Equal(t, apdu.SWInvalidSignature, sw, "reset invalidates old signatures")
	require.NotEqual(t, sig, signToken(t, d, tk))
}

func TestTokenSignatureFormula(t *testing.T) {
	store := NewMemoryStore()
	d := newTestDevice(t, WithStore(store))
	tk := testToken(3)
	secret, err := store.Secret()
	require.NoError(t, err)
	require.Equal(t, tokenSignature(secret, tk), signToken(t, d, tk))
}

func TestSignTokenDataMalformed(t *testing.T) {
	d := newTestDevice(t)
	tk := testToken(0)
	tests := map[string][]byte{
		"truncated":      tk.Serialize(nil)[:20],
		"trailing bytes": tk.Serialize([]byte{1}),
		"long symbol":    token.Token{UID: tk.UID, Symbol: "TOOLONG", Name: "x"}.Serialize(nil),
		"empty name":     token.Token{UID: tk.UID, Symbol: "X"}.Serialize(nil),
		"not printable":  token.Token{UID: tk.UID, Symbol: "X\x01", Name: "x"}.Serialize(nil),
	}
	for name, data := range tests {
		sw, _ := exchange(t, d, apdu.InsSignTokenData, 0, 0, data)
		require.Equal(t, apdu.SWWrongDataLength, sw, name)
	}
}

func TestSignTokenDataDenied(t *testing.T) {
	rec := &recorder{deny: PromptTokenData, denying: true}
	d := newTestDevice(t, WithConfirmer(rec))
	tk := testToken(0)
	sw, _ := exchange(t, d, apdu.InsSignTokenData, 0, 0, tk.Serialize(nil))
	require.Equal(t, apdu.SWDeny, sw)
	require.Len(t, rec.prompts, 1)
	require.Equal(t, tk, *rec.prompts[0].Token)
}

func TestSendTokenDataSlots(t *testing.T) {
	d := newTestDevice(t)
	send := func(slot int, tk token.Token, sig []byte) apdu.StatusWord {
		sw, _ := exchange(t, d, apdu.InsSendTokenData, uint8(slot), 0, tk.Serialize(sig))
		return sw
	}

	t0, t1 := testToken(0), testToken(1)
	sig0, sig1 := signToken(t, d, t0), signToken(t, d, t1)

	require.Equal(t, apdu.SWOK, send(0, t0, sig0))
	require.Equal(t, apdu.SWWrongP1P2, send(2, t1, sig1))
	require.Equal(t, apdu.SWInvalidSignature, send(1, t1, sig0))
	require.Equal(t, apdu.SWOK, send(1, t1, sig1))
	require.Equal(t, []token.Token{t0, t1}, d.Registered())

	// slot 0 starts a new list
	require.Equal(t, apdu.SWOK, send(0, t1, sig1))
	require.Equal(t, []token.Token{t1}, d.Registered())

	sw, _ := exchange(t, d, apdu.InsResetTokenSignatures, 0, 0, nil)
	require.Equal(t, apdu.SWOK, sw)
	require.Empty(t, d.Registered())
	require.Equal(t, apdu.SWInvalidSignature, send(0, t0, sig0))
}

func TestSendTokenDataCapacity(t *testing.T) {
	d := newTestDevice(t)
	limit := d.Config().MaxTokens
	for i := 0; i <= limit; i++ {
		tk := testToken(i)
		sw, _ := exchange(t, d, apdu.InsSendTokenData, uint8(i), 0, tk.Serialize(signToken(t, d, tk)))
		if i < limit {
			require.Equal(t, apdu.SWOK, sw, "slot %d", i)
			continue
		}
		require.Equal(t, apdu.SWWrongDataLength, sw)
	}
	require.Empty(t, d.Registered())
}

func TestSignTxWithCustomTokens(t *testing.T) {
	rec := &recorder{}
	d := newTestDevice(t, WithConfirmer(rec))
	t0, t1 := testToken(0), testToken(1)
	for i, tk := range []token.Token{t0, t1} {
		sw, _ := exchange(t, d, apdu.InsSendTokenData, uint8(i), 0, tk.Serialize(signToken(t, d, tk)))
		require.Equal(t, apdu.SWOK, sw)
	}

	tx := testTx(t, d, 1, 3)
	tx.Tokens = []token.UID{t0.UID, t1.UID}
	tx.Outputs[1].TokenData = 2
	tx.Outputs[2].TokenData = 1 | transaction.TokenDataAuthorityMask

	require.Equal(t, apdu.SWOK, sendChunks(t, d, txChunks(t, tx, nil, false)))
	reviews := rec.outputs()
	require.Len(t, reviews, 3)
	require.Equal(t, "HTR", reviews[0].Symbol)
	require.Equal(t, t1.Symbol, reviews[1].Symbol)
	require.Equal(t, t0.Symbol, reviews[2].Symbol)
	require.True(t, reviews[2].Authority)
	require.Equal(t, "output 3/3: authority TK0 to H7Db39doQWtPxPx28e47xGt2hRWekhPsrF", reviews[2].String())
	require.Equal(t, "output 1/3: 1.00 HTR to HJYAnivCTdRtxcgeJW8pKk1y7przypne3C", reviews[0].String())
}

func TestTokenCommandsDuringSession(t *testing.T) {
	d := newTestDevice(t)
	chunks := txChunks(t, testTx(t, d, 1, 10), nil, false)
	require.Equal(t, apdu.SWOK, sendChunks(t, d, chunks[:1]))

	tk := testToken(0)
	for _, ins := range []apdu.Ins{apdu.InsSignTokenData, apdu.InsVerifyTokenSignature} {
		sw, _ := exchange(t, d, ins, 0, 0, tk.Serialize(nil))
		require.Equal(t, apdu.SWBadState, sw, "%s", ins)
	}
	sw, _ := exchange(t, d, apdu.InsResetTokenSignatures, 0, 0, nil)
	require.Equal(t, apdu.SWBadState, sw)
	require.Equal(t, StateReceivingData, d.State())
}
