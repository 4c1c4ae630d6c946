// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/transaction"
)

func newTestDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	d, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func exchange(t *testing.T, d *Device, ins apdu.Ins, p1, p2 uint8, data []byte) (apdu.StatusWord, []byte) {
	t.Helper()
	return exchangeCLA(t, d, apdu.CLA, ins, p1, p2, data)
}

func exchangeCLA(t *testing.T, d *Device, cla uint8, ins apdu.Ins, p1, p2 uint8, data []byte) (apdu.StatusWord, []byte) {
	t.Helper()
	raw, err := apdu.Serialize(cla, ins, p1, p2, data)
	require.NoError(t, err)
	sw, resp, err := d.Exchange(raw)
	require.NoError(t, err)
	return apdu.StatusWord(sw), resp
}

func pathBytes(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := bip32.MustParse(s).MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mnemonic = "not a mnemonic"
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrMnemonic)

	cfg = DefaultConfig()
	cfg.MaxTokens = 0
	_, err = New(cfg)
	require.Error(t, err)
}

func TestGetVersion(t *testing.T) {
	d := newTestDevice(t)
	sw, resp := exchange(t, d, apdu.InsGetVersion, 0, 0, nil)
	require.Equal(t, apdu.SWOK, sw)
	require.Equal(t, []byte{'H', 'T', 'R', 1, 0, 0}, resp)
}

func TestGetAppAndVersion(t *testing.T) {
	d := newTestDevice(t)
	sw, resp := exchangeCLA(t, d, apdu.CLABolos, apdu.InsGetAppAndVersion, 0, 0, nil)
	require.Equal(t, apdu.SWOK, sw)
	want := []byte{0x01, 6, 'H', 'a', 't', 'h', 'o', 'r', 5, '1', '.', '0', '.', '0', 0x01, 0x00}
	require.Equal(t, want, resp)
}

func TestDispatchValidation(t *testing.T) {
	d := newTestDevice(t)
	path := pathBytes(t, "m/44'/280'/0'/0/0")

	tests := []struct {
		name string
		cla  uint8
		ins  apdu.Ins
		p1   uint8
		p2   uint8
		data []byte
		sw   apdu.StatusWord
	}{
		{"unknown class", 0x00, apdu.InsGetVersion, 0, 0, nil, apdu.SWClaNotSupported},
		{"unknown instruction", apdu.CLA, 0x02, 0, 0, nil, apdu.SWInsNotSupported},
		{"dashboard instruction on app class", apdu.CLA, apdu.InsGetAppAndVersion, 0, 0, nil, apdu.SWInsNotSupported},
		{"app instruction on dashboard class", apdu.CLABolos, apdu.InsGetVersion, 0, 0, nil, apdu.SWInsNotSupported},
		{"version with p1", apdu.CLA, apdu.InsGetVersion, 1, 0, nil, apdu.SWWrongP1P2},
		{"version with p2", apdu.CLA, apdu.InsGetVersion, 0, 1, nil, apdu.SWWrongP1P2},
		{"version with data", apdu.CLA, apdu.InsGetVersion, 0, 0, []byte{1}, apdu.SWWrongDataLength},
		{"xpub without path", apdu.CLA, apdu.InsGetXPub, 0, 0, nil, apdu.SWWrongDataLength},
		{"address with p1", apdu.CLA, apdu.InsGetAddress, 1, 0, path, apdu.SWWrongP1P2},
		{"reset with data", apdu.CLA, apdu.InsResetTokenSignatures, 0, 0, []byte{1}, apdu.SWWrongDataLength},
		{"sign tx with p1 3", apdu.CLA, apdu.InsSignTx, 3, 0, []byte{1}, apdu.SWWrongP1P2},
		{"class is checked before instruction", 0x80, 0x42, 7, 7, nil, apdu.SWClaNotSupported},
		{"instruction is checked before p1", apdu.CLA, 0x42, 7, 7, nil, apdu.SWInsNotSupported},
		{"p1 is checked before data", apdu.CLA, apdu.InsGetVersion, 7, 0, []byte{1}, apdu.SWWrongP1P2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sw, resp := exchangeCLA(t, d, tc.cla, tc.ins, tc.p1, tc.p2, tc.data)
			require.Equal(t, tc.sw, sw, "got %s", sw)
			require.Empty(t, resp)
		})
	}
}

func TestMalformedFraming(t *testing.T) {
	d := newTestDevice(t)
	for _, raw := range [][]byte{
		{0xe0, 0x03},
		{0xe0, 0x03, 0x00, 0x00, 0x05, 0x01},
	} {
		sw, resp, err := d.Exchange(raw)
		require.NoError(t, err)
		require.Equal(t, uint16(apdu.SWWrongDataLength), sw)
		require.Empty(t, resp)
	}
}

func TestGetXPubVectors(t *testing.T) {
	d := newTestDevice(t)
	tests := []struct {
		path        string
		pubkey      string
		chain       string
		fingerprint string
	}{
		{
			path:        "m/44'/280'/0'/0/0",
			pubkey:      "04962e6c4afe696afa985363fb53bee05cd22463b1cb79bde72ffb8fbd029c6e7dd6469fb7bc5bdf9e362212434f581d882cbba2522e2a708340d2cba101c5e850",
			chain:       "0e0bc8953fc617b281ff16d51a771ceee6a20c6f2c3328d6094cb5ab720c5722",
			fingerprint: "4b38fea9",
		},
		{
			path:        "m/44'/280'/0'/0/10",
			pubkey:      "041e924ed93ca4395048a11007de661b9d16c42dbad3c01743ddd68d8919f945ae21ddb91d1ae45c86c2142bd789dc3628ae796c8fd693a0aa5bca487c60552c5b",
			chain:       "4a7617afbcbff5beed1b50811a4e07444199130e5da7038339ce4ffde9488da6",
			fingerprint: "4b38fea9",
		},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			sw, resp := exchange(t, d, apdu.InsGetXPub, 0, 0, pathBytes(t, tc.path))
			require.Equal(t, apdu.SWOK, sw)
			require.Len(t, resp, XPubLen)
			require.Equal(t, tc.pubkey, hexOf(resp[:65]))
			require.Equal(t, tc.chain, hexOf(resp[65:97]))
			require.Equal(t, tc.fingerprint, hexOf(resp[97:]))
		})
	}
}

func TestGetAddressVectors(t *testing.T) {
	d := newTestDevice(t)
	want := map[string]string{
		"m/44'/280'/0'/0/0": "HJYAnivCTdRtxcgeJW8pKk1y7przypne3C",
		"m/44'/280'/0'/0/1": "HAgKJhndq6LCd3qd5tRZC7ixFAk5AyXH2J",
		"m/44'/280'/0'/0/9": "HR3vvY4AktDo9EWBnvsqqfKeWttRWc1wUW",
	}
	for path, addr := range want {
		sw, resp := exchange(t, d, apdu.InsGetAddress, 0, 0, pathBytes(t, path))
		require.Equal(t, apdu.SWOK, sw)
		require.Len(t, resp, transaction.AddressLen)
		require.Equal(t, transaction.VersionP2PKH, resp[0])
		text, err := transaction.EncodeAddress(resp)
		require.NoError(t, err)
		require.Equal(t, addr, text, path)
	}
}

func TestPathPolicy(t *testing.T) {
	d := newTestDevice(t)
	tests := []struct {
		name string
		data []byte
		sw   apdu.StatusWord
	}{
		{"too deep", pathBytes(t, "m/44'/280'/0'/0/0/0"), apdu.SWWrongDataLength},
		{"wrong coin", pathBytes(t, "m/44'/0'/0'/0/0"), apdu.SWBOLOSPathPrefix},
		{"index ceiling", pathBytes(t, "m/44'/280'/0'/0/1048576"), apdu.SWWrongDataLength},
		{"trailing byte", append(pathBytes(t, "m/44'/280'/0'/0/0"), 0x00), apdu.SWWrongDataLength},
		{"truncated", pathBytes(t, "m/44'/280'/0'/0/0")[:10], apdu.SWWrongDataLength},
		{"empty path", []byte{0x00}, apdu.SWWrongDataLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, ins := range []apdu.Ins{apdu.InsGetAddress, apdu.InsGetXPub} {
				sw, _ := exchange(t, d, ins, 0, 0, tc.data)
				require.Equal(t, tc.sw, sw, "%s: got %s", ins, sw)
			}
		})
	}
}

func TestDeniedPrompts(t *testing.T) {
	var prompts []Prompt
	d := newTestDevice(t, WithConfirmer(ConfirmerFunc(func(p Prompt) bool {
		prompts = append(prompts, p)
		return false
	})))

	path := pathBytes(t, "m/44'/280'/0'/0/3")
	sw, resp := exchange(t, d, apdu.InsGetAddress, 0, 0, path)
	require.Equal(t, apdu.SWDeny, sw)
	require.Empty(t, resp)

	sw, _ = exchange(t, d, apdu.InsGetXPub, 0, 0, path)
	require.Equal(t, apdu.SWDeny, sw)

	sw, _ = exchange(t, d, apdu.InsResetTokenSignatures, 0, 0, nil)
	require.Equal(t, apdu.SWDeny, sw)

	require.Len(t, prompts, 3)
	require.Equal(t, PromptAddress, prompts[0].Kind)
	require.Equal(t, "HA8LYkjuoM5pYJMRowDRyxF7ynGrcZAXSJ", prompts[0].Address)
	require.True(t, prompts[0].Path.Equal(bip32.MustParse("m/44'/280'/0'/0/3")))
	require.Equal(t, PromptXPub, prompts[1].Kind)
	require.Equal(t, PromptResetTokenSignatures, prompts[2].Kind)
}

func TestExchangeIsNotReentrant(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	d := newTestDevice(t, WithConfirmer(ConfirmerFunc(func(p Prompt) bool {
		close(entered)
		<-release
		return true
	})))

	raw, err := apdu.Serialize(apdu.CLA, apdu.InsGetXPub, 0, 0, pathBytes(t, "m/44'/280'/0'"))
	require.NoError(t, err)
	done := make(chan uint16, 1)
	go func() {
		sw, _, _ := d.Exchange(raw)
		done <- sw
	}()

	<-entered
	sw, resp := exchange(t, d, apdu.InsGetVersion, 0, 0, nil)
	require.Equal(t, apdu.SWBadState, sw)
	require.Empty(t, resp)

	close(release)
	require.Equal(t, uint16(apdu.SWOK), <-done)

	sw, _ = exchange(t, d, apdu.InsGetVersion, 0, 0, nil)
	require.Equal(t, apdu.SWOK, sw)
}
