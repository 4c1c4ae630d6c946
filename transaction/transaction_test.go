// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package transaction

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/token"
)

func testScript() []byte {
	return P2PKHScript(bytes.Repeat([]byte{0xca, 0xfe}, 10))
}

func randomTx(r *rand.Rand) *Transaction {
	tx := &Transaction{Version: 1}
	for i := 0; i < 1+r.Intn(10); i++ {
		var uid token.UID
		r.Read(uid[:])
		tx.Tokens = append(tx.Tokens, uid)
	}
	for i := 0; i < 1+r.Intn(10); i++ {
		var in Input
		r.Read(in.TxID[:])
		in.Index = uint8(r.Intn(256))
		tx.Inputs = append(tx.Inputs, in)
	}
	for i := 0; i < 1+r.Intn(10); i++ {
		pkh := make([]byte, HashLen)
		r.Read(pkh)
		value := int64(1 + r.Intn(1<<30))
		if r.Intn(3) == 0 {
			value = int64(1)<<31 + r.Int63n(1<<40)
		}
		tx.Outputs = append(tx.Outputs, NewOutput(value, P2PKHScript(pkh), uint8(r.Intn(len(tx.Tokens)+1)), r.Intn(4) == 0))
	}
	return tx
}

func TestSerializeLayout(t *testing.T) {
	tx := New(1,
		[]token.UID{{}},
		[]Input{{Index: 0, Path: bip32.MustParse("m/44'/280'/0'/0/0")}},
		[]Output{NewOutput(100, testScript(), 0, false)},
	)
	raw, err := tx.Serialize()
	require.NoError(t, err)

	want := []byte{0x00, 0x01, 0x01, 0x01, 0x01}
	want = append(want, make([]byte, 32)...)                   // token
	want = append(want, make([]byte, 32)...)                   // tx_id
	want = append(want, 0x00, 0x00, 0x00)                      // index, data len
	want = append(want, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 25) // value, token data, script len
	want = append(want, testScript()...)
	require.Equal(t, want, raw)
}

func TestValueEncoding(t *testing.T) {
	tests := []struct {
		value int64
		len   int
	}{
		{100, 4},
		{-100, 8},
		{0x7FFFFFFF, 4},
		{0x80000000, 8},
		{1 << 40, 8},
	}
	for _, tt := range tests {
		raw := AppendValue(nil, tt.value)
		require.Len(t, raw, tt.len, "value %d", tt.value)

		o := NewOutput(tt.value, testScript(), 0, false)
		b, err := o.AppendBinary(nil)
		require.NoError(t, err)
		require.Len(t, b, tt.len+3+25)
	}

	for _, v := range []int64{1, 100, 0x7FFFFFFF, 0x80000000, 1 << 40, 1<<62 + 5} {
		raw := AppendValue(nil, v)
		got, n, err := ReadValue(raw)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(raw), n)
	}

	long := AppendValue(nil, 1<<40)
	require.NotZero(t, long[0]&0x80)
	neg := -(int64(1) << 40)
	require.Equal(t, uint64(neg), binary.BigEndian.Uint64(long))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		tx := randomTx(r)
		raw, err := tx.Serialize()
		require.NoError(t, err)

		decoded, err := Deserialize(raw)
		require.NoError(t, err)
		again, err := decoded.Serialize()
		require.NoError(t, err)
		require.Equal(t, raw, again)
	}
}

func TestDeserializeErrors(t *testing.T) {
	tx := New(1, nil, []Input{{}}, []Output{NewOutput(1, testScript(), 0, false)})
	raw, err := tx.Serialize()
	require.NoError(t, err)

	_, err = Deserialize(raw[:len(raw)-1])
	require.ErrorIs(t, err, ErrShortBuffer)

	_, err = Deserialize(append(append([]byte(nil), raw...), 0x00))
	require.ErrorIs(t, err, ErrTrailing)

	bad := append([]byte(nil), raw...)
	bad[HeaderLen+34] = 0x01 // data length of the input
	_, err = Deserialize(bad)
	require.ErrorIs(t, err, ErrInputData)

	_, err = Deserialize([]byte{0x00, 0x01})
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestTooMany(t *testing.T) {
	tx := New(1, make([]token.UID, 256), nil, nil)
	_, err := tx.Serialize()
	require.ErrorIs(t, err, ErrTooMany)
}

func TestSighashMemoized(t *testing.T) {
	tx := New(1, nil, []Input{{}}, []Output{NewOutput(5, testScript(), 0, false)})
	first, err := tx.SighashAllData()
	require.NoError(t, err)
	hash, err := tx.SighashAll()
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(first), hash)

	tx.Outputs[0].Value = 6
	first[0] = 0xff

	second, err := tx.SighashAllData()
	require.NoError(t, err)
	require.NotEqual(t, byte(0xff), second[0])

	fresh, err := tx.Serialize()
	require.NoError(t, err)
	require.NotEqual(t, fresh, second)

	hash2, err := tx.SighashAll()
	require.NoError(t, err)
	require.Equal(t, hash, hash2)
}

func TestChunkify(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, size := range []int{0, 1, 254, 255, 256, 510, 511, 1000} {
		for _, chunkLen := range []int{1, 7, 255} {
			data := make([]byte, size)
			r.Read(data)
			chunks := Chunkify(data, chunkLen)
			require.NotEmpty(t, chunks)

			joined := []byte{}
			for i, c := range chunks {
				joined = append(joined, c.Data...)
				last := i == len(chunks)-1
				require.Equal(t, last, c.Last)
				if !last {
					require.Len(t, c.Data, chunkLen)
				}
			}
			require.Equal(t, data, joined)
		}
	}

	require.Len(t, Chunkify(make([]byte, 255), 255), 1)
	require.Len(t, Chunkify(make([]byte, 510), 255), 2)
}

func TestChunkOutputs(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 30; i++ {
		tx := randomTx(r)
		prefix, err := EncodeChangeList(nil)
		require.NoError(t, err)

		chunks, err := ChunkOutputs(prefix, tx, MaxChunkLen)
		require.NoError(t, err)

		total := 0
		for _, c := range chunks {
			total += c.Outputs
		}
		require.Equal(t, len(tx.Outputs), total)
		require.True(t, chunks[len(chunks)-1].Last)
	}
}

func TestChunkOutputsSplitRecord(t *testing.T) {
	// one output of 32 bytes: header 5, one input 35, output starts at 40
	tx := New(1, nil, []Input{{}}, []Output{NewOutput(1, testScript(), 0, false)})
	chunks, err := ChunkOutputs(nil, tx, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 0, chunks[0].Outputs)
	require.Equal(t, 1, chunks[1].Outputs)
}

func TestChangeEncoding(t *testing.T) {
	path := bip32.MustParse("m/44'/280'/0'/1/2")
	c := ChangeInfo{Index: 3, Path: path}

	legacy, err := c.LegacyBytes()
	require.NoError(t, err)
	require.Equal(t, byte(0x85), legacy[0])
	require.Equal(t, byte(3), legacy[1])
	require.Len(t, legacy, 2+20)

	got, n, ok, err := ReadLegacyChange(legacy[0], legacy[1:])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 21, n)
	require.Equal(t, c, got)

	_, _, ok, err = ReadLegacyChange(0x00, nil)
	require.NoError(t, err)
	require.False(t, ok)

	list, err := EncodeChangeList([]ChangeInfo{c, {Index: 0, Path: path}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, list[:2])

	rec, n, err := ReadChange(list[2:], 5)
	require.NoError(t, err)
	require.Equal(t, 22, n)
	require.Equal(t, c, rec)

	_, _, err = ReadChange(list[2:10], 5)
	require.ErrorIs(t, err, ErrShortBuffer)

	_, err = EncodeChangeList(make([]ChangeInfo, 12))
	require.ErrorIs(t, err, ErrChangeInfo)

	none, err := EncodeChanges(nil, true)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, none)

	first, err := EncodeChanges([]ChangeInfo{c, {Index: 9, Path: path}}, true)
	require.NoError(t, err)
	require.Equal(t, legacy, first)
}

func TestScripts(t *testing.T) {
	pkh := bytes.Repeat([]byte{0x11}, HashLen)
	kind, hash, err := ParseScript(P2PKHScript(pkh))
	require.NoError(t, err)
	require.Equal(t, ScriptP2PKH, kind)
	require.Equal(t, pkh, hash)

	kind, hash, err = ParseScript(P2SHScript(pkh))
	require.NoError(t, err)
	require.Equal(t, ScriptP2SH, kind)
	require.Equal(t, pkh, hash)

	_, _, err = ParseScript([]byte{0x6a, 0x01, 0x02})
	require.ErrorIs(t, err, ErrScript)

	addr := Address(ScriptP2PKH, pkh)
	require.Equal(t, byte('H'), addr[0])
	version, decoded, err := DecodeAddress(addr)
	require.NoError(t, err)
	require.Equal(t, VersionP2PKH, version)
	require.Equal(t, pkh, decoded)

	raw := AddressBytes(ScriptP2PKH, pkh)
	require.Len(t, raw, AddressLen)
	enc, err := EncodeAddress(raw)
	require.NoError(t, err)
	require.Equal(t, addr, enc)
}
