// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/transaction"
)

// XPubLen is pubkey(65) || chain code(32) || fingerprint(4).
const XPubLen = 65 + 32 + 4

var ErrMnemonic = errors.New("device: invalid mnemonic")

// XPub is the GET_XPUB answer.
type XPub struct {
	PublicKey   [65]byte
	ChainCode   [32]byte
	Fingerprint [4]byte
}

// MarshalBinary lays the fields out back to back.
func (x XPub) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, XPubLen)
	out = append(out, x.PublicKey[:]...)
	out = append(out, x.ChainCode[:]...)
	return append(out, x.Fingerprint[:]...), nil
}

// Keychain derives every key the device uses from one BIP32 master key.
type Keychain struct {
	master *hdkeychain.ExtendedKey
}

// NewKeychain builds the master key from a BIP39 mnemonic.
func NewKeychain(mnemonic, passphrase string) (*Keychain, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("device: master key: %w", err)
	}
	return &Keychain{master: master}, nil
}

func (k *Keychain) derive(path bip32.Path) (*hdkeychain.ExtendedKey, error) {
	key := k.master
	for _, c := range path {
		var err error
		if key, err = key.Derive(c); err != nil {
			return nil, fmt.Errorf("device: derive %s: %w", path, err)
		}
	}
	return key, nil
}

// XPub returns the uncompressed public key and chain code at path, and the
// fingerprint of its parent.
func (k *Keychain) XPub(path bip32.Path) (XPub, error) {
	var x XPub
	key, err := k.derive(path)
	if err != nil {
		return x, err
	}
	pub, err := key.ECPubKey()
	if err != nil {
		return x, err
	}
	copy(x.PublicKey[:], pub.SerializeUncompressed())
	copy(x.ChainCode[:], key.ChainCode())
	binary.BigEndian.PutUint32(x.Fingerprint[:], key.ParentFingerprint())
	return x, nil
}

// PubKeyHash is the hash160 of the compressed public key at path.
func (k *Keychain) PubKeyHash(path bip32.Path) ([]byte, error) {
	key, err := k.derive(path)
	if err != nil {
		return nil, err
	}
	pub, err := key.ECPubKey()
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pub.SerializeCompressed()), nil
}

// Address returns the raw P2PKH address at path.
func (k *Keychain) Address(path bip32.Path) ([]byte, error) {
	pkh, err := k.PubKeyHash(path)
	if err != nil {
		return nil, err
	}
	return transaction.AddressBytes(transaction.ScriptP2PKH, pkh), nil
}

// Sign produces a deterministic (RFC6979) DER signature of digest.
func (k *Keychain) Sign(path bip32.Path, digest []byte) ([]byte, error) {
	key, err := k.derive(path)
	if err != nil {
		return nil, err
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return ecdsa.Sign(priv, digest).Serialize(), nil
}
