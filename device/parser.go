// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"hash"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/token"
	"github.com/hathornetwork/ledger-go/transaction"
)

// stage is where the streaming parser stands in the SIGN_TX payload.
type stage int

const (
	stageChange stage = iota
	stageChangeLegacy
	stageChangeCount
	stageChangeList
	stageHeader
	stageTokens
	stageInputs
	stageOutputs
	stageComplete
)

var stageNames = [...]string{
	stageChange:       "change",
	stageChangeLegacy: "legacy change",
	stageChangeCount:  "change count",
	stageChangeList:   "change list",
	stageHeader:       "header",
	stageTokens:       "tokens",
	stageInputs:       "inputs",
	stageOutputs:      "outputs",
	stageComplete:     "complete",
}

func (s stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// outputFunc is called once for every output as soon as its bytes are in.
type outputFunc func(index int, out transaction.Output, kind transaction.ScriptKind, scriptHash []byte) error

// symbolFunc resolves a registered custom token.
type symbolFunc func(uid token.UID) (string, bool)

// txParser consumes the change info and the transaction bytes chunk by chunk.
// Only the bytes of the element being decoded stay in the arena; everything
// consumed is hashed and dropped.
type txParser struct {
	paths        bip32.Policy
	maxTokens    int
	maxScriptLen int
	symbol       symbolFunc

	arena     []byte
	stage     stage
	remaining int // elements left in the current stage
	legacyTag uint8

	version    uint16
	numInputs  int
	numOutputs int
	tokens     []token.UID
	changes    []transaction.ChangeInfo
	outputs    int
	digest     hash.Hash
}

func newTxParser(cfg Config, symbol symbolFunc) *txParser {
	elem := 11 + cfg.MaxScriptLen
	for _, n := range []int{2 + 4*MaxPathDepth, transaction.InputLen, token.UIDLen} {
		elem = max(elem, n)
	}
	return &txParser{
		paths:        cfg.Paths,
		maxTokens:    cfg.MaxTokens,
		maxScriptLen: cfg.MaxScriptLen,
		symbol:       symbol,
		arena:        make([]byte, 0, apdu.MaxPayloadLen+elem),
		digest:       sha256.New(),
	}
}

// Done reports whether every output has been consumed.
func (p *txParser) Done() bool { return p.stage == stageComplete }

// Sighash is the SHA-256 of the transaction bytes. Valid once Done.
func (p *txParser) Sighash() []byte { return p.digest.Sum(nil) }

func (p *txParser) Inputs() int { return p.numInputs }

func (p *txParser) Outputs() int { return p.numOutputs }

// IsChange reports whether output index was declared as change.
func (p *txParser) IsChange(index int) bool {
	for _, c := range p.changes {
		if int(c.Index) == index {
			return true
		}
	}
	return false
}

// Displayed is the number of outputs the user reviews.
func (p *txParser) Displayed() int {
	n := p.numOutputs
	for i := 0; i < p.numOutputs; i++ {
		if p.IsChange(i) {
			n--
		}
	}
	return n
}

// Wipe zeroes the arena and forgets all progress.
func (p *txParser) Wipe() {
	clear(p.arena[:cap(p.arena)])
	p.arena = p.arena[:0]
	p.stage = stageChange
	p.remaining = 0
	p.tokens = nil
	p.changes = nil
	p.outputs = 0
	p.digest.Reset()
}

// Feed appends chunk and decodes every element it completes.
func (p *txParser) Feed(chunk []byte, onOutput outputFunc) error {
	if p.stage == stageComplete {
		return reject(apdu.SWWrongTxLength, errors.New("data after the last output"))
	}
	if len(p.arena)+len(chunk) > cap(p.arena) {
		return reject(apdu.SWWrongTxLength, errors.New("reassembly buffer overflow"))
	}
	p.arena = append(p.arena, chunk...)

	off := 0
	for p.stage != stageComplete {
		n, err := p.step(p.arena[off:], onOutput)
		if errors.Is(err, transaction.ErrShortBuffer) {
			break
		}
		if err != nil {
			return err
		}
		off += n
	}
	rest := copy(p.arena, p.arena[off:])
	clear(p.arena[rest:len(p.arena)])
	p.arena = p.arena[:rest]

	if p.stage == stageComplete && len(p.arena) > 0 {
		return rejectf(apdu.SWWrongTxLength, "%d bytes after the last output", len(p.arena))
	}
	return nil
}

// step decodes one element at the start of buf and returns its size.
// transaction.ErrShortBuffer asks for more data.
func (p *txParser) step(buf []byte, onOutput outputFunc) (int, error) {
	switch p.stage {
	case stageChange:
		if len(buf) < 1 {
			return 0, transaction.ErrShortBuffer
		}
		switch tag := buf[0]; {
		case tag == 0x00:
			p.stage = stageHeader
		case tag == transaction.ChangeListVersion:
			p.stage = stageChangeCount
		case tag&0x80 != 0:
			p.legacyTag = tag
			p.stage = stageChangeLegacy
		default:
			return 0, rejectf(apdu.SWTxParsingFail, "unknown change info version 0x%02x", tag)
		}
		return 1, nil

	case stageChangeLegacy:
		c, n, _, err := transaction.ReadLegacyChange(p.legacyTag, buf)
		if err != nil {
			if errors.Is(err, transaction.ErrShortBuffer) {
				return 0, err
			}
			return 0, reject(apdu.SWTxParsingFail, err)
		}
		if err := p.addChange(c); err != nil {
			return 0, err
		}
		p.stage = stageHeader
		return n, nil

	case stageChangeCount:
		if len(buf) < 1 {
			return 0, transaction.ErrShortBuffer
		}
		count := int(buf[0])
		if count > transaction.MaxChangeOutputs {
			return 0, rejectf(apdu.SWTxParsingFail, "%d change outputs", count)
		}
		p.remaining = count
		p.stage = stageChangeList
		if count == 0 {
			p.stage = stageHeader
		}
		return 1, nil

	case stageChangeList:
		c, n, err := transaction.ReadChange(buf, p.paths.MaxDepth)
		if err != nil {
			if errors.Is(err, transaction.ErrShortBuffer) {
				return 0, err
			}
			return 0, pathRejection(err)
		}
		if err := p.addChange(c); err != nil {
			return 0, err
		}
		if p.remaining--; p.remaining == 0 {
			p.stage = stageHeader
		}
		return n, nil

	case stageHeader:
		if len(buf) < transaction.HeaderLen {
			return 0, transaction.ErrShortBuffer
		}
		if err := p.header(buf[:transaction.HeaderLen]); err != nil {
			return 0, err
		}
		p.digest.Write(buf[:transaction.HeaderLen])
		return transaction.HeaderLen, nil

	case stageTokens:
		if len(buf) < token.UIDLen {
			return 0, transaction.ErrShortBuffer
		}
		var uid token.UID
		copy(uid[:], buf)
		p.tokens = append(p.tokens, uid)
		p.digest.Write(buf[:token.UIDLen])
		p.advance()
		return token.UIDLen, nil

	case stageInputs:
		if _, err := transaction.ReadInput(buf); err != nil {
			if errors.Is(err, transaction.ErrShortBuffer) {
				return 0, err
			}
			return 0, reject(apdu.SWTxParsingFail, err)
		}
		p.digest.Write(buf[:transaction.InputLen])
		p.advance()
		return transaction.InputLen, nil

	case stageOutputs:
		if err := p.peekScriptLen(buf); err != nil {
			return 0, err
		}
		out, n, err := transaction.ReadOutput(buf)
		if err != nil {
			if errors.Is(err, transaction.ErrShortBuffer) {
				return 0, err
			}
			return 0, reject(apdu.SWTxParsingFail, err)
		}
		kind, scriptHash, err := p.checkOutput(out)
		if err != nil {
			return 0, err
		}
		p.digest.Write(buf[:n])
		index := p.outputs
		p.outputs++
		p.advance()
		if onOutput != nil {
			if err := onOutput(index, out, kind, scriptHash); err != nil {
				return 0, err
			}
		}
		return n, nil
	}
	return 0, rejectf(apdu.SWBadState, "parser in stage %s", p.stage)
}

func (p *txParser) addChange(c transaction.ChangeInfo) error {
	if err := p.paths.Check(c.Path); err != nil {
		return pathRejection(err)
	}
	p.changes = append(p.changes, c)
	return nil
}

func (p *txParser) header(buf []byte) error {
	p.version = binary.BigEndian.Uint16(buf)
	numTokens, numInputs, numOutputs := int(buf[2]), int(buf[3]), int(buf[4])
	switch {
	case numTokens > p.maxTokens:
		return rejectf(apdu.SWTxParsingFail, "%d tokens, at most %d", numTokens, p.maxTokens)
	case numInputs == 0:
		return rejectf(apdu.SWTxParsingFail, "no inputs")
	case numOutputs == 0:
		return rejectf(apdu.SWTxParsingFail, "no outputs")
	}
	for _, c := range p.changes {
		if int(c.Index) >= numOutputs {
			return rejectf(apdu.SWTxParsingFail, "change index %d with %d outputs", c.Index, numOutputs)
		}
	}
	p.numInputs, p.numOutputs = numInputs, numOutputs
	p.tokens = make([]token.UID, 0, numTokens)
	p.stage, p.remaining = stageTokens, numTokens
	if numTokens == 0 {
		p.stage, p.remaining = stageInputs, numInputs
	}
	return nil
}

// advance moves to the next stage once the current list is exhausted.
func (p *txParser) advance() {
	if p.remaining--; p.remaining > 0 {
		return
	}
	switch p.stage {
	case stageTokens:
		p.stage, p.remaining = stageInputs, p.numInputs
	case stageInputs:
		p.stage, p.remaining = stageOutputs, p.numOutputs
	case stageOutputs:
		p.stage = stageComplete
	}
}

// peekScriptLen rejects an oversized script before its bytes arrive.
func (p *txParser) peekScriptLen(buf []byte) error {
	if len(buf) < 1 {
		return nil
	}
	valueLen := 4
	if buf[0]&0x80 != 0 {
		valueLen = 8
	}
	if len(buf) < valueLen+3 {
		return nil
	}
	if l := int(binary.BigEndian.Uint16(buf[valueLen+1:])); l > p.maxScriptLen {
		return rejectf(apdu.SWTxParsingFail, "script of %d bytes, at most %d", l, p.maxScriptLen)
	}
	return nil
}

func (p *txParser) checkOutput(out transaction.Output) (transaction.ScriptKind, []byte, error) {
	if out.Value <= 0 {
		return 0, nil, rejectf(apdu.SWTxParsingFail, "output %d: value %d", p.outputs, out.Value)
	}
	idx := int(out.TokenIndex())
	if idx > len(p.tokens) {
		return 0, nil, rejectf(apdu.SWTxParsingFail, "output %d: token index %d of %d", p.outputs, idx, len(p.tokens))
	}
	if idx > 0 {
		if _, ok := p.symbol(p.tokens[idx-1]); !ok {
			return 0, nil, rejectf(apdu.SWTxParsingFail, "output %d: token %s not registered", p.outputs, p.tokens[idx-1])
		}
	}
	kind, scriptHash, err := transaction.ParseScript(out.Script)
	if err != nil {
		return 0, nil, reject(apdu.SWTxParsingFail, err)
	}
	return kind, scriptHash, nil
}

// tokenSymbol resolves the symbol shown for an output.
func (p *txParser) tokenSymbol(out transaction.Output) string {
	idx := int(out.TokenIndex())
	if idx == 0 {
		return "HTR"
	}
	symbol, _ := p.symbol(p.tokens[idx-1])
	return symbol
}
