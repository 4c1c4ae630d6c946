// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package transaction

import "github.com/hathornetwork/ledger-go/token"

// MaxChunkLen is the largest APDU payload.
const MaxChunkLen = 255

// Chunk is one SIGN_TX payload. Outputs counts the output records that end
// inside this chunk; the device asks for their review before answering.
type Chunk struct {
	Last    bool
	Data    []byte
	Outputs int
}

// Chunkify splits data in pieces of chunkLen bytes. A buffer of exactly
// chunkLen, or shorter, is a single final chunk.
func Chunkify(data []byte, chunkLen int) []Chunk {
	if chunkLen <= 0 {
		chunkLen = MaxChunkLen
	}
	if len(data) <= chunkLen {
		return []Chunk{{Last: true, Data: data}}
	}
	chunks := make([]Chunk, 0, (len(data)+chunkLen-1)/chunkLen)
	for off := 0; off < len(data); off += chunkLen {
		end := off + chunkLen
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, Chunk{Last: end == len(data), Data: data[off:end]})
	}
	return chunks
}

// ChunkOutputs prepends prefix (the change info) to the serialized tx and
// chunks the result, filling Outputs on every chunk.
func ChunkOutputs(prefix []byte, tx *Transaction, chunkLen int) ([]Chunk, error) {
	body, err := tx.SighashAllData()
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(prefix)+len(body))
	data = append(data, prefix...)
	data = append(data, body...)

	chunks := Chunkify(data, chunkLen)

	// end offsets of every output record inside data
	off := len(prefix) + HeaderLen + token.UIDLen*len(tx.Tokens) + InputLen*len(tx.Inputs)
	ends := make([]int, len(tx.Outputs))
	for i, o := range tx.Outputs {
		off += o.Len()
		ends[i] = off
	}

	start, next := 0, 0
	for i := range chunks {
		end := start + len(chunks[i].Data)
		for next < len(ends) && ends[next] <= end {
			chunks[i].Outputs++
			next++
		}
		start = end
	}
	return chunks, nil
}
