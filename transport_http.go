// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/server"
)

// HTTPTransport posts APDUs to the REST API of an emulator.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport targets the emulator at baseURL, e.g. http://localhost:5000.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		url:    strings.TrimSuffix(baseURL, "/") + "/apdu",
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (t *HTTPTransport) Exchange(command []byte) (uint16, []byte, error) {
	body, err := json.Marshal(server.Message{Data: hex.EncodeToString(command)})
	if err != nil {
		return 0, nil, err
	}
	log.Debugf("[HTTP] => %x", command)
	resp, err := t.client.Post(t.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, nil, fmt.Errorf("emulator answered %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var msg server.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return 0, nil, fmt.Errorf("decode emulator answer: %w", err)
	}
	raw, err := hex.DecodeString(msg.Data)
	if err != nil {
		return 0, nil, fmt.Errorf("decode emulator answer: %w", err)
	}
	log.Debugf("[HTTP] <= %x", raw)

	sw, data, err := apdu.ParseResponse(raw)
	if err != nil {
		return 0, nil, err
	}
	return uint16(sw), data, nil
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
