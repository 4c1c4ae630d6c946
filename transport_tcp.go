// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package ledger_go

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hathornetwork/ledger-go/server"
)

// maxResponse bounds the data of a framed response.
const maxResponse = 1 << 16

// TCPTransport speaks the length prefixed APDU socket protocol of Speculos.
type TCPTransport struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

func NewTCPTransport(addr string) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &TCPTransport{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (t *TCPTransport) Exchange(command []byte) (uint16, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log.Debugf("[TCP] => %x", command)
	if err := server.WriteFrame(t.conn, command); err != nil {
		return 0, nil, err
	}
	sw, data, err := server.ReadResponse(t.r, maxResponse)
	if err != nil {
		return 0, nil, err
	}
	log.Debugf("[TCP] <= %x%04x", data, sw)
	return sw, data, nil
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
