// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package server

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/hathornetwork/ledger-go/apdu"
)

// maxFrame bounds a TCP command frame: a header and a full payload.
const maxFrame = apdu.HeaderLen + apdu.MaxPayloadLen

// ReadFrame reads one length prefixed frame.
func ReadFrame(r io.Reader, limit int) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if limit > 0 && n > uint32(limit) {
		return nil, fmt.Errorf("frame of %d bytes exceeds %d", n, limit)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteResponse writes len(data) || data || sw. The length does not count
// the status word.
func WriteResponse(w io.Writer, sw uint16, data []byte) error {
	out := make([]byte, 0, 4+len(data)+apdu.StatusLen)
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	out = binary.BigEndian.AppendUint16(out, sw)
	_, err := w.Write(out)
	return err
}

// WriteFrame writes len(payload) || payload.
func WriteFrame(w io.Writer, payload []byte) error {
	out := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(payload)), uint32(len(payload)))
	_, err := w.Write(append(out, payload...))
	return err
}

// ReadResponse reads a frame written by WriteResponse.
func ReadResponse(r io.Reader, limit int) (uint16, []byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if limit > 0 && n > uint32(limit) {
		return 0, nil, fmt.Errorf("response of %d bytes exceeds %d", n, limit)
	}
	buf := make([]byte, int(n)+apdu.StatusLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, nil, err
	}
	return binary.BigEndian.Uint16(buf[n:]), buf[:n], nil
}

// ServeTCP answers framed APDUs on every connection accepted from ln until
// Close.
func (s *Server) ServeTCP(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()

	s.log.Infow("apdu socket listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		go s.serveConn(conn)
	}
}

// track registers conn with the server, false once Close has started.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.handlers.Done()
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.untrack(conn)
	log := s.log.With("remote", conn.RemoteAddr().String())
	r := bufio.NewReader(conn)
	for {
		command, err := ReadFrame(r, maxFrame)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warnw("closing connection", "error", err)
			}
			return
		}
		sw, data, err := s.dev.Exchange(command)
		if err != nil {
			log.Errorw("exchange failed", "error", err)
			return
		}
		if err := WriteResponse(conn, sw, data); err != nil {
			log.Warnw("write failed", "error", err)
			return
		}
	}
}
