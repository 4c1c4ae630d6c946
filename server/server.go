// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package server exposes an APDU exchanger, usually the emulated device, over
// the HTTP and TCP interfaces of the Speculos emulator.
package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hathornetwork/ledger-go/apdu"
	"github.com/hathornetwork/ledger-go/logging"
)

// Exchanger answers one command APDU.
type Exchanger interface {
	Exchange(command []byte) (uint16, []byte, error)
}

// Config holds the listen addresses. An empty address disables its listener.
type Config struct {
	HTTPAddr string
	TCPAddr  string
}

// Message is the JSON body of POST /apdu in both directions.
type Message struct {
	Data string `json:"data"`
}

type Server struct {
	dev Exchanger
	cfg Config
	log *zap.SugaredLogger

	mu        sync.Mutex
	closed    bool
	http      *http.Server
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	handlers  sync.WaitGroup
}

func New(dev Exchanger, cfg Config) *Server {
	return &Server{
		dev:   dev,
		cfg:   cfg,
		log:   logging.Named("server"),
		conns: make(map[net.Conn]struct{}),
	}
}

// Handler routes POST /apdu and GET /health.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.POST("/apdu", s.handleAPDU)
	router.GET("/health", s.handleHealth)
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleAPDU(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}
	command, err := hex.DecodeString(req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hex: " + err.Error()})
		return
	}
	resp, err := s.exchange(command)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Message{Data: hex.EncodeToString(resp)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// exchange returns data || sw.
func (s *Server) exchange(command []byte) ([]byte, error) {
	sw, data, err := s.dev.Exchange(command)
	if err != nil {
		s.log.Errorw("exchange failed", "error", err)
		return nil, err
	}
	return apdu.Response(apdu.StatusWord(sw), data), nil
}

// Run serves the configured listeners until ctx is done or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
		if err != nil {
			return err
		}
		g.Go(func() error { return s.ServeAPI(ln) })
	}
	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			_ = s.Close()
			return err
		}
		g.Go(func() error { return s.ServeTCP(ln) })
	}

	g.Go(func() error {
		<-ctx.Done()
		return s.Close()
	})
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeAPI serves the HTTP API on ln until Close.
func (s *Server) ServeAPI(ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.http = srv
	s.mu.Unlock()

	s.log.Infow("http listening", "addr", ln.Addr().String())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops every listener, drops the open APDU connections and waits for
// their handlers to return. It reports all the errors met.
func (s *Server) Close() error {
	err := s.shutdown()
	s.handlers.Wait()
	return err
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	var err error
	if s.http != nil {
		err = multierr.Append(err, s.http.Close())
		s.http = nil
	}
	for _, ln := range s.listeners {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	s.listeners = nil
	for conn := range s.conns {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
		delete(s.conns, conn)
	}
	return err
}
