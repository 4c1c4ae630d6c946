// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package config loads the TOML configuration of the emulator and the
// command line tool.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/device"
	"github.com/hathornetwork/ledger-go/server"
)

// Environment overrides.
const (
	EnvMnemonic = "HATHOR_LEDGER_MNEMONIC"
	EnvStorage  = "HATHOR_LEDGER_STORAGE"
	EnvLogLevel = "HATHOR_LEDGER_LOG_LEVEL"
)

type Config struct {
	Device  DeviceConfig  `toml:"device"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type DeviceConfig struct {
	Mnemonic   string `toml:"mnemonic"`
	Passphrase string `toml:"passphrase"`
	// Storage is the bbolt file holding the token secret. Empty keeps it in
	// memory.
	Storage string `toml:"storage"`
	Version string `toml:"version"`

	MaxPathDepth      int    `toml:"max_path_depth"`
	MaxPathIndex      uint32 `toml:"max_path_index"`
	MaxTokens         int    `toml:"max_tokens"`
	MaxScriptLen      int    `toml:"max_script_len"`
	SessionTimeoutSec int    `toml:"session_timeout_sec"`
}

type ServerConfig struct {
	HTTPAddr string `toml:"http_addr"`
	TCPAddr  string `toml:"tcp_addr"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig matches the Speculos defaults.
func DefaultConfig() *Config {
	dev := device.DefaultConfig()
	return &Config{
		Device: DeviceConfig{
			Mnemonic:          dev.Mnemonic,
			Version:           formatVersion(dev.Version),
			MaxPathDepth:      dev.Paths.MaxDepth,
			MaxPathIndex:      dev.Paths.MaxIndex,
			MaxTokens:         dev.MaxTokens,
			MaxScriptLen:      dev.MaxScriptLen,
			SessionTimeoutSec: int(dev.SessionTimeout / time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:5000",
			TCPAddr:  "127.0.0.1:9999",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies the environment. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("decode TOML: %w", err)
			}
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvMnemonic); v != "" {
		c.Device.Mnemonic = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Device.Storage = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if _, err := parseVersion(c.Device.Version); err != nil {
		return err
	}
	if c.Device.Mnemonic == "" {
		return errors.New("device.mnemonic is empty")
	}
	if c.Device.SessionTimeoutSec < 0 {
		return errors.New("device.session_timeout_sec must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	dev, err := c.DeviceConfig()
	if err != nil {
		return err
	}
	return dev.Validate()
}

// DeviceConfig converts the [device] table.
func (c *Config) DeviceConfig() (device.Config, error) {
	version, err := parseVersion(c.Device.Version)
	if err != nil {
		return device.Config{}, err
	}
	cfg := device.DefaultConfig()
	cfg.Mnemonic = c.Device.Mnemonic
	cfg.Passphrase = c.Device.Passphrase
	cfg.Version = version
	cfg.Paths = bip32.Policy{
		MaxDepth: c.Device.MaxPathDepth,
		Prefix:   bip32.HathorPrefix,
		MaxIndex: c.Device.MaxPathIndex,
	}
	cfg.MaxTokens = c.Device.MaxTokens
	cfg.MaxScriptLen = c.Device.MaxScriptLen
	cfg.SessionTimeout = time.Duration(c.Device.SessionTimeoutSec) * time.Second
	return cfg, nil
}

// OpenStore opens the configured secret store.
func (c *Config) OpenStore() (device.SecretStore, error) {
	if c.Device.Storage == "" {
		return device.NewMemoryStore(), nil
	}
	return device.OpenBoltStore(c.Device.Storage)
}

func (c *Config) ServerConfig() server.Config {
	return server.Config{HTTPAddr: c.Server.HTTPAddr, TCPAddr: c.Server.TCPAddr}
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func formatVersion(v [3]uint8) string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func parseVersion(s string) ([3]uint8, error) {
	var v [3]uint8
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("device.version %q is not major.minor.patch", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return v, fmt.Errorf("device.version %q: %w", s, err)
		}
		v[i] = uint8(n)
	}
	return v, nil
}
