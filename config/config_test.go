// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"

	"github.com/hathornetwork/ledger-go/device"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{EnvMnemonic, EnvStorage, EnvLogLevel} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hathor.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	dev, err := cfg.DeviceConfig()
	require.NoError(t, err)
	require.Equal(t, device.DefaultConfig(), dev)
}

func TestLoadRejectsUnboundedPathDepth(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[device]
max_path_depth = 0
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "max path depth")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[device]
version = "2.1.3"
session_timeout_sec = 5
max_script_len = 64
storage = "/tmp/nvm.db"

[server]
http_addr = "0.0.0.0:5001"
tcp_addr = ""

[logging]
level = "debug"
`)
	clearEnv(t)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:5001", cfg.Server.HTTPAddr)
	require.Empty(t, cfg.Server.TCPAddr)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, device.SpeculosMnemonic, cfg.Device.Mnemonic, "defaults survive")

	dev, err := cfg.DeviceConfig()
	require.NoError(t, err)
	require.Equal(t, [3]uint8{2, 1, 3}, dev.Version)
	require.Equal(t, 5*time.Second, dev.SessionTimeout)
	require.Equal(t, 64, dev.MaxScriptLen)
	require.Equal(t, 5, dev.Paths.MaxDepth)

	srv := cfg.ServerConfig()
	require.Equal(t, "0.0.0.0:5001", srv.HTTPAddr)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	for name, body := range map[string]string{
		"syntax":        "[device\n",
		"version":       "[device]\nversion = \"1.0\"\n",
		"version range": "[device]\nversion = \"1.0.300\"\n",
		"level":         "[logging]\nlevel = \"loud\"\n",
		"timeout":       "[device]\nsession_timeout_sec = -1\n",
		"tokens":        "[device]\nmax_tokens = 0\n",
		"script":        "[device]\nmax_script_len = 10\n",
		"mnemonic":      "[device]\nmnemonic = \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			require.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvStorage, "/var/lib/hathor/nvm.db")
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/var/lib/hathor/nvm.db", cfg.Device.Storage)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestOpenStore(t *testing.T) {
	cfg := DefaultConfig()
	store, err := cfg.OpenStore()
	require.NoError(t, err)
	require.IsType(t, &device.MemoryStore{}, store)

	cfg.Device.Storage = filepath.Join(t.TempDir(), "nvm.db")
	store, err = cfg.OpenStore()
	require.NoError(t, err)
	require.IsType(t, &device.BoltStore{}, store)
	require.NoError(t, store.Close())
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultConfig().Write(&buf))

	var back Config
	_, err := toml.Decode(buf.String(), &back)
	require.NoError(t, err)
	require.Equal(t, *DefaultConfig(), back)
}
