// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Package logging builds the zap loggers shared by the transports, the
// emulated device and the command line tool.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLevel names the environment variable read at start up.
const EnvLevel = "HATHOR_LEDGER_LOG_LEVEL"

var (
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
	root  *zap.Logger
)

func init() {
	initLogger()
}

func initLogger() {
	SetLevel(getLogLevel())

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = level

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	root = logger
}

func getLogLevel() string {
	lvl := os.Getenv(EnvLevel)
	if lvl == "" {
		lvl = "info"
	}
	return strings.ToLower(lvl)
}

// SetLevel changes the level of every logger handed out by this package.
// Unknown names fall back to info.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "warn":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
}

// Level returns the current level name.
func Level() string {
	return level.Level().String()
}

// Named returns a sugared logger tagged with the component name.
func Named(name string) *zap.SugaredLogger {
	return root.Named(name).Sugar()
}

// Sync flushes buffered entries.
func Sync() error {
	return root.Sync()
}
