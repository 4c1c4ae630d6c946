// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

// Command hathor-ledger runs the emulated Hathor device and talks to devices
// running the Hathor application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/multierr"
	"gopkg.in/urfave/cli.v1"

	ledger "github.com/hathornetwork/ledger-go"
	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/client"
	"github.com/hathornetwork/ledger-go/config"
	"github.com/hathornetwork/ledger-go/device"
	"github.com/hathornetwork/ledger-go/logging"
	"github.com/hathornetwork/ledger-go/server"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	urlFlag = cli.StringFlag{
		Name:  "url",
		Usage: "emulator REST API, e.g. http://127.0.0.1:5000",
	}
	tcpFlag = cli.StringFlag{
		Name:  "tcp",
		Usage: "emulator APDU socket, e.g. 127.0.0.1:9999",
	}
	pathFlag = cli.StringFlag{
		Name:  "path",
		Usage: "BIP32 derivation path",
		Value: "m/44'/280'/0'/0/0",
	}
	levelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
	}
	transportFlags = []cli.Flag{urlFlag, tcpFlag}
)

var app = cli.App{
	Name:        filepath.Base(os.Args[0]),
	Usage:       "Hathor hardware wallet tooling",
	Version:     "1.0.0",
	Writer:      os.Stdout,
	HideVersion: true,
}

func init() {
	app.Flags = []cli.Flag{levelFlag}
	app.Before = func(ctx *cli.Context) error {
		if level := ctx.GlobalString(levelFlag.Name); level != "" {
			logging.SetLevel(level)
		}
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		_ = logging.Sync()
		return nil
	}
	app.CommandNotFound = func(ctx *cli.Context, cmd string) {
		fmt.Fprintf(os.Stderr, "No such command: %s\n", cmd)
		os.Exit(1)
	}
	app.Commands = []cli.Command{
		{
			Name:   "emulate",
			Usage:  "Serve an emulated device over HTTP and TCP",
			Action: emulate,
			Flags:  []cli.Flag{configFlag},
		},
		{
			Name:   "config",
			Usage:  "Print the effective configuration",
			Action: dumpConfig,
			Flags:  []cli.Flag{configFlag},
		},
		{
			Name:   "version",
			Usage:  "Print the application version",
			Action: withClient(version),
			Flags:  transportFlags,
		},
		{
			Name:   "app",
			Usage:  "Print the application name and version",
			Action: withClient(appAndVersion),
			Flags:  transportFlags,
		},
		{
			Name:   "address",
			Usage:  "Show the address of a path",
			Action: withClient(address),
			Flags:  append([]cli.Flag{pathFlag}, transportFlags...),
		},
		{
			Name:   "xpub",
			Usage:  "Show the extended public key of a path",
			Action: withClient(xpub),
			Flags:  append([]cli.Flag{pathFlag}, transportFlags...),
		},
		{
			Name:   "reset-tokens",
			Usage:  "Invalidate every token signature issued by the device",
			Action: withClient(resetTokens),
			Flags:  transportFlags,
		},
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func emulate(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.Logging.Level)

	devCfg, err := cfg.DeviceConfig()
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	log := logging.Named("emulator")
	dev, err := device.New(devCfg,
		device.WithStore(store),
		device.WithConfirmer(device.LoggingConfirmer(log, device.AutoApprove)),
	)
	if err != nil {
		return multierr.Append(err, store.Close())
	}
	defer dev.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(dev, cfg.ServerConfig()).Run(sigCtx)
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	return cfg.Write(os.Stdout)
}

// connect picks the emulator transport from the flags, or the first USB
// device when none is set.
func connect(ctx *cli.Context) (ledger.LedgerDevice, error) {
	switch {
	case ctx.String(urlFlag.Name) != "":
		return ledger.NewHTTPTransport(ctx.String(urlFlag.Name)), nil
	case ctx.String(tcpFlag.Name) != "":
		t, err := ledger.NewTCPTransport(ctx.String(tcpFlag.Name))
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return ledger.NewLedgerAdmin().Connect(0)
	}
}

func withClient(action func(*cli.Context, *client.Command) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		dev, err := connect(ctx)
		if err != nil {
			return err
		}
		defer dev.Close()
		return action(ctx, client.New(dev))
	}
}

func version(_ *cli.Context, cmd *client.Command) error {
	magic, major, minor, patch, err := cmd.GetVersion()
	if err != nil {
		return err
	}
	fmt.Printf("%s %d.%d.%d\n", magic, major, minor, patch)
	return nil
}

func appAndVersion(_ *cli.Context, cmd *client.Command) error {
	name, v, err := cmd.GetAppAndVersion()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", name, v)
	return nil
}

func address(ctx *cli.Context, cmd *client.Command) error {
	path, err := bip32.Parse(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	addr, err := cmd.GetAddress(path)
	if err != nil {
		return err
	}
	fmt.Println(addr)
	return nil
}

func xpub(ctx *cli.Context, cmd *client.Command) error {
	path, err := bip32.Parse(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	key, err := cmd.GetXPub(path)
	if err != nil {
		return err
	}
	fmt.Printf("public key:  %x\nchain code:  %x\nfingerprint: %x\n", key.PublicKey, key.ChainCode, key.Fingerprint)
	return nil
}

func resetTokens(_ *cli.Context, cmd *client.Command) error {
	if err := cmd.ResetTokenSignatures(); err != nil {
		return err
	}
	fmt.Println("token signatures reset")
	return nil
}
