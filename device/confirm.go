// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// Forked from github.com/zondax/ledger-go
// Licensed under the Apache License, Version 2.0

package device

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/hathornetwork/ledger-go/bip32"
	"github.com/hathornetwork/ledger-go/token"
)

// PromptKind names the screen the user is asked to approve.
type PromptKind int

const (
	PromptAddress PromptKind = iota
	PromptXPub
	PromptOutput
	PromptTransaction
	PromptTokenData
	PromptResetTokenSignatures
)

var promptNames = [...]string{
	PromptAddress:              "address",
	PromptXPub:                 "xpub",
	PromptOutput:               "output",
	PromptTransaction:          "transaction",
	PromptTokenData:            "token data",
	PromptResetTokenSignatures: "reset token signatures",
}

func (k PromptKind) String() string {
	if int(k) < len(promptNames) {
		return promptNames[k]
	}
	return "prompt(" + strconv.Itoa(int(k)) + ")"
}

// OutputReview is what the device shows for one output of a transaction.
type OutputReview struct {
	// Index is one based and does not count change outputs.
	Index     int
	Total     int
	Address   string
	Symbol    string
	Amount    int64
	Authority bool
}

func (r OutputReview) String() string {
	value := FormatAmount(r.Amount) + " " + r.Symbol
	if r.Authority {
		value = "authority " + r.Symbol
	}
	return fmt.Sprintf("output %d/%d: %s to %s", r.Index, r.Total, value, r.Address)
}

// Prompt is one confirmation request. Only the fields of Kind are set.
type Prompt struct {
	Kind    PromptKind
	Path    bip32.Path
	Address string
	Output  *OutputReview
	Token   *token.Token
}

// Confirmer stands in for the buttons of the device. Confirm blocks until the
// user decides.
type Confirmer interface {
	Confirm(Prompt) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(Prompt) bool

func (f ConfirmerFunc) Confirm(p Prompt) bool { return f(p) }

// AutoApprove accepts every prompt.
var AutoApprove Confirmer = ConfirmerFunc(func(Prompt) bool { return true })

// LoggingConfirmer asks next and logs each prompt with its decision.
func LoggingConfirmer(log *zap.SugaredLogger, next Confirmer) Confirmer {
	return ConfirmerFunc(func(p Prompt) bool {
		ok := next.Confirm(p)
		switch {
		case p.Output != nil:
			log.Infow("confirm", "prompt", p.Kind, "review", p.Output.String(), "approved", ok)
		case p.Token != nil:
			log.Infow("confirm", "prompt", p.Kind, "symbol", p.Token.Symbol, "name", p.Token.Name, "approved", ok)
		case p.Path != nil:
			log.Infow("confirm", "prompt", p.Kind, "path", p.Path.String(), "address", p.Address, "approved", ok)
		default:
			log.Infow("confirm", "prompt", p.Kind, "approved", ok)
		}
		return ok
	})
}

// FormatAmount renders a value in hundredths, as the device displays it.
func FormatAmount(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole, cents := v/100, v%100
	s := strconv.FormatInt(whole, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return fmt.Sprintf("%s%s.%02d", sign, s, cents)
}
