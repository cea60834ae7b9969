package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pgtools/replctl/internal/cli"
	"github.com/pgtools/replctl/internal/config"
	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/repl"
	"github.com/pgtools/replctl/internal/util/signalctx"
)

// Exit codes are distinct per failure class so automation can tell "needs
// re-run" from "needs investigation".
const (
	exitGeneric  = 1
	exitConfig   = 2
	exitDatabase = 3
	exitRefused  = 4
	exitPartial  = 5
)

func main() {
	ctx, cancel, _ := signalctx.WithSignals(context.Background())
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "replctl: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var partial *repl.PartiallyReversedError
	var rewind *repl.RewindFailedError
	var reenable *repl.ReenableFailedError
	if errors.As(err, &partial) || errors.As(err, &rewind) || errors.As(err, &reenable) {
		return exitPartial
	}
	var unsafe *repl.UnsafeToReverseError
	var locked *repl.LockedError
	if errors.As(err, &unsafe) || errors.As(err, &locked) {
		return exitRefused
	}
	var cfg *config.ConfigurationError
	if errors.As(err, &cfg) {
		return exitConfig
	}
	var db *postgres.DBError
	if errors.As(err, &db) {
		return exitDatabase
	}
	return exitGeneric
}
