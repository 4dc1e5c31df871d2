// Package main is the entry point of ashcheck, a validator for YAML cache definitions.
package main

import (
	"context"
	"github.com/Borislavv/go-ash-registry/cmd/ashcheck/commands"
	"github.com/Borislavv/go-ash-registry/internal/telemetry"
	"github.com/rs/zerolog"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(telemetry.NewZerologHandler(
		zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	))

	cli := commands.New(logger)
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		logger.Error("ashcheck failed", "err", err)
		return 1
	}
	return 0
}
