// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package transform

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/lakegrid/internal/app"
	"github.com/specialistvlad/lakegrid/internal/cli"
	"github.com/specialistvlad/lakegrid/internal/ctxlog"
)

// Main is the body of the stage binaries: it parses args, loads the
// configuration and runs stage once.
func Main(ctx context.Context, stage string, args []string, outW io.Writer) error {
	flagSet := flag.NewFlagSet(strings.ReplaceAll(stage, "_", "-"), flag.ContinueOnError)
	flagSet.SetOutput(outW)
	configFlag := flagSet.String("config", "", "Path to the YAML configuration. Defaults to $"+EnvConfigPath+".")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}

	logFormat, logLevel, exitErr := cli.LogFlags(*logFormatFlag, *logLevelFlag)
	if exitErr != nil {
		return exitErr
	}
	ctx = ctxlog.WithLogger(ctx, app.NewLogger(logLevel, logFormat, outW).With("stage", stage))

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		return err
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	commit, err := runner.Stage(ctx, stage)
	if err != nil {
		return fmt.Errorf("stage %s failed: %w", stage, err)
	}
	ctxlog.FromContext(ctx).Info("Stage finished.", "version", commit.Version, "rows", commit.NumRows)
	return nil
}
