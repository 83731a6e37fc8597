// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

// newLogger builds the CLI logger feeding the engine's Logger interface.
// Verbose mode includes debug-level records (every frame written and read).
func newLogger() mastlink.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		Level(level).
		With().Timestamp().Logger()
	return &zerologAdapter{logger: zl}
}

// zerologAdapter satisfies mastlink.Logger with zerolog underneath.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a *zerologAdapter) Debug(msg string, args ...any) { a.emit(a.logger.Debug(), msg, args) }
func (a *zerologAdapter) Info(msg string, args ...any)  { a.emit(a.logger.Info(), msg, args) }
func (a *zerologAdapter) Warn(msg string, args ...any)  { a.emit(a.logger.Warn(), msg, args) }
func (a *zerologAdapter) Error(msg string, args ...any) { a.emit(a.logger.Error(), msg, args) }

// emit maps slog-style alternating key/value pairs onto zerolog fields.
func (a *zerologAdapter) emit(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "arg"
		}
		event = event.Interface(key, args[i+1])
	}
	event.Msg(msg)
}
