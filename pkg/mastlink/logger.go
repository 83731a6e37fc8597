// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import "log/slog"

// Logger is the interface for structured logging.
// It is compatible with *slog.Logger from the standard library; applications
// can provide their own implementation (the CLI wires a zerolog adapter).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger {
	return slog.Default()
}
