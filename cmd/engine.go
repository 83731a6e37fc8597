// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

// openEngine resolves the configuration, opens the connection and starts a
// master link engine on it. The caller stops the engine and closes the
// connection, in that order.
func openEngine() (*mastlink.Engine, Connection, string, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, nil, "", err
	}

	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return nil, nil, "", err
	}

	engine := mastlink.New(conn,
		mastlink.WithLogger(newLogger()),
		mastlink.WithDefaultTimeout(cfg.Timeout),
		mastlink.WithDebugWindow(cfg.DebugWindow),
	)
	if err := engine.Start(); err != nil {
		conn.Close()
		return nil, nil, "", err
	}

	return engine, conn, connInfo, nil
}
