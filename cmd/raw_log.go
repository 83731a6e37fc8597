// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously reassemble and display master protocol frames as they arrive.

Shows each validated frame with timestamp, instruction, correlation ID and a
payload hex dump; corrupted input is reported via the resync counters.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Mastlink - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reassembler := mastlink.NewReassembler(mastlink.CoreProfile())
	buf := make([]byte, 512)
	var lastStats mastlink.ReassemblyStats

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}

		for _, frame := range reassembler.Push(buf[:n]) {
			fmt.Printf("[%s] %s", time.Now().Format("15:04:05.000"), mastlink.FormatFrame(frame))
		}
		if stats := reassembler.Stats(); stats != lastStats {
			fmt.Printf("[RESYNC] discarded=%d checksum_errors=%d boundary_errors=%d length_errors=%d\n",
				stats.DiscardedBytes, stats.ChecksumErrors, stats.BoundaryErrors, stats.LengthErrors)
			lastStats = stats
		}
	}
}
