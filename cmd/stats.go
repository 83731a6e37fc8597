// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

var statsShowDebug bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Probe the master and print link statistics",
	Long: `Issue a firmware status request and print the link's communication
statistics. With --debug the raw traffic captured in the debug window is
included, which is the first thing to collect when diagnosing a flaky link.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsShowDebug, "debug", false, "Include the raw traffic debug window")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	fmt.Printf("Mastlink - Link Statistics\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	result, err := engine.DoCommand(context.Background(), mastlink.FirmwareStatus(), nil)
	switch {
	case err == nil:
		version, _ := result.String("version")
		mode, _ := result.Int("mode")
		fmt.Printf("Firmware: %s (mode %d)\n\n", version, mode)
	case errors.Is(err, mastlink.ErrCommunicationTimedOut):
		fmt.Printf("Firmware: status probe timed out\n\n")
	default:
		return fmt.Errorf("status probe failed: %w", err)
	}

	fmt.Print(mastlink.FormatStatistics(engine.Statistics()))
	if statsShowDebug {
		fmt.Println()
		fmt.Print(mastlink.FormatDebugWindow(engine.DebugWindow()))
	}
	return nil
}
