// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	actionType      int
	actionNumber    int
	actionDeviceNr  int
	actionExtraParm int
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Execute a basic action on the master",
	Long: `Send one basic action to the master and print the acknowledged fields.

Basic actions are the master's generic control primitive: switching outputs,
dimming, moving shutters, arming inputs. The action type and number follow
the master's basic action table.

Examples:
  mastlink action --port /dev/ttyO5 --type 0 --action 1 --device 12
  mastlink action --port /dev/ttyO5 --type 0 --action 0 --device 12`,
	RunE: runAction,
}

func init() {
	actionCmd.Flags().IntVar(&actionType, "type", 0, "Action type")
	actionCmd.Flags().IntVar(&actionNumber, "action", 0, "Action number")
	actionCmd.Flags().IntVar(&actionDeviceNr, "device", 0, "Device number")
	actionCmd.Flags().IntVar(&actionExtraParm, "extra", 0, "Extra parameter")
	actionCmd.MarkFlagRequired("type")
	actionCmd.MarkFlagRequired("action")
	rootCmd.AddCommand(actionCmd)
}

func runAction(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	fmt.Printf("Mastlink - Basic Action\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	result, err := engine.DoBasicAction(context.Background(), actionType, actionNumber, actionDeviceNr, actionExtraParm)
	if err != nil {
		return fmt.Errorf("basic action failed: %w", err)
	}

	fmt.Printf("Acknowledged:\n")
	for _, name := range []string{"type", "action", "device_nr", "extra_parameter"} {
		if v, ok := result.Int(name); ok {
			fmt.Printf("  %-16s %d\n", name, v)
		}
	}
	return nil
}
