// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch unsolicited master events",
	Long: `Subscribe to the master's push traffic and print each event as it
arrives: output state changes, input presses, sensor reports, and bus
errors. Request/response traffic from other tools on the same link is
unaffected.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	fmt.Printf("Mastlink - Event Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	engine.RegisterBackgroundConsumer(mastlink.NewBackgroundConsumer(
		mastlink.EventInformation(), 0, func(fields mastlink.Fields) {
			event, err := mastlink.ParseEvent(fields)
			if err != nil {
				fmt.Printf("[%s] bad event: %v\n", time.Now().Format("15:04:05.000"), err)
				return
			}
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), event)
		}))

	engine.RegisterBackgroundConsumer(mastlink.NewBackgroundConsumer(
		mastlink.ErrorInformation(), 0, func(fields mastlink.Fields) {
			errType, _ := fields.Int("type")
			paramA, _ := fields.Int("parameter_a")
			paramB, _ := fields.Int("parameter_b")
			paramC, _ := fields.Int("parameter_c")
			fmt.Printf("[%s] ERROR type=%d a=%d b=%d c=%d\n",
				time.Now().Format("15:04:05.000"), errType, paramA, paramB, paramC)
		}))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	fmt.Println("\nExiting...")
	return nil
}
