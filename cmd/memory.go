// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/memfile"
)

var (
	memoryType string
	memoryPage int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Dump a page of EEPROM or FRAM memory",
	Long: `Read one full page of master memory and print it as a hex dump.

The master exposes its configuration EEPROM (512 pages) and FRAM
(128 pages) through the memory read command; pages are fetched in
32-byte slices.

Examples:
  mastlink memory --port /dev/ttyO5 --type E --page 0
  mastlink memory --port /dev/ttyO5 --type F --page 17`,
	RunE: runMemory,
}

func init() {
	memoryCmd.Flags().StringVar(&memoryType, "type", "E", "Memory type: E (EEPROM) or F (FRAM)")
	memoryCmd.Flags().IntVar(&memoryPage, "page", 0, "Page number")
	rootCmd.AddCommand(memoryCmd)
}

func runMemory(cmd *cobra.Command, args []string) error {
	var memType memfile.Type
	switch memoryType {
	case "E":
		memType = memfile.EEPROM
	case "F":
		memType = memfile.FRAM
	default:
		return fmt.Errorf("invalid memory type %q (use E or F)", memoryType)
	}

	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	fmt.Printf("Mastlink - Memory Dump\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Memory: %s page %d\n\n", memoryType, memoryPage)

	memory := memfile.New(memType, engine)
	data, err := memory.Read(context.Background(), []memfile.Address{
		{Page: memoryPage, Offset: 0, Length: 256},
	})
	if err != nil {
		return fmt.Errorf("memory read failed: %w", err)
	}

	page := data[memfile.Address{Page: memoryPage, Offset: 0, Length: 256}]
	for offset := 0; offset < len(page); offset += 16 {
		end := offset + 16
		if end > len(page) {
			end = len(page)
		}
		fmt.Printf("%04X  ", offset)
		for _, b := range page[offset:end] {
			fmt.Printf("%02X ", b)
		}
		fmt.Println()
	}
	return nil
}
