// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"fmt"
	"strings"
	"time"
)

// Printable renders raw wire bytes with non-printable characters as hex,
// matching how frames are shown in logs and the debug window.
func Printable(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02X", c)
		}
	}
	return b.String()
}

// FormatFrame renders one decoded frame for raw logging.
func FormatFrame(f *Frame) string {
	result := fmt.Sprintf("%s cid=%d len=%d", f.Instruction[:], f.CID, len(f.Payload))
	if len(f.Payload) > 0 {
		result += "\n  Payload: " + hexDump(f.Payload)
	}
	return result + "\n"
}

func hexDump(data []byte) string {
	var b strings.Builder
	for i, c := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		}
		fmt.Fprintf(&b, "%02X ", c)
	}
	return b.String()
}

// FormatStatistics renders a statistics snapshot for the CLI.
func FormatStatistics(s Statistics) string {
	var b strings.Builder
	b.WriteString("=== Link statistics ===\n")
	fmt.Fprintf(&b, "Calls succeeded: %8d (last %d kept)\n", len(s.Succeeded), maxCallSamples)
	fmt.Fprintf(&b, "Calls timed out: %8d (last %d kept)\n", len(s.TimedOut), maxCallSamples)
	fmt.Fprintf(&b, "Bytes written:   %8d\n", s.BytesWritten)
	fmt.Fprintf(&b, "Bytes read:      %8d\n", s.BytesRead)
	if s.LastSuccess.IsZero() {
		b.WriteString("Last success:    never\n")
	} else {
		fmt.Fprintf(&b, "Last success:    %s (%s ago)\n",
			s.LastSuccess.Format("15:04:05.000"), s.TimeSinceLastSuccess().Round(time.Millisecond))
	}
	b.WriteString("=======================\n")
	return b.String()
}

// FormatDebugWindow renders the captured raw traffic for the CLI.
func FormatDebugWindow(d DebugSnapshot) string {
	var b strings.Builder
	b.WriteString("=== Debug window ===\n")
	b.WriteString("Written:\n")
	for _, entry := range d.Written {
		fmt.Fprintf(&b, "  [%s] %s\n", entry.At.Format("15:04:05.000"), Printable(entry.Data))
	}
	b.WriteString("Read:\n")
	for _, entry := range d.Read {
		fmt.Fprintf(&b, "  [%s] %s\n", entry.At.Format("15:04:05.000"), Printable(entry.Data))
	}
	b.WriteString("====================\n")
	return b.String()
}
