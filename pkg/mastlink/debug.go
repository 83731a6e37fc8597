// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"sync"
	"time"
)

// DefaultDebugWindow is how long raw frame captures are retained.
const DefaultDebugWindow = 300 * time.Second

// DebugEntry is one raw frame captured on the wire.
type DebugEntry struct {
	At   time.Time
	Data []byte
}

// debugWindow keeps a time-bounded capture of raw written and read frames
// for postmortem debugging. Entries older than the window are pruned on
// every record and snapshot.
type debugWindow struct {
	mu      sync.Mutex
	window  time.Duration
	written []DebugEntry
	read    []DebugEntry
}

func newDebugWindow(window time.Duration) *debugWindow {
	if window <= 0 {
		window = DefaultDebugWindow
	}
	return &debugWindow{window: window}
}

func (d *debugWindow) recordWrite(data []byte, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.written = appendPruned(d.written, data, now, d.window)
}

func (d *debugWindow) recordRead(data []byte, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.read = appendPruned(d.read, data, now, d.window)
}

func appendPruned(entries []DebugEntry, data []byte, now time.Time, window time.Duration) []DebugEntry {
	captured := make([]byte, len(data))
	copy(captured, data)
	entries = append(entries, DebugEntry{At: now, Data: captured})
	return prune(entries, now, window)
}

func prune(entries []DebugEntry, now time.Time, window time.Duration) []DebugEntry {
	threshold := now.Add(-window)
	cut := 0
	for cut < len(entries) && entries[cut].At.Before(threshold) {
		cut++
	}
	return entries[cut:]
}

// DebugSnapshot holds the raw frames captured within the debug window.
type DebugSnapshot struct {
	Written []DebugEntry
	Read    []DebugEntry
}

func (d *debugWindow) snapshot(now time.Time) DebugSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.written = prune(d.written, now, d.window)
	d.read = prune(d.read, now, d.window)
	out := DebugSnapshot{
		Written: make([]DebugEntry, len(d.written)),
		Read:    make([]DebugEntry, len(d.read)),
	}
	copy(out.Written, d.written)
	copy(out.Read, d.read)
	return out
}
