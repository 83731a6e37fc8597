// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"errors"
	"testing"
)

func TestCIDPool_SkipsReservedIDs(t *testing.T) {
	pool := newCIDPool()
	id, err := pool.allocate()
	if err != nil {
		t.Fatalf("allocate error: %v", err)
	}
	if id < minCID {
		t.Errorf("first allocation = %d, reserved IDs 0 and 1 must never be issued", id)
	}
}

func TestCIDPool_AllocatesExclusively(t *testing.T) {
	pool := newCIDPool()
	seen := make(map[byte]bool)
	for i := 0; i < 100; i++ {
		id, err := pool.allocate()
		if err != nil {
			t.Fatalf("allocate %d error: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("ID %d issued twice while still in flight", id)
		}
		seen[id] = true
	}
	if pool.inFlight() != 100 {
		t.Errorf("inFlight = %d, want 100", pool.inFlight())
	}
}

func TestCIDPool_CyclesAfterLastIssued(t *testing.T) {
	pool := newCIDPool()
	first, _ := pool.allocate()
	pool.release(first)

	// The scan continues after the last issued ID instead of reusing it
	// immediately, so a stale late reply cannot hit a fresh request.
	second, err := pool.allocate()
	if err != nil {
		t.Fatalf("allocate error: %v", err)
	}
	if second == first {
		t.Errorf("ID %d reused immediately after release", first)
	}
}

func TestCIDPool_WrapsAroundRange(t *testing.T) {
	pool := newCIDPool()
	var last byte
	for i := 0; i < maxCID-minCID+1; i++ {
		id, err := pool.allocate()
		if err != nil {
			t.Fatalf("allocate %d error: %v", i, err)
		}
		pool.release(id)
		last = id
	}
	if last != maxCID {
		t.Fatalf("expected scan to reach %d, got %d", maxCID, last)
	}

	id, err := pool.allocate()
	if err != nil {
		t.Fatalf("allocate after wrap error: %v", err)
	}
	if id != minCID {
		t.Errorf("after %d the scan should wrap to %d, got %d", maxCID, minCID, id)
	}
}

func TestCIDPool_Exhaustion(t *testing.T) {
	pool := newCIDPool()
	ids := make([]byte, 0, maxCID-minCID+1)
	for i := 0; i < maxCID-minCID+1; i++ {
		id, err := pool.allocate()
		if err != nil {
			t.Fatalf("allocate %d error: %v", i, err)
		}
		ids = append(ids, id)
	}

	if _, err := pool.allocate(); !errors.Is(err, ErrCIDExhausted) {
		t.Errorf("expected ErrCIDExhausted with all IDs in flight, got %v", err)
	}

	pool.release(ids[0])
	id, err := pool.allocate()
	if err != nil {
		t.Fatalf("allocate after release error: %v", err)
	}
	if id != ids[0] {
		t.Errorf("allocate = %d, want the released ID %d", id, ids[0])
	}
}
