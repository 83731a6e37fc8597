// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import "sync"

// Correlation IDs 0 and 1 are reserved for broadcast/unsolicited traffic.
const (
	minCID = 2
	maxCID = 255
)

// cidPool hands out correlation IDs identifying in-flight requests. It scans
// cyclically through [2, 255] starting after the last issued ID, skipping IDs
// still in use.
type cidPool struct {
	mu    sync.Mutex
	last  int
	inUse map[byte]struct{}
}

func newCIDPool() *cidPool {
	return &cidPool{last: minCID - 1, inUse: make(map[byte]struct{})}
}

// allocate returns the first free correlation ID after the last issued one,
// or ErrCIDExhausted when all 254 usable IDs are in flight.
func (p *cidPool) allocate() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidate := p.last
	for i := 0; i < maxCID-minCID+1; i++ {
		candidate++
		if candidate > maxCID {
			candidate = minCID
		}
		if _, taken := p.inUse[byte(candidate)]; taken {
			continue
		}
		p.last = candidate
		p.inUse[byte(candidate)] = struct{}{}
		return byte(candidate), nil
	}
	return 0, ErrCIDExhausted
}

// release frees a correlation ID for reuse. Called exactly once per allocated
// ID, on both the success and timeout paths.
func (p *cidPool) release(id byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, id)
}

// inFlight reports the number of IDs currently allocated.
func (p *cidPool) inFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}
