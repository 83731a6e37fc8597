// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"sync"
	"time"
)

// maxCallSamples caps the succeeded/timed-out timestamp sequences.
const maxCallSamples = 50

// statistics tracks call outcomes and byte counters for the engine.
type statistics struct {
	mu           sync.Mutex
	succeeded    []time.Time
	timedOut     []time.Time
	bytesWritten uint64
	bytesRead    uint64
	lastSuccess  time.Time
}

func (s *statistics) recordSuccess(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSuccess = now
	s.succeeded = appendCapped(s.succeeded, now)
}

func (s *statistics) recordTimeout(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timedOut = appendCapped(s.timedOut, now)
}

func appendCapped(samples []time.Time, t time.Time) []time.Time {
	samples = append(samples, t)
	if len(samples) > maxCallSamples {
		samples = samples[len(samples)-maxCallSamples:]
	}
	return samples
}

func (s *statistics) addBytesWritten(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesWritten += uint64(n)
}

func (s *statistics) addBytesRead(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesRead += uint64(n)
}

// Statistics is a point-in-time snapshot of the engine's communication
// health, used by health checks and incident tooling.
type Statistics struct {
	Succeeded    []time.Time
	TimedOut     []time.Time
	BytesWritten uint64
	BytesRead    uint64
	LastSuccess  time.Time
}

func (s *statistics) snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Statistics{
		Succeeded:    make([]time.Time, len(s.succeeded)),
		TimedOut:     make([]time.Time, len(s.timedOut)),
		BytesWritten: s.bytesWritten,
		BytesRead:    s.bytesRead,
		LastSuccess:  s.lastSuccess,
	}
	copy(out.Succeeded, s.succeeded)
	copy(out.TimedOut, s.timedOut)
	return out
}

// TimeSinceLastSuccess returns how long ago the last call succeeded, or zero
// if no call has succeeded yet.
func (s Statistics) TimeSinceLastSuccess() time.Duration {
	if s.LastSuccess.IsZero() {
		return 0
	}
	return time.Since(s.LastSuccess)
}
