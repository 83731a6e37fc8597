// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"bytes"
	"errors"
)

// Reassembler reconstructs framed response messages from an unbounded,
// possibly corrupted byte stream. It owns a single growable buffer and runs
// the seek-start / read-header / read-body / validate sequence over it.
//
// On a corrupted candidate only the leading start marker is discarded and the
// remaining bytes are rescanned, so a valid frame packed directly behind a
// corrupted one is still delivered.
type Reassembler struct {
	profile Profile
	buf     []byte

	discardedBytes uint64
	checksumErrors uint64
	boundaryErrors uint64
	lengthErrors   uint64
}

// NewReassembler creates a reassembler for the given framing profile.
func NewReassembler(profile Profile) *Reassembler {
	return &Reassembler{profile: profile}
}

// Push appends data to the internal buffer and returns every complete,
// checksum-validated frame now available, in stream order. Invalid input
// never returns an error; it only drives resynchronization.
func (r *Reassembler) Push(data []byte) []*Frame {
	r.buf = append(r.buf, data...)

	var frames []*Frame
	headerLength := r.profile.responseHeaderLength()
	footerLength := r.profile.responseFooterLength()
	start := r.profile.ResponseStart

	for {
		idx := bytes.Index(r.buf, start)
		if idx < 0 {
			// No start marker. Keep only a tail that could be the prefix of
			// a marker split across reads; everything else cannot belong to
			// a valid frame.
			if keep := len(start) - 1; len(r.buf) > keep {
				r.discardedBytes += uint64(len(r.buf) - keep)
				r.buf = append(r.buf[:0], r.buf[len(r.buf)-keep:]...)
			}
			return frames
		}
		if idx > 0 {
			r.discardedBytes += uint64(idx)
			r.buf = append(r.buf[:0], r.buf[idx:]...)
		}

		header, ok := decodeHeader(r.profile, r.buf)
		if !ok {
			return frames // wait for more bytes
		}

		total := headerLength + header.payloadLength + footerLength
		if total > r.profile.MaxFrameSize {
			// A corrupted length field must not cause unbounded buffering.
			r.lengthErrors++
			r.resync()
			continue
		}
		if len(r.buf) < total {
			return frames // wait for the body
		}

		candidate := r.buf[:total]
		if err := validateFrame(r.profile, candidate); err != nil {
			if errors.Is(err, errMalformedBoundary) {
				r.boundaryErrors++
			} else {
				r.checksumErrors++
			}
			r.resync()
			continue
		}

		raw := make([]byte, total)
		copy(raw, candidate)
		frames = append(frames, &Frame{
			CID:         header.cid,
			Instruction: header.instruction,
			Payload:     raw[headerLength : headerLength+header.payloadLength],
			Raw:         raw,
		})
		r.buf = append(r.buf[:0], r.buf[total:]...)
	}
}

// resync drops only the leading start marker and rescans the remainder.
func (r *Reassembler) resync() {
	n := len(r.profile.ResponseStart)
	r.discardedBytes += uint64(n)
	r.buf = append(r.buf[:0], r.buf[n:]...)
}

// ReassemblyStats reports how much corruption the reassembler has recovered
// from since creation.
type ReassemblyStats struct {
	DiscardedBytes uint64
	ChecksumErrors uint64
	BoundaryErrors uint64
	LengthErrors   uint64
}

// Stats returns the current corruption counters.
func (r *Reassembler) Stats() ReassemblyStats {
	return ReassemblyStats{
		DiscardedBytes: r.discardedBytes,
		ChecksumErrors: r.checksumErrors,
		BoundaryErrors: r.boundaryErrors,
		LengthErrors:   r.lengthErrors,
	}
}

// Pending returns the number of bytes buffered but not yet consumed.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}
