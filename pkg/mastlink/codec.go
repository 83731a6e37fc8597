// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"bytes"
	"fmt"
)

// Frame is one complete, checksum-validated protocol message.
type Frame struct {
	CID         byte
	Instruction [2]byte
	Payload     []byte

	// Raw holds the full wire bytes including framing, kept for the debug
	// window and raw logging.
	Raw []byte
}

func (f *Frame) signature() signature {
	return signature{cid: f.CID, instruction: f.Instruction}
}

// signature is the routing key for decoded frames: correlation ID plus
// response instruction.
type signature struct {
	cid         byte
	instruction [2]byte
}

func (s signature) String() string {
	return fmt.Sprintf("%s.%d", s.instruction[:], s.cid)
}

// Checksum computes the additive mod-256 checksum over the checked payload
// region (CID + instruction + length + payload).
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// EncodeFrame builds a complete request frame for the given profile.
func EncodeFrame(p Profile, cid byte, instruction [2]byte, payload []byte) ([]byte, error) {
	if len(payload) > p.maxPayloadSize() {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	checked := make([]byte, 0, 5+len(payload))
	checked = append(checked, cid, instruction[0], instruction[1])
	checked = append(checked, byte(len(payload)>>8), byte(len(payload)&0xFF))
	checked = append(checked, payload...)

	frame := make([]byte, 0, len(p.RequestStart)+len(checked)+2+len(p.RequestEnd))
	frame = append(frame, p.RequestStart...)
	frame = append(frame, checked...)
	frame = append(frame, p.ChecksumMark, Checksum(checked))
	frame = append(frame, p.RequestEnd...)
	return frame, nil
}

// frameHeader holds the fixed-width fields parsed from a response frame.
type frameHeader struct {
	cid           byte
	instruction   [2]byte
	payloadLength int
}

// decodeHeader parses the fixed response header from the start of buf.
// Returns false if fewer than headerLength bytes are available.
func decodeHeader(p Profile, buf []byte) (frameHeader, bool) {
	if len(buf) < p.responseHeaderLength() {
		return frameHeader{}, false
	}
	base := len(p.ResponseStart)
	return frameHeader{
		cid:           buf[base],
		instruction:   [2]byte{buf[base+1], buf[base+2]},
		payloadLength: int(buf[base+3])<<8 | int(buf[base+4]),
	}, true
}

// validateFrame checks the boundaries and checksum of a complete candidate
// response frame. The candidate must be exactly one frame long.
func validateFrame(p Profile, candidate []byte) error {
	if !bytes.HasPrefix(candidate, p.ResponseStart) || !bytes.HasSuffix(candidate, p.ResponseEnd) {
		return errMalformedBoundary
	}
	footer := p.responseFooterLength()
	if candidate[len(candidate)-footer] != p.ChecksumMark {
		return errMalformedBoundary
	}
	checked := candidate[len(p.ResponseStart) : len(candidate)-footer]
	received := candidate[len(candidate)-footer+1]
	if expected := Checksum(checked); received != expected {
		return fmt.Errorf("%w: got 0x%02X, expected 0x%02X", errChecksumMismatch, received, expected)
	}
	return nil
}
