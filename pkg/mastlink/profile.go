// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mastlink implements the serial command/response engine used to talk
// to a Mastlink hardware master over a single serial channel.
//
// The engine multiplexes concurrent logical requests onto one physical stream
// using correlation IDs, reassembles framed replies from an untrusted byte
// stream, and routes unsolicited push frames to background consumers.
package mastlink

import "time"

// Profile bundles the framing constants of one master hardware generation.
// The engine is generic over a profile so that one binary can drive several
// physical links (master bus, AIO bus) with different markers.
type Profile struct {
	RequestStart  []byte
	RequestEnd    []byte
	ResponseStart []byte
	ResponseEnd   []byte

	// ChecksumMark is the single byte preceding the checksum on the wire.
	ChecksumMark byte

	// MaxFrameSize caps the total frame length the reassembler will buffer.
	// A declared payload length pushing a frame beyond this is treated as
	// corruption, never allocated.
	MaxFrameSize int

	DefaultTimeout time.Duration
}

// CoreProfile returns the framing profile of the core master generation.
//
// Request:  "STR" + CID(1) + CMD(2) + LEN(2,BE) + PAYLOAD + 'C' + CKSUM(1) + "\r\n\r\n"
// Response: "RTR" + CID(1) + CMD(2) + LEN(2,BE) + PAYLOAD + 'C' + CKSUM(1) + "\r\n"
func CoreProfile() Profile {
	return Profile{
		RequestStart:   []byte("STR"),
		RequestEnd:     []byte("\r\n\r\n"),
		ResponseStart:  []byte("RTR"),
		ResponseEnd:    []byte("\r\n"),
		ChecksumMark:   'C',
		MaxFrameSize:   1024,
		DefaultTimeout: 2 * time.Second,
	}
}

// responseHeaderLength is start marker + CID (1) + instruction (2) + length (2).
func (p Profile) responseHeaderLength() int {
	return len(p.ResponseStart) + 1 + 2 + 2
}

// responseFooterLength is checksum marker (1) + checksum (1) + end marker.
func (p Profile) responseFooterLength() int {
	return 1 + 1 + len(p.ResponseEnd)
}

// maxPayloadSize is the largest payload that fits a response frame.
func (p Profile) maxPayloadSize() int {
	return p.MaxFrameSize - p.responseHeaderLength() - p.responseFooterLength()
}
