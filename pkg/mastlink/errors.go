// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import "errors"

// Errors surfaced to callers of the engine.
var (
	// ErrCommunicationTimedOut is returned when no matching response arrived
	// within the request timeout. The caller decides whether to retry.
	ErrCommunicationTimedOut = errors.New("communication timed out")

	// ErrCIDExhausted is returned when all 254 usable correlation IDs are in
	// flight simultaneously. Fatal for the calling operation, not the engine.
	ErrCIDExhausted = errors.New("no correlation ID available")

	// ErrTransport wraps an underlying serial/socket I/O failure.
	ErrTransport = errors.New("transport error")

	// ErrEngineStopped is returned when a request is issued against an engine
	// that has not been started or has been stopped.
	ErrEngineStopped = errors.New("engine not running")

	// ErrPayloadTooLarge is returned when an encoded request payload exceeds
	// the profile's maximum frame size.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame size")
)

// Errors handled locally by the stream reassembler. They never propagate past
// the read loop; they only drive resynchronization.
var (
	errChecksumMismatch  = errors.New("checksum mismatch")
	errMalformedBoundary = errors.New("malformed frame boundary")
)
