// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

// buildResponseFrame fabricates a complete response frame as the master
// would emit it.
func buildResponseFrame(p Profile, cid byte, instruction string, payload []byte) []byte {
	checked := []byte{cid, instruction[0], instruction[1], byte(len(payload) >> 8), byte(len(payload) & 0xFF)}
	checked = append(checked, payload...)

	frame := append([]byte{}, p.ResponseStart...)
	frame = append(frame, checked...)
	frame = append(frame, p.ChecksumMark, Checksum(checked))
	frame = append(frame, p.ResponseEnd...)
	return frame
}

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum_Empty(t *testing.T) {
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%02X, want 0x00", got)
	}
}

func TestChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{"single byte", []byte{0x42}, 0x42},
		{"sums bytes", []byte{0x01, 0x02, 0x03}, 0x06},
		{"wraps mod 256", []byte{0xFF, 0x02}, 0x01},
		{"ST header", []byte{5, 'S', 'T', 0, 0}, 0xAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.expected {
				t.Errorf("Checksum(% 02X) = 0x%02X, want 0x%02X", tt.data, got, tt.expected)
			}
		})
	}
}

// ============================================================
// EncodeFrame Tests
// ============================================================

func TestEncodeFrame_KnownVector(t *testing.T) {
	frame, err := EncodeFrame(CoreProfile(), 5, [2]byte{'S', 'T'}, nil)
	if err != nil {
		t.Fatalf("EncodeFrame error: %v", err)
	}

	expected := []byte("STR")
	expected = append(expected, 5, 'S', 'T', 0, 0, 'C', 0xAC)
	expected = append(expected, []byte("\r\n\r\n")...)
	if !bytes.Equal(frame, expected) {
		t.Errorf("frame mismatch:\n  got  % 02X\n  want % 02X", frame, expected)
	}
}

func TestEncodeFrame_WithPayload(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x00, 0x0A}
	frame, err := EncodeFrame(CoreProfile(), 8, [2]byte{'B', 'A'}, payload)
	if err != nil {
		t.Fatalf("EncodeFrame error: %v", err)
	}

	// Length field is big-endian and counts payload bytes only.
	if frame[6] != 0 || frame[7] != 4 {
		t.Errorf("length field = 0x%02X%02X, want 0x0004", frame[6], frame[7])
	}
	if !bytes.Equal(frame[8:12], payload) {
		t.Errorf("payload bytes = % 02X, want % 02X", frame[8:12], payload)
	}
}

func TestEncodeFrame_PayloadTooLarge(t *testing.T) {
	p := CoreProfile()
	payload := make([]byte, p.MaxFrameSize)
	_, err := EncodeFrame(p, 2, [2]byte{'M', 'W'}, payload)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

// ============================================================
// Header and Validation Tests
// ============================================================

func TestDecodeHeader(t *testing.T) {
	p := CoreProfile()
	frame := buildResponseFrame(p, 17, "MR", []byte{0xAA, 0xBB})

	header, ok := decodeHeader(p, frame)
	if !ok {
		t.Fatal("decodeHeader returned false for complete header")
	}
	if header.cid != 17 {
		t.Errorf("cid = %d, want 17", header.cid)
	}
	if header.instruction != [2]byte{'M', 'R'} {
		t.Errorf("instruction = %s, want MR", header.instruction[:])
	}
	if header.payloadLength != 2 {
		t.Errorf("payloadLength = %d, want 2", header.payloadLength)
	}
}

func TestDecodeHeader_Short(t *testing.T) {
	p := CoreProfile()
	if _, ok := decodeHeader(p, []byte("RTR\x05S")); ok {
		t.Error("decodeHeader should report false for a partial header")
	}
}

func TestValidateFrame(t *testing.T) {
	p := CoreProfile()
	valid := buildResponseFrame(p, 3, "BA", []byte{1, 2, 3})

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "valid frame",
			mutate:  func(f []byte) []byte { return f },
			wantErr: nil,
		},
		{
			name: "flipped payload bit",
			mutate: func(f []byte) []byte {
				f[9] ^= 0x01
				return f
			},
			wantErr: errChecksumMismatch,
		},
		{
			name: "flipped checksum",
			mutate: func(f []byte) []byte {
				f[len(f)-3] ^= 0xFF
				return f
			},
			wantErr: errChecksumMismatch,
		},
		{
			name: "wrong checksum marker",
			mutate: func(f []byte) []byte {
				f[len(f)-4] = 'X'
				return f
			},
			wantErr: errMalformedBoundary,
		},
		{
			name: "wrong end marker",
			mutate: func(f []byte) []byte {
				f[len(f)-1] = 'X'
				return f
			},
			wantErr: errMalformedBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.mutate(append([]byte{}, valid...))
			err := validateFrame(p, frame)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateFrame error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateFrame error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestPrintable(t *testing.T) {
	got := Printable([]byte("RTR\x05ST\x00\x00"))
	want := `RTR\x05ST\x00\x00`
	if got != want {
		t.Errorf("Printable = %q, want %q", got, want)
	}
}
