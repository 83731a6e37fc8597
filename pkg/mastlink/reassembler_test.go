// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"bytes"
	"testing"
)

func TestReassembler_SingleFrame(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	frames := r.Push(buildResponseFrame(p, 7, "BA", []byte{1, 2}))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.CID != 7 {
		t.Errorf("CID = %d, want 7", f.CID)
	}
	if f.Instruction != [2]byte{'B', 'A'} {
		t.Errorf("instruction = %s, want BA", f.Instruction[:])
	}
	if !bytes.Equal(f.Payload, []byte{1, 2}) {
		t.Errorf("payload = % 02X, want 01 02", f.Payload)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", r.Pending())
	}
}

func TestReassembler_SplitAcrossPushes(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)
	frame := buildResponseFrame(p, 3, "ST", []byte{1, 0, 2, 0})

	var frames []*Frame
	for _, b := range frame {
		frames = append(frames, r.Push([]byte{b})...)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames from byte-at-a-time feed, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw, frame) {
		t.Errorf("raw bytes mismatch:\n  got  % 02X\n  want % 02X", frames[0].Raw, frame)
	}
}

func TestReassembler_GarbagePrefix(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	input := append([]byte("noise on the line"), buildResponseFrame(p, 2, "EV", []byte{0, 1, 0, 3, 0, 0, 0, 0})...)
	frames := r.Push(input)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if r.Stats().DiscardedBytes == 0 {
		t.Error("discarded bytes should be counted for the garbage prefix")
	}
}

func TestReassembler_CorruptedFrameThenValid(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	corrupted := buildResponseFrame(p, 4, "BA", []byte{9, 9})
	corrupted[len(corrupted)-3] ^= 0xFF // break the checksum
	valid := buildResponseFrame(p, 5, "BA", []byte{1, 1})

	// The valid frame sits directly behind the corrupted one; resync must
	// not swallow it.
	frames := r.Push(append(corrupted, valid...))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want the trailing valid frame", len(frames))
	}
	if frames[0].CID != 5 {
		t.Errorf("CID = %d, want 5", frames[0].CID)
	}

	stats := r.Stats()
	if stats.ChecksumErrors != 1 {
		t.Errorf("ChecksumErrors = %d, want 1", stats.ChecksumErrors)
	}
}

func TestReassembler_TwoFramesOnePush(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	input := append(buildResponseFrame(p, 2, "BA", nil), buildResponseFrame(p, 3, "ST", []byte{1, 0, 0, 0})...)
	frames := r.Push(input)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].CID != 2 || frames[1].CID != 3 {
		t.Errorf("frame order = %d, %d; want 2, 3", frames[0].CID, frames[1].CID)
	}
}

func TestReassembler_CorruptedLengthBounded(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	// A header declaring a payload beyond MaxFrameSize must be treated as
	// corruption, not buffered.
	bogus := append([]byte{}, p.ResponseStart...)
	bogus = append(bogus, 2, 'B', 'A', 0xFF, 0xFF)
	frames := r.Push(bogus)
	if len(frames) != 0 {
		t.Fatalf("got %d frames from bogus header", len(frames))
	}
	if r.Stats().LengthErrors != 1 {
		t.Errorf("LengthErrors = %d, want 1", r.Stats().LengthErrors)
	}

	// The link keeps working afterwards.
	frames = r.Push(buildResponseFrame(p, 6, "BA", nil))
	if len(frames) != 1 || frames[0].CID != 6 {
		t.Fatalf("expected recovery after length corruption, got %v", frames)
	}
}

func TestReassembler_KeepsPossibleMarkerTail(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)

	// "RT" could be the prefix of a marker split across reads.
	r.Push([]byte("garbage...RT"))
	if r.Pending() != len(p.ResponseStart)-1 {
		t.Errorf("Pending = %d, want %d", r.Pending(), len(p.ResponseStart)-1)
	}

	frames := r.Push(append([]byte("R"), buildResponseFrame(p, 9, "BA", nil)[3:]...))
	if len(frames) != 1 || frames[0].CID != 9 {
		t.Fatalf("marker split across pushes should still frame, got %v", frames)
	}
}

func TestReassembler_WaitsForBody(t *testing.T) {
	p := CoreProfile()
	r := NewReassembler(p)
	frame := buildResponseFrame(p, 8, "MR", []byte{'E', 0, 1, 0, 0xAB})

	if frames := r.Push(frame[:10]); len(frames) != 0 {
		t.Fatalf("incomplete frame must not be delivered, got %d frames", len(frames))
	}
	if r.Pending() != 10 {
		t.Errorf("Pending = %d, want 10", r.Pending())
	}
	frames := r.Push(frame[10:])
	if len(frames) != 1 {
		t.Fatalf("got %d frames after completing the body, want 1", len(frames))
	}
}
