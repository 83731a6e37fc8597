// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package memfile

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

// fakeExecutor emulates the master's memory commands against an in-memory
// page store and counts the commands it served.
type fakeExecutor struct {
	pages map[int][]byte

	reads       int
	writes      int
	activations int
	writeResult string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{pages: make(map[int][]byte), writeResult: "O"}
}

func (f *fakeExecutor) page(nr int) []byte {
	p, ok := f.pages[nr]
	if !ok {
		p = make([]byte, 256)
		f.pages[nr] = p
	}
	return p
}

func (f *fakeExecutor) DoCommand(ctx context.Context, spec *mastlink.CommandSpec, fields mastlink.Fields) (mastlink.Fields, error) {
	switch spec.Instruction() {
	case [2]byte{'M', 'R'}:
		f.reads++
		page, _ := fields.Int("page")
		start, _ := fields.Int("start")
		length, _ := fields.Int("length")
		data := make([]byte, length)
		copy(data, f.page(page)[start:start+length])
		return mastlink.Fields{"data": data}, nil

	case [2]byte{'M', 'W'}:
		f.writes++
		page, _ := fields.Int("page")
		start, _ := fields.Int("start")
		data, _ := fields.Bytes("data")
		copy(f.page(page)[start:], data)
		return mastlink.Fields{"result": f.writeResult}, nil

	case [2]byte{'B', 'A'}:
		f.activations++
		return mastlink.Fields{}, nil
	}
	return nil, fmt.Errorf("unexpected instruction %s", spec.Instruction())
}

func TestMemoryFile_ReadFetchesPageInChunks(t *testing.T) {
	executor := newFakeExecutor()
	page := executor.page(3)
	for i := range page {
		page[i] = byte(i)
	}

	m := New(EEPROM, executor)
	address := Address{Page: 3, Offset: 10, Length: 20}
	result, err := m.Read(context.Background(), []Address{address})
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	if executor.reads != 256/32 {
		t.Errorf("read commands = %d, want %d (one page in 32-byte chunks)", executor.reads, 256/32)
	}
	data := result[address]
	if len(data) != 20 || data[0] != 10 || data[19] != 29 {
		t.Errorf("data = % 02X, want bytes 10..29", data)
	}
}

func TestMemoryFile_ReadServedFromCache(t *testing.T) {
	executor := newFakeExecutor()
	m := New(FRAM, executor)
	address := Address{Page: 1, Offset: 0, Length: 8}

	if _, err := m.Read(context.Background(), []Address{address}); err != nil {
		t.Fatalf("first Read error: %v", err)
	}
	fetched := executor.reads

	if _, err := m.Read(context.Background(), []Address{address}); err != nil {
		t.Fatalf("second Read error: %v", err)
	}
	if executor.reads != fetched {
		t.Errorf("second read issued %d extra commands, want 0", executor.reads-fetched)
	}

	m.InvalidatePage(1)
	if _, err := m.Read(context.Background(), []Address{address}); err != nil {
		t.Fatalf("Read after invalidation error: %v", err)
	}
	if executor.reads == fetched {
		t.Error("invalidated page should be fetched again")
	}
}

func TestMemoryFile_WriteOnlyChangedChunks(t *testing.T) {
	executor := newFakeExecutor()
	m := New(EEPROM, executor)
	address := Address{Page: 0, Offset: 5, Length: 1}

	if err := m.Write(context.Background(), map[Address][]byte{address: {0xAA}}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if executor.writes != 1 {
		t.Errorf("write commands = %d, a one-byte change should flush one chunk", executor.writes)
	}
	if executor.page(0)[5] != 0xAA {
		t.Errorf("byte not written, page[5] = 0x%02X", executor.page(0)[5])
	}

	// Writing the same value again changes nothing and sends nothing.
	if err := m.Write(context.Background(), map[Address][]byte{address: {0xAA}}); err != nil {
		t.Fatalf("second Write error: %v", err)
	}
	if executor.writes != 1 {
		t.Errorf("write commands = %d after no-op write, want still 1", executor.writes)
	}
}

func TestMemoryFile_WriteSpanningChunks(t *testing.T) {
	executor := newFakeExecutor()
	m := New(EEPROM, executor)

	// 40 bytes starting at offset 30 touch chunks [0,32) and [32,64) and [64,96).
	value := bytes.Repeat([]byte{0x55}, 40)
	address := Address{Page: 2, Offset: 30, Length: 40}
	if err := m.Write(context.Background(), map[Address][]byte{address: value}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if executor.writes != 3 {
		t.Errorf("write commands = %d, want 3 touched chunks", executor.writes)
	}
}

func TestMemoryFile_WriteLengthMismatch(t *testing.T) {
	m := New(EEPROM, newFakeExecutor())
	address := Address{Page: 0, Offset: 0, Length: 4}
	if err := m.Write(context.Background(), map[Address][]byte{address: {1, 2}}); err == nil {
		t.Error("Write with mismatched value length expected error")
	}
}

func TestMemoryFile_WriteRejectedByMaster(t *testing.T) {
	executor := newFakeExecutor()
	executor.writeResult = "E"
	m := New(EEPROM, executor)

	address := Address{Page: 0, Offset: 0, Length: 1}
	if err := m.Write(context.Background(), map[Address][]byte{address: {1}}); err == nil {
		t.Error("Write expected error when the master rejects a chunk")
	}
}

func TestMemoryFile_PageOutOfRange(t *testing.T) {
	m := New(FRAM, newFakeExecutor())
	_, err := m.Read(context.Background(), []Address{{Page: 128, Offset: 0, Length: 1}})
	if err == nil {
		t.Error("FRAM has 128 pages, page 128 expected error")
	}
}

func TestMemoryFile_Activate(t *testing.T) {
	executor := newFakeExecutor()
	m := New(EEPROM, executor)
	address := Address{Page: 0, Offset: 0, Length: 1}

	if _, err := m.Read(context.Background(), []Address{address}); err != nil {
		t.Fatalf("Read error: %v", err)
	}
	fetched := executor.reads

	if err := m.Activate(context.Background()); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if executor.activations != 1 {
		t.Errorf("activations = %d, want 1", executor.activations)
	}

	// Activation may rewrite derived pages, so the cache is dropped.
	if _, err := m.Read(context.Background(), []Address{address}); err != nil {
		t.Fatalf("Read after Activate error: %v", err)
	}
	if executor.reads == fetched {
		t.Error("cache should be invalidated by Activate")
	}
}
