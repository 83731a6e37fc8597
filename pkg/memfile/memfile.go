// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package memfile models the master's EEPROM and FRAM memory as pages of
// bytes, read and written through the mastlink engine in 32-byte slices.
package memfile

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

// Executor issues commands against a master link. *mastlink.Engine satisfies
// this interface.
type Executor interface {
	DoCommand(ctx context.Context, spec *mastlink.CommandSpec, fields mastlink.Fields) (mastlink.Fields, error)
}

// Type selects which memory on the master is addressed.
type Type string

const (
	EEPROM Type = "E"
	FRAM   Type = "F"
)

// chunkSize is the largest slice the master reads or writes in one command.
const chunkSize = 32

// Basic action activating freshly written EEPROM configuration.
const (
	actionTypeSystem     = 200
	actionEepromActivate = 1
)

// Address identifies a byte range inside one memory page.
type Address struct {
	Page   int
	Offset int
	Length int
}

// MemoryFile represents one of the master's memories with a page cache.
// Reads are served from the cache once a page has been fetched; writes go
// through the cache and only send the 32-byte chunks that changed.
type MemoryFile struct {
	memType    Type
	executor   Executor
	pages      int
	pageLength int

	mu    sync.Mutex
	cache map[int][]byte
}

// New creates a memory file for the given memory type.
func New(memType Type, executor Executor) *MemoryFile {
	m := &MemoryFile{
		memType:    memType,
		executor:   executor,
		pageLength: 256,
		cache:      make(map[int][]byte),
	}
	switch memType {
	case EEPROM:
		m.pages = 512
	case FRAM:
		m.pages = 128
	}
	return m
}

// Read fetches the byte ranges for the given addresses.
func (m *MemoryFile) Read(ctx context.Context, addresses []Address) (map[Address][]byte, error) {
	result := make(map[Address][]byte, len(addresses))
	for _, address := range addresses {
		page, err := m.readPage(ctx, address.Page)
		if err != nil {
			return nil, err
		}
		if address.Offset+address.Length > len(page) {
			return nil, fmt.Errorf("address %+v exceeds page length %d", address, len(page))
		}
		data := make([]byte, address.Length)
		copy(data, page[address.Offset:address.Offset+address.Length])
		result[address] = data
	}
	return result, nil
}

// Write stores the given byte ranges, flushing only changed chunks.
func (m *MemoryFile) Write(ctx context.Context, data map[Address][]byte) error {
	for address, value := range data {
		if len(value) != address.Length {
			return fmt.Errorf("address %+v: got %d bytes", address, len(value))
		}
		page, err := m.readPage(ctx, address.Page)
		if err != nil {
			return err
		}
		updated := make([]byte, len(page))
		copy(updated, page)
		copy(updated[address.Offset:], value)
		if err := m.writePage(ctx, address.Page, page, updated); err != nil {
			return err
		}
	}
	return nil
}

// Activate applies written EEPROM configuration on the master and drops the
// cache, since activation may rewrite derived pages.
func (m *MemoryFile) Activate(ctx context.Context) error {
	_, err := m.executor.DoCommand(ctx, mastlink.BasicAction(), mastlink.Fields{
		"type":            actionTypeSystem,
		"action":          actionEepromActivate,
		"device_nr":       0,
		"extra_parameter": 0,
	})
	if err != nil {
		return err
	}
	m.InvalidateCache()
	return nil
}

// InvalidateCache drops all cached pages.
func (m *MemoryFile) InvalidateCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[int][]byte)
}

// InvalidatePage drops one cached page.
func (m *MemoryFile) InvalidatePage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, page)
}

func (m *MemoryFile) readPage(ctx context.Context, page int) ([]byte, error) {
	if page < 0 || page >= m.pages {
		return nil, fmt.Errorf("page %d out of range [0, %d)", page, m.pages)
	}
	m.mu.Lock()
	cached, ok := m.cache[page]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	data := make([]byte, 0, m.pageLength)
	for start := 0; start < m.pageLength; start += chunkSize {
		fields, err := m.executor.DoCommand(ctx, mastlink.MemoryRead(), mastlink.Fields{
			"type":   string(m.memType),
			"page":   page,
			"start":  start,
			"length": chunkSize,
		})
		if err != nil {
			return nil, fmt.Errorf("reading page %d at %d: %w", page, start, err)
		}
		chunk, ok := fields.Bytes("data")
		if !ok || len(chunk) != chunkSize {
			return nil, fmt.Errorf("reading page %d at %d: unexpected data length %d", page, start, len(chunk))
		}
		data = append(data, chunk...)
	}

	m.mu.Lock()
	m.cache[page] = data
	m.mu.Unlock()
	return data, nil
}

// writePage sends the chunks of updated that differ from current, then
// refreshes the cache.
func (m *MemoryFile) writePage(ctx context.Context, page int, current, updated []byte) error {
	for start := 0; start < m.pageLength; start += chunkSize {
		chunk := updated[start : start+chunkSize]
		if bytes.Equal(current[start:start+chunkSize], chunk) {
			continue
		}
		fields, err := m.executor.DoCommand(ctx, mastlink.MemoryWrite(chunkSize), mastlink.Fields{
			"type":  string(m.memType),
			"page":  page,
			"start": start,
			"data":  chunk,
		})
		if err != nil {
			return fmt.Errorf("writing page %d at %d: %w", page, start, err)
		}
		if result, ok := fields.String("result"); ok && result != "O" {
			return fmt.Errorf("writing page %d at %d: master reported %q", page, start, result)
		}
	}
	m.mu.Lock()
	m.cache[page] = updated
	m.mu.Unlock()
	return nil
}
