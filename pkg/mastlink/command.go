// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"fmt"
)

// Fields carries named command field values in both directions.
type Fields map[string]any

// Int extracts an int field value.
func (f Fields) Int(name string) (int, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// String extracts a string field value.
func (f Fields) String(name string) (string, bool) {
	v, ok := f[name].(string)
	return v, ok
}

// Bytes extracts a byte-slice field value.
func (f Fields) Bytes(name string) ([]byte, bool) {
	v, ok := f[name].([]byte)
	return v, ok
}

// CommandSpec defines the payload layout of one master instruction: how to
// serialize request fields and how to parse the response payload back into
// named fields.
type CommandSpec struct {
	instruction         [2]byte
	responseInstruction [2]byte
	requestFields       []Field
	responseFields      []Field
}

// NewCommand creates a CommandSpec for a two-character instruction.
func NewCommand(instruction string, requestFields, responseFields []Field) *CommandSpec {
	if len(instruction) != 2 {
		panic(fmt.Sprintf("mastlink: instruction %q must be two characters", instruction))
	}
	code := [2]byte{instruction[0], instruction[1]}
	return &CommandSpec{
		instruction:         code,
		responseInstruction: code,
		requestFields:       requestFields,
		responseFields:      responseFields,
	}
}

// WithResponseInstruction overrides the instruction expected on the reply,
// for the few commands whose answer carries a different code.
func (s *CommandSpec) WithResponseInstruction(instruction string) *CommandSpec {
	if len(instruction) != 2 {
		panic(fmt.Sprintf("mastlink: instruction %q must be two characters", instruction))
	}
	s.responseInstruction = [2]byte{instruction[0], instruction[1]}
	return s
}

// Instruction returns the request instruction code.
func (s *CommandSpec) Instruction() [2]byte { return s.instruction }

// ResponseInstruction returns the instruction code expected on the reply.
func (s *CommandSpec) ResponseInstruction() [2]byte { return s.responseInstruction }

// buildRequest serializes the request payload from the provided field values.
func (s *CommandSpec) buildRequest(fields Fields) ([]byte, error) {
	var payload []byte
	for _, field := range s.requestFields {
		data, err := field.Encode(fields[field.Name()])
		if err != nil {
			return nil, fmt.Errorf("instruction %s: %w", s.instruction[:], err)
		}
		payload = append(payload, data...)
	}
	return payload, nil
}

// consumeResponse parses a response payload into named fields. Parsing is
// lenient, matching the master's occasionally short replies: a truncated
// payload yields the fields decoded so far plus a non-nil error, and leftover
// bytes are reported the same way.
func (s *CommandSpec) consumeResponse(payload []byte) (Fields, error) {
	result := Fields{}
	for i, field := range s.responseFields {
		length := field.Length()
		if length == lengthRest {
			if i != len(s.responseFields)-1 {
				return result, fmt.Errorf("instruction %s: variable-length field %s is not last", s.instruction[:], field.Name())
			}
			length = len(payload)
		}
		if len(payload) < length {
			return result, fmt.Errorf("instruction %s: payload missing data for field %s", s.instruction[:], field.Name())
		}
		value, err := field.Decode(payload[:length])
		if err != nil {
			return result, fmt.Errorf("instruction %s: %w", s.instruction[:], err)
		}
		if value != nil {
			result[field.Name()] = value
		}
		payload = payload[length:]
	}
	if len(payload) != 0 {
		return result, fmt.Errorf("instruction %s: %d unconsumed payload bytes", s.instruction[:], len(payload))
	}
	return result, nil
}

// BuildResponse serializes a response payload from field values. Used by
// tests and simulators to fabricate master replies.
func (s *CommandSpec) BuildResponse(fields Fields) ([]byte, error) {
	var payload []byte
	for _, field := range s.responseFields {
		data, err := field.Encode(fields[field.Name()])
		if err != nil {
			return nil, fmt.Errorf("instruction %s: %w", s.instruction[:], err)
		}
		payload = append(payload, data...)
	}
	return payload, nil
}
