// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mastlink

import (
	"fmt"
	"strconv"
	"strings"
)

// lengthRest marks a field consuming all remaining payload bytes. Such a
// field must be the last one in a field list.
const lengthRest = -1

// A Field describes one fixed-layout value inside a command payload. Fields
// translate between high-level values (ints, strings, byte slices) and their
// wire representation.
type Field interface {
	Name() string
	// Length returns the number of payload bytes the field occupies, or
	// lengthRest for a trailing variable-length field.
	Length() int
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// toInt normalizes the numeric types callers are likely to pass in Fields.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	}
	return 0, false
}

// ByteField is a single unsigned byte.
func ByteField(name string) Field { return &byteField{name: name} }

type byteField struct{ name string }

func (f *byteField) Name() string { return f.name }
func (f *byteField) Length() int  { return 1 }

func (f *byteField) Encode(value any) ([]byte, error) {
	v, ok := toInt(value)
	if !ok || v < 0 || v > 255 {
		return nil, fmt.Errorf("field %s: value %v out of limits 0 <= value <= 255", f.name, value)
	}
	return []byte{byte(v)}, nil
}

func (f *byteField) Decode(data []byte) (any, error) {
	return int(data[0]), nil
}

// CharField is a single ASCII character, handled as a one-byte string.
func CharField(name string) Field { return &charField{name: name} }

type charField struct{ name string }

func (f *charField) Name() string { return f.name }
func (f *charField) Length() int  { return 1 }

func (f *charField) Encode(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok || len(s) != 1 {
		return nil, fmt.Errorf("field %s: value %v must be a single-character string", f.name, value)
	}
	return []byte(s), nil
}

func (f *charField) Decode(data []byte) (any, error) {
	return string(data[:1]), nil
}

// WordField is a big-endian unsigned 16-bit integer.
func WordField(name string) Field { return &wordField{name: name} }

type wordField struct{ name string }

func (f *wordField) Name() string { return f.name }
func (f *wordField) Length() int  { return 2 }

func (f *wordField) Encode(value any) ([]byte, error) {
	v, ok := toInt(value)
	if !ok || v < 0 || v > 65535 {
		return nil, fmt.Errorf("field %s: value %v out of limits 0 <= value <= 65535", f.name, value)
	}
	return []byte{byte(v >> 8), byte(v & 0xFF)}, nil
}

func (f *wordField) Decode(data []byte) (any, error) {
	return int(data[0])<<8 | int(data[1]), nil
}

// Int32Field is a big-endian unsigned 32-bit integer.
func Int32Field(name string) Field { return &int32Field{name: name} }

type int32Field struct{ name string }

func (f *int32Field) Name() string { return f.name }
func (f *int32Field) Length() int  { return 4 }

func (f *int32Field) Encode(value any) ([]byte, error) {
	v, ok := toInt(value)
	if !ok || v < 0 || int64(v) > 0xFFFFFFFF {
		return nil, fmt.Errorf("field %s: value %v out of limits 0 <= value <= 2^32", f.name, value)
	}
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}, nil
}

func (f *int32Field) Decode(data []byte) (any, error) {
	return int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3]), nil
}

// ByteArrayField is a fixed-length raw byte sequence.
func ByteArrayField(name string, length int) Field {
	return &byteArrayField{name: name, length: length}
}

// RemainingBytesField is a trailing byte sequence consuming the rest of the
// payload, used where the response length depends on the request.
func RemainingBytesField(name string) Field {
	return &byteArrayField{name: name, length: lengthRest}
}

type byteArrayField struct {
	name   string
	length int
}

func (f *byteArrayField) Name() string { return f.name }
func (f *byteArrayField) Length() int  { return f.length }

func (f *byteArrayField) Encode(value any) ([]byte, error) {
	v, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("field %s: value %v must be a byte slice", f.name, value)
	}
	if f.length != lengthRest && len(v) != f.length {
		return nil, fmt.Errorf("field %s: need exactly %d bytes, got %d", f.name, f.length, len(v))
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (f *byteArrayField) Decode(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WordArrayField is a fixed-length sequence of big-endian 16-bit integers.
func WordArrayField(name string, words int) Field {
	return &wordArrayField{name: name, words: words}
}

type wordArrayField struct {
	name  string
	words int
}

func (f *wordArrayField) Name() string { return f.name }
func (f *wordArrayField) Length() int  { return f.words * 2 }

func (f *wordArrayField) Encode(value any) ([]byte, error) {
	v, ok := value.([]int)
	if !ok || len(v) != f.words {
		return nil, fmt.Errorf("field %s: value %v must be a slice of %d words", f.name, value, f.words)
	}
	out := make([]byte, 0, f.words*2)
	for _, item := range v {
		if item < 0 || item > 65535 {
			return nil, fmt.Errorf("field %s: item %d out of limits 0 <= item <= 65535", f.name, item)
		}
		out = append(out, byte(item>>8), byte(item&0xFF))
	}
	return out, nil
}

func (f *wordArrayField) Decode(data []byte) (any, error) {
	out := make([]int, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		out = append(out, int(data[i])<<8|int(data[i+1]))
	}
	return out, nil
}

// AddressField is a dotted module address such as "043.012.004.001", encoded
// as one byte per part with zero-padded decimal formatting on decode.
func AddressField(name string, length int) Field {
	return &addressField{name: name, length: length, format: "%03d"}
}

// VersionField is a three-part version such as "1.0.2".
func VersionField(name string) Field {
	return &addressField{name: name, length: 3, format: "%d"}
}

type addressField struct {
	name   string
	length int
	format string
}

func (f *addressField) Name() string { return f.name }
func (f *addressField) Length() int  { return f.length }

func (f *addressField) Encode(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("field %s: value %v must be a dotted string of %d parts", f.name, value, f.length)
	}
	parts := strings.Split(s, ".")
	if len(parts) != f.length {
		return nil, fmt.Errorf("field %s: value %q must have %d dot-separated parts", f.name, s, f.length)
	}
	out := make([]byte, 0, f.length)
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("field %s: part %q out of limits 0 <= part <= 255", f.name, part)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func (f *addressField) Decode(data []byte) (any, error) {
	parts := make([]string, 0, len(data))
	for _, b := range data {
		parts = append(parts, fmt.Sprintf(f.format, b))
	}
	return strings.Join(parts, "."), nil
}

// StringField is a null-terminated string consuming the rest of the payload.
func StringField(name string) Field { return &stringField{name: name} }

type stringField struct{ name string }

func (f *stringField) Name() string { return f.name }
func (f *stringField) Length() int  { return lengthRest }

func (f *stringField) Encode(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("field %s: value %v must be a string", f.name, value)
	}
	return append([]byte(s), 0), nil
}

func (f *stringField) Decode(data []byte) (any, error) {
	return strings.TrimRight(string(data), "\x00"), nil
}

// PaddingField is a run of ignored filler bytes.
func PaddingField(length int) Field { return &paddingField{length: length} }

type paddingField struct{ length int }

func (f *paddingField) Name() string { return "padding" }
func (f *paddingField) Length() int  { return f.length }

func (f *paddingField) Encode(any) ([]byte, error) {
	return make([]byte, f.length), nil
}

func (f *paddingField) Decode(data []byte) (any, error) {
	return nil, nil
}

// LiteralBytesField injects fixed bytes into a request. It takes no value and
// cannot be decoded; it is used to select sub-commands of an instruction.
func LiteralBytesField(data ...byte) Field { return &literalBytesField{data: data} }

type literalBytesField struct{ data []byte }

func (f *literalBytesField) Name() string { return "literal_bytes" }
func (f *literalBytesField) Length() int  { return len(f.data) }

func (f *literalBytesField) Encode(value any) ([]byte, error) {
	if value != nil {
		return nil, fmt.Errorf("literal bytes field does not support value encoding")
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (f *literalBytesField) Decode(data []byte) (any, error) {
	return nil, fmt.Errorf("literal bytes field does not support decoding")
}
