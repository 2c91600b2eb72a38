// Package record interprets static field tables that describe fixed binary layouts.
//
// A Schema is a list of Field descriptors (name, offset, size, kind). Decode walks the
// table over a full payload, Apply handles a single field update addressed by offset, and
// Encode produces the payload back from a struct. Values are moved into and out of the
// destination struct by field name, so a record type is just a plain struct plus its table.
package record

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrPayloadTooShort = errors.New("record: payload shorter than record size")
	ErrUnknownField    = errors.New("record: no field at offset")
	ErrSizeMismatch    = errors.New("record: payload size does not match field size")
)

// Kind is the primitive shape of a field on the wire.
type Kind uint8

const (
	KindASCII Kind = iota + 1
	KindU8
	KindU16
	KindU32
	KindBytes
	// KindInt16Array is Size/2 little-endian signed 16-bit values.
	KindInt16Array
	// KindTemperature is a u16 stored with a +40 bias.
	KindTemperature
	// KindMotorTemperature is KindTemperature where raw 0xFFFF or 0xFF means unavailable.
	KindMotorTemperature
)

// TemperatureUnavailable is reported by KindMotorTemperature fields when the sensor is absent.
const TemperatureUnavailable = 255

const temperatureBias = 40

var kindNames = map[Kind]string{
	KindASCII:            "ascii",
	KindU8:               "u8",
	KindU16:              "u16",
	KindU32:              "u32",
	KindBytes:            "bytes",
	KindInt16Array:       "int16[]",
	KindTemperature:      "temperature",
	KindMotorTemperature: "motor-temperature",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// fixedSize is the wire size implied by a kind, or 0 for kinds sized by the descriptor.
func (k Kind) fixedSize() int {
	switch k {
	case KindU8:
		return 1
	case KindU16, KindTemperature, KindMotorTemperature:
		return 2
	case KindU32:
		return 4
	}
	return 0
}

// Field describes one value in a record payload. Name is the Go struct field it maps to.
type Field struct {
	Name   string
	Offset int
	Size   int
	Kind   Kind
}

// U8, U16 and friends build descriptors whose size is implied by the kind.
func U8(name string, offset int) Field  { return Field{name, offset, 1, KindU8} }
func U16(name string, offset int) Field { return Field{name, offset, 2, KindU16} }
func U32(name string, offset int) Field { return Field{name, offset, 4, KindU32} }

func ASCII(name string, offset, size int) Field { return Field{name, offset, size, KindASCII} }
func Bytes(name string, offset, size int) Field { return Field{name, offset, size, KindBytes} }

func Int16Array(name string, offset, count int) Field {
	return Field{name, offset, count * 2, KindInt16Array}
}

func Temperature(name string, offset int) Field { return Field{name, offset, 2, KindTemperature} }

func MotorTemperature(name string, offset int) Field {
	return Field{name, offset, 2, KindMotorTemperature}
}

// Schema is an immutable, offset ordered field table for one record type.
type Schema struct {
	name     string
	size     int
	fields   []Field
	byOffset map[int]int
	byName   map[string]int
}

// NewSchema validates and orders fields. It panics on an inconsistent table since schemas
// are package level data and a bad one is a programming error.
func NewSchema(name string, size int, fields ...Field) *Schema {
	s := &Schema{
		name:     name,
		size:     size,
		fields:   append([]Field(nil), fields...),
		byOffset: make(map[int]int, len(fields)),
		byName:   make(map[string]int, len(fields)),
	}
	sort.SliceStable(s.fields, func(i, j int) bool { return s.fields[i].Offset < s.fields[j].Offset })

	end := 0
	for i, f := range s.fields {
		if f.Size <= 0 {
			panic(fmt.Sprintf("record: %s.%s has size %d", name, f.Name, f.Size))
		}
		if fs := f.Kind.fixedSize(); fs != 0 && fs != f.Size {
			panic(fmt.Sprintf("record: %s.%s kind %s needs size %d, has %d", name, f.Name, f.Kind, fs, f.Size))
		}
		if f.Kind == KindInt16Array && f.Size%2 != 0 {
			panic(fmt.Sprintf("record: %s.%s int16 array has odd size", name, f.Name))
		}
		if f.Offset < end {
			panic(fmt.Sprintf("record: %s.%s at %d overlaps previous field", name, f.Name, f.Offset))
		}
		if f.Offset+f.Size > size {
			panic(fmt.Sprintf("record: %s.%s runs past record size %d", name, f.Name, size))
		}
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("record: %s.%s declared twice", name, f.Name))
		}
		end = f.Offset + f.Size
		s.byOffset[f.Offset] = i
		s.byName[f.Name] = i
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Size is the full payload size of the record.
func (s *Schema) Size() int { return s.size }

// Fields returns a copy of the table in offset order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Lookup finds the field starting exactly at offset.
func (s *Schema) Lookup(offset int) (Field, bool) {
	i, ok := s.byOffset[offset]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Field finds a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}
