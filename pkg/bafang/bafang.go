// Package bafang defines the records exchanged with Bafang style e-bike controllers and
// meters, their payload layouts, and the dispatch from a response command id to a decoder.
package bafang

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seagrayinc/bfble/internal/record"
)

var (
	ErrUnknownRecordType  = errors.New("bafang: unknown record type")
	ErrPartialUnsupported = errors.New("bafang: record type does not accept partial updates")
)

// RecordType is the command id selecting a record layout on the wire.
type RecordType byte

const (
	Config       RecordType = 0xA1
	CAN          RecordType = 0xA2
	Controller   RecordType = 0xA3
	Battery      RecordType = 0xA4
	Meter        RecordType = 0xA5
	Sensor       RecordType = 0xA7
	Personalized RecordType = 0xA9
)

var typeNames = map[RecordType]string{
	Config:       "config",
	CAN:          "can",
	Controller:   "controller",
	Battery:      "battery",
	Meter:        "meter",
	Sensor:       "sensor",
	Personalized: "personalized",
}

func (t RecordType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// ParseRecordType accepts a record name ("meter") or a hex id ("a5", "0xA5").
func ParseRecordType(s string) (RecordType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRecordType, s)
	}
	return RecordType(v), nil
}

// Record is a decoded payload. Records handed out by a session are snapshots: callers
// must Clone before changing one.
type Record interface {
	RecordType() RecordType
	Clone() Record
}

// SizeTable maps a record type to its full payload size.
type SizeTable map[RecordType]int

// DefaultSizes are the full payload sizes reported by current firmware.
func DefaultSizes() SizeTable {
	return SizeTable{
		Config:       237,
		CAN:          97,
		Controller:   237,
		Battery:      244,
		Meter:        198,
		Sensor:       164,
		Personalized: 115,
	}
}

// MaxReadLength is the largest length a single read request can ask for.
const MaxReadLength = 0xFF

// ReadLength is the request length for a full read of t, capped at MaxReadLength.
func (s SizeTable) ReadLength(t RecordType) (int, bool) {
	n, ok := s[t]
	if !ok {
		return 0, false
	}
	if n > MaxReadLength {
		n = MaxReadLength
	}
	return n, true
}

// Types lists the table's record types in id order.
func (s SizeTable) Types() []RecordType {
	out := make([]RecordType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type decoder struct {
	schema  *record.Schema
	newFunc func() Record
	partial bool
}

var decoders = map[RecordType]decoder{
	Controller:   {schema: controllerSchema, newFunc: func() Record { return &ControllerInfo{} }, partial: true},
	Meter:        {schema: meterSchema, newFunc: func() Record { return &MeterInfo{} }, partial: true},
	Personalized: {schema: personalizedSchema, newFunc: func() Record { return &PersonalizedInfo{} }},
}

// Schema returns the layout of t, if it has a structured one.
func Schema(t RecordType) (*record.Schema, bool) {
	d, ok := decoders[t]
	if !ok {
		return nil, false
	}
	return d.schema, true
}

// SupportsPartial reports whether single field updates can be applied to t.
func SupportsPartial(t RecordType) bool {
	return decoders[t].partial
}

// Decode builds a record from a full payload. Types without a layout but with a known
// id come back as RawInfo.
func Decode(t RecordType, payload []byte) (Record, error) {
	d, ok := decoders[t]
	if !ok {
		if _, known := typeNames[t]; known {
			return newRawInfo(t, payload), nil
		}
		return nil, fmt.Errorf("%w %s", ErrUnknownRecordType, t)
	}
	rec := d.newFunc()
	if err := d.schema.Decode(payload, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyPartial stores a single field update in rec, which must not be shared.
func ApplyPartial(rec Record, payload []byte, offset int) error {
	t := rec.RecordType()
	d, ok := decoders[t]
	if !ok {
		if _, known := typeNames[t]; known {
			return fmt.Errorf("%w: %s", ErrPartialUnsupported, t)
		}
		return fmt.Errorf("%w %s", ErrUnknownRecordType, t)
	}
	if !d.partial {
		return fmt.Errorf("%w: %s", ErrPartialUnsupported, t)
	}
	return d.schema.Apply(rec, payload, offset)
}

// Encode renders rec as a full payload.
func Encode(rec Record) ([]byte, error) {
	if raw, ok := rec.(*RawInfo); ok {
		return append([]byte(nil), raw.Payload...), nil
	}
	d, ok := decoders[rec.RecordType()]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownRecordType, rec.RecordType())
	}
	return d.schema.Encode(rec)
}
