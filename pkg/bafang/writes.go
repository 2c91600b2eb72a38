package bafang

import (
	"fmt"

	"github.com/seagrayinc/bfble/internal/record"
)

// Write is a field-level write ready to be framed: Payload goes to Offset of Type.
type Write struct {
	Type    RecordType
	Offset  int
	Payload []byte
}

type fieldKey struct {
	t    RecordType
	name string
}

type valueRange struct{ min, max int64 }

var writeRanges = map[fieldKey]valueRange{
	{Meter, "TotalGear"}:              {MeterMinTotalGear, MeterMaxTotalGear},
	{Meter, "SportModel"}:             {SportModelNormal, SportModelSport},
	{Meter, "BoostState"}:             {BoostOff, BoostOn},
	{Meter, "CurrentGear"}:            {MeterMinCurrentGear, MeterMaxCurrentGear},
	{Meter, "Light"}:                  {LightOff, LightOn},
	{Meter, "MaxAutoShutdown"}:        {MaxAutoShutdownMin, MaxAutoShutdownMax},
	{Meter, "UnitSwitch"}:             {UnitKMH, UnitMPH},
	{Controller, "TireCircumference"}: {0, 3000},
}

// FieldWrite encodes value for the named field of t, using the field's offset and width.
func FieldWrite(t RecordType, name string, value int64) (Write, error) {
	schema, ok := Schema(t)
	if !ok {
		return Write{}, fmt.Errorf("%w %s", ErrUnknownRecordType, t)
	}
	f, ok := schema.Field(name)
	if !ok {
		return Write{}, fmt.Errorf("%w: %s has no field %q", record.ErrUnknownField, t, name)
	}
	if r, ok := writeRanges[fieldKey{t, name}]; ok && (value < r.min || value > r.max) {
		return Write{}, fmt.Errorf("bafang: %s.%s must be within %d..%d, got %d", t, name, r.min, r.max, value)
	}
	payload, err := record.EncodeScalar(f, value)
	if err != nil {
		return Write{}, err
	}
	return Write{Type: t, Offset: f.Offset, Payload: payload}, nil
}

// SetLight switches the meter headlight.
func SetLight(on bool) Write {
	v := byte(LightOff)
	if on {
		v = LightOn
	}
	return Write{Type: Meter, Offset: MeterLightOffset, Payload: []byte{v}}
}

// SetPersonalizedSettings writes the tuning tables of p in one block.
func SetPersonalizedSettings(p *PersonalizedInfo) Write {
	return Write{Type: Personalized, Offset: PersonalizedSettingsOffset, Payload: p.SettingsBlock()}
}
