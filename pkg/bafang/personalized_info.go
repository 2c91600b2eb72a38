package bafang

import "github.com/seagrayinc/bfble/internal/record"

// PersonalizedSettingsOffset is where the writable personalized block starts.
const PersonalizedSettingsOffset = 0x41

// PersonalizedInfo holds rider tuning tables (0xA9).
type PersonalizedInfo struct {
	ControllerProtocolVersion uint8     `json:"controllerProtocolVersion"`
	MotorStartingAngle        [10]int16 `json:"motorStartingAngle"`
	AccelerationSettings      [10]byte  `json:"accelerationSettings"`
	GearSpeedLimit            [10]byte  `json:"gearSpeedLimit"`
	GearCurrentLimit          [10]byte  `json:"gearCurrentLimit"`
}

func (p *PersonalizedInfo) RecordType() RecordType { return Personalized }

func (p *PersonalizedInfo) Clone() Record {
	cp := *p
	return &cp
}

var personalizedSchema = record.NewSchema("personalized", 115,
	// 0..63 reserved
	record.U8("ControllerProtocolVersion", 64),
	record.Int16Array("MotorStartingAngle", PersonalizedSettingsOffset, 10),
	record.Bytes("AccelerationSettings", 85, 10),
	record.Bytes("GearSpeedLimit", 95, 10),
	record.Bytes("GearCurrentLimit", 105, 10),
)

// SettingsBlock encodes the writable tail of p, starting at PersonalizedSettingsOffset.
func (p *PersonalizedInfo) SettingsBlock() []byte {
	full, err := personalizedSchema.Encode(p)
	if err != nil {
		// the schema is static and matches the struct
		panic(err)
	}
	return full[PersonalizedSettingsOffset:]
}
