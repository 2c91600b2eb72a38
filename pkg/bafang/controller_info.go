package bafang

import "github.com/seagrayinc/bfble/internal/record"

// ControllerInfo is the motor controller telemetry and settings block (0xA3).
type ControllerInfo struct {
	HardVersion  string `json:"hardVersion"`
	SoftVersion  string `json:"softVersion"`
	Model        string `json:"model"`
	SN           string `json:"sn"`
	CustomerNo   string `json:"customerNo"`
	Manufacturer string `json:"manufacturer"`

	SOC              uint16 `json:"soc"`
	SingleMileage    uint16 `json:"singleMileage"`
	TotalMileage     uint16 `json:"totalMileage"`
	RemainingMileage uint16 `json:"remainingMileage"`
	Cadence          uint16 `json:"cadence"`
	Moment           uint16 `json:"moment"`
	Speed            uint16 `json:"speed"`
	ElectricCurrent  uint16 `json:"electricCurrent"`
	Voltage          uint16 `json:"voltage"`

	// Degrees Celsius. MotorTemperature is record.TemperatureUnavailable without a sensor.
	ControllerTemperature int `json:"controllerTemperature"`
	MotorTemperature      int `json:"motorTemperature"`

	BoostState                   uint16 `json:"boostState"`
	SpeedLimit                   uint16 `json:"speedLimit"`
	WheelDiameter                uint16 `json:"wheelDiameter"`
	TireCircumference            uint16 `json:"tireCircumference"`
	Calories                     uint16 `json:"calories"`
	CurrentGear                  uint16 `json:"currentGear"`
	TotalGear                    uint16 `json:"totalGear"`
	WheelSpeed                   uint16 `json:"wheelSpeed"`
	WheelCounter                 uint16 `json:"wheelCounter"`
	LastTestSensorTime           uint16 `json:"lastTestSensorTime"`
	CrankCadencePulseCounter     uint16 `json:"crankCadencePulseCounter"`
	MotorVariableSpeedMasterGear uint16 `json:"motorVariableSpeedMasterGear"`
	MotorSpeedCurrentGear        uint16 `json:"motorSpeedCurrentGear"`

	CruiseControl        uint8  `json:"cruiseControl"`
	BootDefaultGear      uint8  `json:"bootDefaultGear"`
	BootDefaultGearValue uint8  `json:"bootDefaultGearValue"`
	MotorStartingAngle   uint16 `json:"motorStartingAngle"`
	AccelerationSettings uint8  `json:"accelerationSettings"`

	GearSpeedLimit   [10]byte `json:"gearSpeedLimit"`
	GearCurrentLimit [10]byte `json:"gearCurrentLimit"`

	BuzzerSwitch              uint8 `json:"buzzerSwitch"`
	ControllerProtocolVersion uint8 `json:"controllerProtocolVersion"`
}

func (c *ControllerInfo) RecordType() RecordType { return Controller }

func (c *ControllerInfo) Clone() Record {
	cp := *c
	return &cp
}

// identityFields are the version and identification strings shared by controller and meter.
func identityFields() []record.Field {
	return []record.Field{
		record.ASCII("HardVersion", 0, 24),
		record.ASCII("SoftVersion", 24, 24),
		record.ASCII("Model", 48, 24),
		record.ASCII("SN", 72, 40),
		record.ASCII("CustomerNo", 112, 16),
		record.ASCII("Manufacturer", 128, 16),
		// 144..159 reserved
	}
}

var controllerSchema = record.NewSchema("controller", 237, append(identityFields(),
	record.U16("SOC", 160),
	record.U16("SingleMileage", 162),
	record.U16("TotalMileage", 164),
	record.U16("RemainingMileage", 166),
	record.U16("Cadence", 168),
	record.U16("Moment", 170),
	record.U16("Speed", 172),
	record.U16("ElectricCurrent", 174),
	record.U16("Voltage", 176),
	record.Temperature("ControllerTemperature", 178),
	record.MotorTemperature("MotorTemperature", 180),
	record.U16("BoostState", 182),
	record.U16("SpeedLimit", 184),
	record.U16("WheelDiameter", 186),
	record.U16("TireCircumference", 188),
	record.U16("Calories", 190),
	record.U16("CurrentGear", 192),
	record.U16("TotalGear", 194),
	record.U16("WheelSpeed", 196),
	record.U16("WheelCounter", 198),
	record.U16("LastTestSensorTime", 200),
	record.U16("CrankCadencePulseCounter", 202),
	record.U16("MotorVariableSpeedMasterGear", 204),
	record.U16("MotorSpeedCurrentGear", 206),
	record.U8("CruiseControl", 208),
	record.U8("BootDefaultGear", 209),
	record.U8("BootDefaultGearValue", 210),
	record.U16("MotorStartingAngle", 211),
	record.U8("AccelerationSettings", 213),
	record.Bytes("GearSpeedLimit", 214, 10),
	record.Bytes("GearCurrentLimit", 224, 10),
	record.U8("BuzzerSwitch", 234),
	// 235 reserved
	record.U8("ControllerProtocolVersion", 236),
)...)
