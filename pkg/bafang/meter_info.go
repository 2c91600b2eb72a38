package bafang

import "github.com/seagrayinc/bfble/internal/record"

// Meter setting values.
const (
	MeterMinTotalGear = 3
	MeterMaxTotalGear = 5

	SportModelNormal = 1
	SportModelSport  = 2

	BoostOff = 0
	BoostOn  = 1

	MeterMinCurrentGear = 0
	MeterMaxCurrentGear = 5

	AutoShutdownNever   = 255
	AutoShutdownDefault = 10
	MaxAutoShutdownMin  = 0
	MaxAutoShutdownMax  = 30

	UnitKMH = 0
	UnitMPH = 1

	LightOff = 0
	LightOn  = 1
)

// Meter field offsets used by setting writes.
const (
	MeterTotalGearOffset       = 0xA0
	MeterSportModelOffset      = 0xA2
	MeterBoostStateOffset      = 0xA3
	MeterCurrentGearOffset     = 0xA4
	MeterLightOffset           = 0xA6
	MeterAutoShutdownOffset    = 0xB4
	MeterMaxAutoShutdownOffset = 0xB6
	MeterUnitSwitchOffset      = 0xB8
)

// MeterInfo is the display unit block (0xA5).
type MeterInfo struct {
	HardVersion  string `json:"hardVersion"`
	SoftVersion  string `json:"softVersion"`
	Model        string `json:"model"`
	SN           string `json:"sn"`
	CustomerNo   string `json:"customerNo"`
	Manufacturer string `json:"manufacturer"`

	TotalGear   uint16 `json:"totalGear"`
	SportModel  uint8  `json:"sportModel"`
	BoostState  uint8  `json:"boostState"`
	CurrentGear uint16 `json:"currentGear"`
	Light       uint8  `json:"light"`

	TotalMileage       uint16 `json:"totalMileage"`
	SingleMileage      uint16 `json:"singleMileage"`
	MaxSpeed           uint16 `json:"maxSpeed"`
	AverageSpeed       uint16 `json:"averageSpeed"`
	MaintenanceMileage uint32 `json:"maintenanceMileage"`
	AutoShutdown       uint16 `json:"autoShutdown"`
	MaxAutoShutdown    uint16 `json:"maxAutoShutdown"`
	UnitSwitch         uint16 `json:"unitSwitch"`
	TotalRideTime      uint32 `json:"totalRideTime"`
	TotalCalories      uint32 `json:"totalCalories"`
	SingleMileage2     uint32 `json:"singleMileage2"`
}

func (m *MeterInfo) RecordType() RecordType { return Meter }

func (m *MeterInfo) Clone() Record {
	cp := *m
	return &cp
}

func (m *MeterInfo) LightOn() bool { return m.Light == LightOn }

func (m *MeterInfo) Imperial() bool { return m.UnitSwitch == UnitMPH }

var meterSchema = record.NewSchema("meter", 198, append(identityFields(),
	record.U16("TotalGear", MeterTotalGearOffset),
	record.U8("SportModel", MeterSportModelOffset),
	record.U8("BoostState", MeterBoostStateOffset),
	record.U16("CurrentGear", MeterCurrentGearOffset),
	record.U8("Light", MeterLightOffset),
	// 167 reserved
	record.U16("TotalMileage", 168),
	record.U16("SingleMileage", 170),
	record.U16("MaxSpeed", 172),
	record.U16("AverageSpeed", 174),
	record.U32("MaintenanceMileage", 176),
	record.U16("AutoShutdown", MeterAutoShutdownOffset),
	record.U16("MaxAutoShutdown", MeterMaxAutoShutdownOffset),
	record.U16("UnitSwitch", MeterUnitSwitchOffset),
	record.U32("TotalRideTime", 186),
	record.U32("TotalCalories", 190),
	record.U32("SingleMileage2", 194),
)...)
