package bafang

// Sample records with every field populated. The simulator serves them and tests use them
// as golden values.

func SampleController() *ControllerInfo {
	return &ControllerInfo{
		HardVersion:                  "CR X10.1.0",
		SoftVersion:                  "CRX10VC3615E101031.0",
		Model:                        "M510",
		SN:                           "SN20240615000123",
		CustomerNo:                   "C0042",
		Manufacturer:                 "BAFANG",
		SOC:                          87,
		SingleMileage:                124,
		TotalMileage:                 45210,
		RemainingMileage:             62,
		Cadence:                      78,
		Moment:                       35,
		Speed:                        245,
		ElectricCurrent:              1120,
		Voltage:                      4810,
		ControllerTemperature:        31,
		MotorTemperature:             44,
		BoostState:                   0,
		SpeedLimit:                   250,
		WheelDiameter:                29,
		TireCircumference:            2280,
		Calories:                     312,
		CurrentGear:                  3,
		TotalGear:                    5,
		WheelSpeed:                   190,
		WheelCounter:                 40211,
		LastTestSensorTime:           12,
		CrankCadencePulseCounter:     905,
		MotorVariableSpeedMasterGear: 2,
		MotorSpeedCurrentGear:        3,
		CruiseControl:                1,
		BootDefaultGear:              1,
		BootDefaultGearValue:         2,
		MotorStartingAngle:           15,
		AccelerationSettings:         4,
		GearSpeedLimit:               [10]byte{10, 15, 20, 25, 25, 25, 25, 25, 25, 25},
		GearCurrentLimit:             [10]byte{30, 45, 60, 80, 100, 100, 100, 100, 100, 100},
		BuzzerSwitch:                 1,
		ControllerProtocolVersion:    3,
	}
}

func SampleMeter() *MeterInfo {
	return &MeterInfo{
		HardVersion:        "DP C18.UART",
		SoftVersion:        "DPC181204.1",
		Model:              "C18",
		SN:                 "DP2023110900456",
		CustomerNo:         "C0042",
		Manufacturer:       "BAFANG",
		TotalGear:          5,
		SportModel:         SportModelNormal,
		BoostState:         BoostOff,
		CurrentGear:        2,
		Light:              LightOff,
		TotalMileage:       4521,
		SingleMileage:      12,
		MaxSpeed:           318,
		AverageSpeed:       192,
		MaintenanceMileage: 5000,
		AutoShutdown:       AutoShutdownDefault,
		MaxAutoShutdown:    20,
		UnitSwitch:         UnitKMH,
		TotalRideTime:      884213,
		TotalCalories:      40210,
		SingleMileage2:     1240,
	}
}

func SamplePersonalized() *PersonalizedInfo {
	return &PersonalizedInfo{
		ControllerProtocolVersion: 3,
		MotorStartingAngle:        [10]int16{5, 10, 15, 20, 25, -5, -10, 0, 0, 0},
		AccelerationSettings:      [10]byte{1, 2, 3, 4, 5, 5, 5, 5, 5, 5},
		GearSpeedLimit:            [10]byte{10, 15, 20, 25, 25, 25, 25, 25, 25, 25},
		GearCurrentLimit:          [10]byte{30, 45, 60, 80, 100, 100, 100, 100, 100, 100},
	}
}
