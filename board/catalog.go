package board

// The address tables below are the retained-memory maps published in the
// ECU firmware interface documents, one byte offset per variable index.
// Variable 0 always holds the flash CRC16 at offset 0; the gap to the next
// offset is the stored width of the variable.

// The first 22 variables are the bookkeeping block shared by every class.
var commonNames = []string{
	"Flash CRC16", "Flash counter", "Supervisor key", "Admin key", "User key",
	"Manuf. rev.", "Model", "Type", "Software rev.", "Hardware rev.",
	"Date manuf.", "Date service", "Date current", "Log number", "Log index",
	"Event number", "Event index", "Failure number", "Failure index", "Com ID",
	"Com index", "Com type",
}

func boardNames(specific ...string) []string {
	names := make([]string, 0, len(commonNames)+len(specific))
	names = append(names, commonNames...)
	return append(names, specific...)
}

func reserved(names []string, n int) []string {
	for ; n > 0; n-- {
		names = append(names, "Reserved")
	}
	return names
}

var catalog = map[Type]Descriptor{
	PCU: {
		typ:  PCU,
		base: 0x300,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 60, 62,
			64, 66, 68, 70, 72, 74, 76, 77, 78, 79,
			80, 81, 82, 83, 84, 85, 87, 91, 95, 99, 103,
		},
		names: boardNames(
			"Setup", "Option", "Verbose", "Debug", "Param",
			"Top speed FW", "Top speed RV", "Min speed FW", "Min speed RV", "Dock speed FW",
			"Dock speed RV", "Max torque FW", "Max torque RV", "Mtn max torque", "Eco/Sport ratio",
			"Filter RPM step", "Filter rpm step", "Filter TRQ step", "Filter trq step", "Reverse dir.",
			"Forward dir.", "Motor low temp", "Motor cool LPM", "F/R speed max", "Ramp FW acc.",
			"Ramp RV acc.", "Ramp FW dec.", "Ramp RV dec.", "Batt low temp",
		),
	},
	CCU: {
		typ:  CCU,
		base: 0x380,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
			71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Flow setpoint", "ZCU curr", "Service pump %", "ZCU rated curr", "ZCU timeout",
		), 18),
	},
	TCU: {
		typ:  TCU,
		base: 0x400,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 60, 62,
			64, 66, 68, 70, 71, 73, 74, 76, 78, 80,
			82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Ana1 value min", "Ana1 value max", "Ana2 value min", "Ana2 value max", "Ana3 value min",
			"Ana3 value max", "Brake trigger", "Openwire limit", "POT3 volt. gap", "POT3 R value",
			"POT3 N value", "POT3 D value", "POT3 P value", "LOG dot 1", "LOG dot 2",
			"LOG dot 3", "LOG dot 4", "LOG dot 5", "LOG dot 6",
		), 4),
	},
	GATE: {
		typ:  GATE,
		base: 0x480,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 62, 66,
			70, 74, 78, 82, 86, 90, 94, 98, 102, 106,
			110, 114, 118, 122, 123, 124, 125, 126, 127, 128, 129,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"CAN2 src (ADDR1)", "CAN1 dst (ADDR1)", "CAN1 src (ADDR1)", "CAN2 dst (ADDR1)", "CAN2 src (ADDR2)",
			"CAN1 dst (ADDR2)", "CAN1 src (ADDR2)", "CAN2 dst (ADDR2)", "CAN2 src (ADDR3)", "CAN1 dst (ADDR3)",
			"CAN1 src (ADDR3)", "CAN2 dst (ADDR3)", "CAN2 src (ADDR4)", "CAN1 dst (ADDR4)", "CAN1 src (ADDR4)",
			"CAN2 dst (ADDR4)",
		), 7),
	},
	WLU: {
		typ:  WLU,
		base: 0x500,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 62, 66, 70, 72, 74, 76, 77, 78, 79,
			80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Temp max", "Current coeff", "Voltage min", "Current max", "Warning CANID",
			"Warning filter", "Warning value", "Warning ON time", "Warning OFF time",
		), 14),
	},
	PDU: {
		typ:  PDU,
		base: 0x580,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
			71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Motor2 enable", "Generator enable", "Precharge2 enable", "Leakage enable", "Batt delay",
			"Precharge1 delay", "Precharge2 delay", "Generator delay",
		), 15),
	},
	OBDDCDC: {
		typ:  OBDDCDC,
		base: 0x600,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 60, 62,
			66, 70, 74, 75, 76, 77, 78, 79, 80, 81,
			82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"DCDC voltage", "DCDC current", "HVBATT CAN id", "Discharge filter", "Charge filter",
		), 18),
	},
	ZCU: {
		typ:  ZCU,
		base: 0x680,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			62, 63, 65, 66, 67, 68, 70, 72, 74, 75,
			76, 77, 78, 79, 80, 81, 82, 83, 84, 85, 86,
		},
		names: reserved(boardNames(
			"Setup", "Option", "Verbose", "Debug", "Param",
			"Nom peak current", "Max peak current", "Peak timeout", "Max cont current", "Cont timeout",
			"Max MOS temp", "Min MOS temp", "Pump type", "Throttle max", "Tick to Min%",
			"Tick to Max%", "Min PWM to flow", "Derating PWM %", "Derating temp diff", "Derating delay",
			"Min flow derating", "CAN timeout",
		), 6),
	},
	VCU: {
		typ:  VCU,
		base: 0x700,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 63, 65, 67, 69, 71, 73, 74, 75, 76,
			77, 78, 79, 80, 81, 82, 83, 84, 85, 86, 87,
		},
		names: reserved(boardNames(
			"Setup", "Option", "Verbose", "Debug", "Param",
			"BAT low temp", "CHG high temp", "Free", "PDU config", "End of charge",
			"HV Bat max", "HV pack energy", "SHD threshold", "IGNoff timeout", "DCDC Setpoint",
		), 14),
	},
	SCU: {
		typ:  SCU,
		base: 0x780,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
			71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Temp max", "Temp min", "Frame rate",
		), 20),
	},
	FCU: {
		typ:  FCU,
		base: 0x800,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 59, 60,
			61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
			71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81,
		},
		names: reserved(boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Flow max", "Flow min", "Frame rate",
		), 20),
	},
	BMS: {
		typ:  BMS,
		base: 0x880,
		addrs: []uint32{
			0, 2, 6, 10, 14, 18, 19, 20, 21, 22,
			23, 27, 31, 35, 37, 39, 41, 43, 45, 47,
			51, 52, 53, 54, 55, 56, 57, 58, 60, 62,
			64, 66, 68, 70, 72, 74, 76, 77, 78, 79,
			80, 81, 82, 83, 84, 85, 87, 91, 95, 99, 103,
		},
		names: boardNames(
			"Mode init", "Mode option", "Mode verbose", "Mode debug", "Mode param",
			"Abs. max speed F", "Abs. max speed R", "Lim. max speed F", "Lim. max speed R", "Mtn. max speed F",
			"Mtn. max pseed R", "Max torque FW", "Max torque RV", "Mtn max torque", "Eco/Sport ratio",
			"Filter RPM step", "Filter rpm step", "Filter TRQ step", "Filter trq step", "Reverse dir.",
			"Forward dir.", "Speed mode val.", "Torq mode val.", "F/R speed max", "HVBATT addr",
			"DISCHG filter", "CHG filter", "VCU addr",
		),
	},
}
