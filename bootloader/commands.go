package bootloader

// Command identifiers are offsets from the device's base identifier. The
// enter-bootloader command exists on the wire but the standard sequence
// relies on a plain reset, which also lands in the bootloader.
const (
	cmdReset     = 0x00
	cmdEnterBoot = 0x01
	cmdStartLoad = 0x02
	cmdAddress   = 0x03
	cmdData      = 0x04
	cmdVerify    = 0x05
)

// BSI service commands share the bus with the loader when a board runs its
// application firmware. The vocabulary is fixed by the firmware interface.
const (
	BSICmdRun    = 0x01
	BSICmdEEPROM = 0x02
	BSICmdHeart  = 0x03
	BSICmdSlave  = 0x04
)

// Arguments to BSICmdRun.
const (
	BSIRunReset  = 0x01
	BSIRunWait   = 0x02
	BSIRunGo     = 0x03
	BSIRunAPCOn  = 0x04
	BSIRunAPCOff = 0x05
	BSIRunChgOn  = 0x06
	BSIRunChgOff = 0x07
)

// Arguments to BSICmdEEPROM.
const (
	BSIEEPROMWrite = 0x01
	BSIEEPROMRead  = 0x02
)
