package board

// Build-time checks on the selected profile's constants. A broken
// invariant makes its line overflow uint, so the image never builds.
const (
	_ uint = extSRAM // ext SRAM flag is 0 or 1
	_ uint = 1 - extSRAM

	_ uint = sramSizeKB - MinSRAMKB
	_ uint = MaxSRAMKB - sramSizeKB

	_ uint = extSRAM * (extSRAMEnd - extSRAMBegin - 1) // begin < end when enabled

	_ uint = consoleUSART - 1 // console is USART1..3
	_ uint = 3 - consoleUSART

	// exactly the console USART is enabled
	_ uint = uartMask - 1<<(consoleUSART-1)
	_ uint = 1<<(consoleUSART-1) - uartMask
)

// Selected returns the build-time configuration.
func Selected() Config {
	return Config{
		Name:         boardName,
		ExtSRAM:      extSRAM == 1,
		ExtSRAMRange: MemoryRange{Begin: extSRAMBegin, End: extSRAMEnd},
		SRAMSizeKB:   sramSizeKB,
		Console:      consoleUSART,
		UARTs:        uartMask,
	}
}
