package board

import (
	"tinygo.org/x/drivers"

	"bsp-stm32f4/tick"
)

// Hardware is the register-level side of bring-up. platform supplies the
// STM32F4 implementation and the host fakes.
type Hardware interface {
	// ConfigureClocks starts the oscillators and PLL and switches the core
	// clock over. It may busy-wait on lock flags.
	ConfigureClocks() error
	// ConfigureExternalMemory maps r through the external memory controller.
	ConfigureExternalMemory(r MemoryRange) error
	// StartTickTimer arms a periodic interrupt at hz that calls isr, and
	// returns the timer's sub-millisecond counter.
	StartTickTimer(hz uint32, isr func()) (tick.SubCounter, error)
	// InitUART brings up the USART behind ch.
	InitUART(ch ConsoleChannel) (drivers.UART, error)
	// HeapStart is the first free address in internal SRAM after the
	// image's static data.
	HeapStart() uintptr
}
