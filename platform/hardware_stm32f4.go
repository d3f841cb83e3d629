// platform/hardware_stm32f4.go
//go:build stm32f4

package platform

import (
	"device/arm"
	"device/stm32"
	"errors"
	"runtime/volatile"
	"unsafe"

	"tinygo.org/x/drivers"

	"bsp-stm32f4/board"
	"bsp-stm32f4/tick"
	"bsp-stm32f4/x/ring"
	"bsp-stm32f4/x/timex"
)

/*
   clock settings
   +-------------+--------+
   | HSE         | 8mhz   |
   | SYSCLK      | 168mhz |
   | HCLK        | 168mhz |
   | APB2(PCLK2) | 84mhz  |
   | APB1(PCLK1) | 42mhz  |
   +-------------+--------+
*/
const (
	CoreHz = 168_000_000
	apb1Hz = CoreHz / 4
	apb2Hz = CoreHz / 2

	hseStartupTimeout = 0x0500

	pllM = 8 // VCO in = HSE / M
	pllN = 336
	pllP = 2 // SYSCLK = VCO / P
	pllQ = 7 // USB OTG FS, SDIO and RNG = VCO / Q

	consoleBaud = 115200
	rxFIFO      = 128
)

var (
	errHSETimeout   = errors.New("hse_timeout")
	errNoBank       = errors.New("range_outside_fsmc_bank1")
	errUnknownUSART = errors.New("unknown_usart")
)

// Hardware is the STM32F4 register-level bring-up.
type Hardware struct{}

// Default returns the on-chip hardware.
func Default() board.Hardware { return Hardware{} }

func (Hardware) ConfigureClocks() error {
	stm32.RCC.CR.SetBits(stm32.RCC_CR_HSION)
	for !stm32.RCC.CR.HasBits(stm32.RCC_CR_HSIRDY) {
	}
	stm32.RCC.CFGR.Set(0)
	stm32.RCC.CR.ClearBits(stm32.RCC_CR_HSEON | stm32.RCC_CR_CSSON | stm32.RCC_CR_PLLON)
	stm32.RCC.PLLCFGR.Set(0x24003010)
	stm32.RCC.CR.ClearBits(stm32.RCC_CR_HSEBYP)
	stm32.RCC.CIR.Set(0)

	stm32.RCC.CR.SetBits(stm32.RCC_CR_HSEON)
	for n := 0; !stm32.RCC.CR.HasBits(stm32.RCC_CR_HSERDY); n++ {
		if n == hseStartupTimeout {
			return errHSETimeout
		}
	}

	stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_PWREN)
	stm32.PWR.CR.SetBits(stm32.PWR_CR_VOS)
	stm32.RCC.CFGR.SetBits(stm32.RCC_CFGR_HPRE_Div1 << stm32.RCC_CFGR_HPRE_Pos)
	stm32.RCC.CFGR.SetBits(stm32.RCC_CFGR_PPRE2_Div2 << stm32.RCC_CFGR_PPRE2_Pos)
	stm32.RCC.CFGR.SetBits(stm32.RCC_CFGR_PPRE1_Div4 << stm32.RCC_CFGR_PPRE1_Pos)

	stm32.RCC.PLLCFGR.Set(pllM | (pllN << stm32.RCC_PLLCFGR_PLLN_Pos) |
		(((pllP >> 1) - 1) << stm32.RCC_PLLCFGR_PLLP_Pos) |
		(1 << stm32.RCC_PLLCFGR_PLLSRC_Pos) | (pllQ << stm32.RCC_PLLCFGR_PLLQ_Pos))
	stm32.RCC.CR.SetBits(stm32.RCC_CR_PLLON)
	for !stm32.RCC.CR.HasBits(stm32.RCC_CR_PLLRDY) {
	}

	// 5 wait states at 168 MHz and 3.3 V
	stm32.FLASH.ACR.Set(stm32.FLASH_ACR_ICEN | stm32.FLASH_ACR_DCEN | stm32.FLASH_ACR_PRFTEN |
		(5 << stm32.FLASH_ACR_LATENCY_Pos))
	stm32.RCC.CFGR.ClearBits(stm32.RCC_CFGR_SW_Msk)
	stm32.RCC.CFGR.SetBits(stm32.RCC_CFGR_SW_PLL << stm32.RCC_CFGR_SW_Pos)
	for (stm32.RCC.CFGR.Get() & stm32.RCC_CFGR_SWS_Msk) != (stm32.RCC_CFGR_SWS_PLL << stm32.RCC_CFGR_SWS_Pos) {
	}
	return nil
}

// ----------------------------- FSMC ------------------------------------------

const (
	fsmcBank1Base = 0x60000000
	fsmcSubBank   = 0x04000000

	bcrMBKEN  = 1 << 0
	bcrMWID16 = 1 << 4
	bcrWREN   = 1 << 12
	// ADDSET=1, DATAST=6 HCLK cycles, mode A
	btrAsync = 1<<0 | 6<<8
)

// ConfigureExternalMemory maps r through FSMC bank 1 as 16-bit asynchronous
// SRAM. The sub-bank is chosen from r.Begin.
func (Hardware) ConfigureExternalMemory(r board.MemoryRange) error {
	if !r.Valid() || r.Begin < fsmcBank1Base || r.End >= fsmcBank1Base+4*fsmcSubBank {
		return errNoBank
	}
	bank := (r.Begin - fsmcBank1Base) / fsmcSubBank
	if (r.End-fsmcBank1Base)/fsmcSubBank != bank {
		return errNoBank
	}

	stm32.RCC.AHB3ENR.SetBits(stm32.RCC_AHB3ENR_FSMCEN)
	// FSMC data/address lines on ports D, E, F and G, AF12
	stm32.RCC.AHB1ENR.SetBits(stm32.RCC_AHB1ENR_GPIODEN | stm32.RCC_AHB1ENR_GPIOEEN |
		stm32.RCC_AHB1ENR_GPIOFEN | stm32.RCC_AHB1ENR_GPIOGEN)
	for _, p := range []*stm32.GPIO_Type{stm32.GPIOD, stm32.GPIOE, stm32.GPIOF, stm32.GPIOG} {
		p.MODER.Set(0xAAAAAAAA)
		p.OSPEEDR.Set(0xFFFFFFFF)
		p.AFRL.Set(0xCCCCCCCC)
		p.AFRH.Set(0xCCCCCCCC)
	}

	bcr, btr := fsmcBank(bank)
	btr.Set(btrAsync)
	bcr.Set(bcrMBKEN | bcrMWID16 | bcrWREN)
	return nil
}

func fsmcBank(n uintptr) (bcr, btr *volatile.Register32) {
	switch n {
	case 0:
		return &stm32.FSMC.BCR1, &stm32.FSMC.BTR1
	case 1:
		return &stm32.FSMC.BCR2, &stm32.FSMC.BTR2
	case 2:
		return &stm32.FSMC.BCR3, &stm32.FSMC.BTR3
	default:
		return &stm32.FSMC.BCR4, &stm32.FSMC.BTR4
	}
}

// ----------------------------- SysTick ---------------------------------------

const icsrPENDSTSET = 1 << 26

var tickISR func()

//go:export SysTick_Handler
func sysTickHandler() {
	if tickISR != nil {
		tickISR()
	}
}

// sysTick reads the running SysTick as a tick.SubCounter.
type sysTick struct{ reload uint32 }

// Elapsed samples CVR and the pending flag, re-reading CVR so a wrap
// between the two reads is attributed to the later sample.
func (s sysTick) Elapsed() (uint32, bool) {
	cur := arm.SYST.CVR.Get()
	pending := arm.SCB.ICSR.Get()&icsrPENDSTSET != 0
	if again := arm.SYST.CVR.Get(); again > cur {
		cur = again
		pending = true
	}
	return s.reload - cur, pending
}

func (s sysTick) TicksPerMilli() uint32 { return s.reload + 1 }

func (Hardware) StartTickTimer(hz uint32, isr func()) (tick.SubCounter, error) {
	reload := timex.ReloadFor(CoreHz, hz)
	if reload > 0x00FFFFFF {
		return nil, errors.New("reload_out_of_range")
	}
	tickISR = isr
	arm.SYST.CSR.Set(0)
	arm.SYST.RVR.Set(reload)
	arm.SYST.CVR.Set(0)
	arm.SYST.CSR.Set(arm.SYST_CSR_CLKSOURCE | arm.SYST_CSR_TICKINT | arm.SYST_CSR_ENABLE)
	return sysTick{reload: reload}, nil
}

// ----------------------------- USART -----------------------------------------

// usart is a polled USART implementing drivers.UART. Received bytes are
// moved from the data register into a software FIFO whenever the port is
// polled.
type usart struct {
	regs *stm32.USART_Type
	rx   *ring.Ring
}

func (u *usart) drain() {
	for u.regs.SR.HasBits(stm32.USART_SR_RXNE) {
		u.rx.PutByte(byte(u.regs.DR.Get()))
	}
}

func (u *usart) Buffered() int {
	u.drain()
	return u.rx.Buffered()
}

func (u *usart) Read(p []byte) (int, error) {
	u.drain()
	return u.rx.Read(p)
}

func (u *usart) Write(p []byte) (int, error) {
	for _, c := range p {
		for !u.regs.SR.HasBits(stm32.USART_SR_TXE) {
		}
		u.regs.DR.Set(uint32(c))
	}
	for !u.regs.SR.HasBits(stm32.USART_SR_TC) {
	}
	return len(p), nil
}

// usartPins describes the TX/RX pair on one port, AF7.
type usartPins struct {
	port   *stm32.GPIO_Type
	portEN uint32
	tx, rx uint8
}

func (Hardware) InitUART(ch board.ConsoleChannel) (drivers.UART, error) {
	var (
		regs *stm32.USART_Type
		pins usartPins
		pclk uint32
	)
	switch ch {
	case board.Console1:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART1EN)
		regs, pclk = stm32.USART1, apb2Hz
		pins = usartPins{stm32.GPIOA, stm32.RCC_AHB1ENR_GPIOAEN, 9, 10}
	case board.Console2:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART2EN)
		regs, pclk = stm32.USART2, apb1Hz
		pins = usartPins{stm32.GPIOA, stm32.RCC_AHB1ENR_GPIOAEN, 2, 3}
	case board.Console3:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART3EN)
		regs, pclk = stm32.USART3, apb1Hz
		pins = usartPins{stm32.GPIOB, stm32.RCC_AHB1ENR_GPIOBEN, 10, 11}
	default:
		return nil, errUnknownUSART
	}

	stm32.RCC.AHB1ENR.SetBits(pins.portEN)
	for _, pin := range []uint8{pins.tx, pins.rx} {
		altFunc(pins.port, pin, 7)
	}

	regs.CR1.Set(0)
	regs.BRR.Set((pclk + consoleBaud/2) / consoleBaud)
	regs.CR1.Set(stm32.USART_CR1_UE | stm32.USART_CR1_TE | stm32.USART_CR1_RE)
	return &usart{regs: regs, rx: ring.New(rxFIFO)}, nil
}

func altFunc(p *stm32.GPIO_Type, pin, af uint8) {
	p.MODER.ReplaceBits(0b10, 0b11, pin*2)
	p.OSPEEDR.ReplaceBits(0b11, 0b11, pin*2)
	if pin < 8 {
		p.AFRL.ReplaceBits(uint32(af), 0xF, pin*4)
	} else {
		p.AFRH.ReplaceBits(uint32(af), 0xF, (pin-8)*4)
	}
}

// ----------------------------- heap ------------------------------------------

//go:extern _heap_start
var heapStartSymbol [0]byte

func (Hardware) HeapStart() uintptr { return uintptr(unsafe.Pointer(&heapStartSymbol)) }
