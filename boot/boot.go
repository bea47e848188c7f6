// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package boot is the first stage boot sequence: program the UART, send the
// banner, read the application descriptor and hand the processor over.
package boot

import (
	"log"

	"github.com/ezrec/rvboot/approm"
	"github.com/ezrec/rvboot/config"
	"github.com/ezrec/rvboot/mmio"
	"github.com/ezrec/rvboot/uart"
)

// REJECT_MARK is sent on the UART when validation refuses a descriptor.
const REJECT_MARK = "!\n"

// Bootloader runs the boot sequence once.
type Bootloader struct {
	Verbose bool // If set, logs each state change.

	Layout   *config.Layout
	Bus      mmio.Bus
	UART     *uart.UART
	Transfer Transferer

	// Validator, if set, is consulted before the transfer. The default is
	// none: the descriptor is used exactly as read.
	Validator approm.Validator

	// Idle replaces the park loop entered after a rejected descriptor or a
	// transfer that returns.
	Idle func()

	// OnState, if set, is called on every state change.
	OnState func(state State)

	State      State
	Descriptor approm.Descriptor
	Err        error // Validation failure, when REJECTED.
}

// New creates a bootloader for a board layout.
func New(layout *config.Layout, bus mmio.Bus, transfer Transferer) (bl *Bootloader) {
	bl = &Bootloader{
		Layout:   layout,
		Bus:      bus,
		UART:     uart.New(bus, layout.RateAddr, layout.TransmitAddr),
		Transfer: transfer,
	}

	return
}

func (bl *Bootloader) enter(state State) {
	bl.State = state
	if bl.Verbose {
		log.Printf("boot: %v", state)
	}
	if bl.OnState != nil {
		bl.OnState(state)
	}
}

func (bl *Bootloader) park() {
	bl.enter(IDLE)
	if bl.Idle != nil {
		bl.Idle()
		return
	}
	idle()
}

// Run performs the boot sequence. On the target it does not return.
func (bl *Bootloader) Run() {
	bl.enter(RESET)

	bl.UART.Configure(bl.Layout.RateCode)
	bl.enter(UART_CONFIGURED)

	bl.UART.WriteString(bl.Layout.Banner)

	bl.Descriptor = approm.Read(bl.Bus, bl.Layout.AppBase)
	bl.enter(DESCRIPTOR_READ)
	if bl.Verbose {
		log.Printf("boot: %v", bl.Descriptor)
	}

	if bl.Validator != nil {
		bl.Err = bl.Descriptor.Validate(bl.Validator)
		if bl.Err != nil {
			bl.enter(REJECTED)
			bl.UART.WriteString(REJECT_MARK)
			bl.park()
			return
		}
	}

	bl.enter(TRANSFERRED)
	bl.Transfer.Transfer(bl.Descriptor.StackPointer, bl.Descriptor.EntryPoint)

	// Not reached on the target.
	bl.park()
}
