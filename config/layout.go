// Package config describes the board memory map the bootloader is built for.
//
// The same boot logic runs against different layouts: the reference board
// map is returned by Default, and host tools may load others from a Pkl
// module with LoadFromPath.
package config

import (
	"fmt"
	"iter"

	"github.com/ezrec/rvboot/internal"
)

// Reference board memory map.
const (
	RATE_ADDR     = 0x02000004 // UART clock rate selector.
	TX_ADDR       = 0x02000008 // UART transmit data.
	RATE_CODE     = 104        // Rate selector value written at boot.
	APPROM_START  = 0x00104000 // Application descriptor.
	BOOTROM_START = 0x00100000 // First stage loader.
	OUTPORT_ADDR  = 0x10000000 // Demo character output port.
	RAM_BASE      = 0x00100000
	RAM_SIZE      = 0x00010000
	BANNER        = "Boot:"
)

// Layout is the board memory map.
type Layout struct {
	// UART rate selector register address.
	RateAddr uint32 `pkl:"rateAddr"`

	// UART transmit register address.
	TransmitAddr uint32 `pkl:"transmitAddr"`

	// Value written to the rate register before any transmit.
	RateCode uint32 `pkl:"rateCode"`

	// Base of the application region; the descriptor lives here.
	AppBase uint32 `pkl:"appBase"`

	// Base of the boot ROM.
	BootBase uint32 `pkl:"bootBase"`

	// Demo character output port.
	OutPortAddr uint32 `pkl:"outPortAddr"`

	// Addressable RAM, covering boot ROM and application region.
	RamBase uint32 `pkl:"ramBase"`
	RamSize uint32 `pkl:"ramSize"`

	// Diagnostic bytes sent on the UART before the descriptor is read.
	Banner string `pkl:"banner"`
}

// Default returns the reference board memory map.
func Default() *Layout {
	return &Layout{
		RateAddr:     RATE_ADDR,
		TransmitAddr: TX_ADDR,
		RateCode:     RATE_CODE,
		AppBase:      APPROM_START,
		BootBase:     BOOTROM_START,
		OutPortAddr:  OUTPORT_ADDR,
		RamBase:      RAM_BASE,
		RamSize:      RAM_SIZE,
		Banner:       BANNER,
	}
}

// RamEnd is the first address past RAM.
func (l *Layout) RamEnd() uint32 {
	return l.RamBase + l.RamSize
}

// Defines returns assembler equates for the layout, in name order.
func (l *Layout) Defines() iter.Seq2[string, string] {
	return internal.Sorted(map[string]string{
		"RATE_ADDR":     fmt.Sprintf("0x%08x", l.RateAddr),
		"TX_ADDR":       fmt.Sprintf("0x%08x", l.TransmitAddr),
		"RATE_CODE":     fmt.Sprintf("%d", l.RateCode),
		"APPROM_START":  fmt.Sprintf("0x%08x", l.AppBase),
		"BOOTROM_START": fmt.Sprintf("0x%08x", l.BootBase),
		"OUTPORT_ADDR":  fmt.Sprintf("0x%08x", l.OutPortAddr),
		"RAM_BASE":      fmt.Sprintf("0x%08x", l.RamBase),
		"RAM_END":       fmt.Sprintf("0x%08x", l.RamEnd()),
	})
}
