//go:build tinygo.riscv

package boot

import (
	"device"
	"device/riscv"

	"github.com/ezrec/rvboot/config"
	"github.com/ezrec/rvboot/mmio"
)

// Hart is the RISC-V hart running the bootloader.
type Hart struct{}

var _ Transferer = Hart{}

// Transfer switches to the application stack and jumps to its entry point
// from a single asm block, so no compiler generated code runs between the
// stack pointer load and the jump.
func (Hart) Transfer(sp uint32, pc uint32) {
	riscv.DisableInterrupts()
	device.AsmFull(`
		mv sp, {sp}
		jr {pc}
	`, map[string]interface{}{
		"sp": sp,
		"pc": pc,
	})
}

// NewTarget creates the bootloader for the processor it runs on.
func NewTarget(layout *config.Layout) *Bootloader {
	return New(layout, mmio.Physical{}, Hart{})
}
