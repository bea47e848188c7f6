// Package mmio models memory-mapped hardware registers.
//
// All hardware access in rvboot goes through a Bus. On the target that bus is
// the processor's own address space, accessed with volatile loads and stores.
// On the host it is the simulator's address decoder, which records every
// access so that tests can check ordering.
package mmio

import (
	"fmt"
)

// Bus is a 32-bit word addressable bus.
type Bus interface {
	// Read32 loads the word at addr.
	Read32(addr uint32) uint32
	// Write32 stores value at addr.
	Write32(addr uint32, value uint32)
}

// Register is a single 32-bit hardware register on a bus.
type Register struct {
	Bus  Bus
	Addr uint32
}

// NewRegister binds a register address to a bus.
func NewRegister(bus Bus, addr uint32) Register {
	return Register{Bus: bus, Addr: addr}
}

// Write stores value in the register.
func (r Register) Write(value uint32) {
	r.Bus.Write32(r.Addr, value)
}

// Read loads the register.
func (r Register) Read() uint32 {
	return r.Bus.Read32(r.Addr)
}

// String returns the register address.
func (r Register) String() string {
	return fmt.Sprintf("reg@%08x", r.Addr)
}
