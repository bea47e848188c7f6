// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package approm reads and builds the application descriptor: the two words
// at the base of the application region that give its initial stack pointer
// and entry point.
package approm

import (
	"encoding/binary"
	"fmt"

	"github.com/ezrec/rvboot/mmio"
)

const (
	DESCRIPTOR_SIZE = 8 // Bytes in a descriptor.
	WORD_SP         = 0 // Word offset of the initial stack pointer.
	WORD_ENTRY      = 1 // Word offset of the entry point.
)

// ByteOrder of descriptor words on the target.
var ByteOrder = binary.LittleEndian

// Descriptor is the application's initial stack pointer and entry point.
type Descriptor struct {
	StackPointer uint32
	EntryPoint   uint32
}

// Read loads the descriptor at base. The words are used as found: if nothing
// was flashed, the result is whatever the memory holds.
func Read(bus mmio.Bus, base uint32) (desc Descriptor) {
	desc.StackPointer = bus.Read32(base + 4*WORD_SP)
	desc.EntryPoint = bus.Read32(base + 4*WORD_ENTRY)
	return
}

// Write stores the descriptor at base.
func (desc Descriptor) Write(bus mmio.Bus, base uint32) {
	bus.Write32(base+4*WORD_SP, desc.StackPointer)
	bus.Write32(base+4*WORD_ENTRY, desc.EntryPoint)
}

func (desc Descriptor) String() string {
	return fmt.Sprintf("sp=%08x entry=%08x", desc.StackPointer, desc.EntryPoint)
}

// MarshalBinary encodes the descriptor as it is laid out in memory.
func (desc Descriptor) MarshalBinary() (data []byte, err error) {
	data = make([]byte, DESCRIPTOR_SIZE)
	ByteOrder.PutUint32(data[4*WORD_SP:], desc.StackPointer)
	ByteOrder.PutUint32(data[4*WORD_ENTRY:], desc.EntryPoint)
	return
}

// UnmarshalBinary decodes the first DESCRIPTOR_SIZE bytes of data.
func (desc *Descriptor) UnmarshalBinary(data []byte) (err error) {
	if len(data) < DESCRIPTOR_SIZE {
		err = ErrDescriptorShort
		return
	}
	desc.StackPointer = ByteOrder.Uint32(data[4*WORD_SP:])
	desc.EntryPoint = ByteOrder.Uint32(data[4*WORD_ENTRY:])
	return
}
