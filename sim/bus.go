package sim

import (
	"cmp"
	"encoding/binary"
	"log"
	"slices"

	"github.com/ezrec/rvboot/mmio"
)

// IORegion is a memory-mapped device window. Register handlers see word
// aligned addresses.
type IORegion struct {
	Name    string
	Start   uint32 // First address.
	End     uint32 // Last address, inclusive.
	OnRead  func(addr uint32) uint32
	OnWrite func(addr uint32, value uint32)
}

func (region *IORegion) contains(addr uint32) bool {
	return addr >= region.Start && addr <= region.End
}

// Bus is the simulator address decoder: one RAM window and any number of
// IO regions.
type Bus struct {
	Verbose bool // If set, logs every IO access.

	Base   uint32 // RAM base address.
	Memory []byte // RAM contents.

	// IOLog records IO region accesses, in order.
	IOLog []mmio.Access

	// Fault is the first fault raised through Read32 or Write32, which have
	// no error return.
	Fault error

	regions []IORegion
}

var _ mmio.Bus = (*Bus)(nil)

// NewBus creates a bus with size bytes of RAM at base.
func NewBus(base uint32, size uint32) (bus *Bus) {
	bus = &Bus{
		Base:   base,
		Memory: make([]byte, size),
	}
	return
}

// MapIO maps the register window [start, end] to a device.
func (bus *Bus) MapIO(name string, start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) (err error) {
	if end < start {
		err = ErrMapEmpty
		return
	}

	region := IORegion{Name: name, Start: start, End: end, OnRead: onRead, OnWrite: onWrite}

	ramEnd := bus.Base + uint32(len(bus.Memory)) - 1
	if len(bus.Memory) > 0 && start <= ramEnd && end >= bus.Base {
		err = ErrMapOverlap
		return
	}
	for _, other := range bus.regions {
		if start <= other.End && end >= other.Start {
			err = ErrMapOverlap
			return
		}
	}

	bus.regions = append(bus.regions, region)
	slices.SortFunc(bus.regions, func(a, b IORegion) int {
		return cmp.Compare(a.Start, b.Start)
	})

	return
}

// Regions returns the IO regions, lowest address first.
func (bus *Bus) Regions() []IORegion {
	return slices.Clone(bus.regions)
}

func (bus *Bus) findIORegion(addr uint32) *IORegion {
	for n := range bus.regions {
		if bus.regions[n].contains(addr) {
			return &bus.regions[n]
		}
	}
	return nil
}

func (bus *Bus) ram(addr uint32, size int) (offset uint32, ok bool) {
	offset = addr - bus.Base
	ok = addr >= bus.Base && uint64(offset)+uint64(size) <= uint64(len(bus.Memory))
	return
}

func checkSize(addr uint32, size int) (err error) {
	switch size {
	case 1, 2, 4:
	default:
		panic("sim: invalid access size")
	}
	if addr&uint32(size-1) != 0 {
		err = &ErrFault{Addr: addr, Err: ErrMisaligned}
	}
	return
}

// Load reads size (1, 2 or 4) bytes at addr, zero extended.
func (bus *Bus) Load(addr uint32, size int) (value uint32, err error) {
	err = checkSize(addr, size)
	if err != nil {
		return
	}

	if offset, ok := bus.ram(addr, size); ok {
		mem := bus.Memory[offset:]
		switch size {
		case 1:
			value = uint32(mem[0])
		case 2:
			value = uint32(binary.LittleEndian.Uint16(mem))
		case 4:
			value = binary.LittleEndian.Uint32(mem)
		}
		return
	}

	region := bus.findIORegion(addr)
	if region == nil || region.OnRead == nil {
		err = &ErrFault{Addr: addr, Err: ErrUnmapped}
		return
	}

	word := region.OnRead(addr &^ 3)
	bus.IOLog = append(bus.IOLog, mmio.Access{Addr: addr &^ 3, Value: word})
	if bus.Verbose {
		log.Printf("sim: %v %v", region.Name, bus.IOLog[len(bus.IOLog)-1])
	}

	shift := 8 * (addr & 3)
	value = word >> shift
	switch size {
	case 1:
		value &= 0xff
	case 2:
		value &= 0xffff
	}

	return
}

// Store writes the low size (1, 2 or 4) bytes of value at addr. Narrow
// stores to an IO register write the zero extended value to the register.
func (bus *Bus) Store(addr uint32, size int, value uint32) (err error) {
	err = checkSize(addr, size)
	if err != nil {
		return
	}

	if offset, ok := bus.ram(addr, size); ok {
		mem := bus.Memory[offset:]
		switch size {
		case 1:
			mem[0] = byte(value)
		case 2:
			binary.LittleEndian.PutUint16(mem, uint16(value))
		case 4:
			binary.LittleEndian.PutUint32(mem, value)
		}
		return
	}

	region := bus.findIORegion(addr)
	if region == nil || region.OnWrite == nil || addr&3 != 0 {
		err = &ErrFault{Addr: addr, Err: ErrUnmapped}
		return
	}

	switch size {
	case 1:
		value &= 0xff
	case 2:
		value &= 0xffff
	}

	bus.IOLog = append(bus.IOLog, mmio.Access{Write: true, Addr: addr, Value: value})
	if bus.Verbose {
		log.Printf("sim: %v %v", region.Name, bus.IOLog[len(bus.IOLog)-1])
	}
	region.OnWrite(addr, value)

	return
}

func (bus *Bus) fault(err error) {
	if bus.Fault == nil {
		bus.Fault = err
	}
}

// Read32 reads a word; faults read as zero and are kept in Fault.
func (bus *Bus) Read32(addr uint32) (value uint32) {
	value, err := bus.Load(addr, 4)
	if err != nil {
		bus.fault(err)
	}
	return
}

// Write32 writes a word; faulting writes are dropped and kept in Fault.
func (bus *Bus) Write32(addr uint32, value uint32) {
	err := bus.Store(addr, 4, value)
	if err != nil {
		bus.fault(err)
	}
}
