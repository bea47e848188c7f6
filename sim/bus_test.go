package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvboot/mmio"
)

func TestBus_Memory(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(0x1000, 0x100)

	assert.NoError(bus.Store(0x1000, 4, 0x44332211))
	assert.Equal([]byte{0x11, 0x22, 0x33, 0x44}, bus.Memory[:4])

	table := [](struct {
		addr  uint32
		size  int
		value uint32
	}){
		{0x1000, 1, 0x11},
		{0x1003, 1, 0x44},
		{0x1000, 2, 0x2211},
		{0x1002, 2, 0x4433},
		{0x1000, 4, 0x44332211},
	}
	for _, entry := range table {
		value, err := bus.Load(entry.addr, entry.size)
		assert.NoError(err)
		assert.Equal(entry.value, value, "%08x/%d", entry.addr, entry.size)
	}

	assert.NoError(bus.Store(0x1001, 1, 0xaabbccdd))
	assert.Equal(uint32(0x4433dd11), bus.Read32(0x1000))
	assert.NoError(bus.Fault)
	assert.Empty(bus.IOLog)
}

func TestBus_Faults(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(0x1000, 0x100)

	_, err := bus.Load(0x1002, 4)
	assert.True(errors.Is(err, ErrMisaligned))
	err = bus.Store(0x1001, 2, 0)
	assert.True(errors.Is(err, ErrMisaligned))

	_, err = bus.Load(0x0ffc, 4)
	assert.True(errors.Is(err, ErrUnmapped))
	_, err = bus.Load(0x1100, 4)
	assert.True(errors.Is(err, ErrUnmapped))

	var fault *ErrFault
	assert.True(errors.As(err, &fault))
	assert.Equal(uint32(0x1100), fault.Addr)

	// Only the first fault is kept.
	assert.Equal(uint32(0), bus.Read32(0x2000))
	bus.Write32(0x3000, 1)
	assert.True(errors.As(bus.Fault, &fault))
	assert.Equal(uint32(0x2000), fault.Addr)
}

func TestBus_MapIO(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(0x1000, 0x100)

	var written []uint32
	reg := uint32(0x12345678)
	err := bus.MapIO("reg", 0x2000, 0x2003,
		func(addr uint32) uint32 { return reg },
		func(addr uint32, value uint32) { written = append(written, value) })
	assert.NoError(err)

	assert.ErrorIs(bus.MapIO("ram", 0x10fc, 0x1103, nil, nil), ErrMapOverlap)
	assert.ErrorIs(bus.MapIO("twice", 0x2000, 0x2007, nil, nil), ErrMapOverlap)
	assert.ErrorIs(bus.MapIO("empty", 0x3000, 0x2fff, nil, nil), ErrMapEmpty)
	assert.NoError(bus.MapIO("lower", 0x0100, 0x0103, nil, nil))

	regions := bus.Regions()
	if assert.Len(regions, 2) {
		assert.Equal("lower", regions[0].Name)
		assert.Equal("reg", regions[1].Name)
	}

	value, err := bus.Load(0x2001, 1)
	assert.NoError(err)
	assert.Equal(uint32(0x56), value)

	assert.NoError(bus.Store(0x2000, 1, 0x1ff))
	assert.NoError(bus.Store(0x2000, 4, 0xcafef00d))
	assert.Equal([]uint32{0xff, 0xcafef00d}, written)

	// Narrow stores must hit the register address.
	assert.ErrorIs(bus.Store(0x2001, 1, 0), ErrUnmapped)
	// No read handler.
	_, err = bus.Load(0x0100, 4)
	assert.ErrorIs(err, ErrUnmapped)

	assert.Equal([]mmio.Access{
		{Addr: 0x2000, Value: 0x12345678},
		{Write: true, Addr: 0x2000, Value: 0xff},
		{Write: true, Addr: 0x2000, Value: 0xcafef00d},
	}, bus.IOLog)
}

func TestDevices(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(0x1000, 0x100)
	var uart UART
	var port Port
	assert.NoError(uart.Map(bus, 0x2004, 0x2008))
	assert.NoError(port.Map(bus, 0x3000))

	bus.Write32(0x2008, 'x')
	bus.Write32(0x2004, 104)
	bus.Write32(0x2008, 'o')
	bus.Write32(0x2008, 'k')
	assert.NoError(bus.Store(0x3000, 1, 'p'))

	assert.NoError(bus.Fault)
	assert.True(uart.Configured)
	assert.Equal(uint32(104), uart.Rate)
	assert.Equal(uint32(104), bus.Read32(0x2004))
	assert.Equal([]byte("xok"), uart.Sent)
	assert.Equal(1, uart.Early)
	assert.Equal([]byte("p"), port.Data)

	uart.Reset()
	assert.False(uart.Configured)
	assert.Nil(uart.Sent)
	assert.Equal(0, uart.Early)
}
