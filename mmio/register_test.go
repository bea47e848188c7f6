package mmio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type wordBus map[uint32]uint32

func (wb wordBus) Read32(addr uint32) uint32         { return wb[addr] }
func (wb wordBus) Write32(addr uint32, value uint32) { wb[addr] = value }

func TestRegister(t *testing.T) {
	assert := assert.New(t)

	bus := wordBus{}
	reg := NewRegister(bus, 0x02000004)

	reg.Write(104)
	assert.Equal(uint32(104), bus[0x02000004])
	assert.Equal(uint32(104), reg.Read())
	assert.Equal("reg@02000004", reg.String())
}

func TestRecorder(t *testing.T) {
	assert := assert.New(t)

	rec := &Recorder{Bus: wordBus{}}

	rec.Write32(0x10, 1)
	rec.Write32(0x14, 2)
	value := rec.Read32(0x10)
	rec.Write32(0x10, 3)

	assert.Equal(uint32(1), value)
	assert.Equal([]Access{
		{Write: true, Addr: 0x10, Value: 1},
		{Write: true, Addr: 0x14, Value: 2},
		{Write: false, Addr: 0x10, Value: 1},
		{Write: true, Addr: 0x10, Value: 3},
	}, rec.Log)
	assert.Equal([]uint32{1, 3}, rec.WritesTo(0x10))
	assert.Equal([]uint32{2}, rec.WritesTo(0x14))

	var order []int
	for n := range rec.Writes() {
		order = append(order, n)
	}
	assert.Equal([]int{0, 1, 3}, order)

	assert.Equal("W 00000010 <- 00000001", rec.Log[0].String())
	assert.Equal("R 00000010 -> 00000001", rec.Log[2].String())

	rec.Reset()
	assert.Empty(rec.Log)
}
