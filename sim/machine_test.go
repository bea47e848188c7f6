package sim

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvboot/approm"
	"github.com/ezrec/rvboot/asm"
	"github.com/ezrec/rvboot/boot"
	"github.com/ezrec/rvboot/config"
	"github.com/ezrec/rvboot/isa"
	"github.com/ezrec/rvboot/mmio"
)

const helloSource = `
	li t0, OUTPORT_ADDR
	la a1, message
loop:	lbu a0, 0(a1)
	beqz a0, done
	sb a0, 0(t0)
	addi a1, a1, 1
	j loop
done:	j done
message:
	.asciz "Hello, world!\n"
`

func assemble(t *testing.T, m *Machine, base uint32, source string) (payload []byte) {
	as := &asm.Assembler{Base: base}
	for key, value := range m.Defines() {
		as.Predefine(key, value)
	}
	prog, err := as.Parse(strings.NewReader(source))
	assert.NoError(t, err)
	if prog != nil {
		payload = prog.Bytes()
	}
	return
}

func newTestMachine(t *testing.T) (m *Machine) {
	m, err := NewMachine(config.Default())
	assert.NoError(t, err)
	return
}

func TestMachine_Hello(t *testing.T) {
	assert := assert.New(t)

	m := newTestMachine(t)
	layout := m.Layout

	payload := assemble(t, m, layout.AppBase+approm.DESCRIPTOR_SIZE, helloSource)
	img := approm.NewImage(layout.AppBase, layout.RamEnd(), payload)
	assert.NoError(m.LoadImage(img))

	m.Steps = 1000
	err := m.Run()
	assert.NoError(err)

	assert.True(m.Transferred)
	assert.True(m.Idled)
	assert.Equal(boot.IDLE, m.Boot.State)
	assert.Equal("Boot:", string(m.UART.Sent))
	assert.Equal(uint32(config.RATE_CODE), m.UART.Rate)
	assert.Equal(0, m.UART.Early)
	assert.Equal("Hello, world!\n", string(m.Port.Data))
	assert.Equal(layout.RamEnd(), m.Cpu.Register[isa.REG_SP])
}

func TestMachine_Sequence(t *testing.T) {
	assert := assert.New(t)

	m := newTestMachine(t)
	layout := m.Layout

	approm.Descriptor{StackPointer: 0x00104000, EntryPoint: 0x00104008}.Write(m.Bus, layout.AppBase)
	assert.NoError(m.Bus.Store(0x00104008, 4, uint32(isa.J(isa.OP_JAL, 0, 0))))

	assert.NoError(m.Run())

	// Bootloader bus traffic, in order.
	expected := []mmio.Access{
		{Write: true, Addr: layout.RateAddr, Value: layout.RateCode},
	}
	for _, c := range []byte(layout.Banner) {
		expected = append(expected, mmio.Access{Write: true, Addr: layout.TransmitAddr, Value: uint32(c)})
	}
	expected = append(expected,
		mmio.Access{Addr: layout.AppBase, Value: 0x00104000},
		mmio.Access{Addr: layout.AppBase + 4, Value: 0x00104008},
	)
	assert.Equal(expected, m.Recorder.Log)

	// The same writes reached the devices without any reads.
	var writes []mmio.Access
	for _, access := range m.Bus.IOLog {
		assert.True(access.Write)
		writes = append(writes, access)
	}
	assert.Equal(expected[:1+len(layout.Banner)], writes)

	assert.Equal(approm.Descriptor{StackPointer: 0x00104000, EntryPoint: 0x00104008}, m.Boot.Descriptor)
	assert.Equal(uint32(0x00104008), m.Cpu.Pc)
	assert.Equal(uint32(0x00104000), m.Cpu.Register[isa.REG_SP])
}

func TestMachine_Handoff(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		sp    uint32
		entry uint32
	}){
		{0x00104000, 0x00104008},
		{0x00110000, 0x00100000},
		{0x00000000, 0x00000000},
		{0xffffffff, 0xfffffffc},
		{0xdeadbeef, 0x00104002},
		{0x00108000, 0x10000000},
	}

	for _, entry := range table {
		name := fmt.Sprintf("sp=%08x entry=%08x", entry.sp, entry.entry)

		m := newTestMachine(t)
		approm.Descriptor{StackPointer: entry.sp, EntryPoint: entry.entry}.Write(m.Bus, m.Layout.AppBase)

		assert.NoError(m.Run(), name)
		assert.True(m.Transferred, name)
		assert.Equal(entry.entry, m.Cpu.Pc, name)
		assert.Equal(entry.sp, m.Cpu.Register[isa.REG_SP], name)

		handoff := m.Handoff()
		if !assert.Len(handoff, 2, name) {
			continue
		}

		// The stack pointer is loaded first, without a jump.
		load := handoff[0]
		assert.True(load.Writes(isa.REG_SP), name)
		assert.Equal(entry.sp, load.Value, name)
		assert.False(load.Jumps(), name)

		// The jump is next, and does not touch the stack pointer.
		jump := handoff[1]
		assert.True(jump.Jumps(), name)
		assert.False(jump.Touches(isa.REG_SP), name)
		assert.Equal(entry.entry, jump.Next, name)
		assert.Equal(load.Pc+4, jump.Pc, name)
	}
}

func TestMachine_Garbage(t *testing.T) {
	assert := assert.New(t)

	// Unchecked descriptors are followed wherever they lead.
	m := newTestMachine(t)
	approm.Descriptor{StackPointer: 0x12345678, EntryPoint: 0x20000000}.Write(m.Bus, m.Layout.AppBase)
	m.Steps = 10

	err := m.Run()
	assert.ErrorIs(err, ErrUnmapped)
	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(uint32(0x20000000), runtime.Pc)
	}
	assert.True(m.Transferred)
	assert.Equal(boot.IDLE, m.Boot.State)
}

func TestMachine_Rejected(t *testing.T) {
	assert := assert.New(t)

	m := newTestMachine(t)
	layout := m.Layout
	m.Boot.Validator = approm.Regions{{Base: layout.RamBase, Size: layout.RamSize}}
	approm.Descriptor{StackPointer: 0x12345678, EntryPoint: 0x00104008}.Write(m.Bus, layout.AppBase)

	assert.NoError(m.Run())
	assert.False(m.Transferred)
	assert.True(m.Idled)
	assert.ErrorIs(m.Boot.Err, approm.ErrStackOutside)
	assert.Equal("Boot:"+boot.REJECT_MARK, string(m.UART.Sent))
	assert.Equal(0, m.Cpu.Ticks)
	assert.Empty(m.Handoff())
}

func TestMachine_Steps(t *testing.T) {
	assert := assert.New(t)

	m := newTestMachine(t)
	layout := m.Layout
	payload := assemble(t, m, layout.AppBase+approm.DESCRIPTOR_SIZE, "loop:\taddi a0, a0, 1\n\tj loop\n")
	assert.NoError(m.LoadImage(approm.NewImage(layout.AppBase, layout.RamEnd(), payload)))

	m.Steps = 10
	assert.ErrorIs(m.Run(), ErrStepLimit)
	assert.Equal(uint32(5), m.Cpu.Register[isa.REG_A0])
	assert.Equal(12, m.Cpu.Ticks)
	assert.Empty(m.Cpu.Trace)

	m.Cpu.Tracing = true
	m.Steps = 0
	assert.NoError(m.Run())
	assert.Len(m.Cpu.Trace, 2)
	assert.Len(m.Handoff(), 2)

	// The stub operands do not leak into the application.
	assert.Equal(uint32(0), m.Cpu.Register[isa.REG_A0])
	assert.Equal(uint32(0), m.Cpu.Register[isa.REG_A1])
	assert.Equal(layout.RamEnd(), m.Cpu.Register[isa.REG_SP])
	assert.Equal(layout.AppBase+approm.DESCRIPTOR_SIZE, m.Cpu.Pc)

	stop := errors.New("stop")
	ticks := 0
	m.Steps = -1
	m.OnTick = func(m *Machine) error {
		ticks++
		if ticks > 4 {
			return stop
		}
		return nil
	}
	assert.ErrorIs(m.Run(), stop)
	assert.Equal(4, m.Cpu.Ticks)
}

func TestMachine_Verbose(t *testing.T) {
	assert := assert.New(t)

	m := newTestMachine(t)
	m.Verbose = true
	assert.NoError(m.Run())
	assert.True(m.UART.Verbose)
	assert.True(m.Bus.Verbose)
	assert.True(m.Boot.Verbose)
}

func TestNewMachine(t *testing.T) {
	assert := assert.New(t)

	layout := config.Default()
	layout.RateAddr |= 2
	_, err := NewMachine(layout)
	assert.ErrorIs(err, config.ErrAlignment)

	layout = config.Default()
	layout.OutPortAddr = layout.RamBase
	_, err = NewMachine(layout)
	assert.ErrorIs(err, ErrMapOverlap)

	layout = config.Default()
	layout.TransmitAddr = layout.RateAddr
	_, err = NewMachine(layout)
	assert.ErrorIs(err, ErrMapOverlap)

	m, err := NewMachine(config.Default())
	assert.NoError(err)
	assert.Equal(uint32(config.BOOTROM_START), m.Stub.Base)
	assert.Equal([]uint32{0x00058113, 0x00050067}, m.Stub.Code)

	var keys []string
	defines := map[string]string{}
	for key, value := range m.Defines() {
		keys = append(keys, key)
		defines[key] = value
	}
	assert.Equal([]string{"STUB_BASE", "STUB_END"}, keys[len(keys)-2:])
	assert.Equal("0x00100000", defines["STUB_BASE"])
	assert.Equal("0x00100008", defines["STUB_END"])
	assert.Equal("0x10000000", defines["OUTPORT_ADDR"])
}
