// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package sim simulates the reference board: an RV32I hart, RAM, the UART and
// a character output port. A Machine runs the real boot sequence against the
// simulated bus, and performs the control transfer by executing an
// assembled stub on the simulated hart.
package sim

import (
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"log"
	"slices"
	"strings"

	"github.com/ezrec/rvboot/approm"
	"github.com/ezrec/rvboot/asm"
	"github.com/ezrec/rvboot/boot"
	"github.com/ezrec/rvboot/config"
	"github.com/ezrec/rvboot/internal"
	"github.com/ezrec/rvboot/isa"
	"github.com/ezrec/rvboot/mmio"
)

//go:embed transfer.rvs
var transferSource string

// Machine is a simulated board running the bootloader.
type Machine struct {
	Verbose bool // If set, enables verbose logging.

	Layout *config.Layout
	Bus    *Bus
	Cpu    *Cpu
	UART   UART
	Port   Port

	// Recorder holds every bus access made by the bootloader.
	Recorder mmio.Recorder

	Stub *asm.Program     // Control transfer stub, in boot ROM.
	Boot *boot.Bootloader // Boot sequence, bound to this machine.

	// Steps limits the instructions run after the stub. Zero stops after
	// the stub; negative runs until the application halts.
	Steps int

	// OnTick, if set, is called before every instruction. An error stops
	// the run.
	OnTick func(m *Machine) error

	handoff []Retired

	Transferred bool  // Set once the bootloader transferred control.
	Idled       bool  // Set if the bootloader went idle.
	Err         error // Why the run after the transfer stopped.
}

var _ boot.Transferer = (*Machine)(nil)

// NewMachine builds a board for a layout.
func NewMachine(layout *config.Layout) (m *Machine, err error) {
	err = layout.Check()
	if err != nil {
		return
	}

	m = &Machine{
		Layout: layout,
		Bus:    NewBus(layout.RamBase, layout.RamSize),
	}
	m.Cpu = NewCpu(m.Bus)

	err = errors.Join(
		m.UART.Map(m.Bus, layout.RateAddr, layout.TransmitAddr),
		m.Port.Map(m.Bus, layout.OutPortAddr),
	)
	if err != nil {
		m = nil
		return
	}

	as := &asm.Assembler{Base: layout.BootBase}
	for key, value := range layout.Defines() {
		as.Predefine(key, value)
	}
	m.Stub, err = as.Parse(strings.NewReader(transferSource))
	if err != nil {
		m = nil
		return
	}

	m.Recorder.Bus = m.Bus
	m.Boot = boot.New(layout, &m.Recorder, m)
	m.Boot.Idle = func() { m.Idled = true }

	return
}

// Defines returns assembler equates for programs run on the machine: the
// layout, then the stub location.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(m.Layout.Defines(),
		internal.Sorted(map[string]string{
			"STUB_BASE": fmt.Sprintf("0x%08x", m.Stub.Base),
			"STUB_END":  fmt.Sprintf("0x%08x", m.Stub.End()),
		}),
	)
}

// LoadImage writes an application image into RAM.
func (m *Machine) LoadImage(img *approm.Image) (err error) {
	m.Bus.Fault = nil
	img.Load(m.Bus)
	err = m.Bus.Fault
	m.Bus.Fault = nil
	return
}

// LoadProgram writes assembled code into RAM at its base.
func (m *Machine) LoadProgram(prog *asm.Program) (err error) {
	for addr, word := range prog.Words() {
		err = m.Bus.Store(addr, 4, word)
		if err != nil {
			return
		}
	}
	return
}

// Reset returns the board to its power-on state. RAM keeps its contents,
// and the stub is reloaded into boot ROM.
func (m *Machine) Reset() (err error) {
	if m.Verbose {
		log.Printf("sim: reset")
	}

	m.UART.Reset()
	m.Port.Data = nil
	m.Recorder.Reset()
	m.Bus.IOLog = nil
	m.Bus.Fault = nil
	m.Cpu.Reset(m.Layout.BootBase)

	m.handoff = nil
	m.Transferred = false
	m.Idled = false
	m.Err = nil

	err = m.LoadProgram(m.Stub)
	return
}

// Tick performs a single instruction. done is set when the application
// halts on an ebreak or an idle loop.
func (m *Machine) Tick() (done bool, err error) {
	if m.OnTick != nil {
		err = m.OnTick(m)
		if err != nil {
			return
		}
	}

	m.Cpu.Verbose = m.Verbose
	err = m.Cpu.Tick()
	if errors.Is(err, ErrIdle) || errors.Is(err, ErrBreak) {
		done = true
		err = nil
	}
	return
}

// Transfer runs the stub with a0 = pc and a1 = sp, then the application.
// The application starts with sp and pc set, a0 and a1 cleared, and every
// other register as the bootloader left it: zero after a Reset.
func (m *Machine) Transfer(sp uint32, pc uint32) {
	m.Transferred = true

	cpu := m.Cpu
	cpu.Pc = m.Stub.Base
	cpu.Register[isa.REG_A0] = pc
	cpu.Register[isa.REG_A1] = sp

	m.Err = m.runStub()
	if m.Err != nil {
		return
	}

	// The application gets no arguments: only sp and pc carry state.
	cpu.Register[isa.REG_A0] = 0
	cpu.Register[isa.REG_A1] = 0

	if m.Verbose {
		log.Printf("sim: transferred sp=%08x pc=%08x", cpu.Register[isa.REG_SP], cpu.Pc)
	}

	for n := 0; m.Steps < 0 || n < m.Steps; n++ {
		var done bool
		done, m.Err = m.Tick()
		if m.Err != nil || done {
			return
		}
	}

	if m.Steps > 0 {
		m.Err = ErrStepLimit
	}
}

// runStub executes the stub, always traced.
func (m *Machine) runStub() (err error) {
	cpu := m.Cpu
	tracing := cpu.Tracing
	start := len(cpu.Trace)

	cpu.Tracing = true
	for range m.Stub.Code {
		_, err = m.Tick()
		if err != nil {
			break
		}
	}
	cpu.Tracing = tracing

	m.handoff = slices.Clone(cpu.Trace[start:])
	if !tracing {
		cpu.Trace = cpu.Trace[:start]
	}
	return
}

// Handoff returns the instructions retired by the transfer stub.
func (m *Machine) Handoff() []Retired {
	return m.handoff
}

// Run resets the board and runs the boot sequence.
func (m *Machine) Run() (err error) {
	err = m.Reset()
	if err != nil {
		return
	}

	m.Boot.Verbose = m.Verbose
	m.UART.Verbose = m.Verbose
	m.Bus.Verbose = m.Verbose
	m.Boot.Run()

	err = errors.Join(m.Bus.Fault, m.Err)
	return
}
