// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package sim

import (
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/rvboot/isa"
)

// Retired is one executed instruction.
type Retired struct {
	Pc    uint32   // Address the instruction was fetched from.
	Word  isa.Word // Instruction word.
	Rd    int      // Destination register, or zero.
	Value uint32   // Value written to Rd.
	Next  uint32   // Pc after the instruction.
}

func (r Retired) String() string {
	if r.Rd == 0 {
		return fmt.Sprintf("%08x: %08x", r.Pc, uint32(r.Word))
	}
	return fmt.Sprintf("%08x: %08x %v=%08x", r.Pc, uint32(r.Word), isa.RegNames[r.Rd], r.Value)
}

// Cpu is an RV32I hart.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Tracing bool // Set to keep every retired instruction in Trace.

	Bus *Bus

	Pc       uint32
	Register [32]uint32

	Ticks int       // Instructions retired since reset.
	Trace []Retired // Retired instructions, when tracing.
}

// NewCpu creates a CPU on a bus.
func NewCpu(bus *Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus: bus,
	}
	return
}

// Reset clears the registers and statistics, and sets the pc.
func (cpu *Cpu) Reset(pc uint32) {
	if cpu.Verbose {
		log.Printf("sim: reset pc=%08x", pc)
	}
	clear(cpu.Register[:])
	cpu.Pc = pc
	cpu.Ticks = 0
	cpu.Trace = nil
}

// String returns the CPU state as a string.
func (cpu *Cpu) String() string {
	var text strings.Builder
	fmt.Fprintf(&text, "   pc: %08x\n", cpu.Pc)
	for n := 1; n < len(cpu.Register); n++ {
		fmt.Fprintf(&text, "% 5s: %08x", isa.RegNames[n], cpu.Register[n])
		if n%4 == 3 || n == len(cpu.Register)-1 {
			text.WriteString("\n")
		} else {
			text.WriteString(" ")
		}
	}
	return text.String()
}

// FetchCode fetches the instruction at the pc.
func (cpu *Cpu) FetchCode() (word isa.Word, err error) {
	if cpu.Pc&3 != 0 {
		err = &ErrFault{Addr: cpu.Pc, Err: ErrMisaligned}
		return
	}
	value, err := cpu.Bus.Load(cpu.Pc, 4)
	word = isa.Word(value)
	return
}

func (cpu *Cpu) set(rd int, value uint32) {
	if rd != 0 {
		cpu.Register[rd] = value
	}
}

func alu(f3 uint32, alt bool, a uint32, b uint32) (value uint32) {
	switch f3 {
	case isa.F3_ADD:
		if alt {
			value = a - b
		} else {
			value = a + b
		}
	case isa.F3_SLL:
		value = a << (b & 31)
	case isa.F3_SLT:
		if int32(a) < int32(b) {
			value = 1
		}
	case isa.F3_SLTU:
		if a < b {
			value = 1
		}
	case isa.F3_XOR:
		value = a ^ b
	case isa.F3_SRL:
		if alt {
			value = uint32(int32(a) >> (b & 31))
		} else {
			value = a >> (b & 31)
		}
	case isa.F3_OR:
		value = a | b
	case isa.F3_AND:
		value = a & b
	}
	return
}

func taken(f3 uint32, a uint32, b uint32) (ok bool, err error) {
	switch f3 {
	case isa.F3_BEQ:
		ok = a == b
	case isa.F3_BNE:
		ok = a != b
	case isa.F3_BLT:
		ok = int32(a) < int32(b)
	case isa.F3_BGE:
		ok = int32(a) >= int32(b)
	case isa.F3_BLTU:
		ok = a < b
	case isa.F3_BGEU:
		ok = a >= b
	default:
		err = ErrIllegal(0)
	}
	return
}

// Execute runs one instruction at the pc.
func (cpu *Cpu) Execute(word isa.Word) (err error) {
	pc := cpu.Pc
	next := pc + 4
	rd := word.Rd()
	rs1 := cpu.Register[word.Rs1()]
	rs2 := cpu.Register[word.Rs2()]
	f3 := word.Funct3()
	illegal := ErrIllegal(uint32(word))

	var value uint32
	write := false

	switch word.Opcode() {
	case isa.OP_LUI:
		value, write = uint32(word.ImmU()), true
	case isa.OP_AUIPC:
		value, write = pc+uint32(word.ImmU()), true
	case isa.OP_JAL:
		value, write = next, true
		next = pc + uint32(word.ImmJ())
	case isa.OP_JALR:
		if f3 != 0 {
			return illegal
		}
		value, write = next, true
		next = (rs1 + uint32(word.ImmI())) &^ 1
	case isa.OP_BRANCH:
		var ok bool
		ok, err = taken(f3, rs1, rs2)
		if err != nil {
			return illegal
		}
		if ok {
			next = pc + uint32(word.ImmB())
		}
	case isa.OP_LOAD:
		addr := rs1 + uint32(word.ImmI())
		switch f3 {
		case isa.F3_LB:
			value, err = cpu.Bus.Load(addr, 1)
			value = uint32(int32(int8(value)))
		case isa.F3_LH:
			value, err = cpu.Bus.Load(addr, 2)
			value = uint32(int32(int16(value)))
		case isa.F3_LW:
			value, err = cpu.Bus.Load(addr, 4)
		case isa.F3_LBU:
			value, err = cpu.Bus.Load(addr, 1)
		case isa.F3_LHU:
			value, err = cpu.Bus.Load(addr, 2)
		default:
			return illegal
		}
		if err != nil {
			return
		}
		write = true
	case isa.OP_STORE:
		addr := rs1 + uint32(word.ImmS())
		switch f3 {
		case isa.F3_SB:
			err = cpu.Bus.Store(addr, 1, rs2)
		case isa.F3_SH:
			err = cpu.Bus.Store(addr, 2, rs2)
		case isa.F3_SW:
			err = cpu.Bus.Store(addr, 4, rs2)
		default:
			return illegal
		}
		if err != nil {
			return
		}
	case isa.OP_IMM:
		imm := uint32(word.ImmI())
		alt := false
		switch f3 {
		case isa.F3_SLL:
			if word.Funct7() != isa.F7_BASE {
				return illegal
			}
		case isa.F3_SRL:
			switch word.Funct7() {
			case isa.F7_BASE:
			case isa.F7_ALT:
				alt = true
			default:
				return illegal
			}
			imm &= 31
		}
		value, write = alu(f3, alt, rs1, imm), true
	case isa.OP_REG:
		alt := false
		switch word.Funct7() {
		case isa.F7_BASE:
		case isa.F7_ALT:
			if f3 != isa.F3_ADD && f3 != isa.F3_SRL {
				return illegal
			}
			alt = true
		default:
			return illegal
		}
		value, write = alu(f3, alt, rs1, rs2), true
	case isa.OP_SYSTEM:
		switch uint32(word) {
		case uint32(isa.I(isa.OP_SYSTEM, 0, 0, 0, int32(isa.SYS_ECALL))):
			return ErrEcall
		case uint32(isa.I(isa.OP_SYSTEM, 0, 0, 0, int32(isa.SYS_EBREAK))):
			return ErrBreak
		default:
			return illegal
		}
	default:
		return illegal
	}

	if !write {
		rd = 0
	}
	cpu.set(rd, value)
	if rd == 0 {
		value = 0
	}

	retired := Retired{Pc: pc, Word: word, Rd: rd, Value: value, Next: next}
	if cpu.Verbose {
		log.Printf("sim: %v", retired)
	}
	if cpu.Tracing {
		cpu.Trace = append(cpu.Trace, retired)
	}

	cpu.Pc = next
	cpu.Ticks++

	if next == pc {
		err = ErrIdle
	}

	return
}

// Tick fetches and executes one instruction.
func (cpu *Cpu) Tick() (err error) {
	pc := cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, Err: err}
		}
	}()

	word, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(word)
	return
}
