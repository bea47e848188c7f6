// Package isa holds the RV32I base instruction encodings shared by the
// assembler and the simulator.
package isa

// Major opcodes.
const (
	OP_LOAD   = uint32(0b0000011)
	OP_IMM    = uint32(0b0010011)
	OP_AUIPC  = uint32(0b0010111)
	OP_STORE  = uint32(0b0100011)
	OP_REG    = uint32(0b0110011)
	OP_LUI    = uint32(0b0110111)
	OP_BRANCH = uint32(0b1100011)
	OP_JALR   = uint32(0b1100111)
	OP_JAL    = uint32(0b1101111)
	OP_SYSTEM = uint32(0b1110011)
)

// funct3 values.
const (
	F3_BEQ  = uint32(0b000)
	F3_BNE  = uint32(0b001)
	F3_BLT  = uint32(0b100)
	F3_BGE  = uint32(0b101)
	F3_BLTU = uint32(0b110)
	F3_BGEU = uint32(0b111)

	F3_LB  = uint32(0b000)
	F3_LH  = uint32(0b001)
	F3_LW  = uint32(0b010)
	F3_LBU = uint32(0b100)
	F3_LHU = uint32(0b101)

	F3_SB = uint32(0b000)
	F3_SH = uint32(0b001)
	F3_SW = uint32(0b010)

	F3_ADD  = uint32(0b000) // ADD, SUB, ADDI
	F3_SLL  = uint32(0b001)
	F3_SLT  = uint32(0b010)
	F3_SLTU = uint32(0b011)
	F3_XOR  = uint32(0b100)
	F3_SRL  = uint32(0b101) // SRL, SRA
	F3_OR   = uint32(0b110)
	F3_AND  = uint32(0b111)
)

// funct7 values.
const (
	F7_BASE = uint32(0b0000000)
	F7_ALT  = uint32(0b0100000) // SUB, SRA, SRAI
)

// SYSTEM immediates.
const (
	SYS_ECALL  = uint32(0)
	SYS_EBREAK = uint32(1)
)

// Register numbers used by name in the boot tooling.
const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
	REG_A0   = 10
	REG_A1   = 11
)

// Immediate ranges.
const (
	IMM12_MIN = -2048
	IMM12_MAX = 2047
	IMM13_MIN = -4096    // Branch offsets.
	IMM13_MAX = 4094     // Branch offsets.
	IMM21_MIN = -1 << 20 // Jump offsets.
	IMM21_MAX = 1<<20 - 2
)

// NOP is ADDI x0, x0, 0.
const NOP = uint32(0x00000013)

// Word is one encoded instruction.
type Word uint32

func (w Word) Opcode() uint32 { return uint32(w) & 0x7f }
func (w Word) Rd() int        { return int(uint32(w)>>7) & 0x1f }
func (w Word) Funct3() uint32 { return (uint32(w) >> 12) & 0x7 }
func (w Word) Rs1() int       { return int(uint32(w)>>15) & 0x1f }
func (w Word) Rs2() int       { return int(uint32(w)>>20) & 0x1f }
func (w Word) Funct7() uint32 { return uint32(w) >> 25 }

// ImmI is the sign extended I-type immediate.
func (w Word) ImmI() int32 {
	return int32(w) >> 20
}

// ImmS is the sign extended S-type immediate.
func (w Word) ImmS() int32 {
	return (int32(w)>>25)<<5 | int32((uint32(w)>>7)&0x1f)
}

// ImmB is the sign extended B-type immediate.
func (w Word) ImmB() int32 {
	u := uint32(w)
	imm := (int32(u) >> 31) << 12
	imm |= int32((u>>7)&0x1) << 11
	imm |= int32((u>>25)&0x3f) << 5
	imm |= int32((u>>8)&0xf) << 1
	return imm
}

// ImmU is the U-type immediate, already shifted into place.
func (w Word) ImmU() int32 {
	return int32(uint32(w) & 0xfffff000)
}

// ImmJ is the sign extended J-type immediate.
func (w Word) ImmJ() int32 {
	u := uint32(w)
	imm := (int32(u) >> 31) << 20
	imm |= int32((u>>12)&0xff) << 12
	imm |= int32((u>>20)&0x1) << 11
	imm |= int32((u>>21)&0x3ff) << 1
	return imm
}

// R encodes a register-register instruction.
func R(op, f3, f7 uint32, rd, rs1, rs2 int) Word {
	return Word(f7<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 | f3<<12 | uint32(rd&0x1f)<<7 | op)
}

// I encodes an immediate instruction.
func I(op, f3 uint32, rd, rs1 int, imm int32) Word {
	return Word(uint32(imm&0xfff)<<20 | uint32(rs1&0x1f)<<15 | f3<<12 | uint32(rd&0x1f)<<7 | op)
}

// S encodes a store.
func S(op, f3 uint32, rs1, rs2 int, imm int32) Word {
	u := uint32(imm)
	return Word(((u>>5)&0x7f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 | f3<<12 | (u&0x1f)<<7 | op)
}

// B encodes a branch.
func B(op, f3 uint32, rs1, rs2 int, imm int32) Word {
	u := uint32(imm)
	return Word(((u>>12)&1)<<31 | ((u>>5)&0x3f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		f3<<12 | ((u>>1)&0xf)<<8 | ((u>>11)&1)<<7 | op)
}

// U encodes an upper immediate; imm holds the 20 upper bits.
func U(op uint32, rd int, imm uint32) Word {
	return Word((imm&0xfffff)<<12 | uint32(rd&0x1f)<<7 | op)
}

// J encodes a jump.
func J(op uint32, rd int, imm int32) Word {
	u := uint32(imm)
	return Word(((u>>20)&1)<<31 | ((u>>1)&0x3ff)<<21 | ((u>>11)&1)<<20 | ((u>>12)&0xff)<<12 | uint32(rd&0x1f)<<7 | op)
}

// HiLo splits a 32-bit constant for a LUI + ADDI pair.
func HiLo(value uint32) (hi uint32, lo int32) {
	hi = ((value + 0x800) >> 12) & 0xfffff
	lo = int32(value<<20) >> 20
	return
}
