package asm

import (
	"github.com/ezrec/rvboot/isa"
)

type format int

const (
	FMT_R      = format(iota) // op rd, rs1, rs2
	FMT_I                     // op rd, rs1, imm
	FMT_SHIFT                 // op rd, rs1, shamt
	FMT_LOAD                  // op rd, off(rs1)
	FMT_STORE                 // op rs2, off(rs1)
	FMT_BRANCH                // op rs1, rs2, target
	FMT_U                     // op rd, imm20
	FMT_JAL                   // jal [rd,] target
	FMT_JALR                  // jalr [rd,] off(rs1) | jalr rs1
	FMT_SYSTEM                // ecall | ebreak
	FMT_PSEUDO                // expands to base instructions
	FMT_DATA                  // directives that emit data
)

type instruction struct {
	format format
	op     uint32
	f3     uint32
	f7     uint32 // funct7, or the SYSTEM immediate
}

var instructions = map[string]instruction{
	"add":  {FMT_R, isa.OP_REG, isa.F3_ADD, isa.F7_BASE},
	"sub":  {FMT_R, isa.OP_REG, isa.F3_ADD, isa.F7_ALT},
	"sll":  {FMT_R, isa.OP_REG, isa.F3_SLL, isa.F7_BASE},
	"slt":  {FMT_R, isa.OP_REG, isa.F3_SLT, isa.F7_BASE},
	"sltu": {FMT_R, isa.OP_REG, isa.F3_SLTU, isa.F7_BASE},
	"xor":  {FMT_R, isa.OP_REG, isa.F3_XOR, isa.F7_BASE},
	"srl":  {FMT_R, isa.OP_REG, isa.F3_SRL, isa.F7_BASE},
	"sra":  {FMT_R, isa.OP_REG, isa.F3_SRL, isa.F7_ALT},
	"or":   {FMT_R, isa.OP_REG, isa.F3_OR, isa.F7_BASE},
	"and":  {FMT_R, isa.OP_REG, isa.F3_AND, isa.F7_BASE},

	"addi":  {FMT_I, isa.OP_IMM, isa.F3_ADD, 0},
	"slti":  {FMT_I, isa.OP_IMM, isa.F3_SLT, 0},
	"sltiu": {FMT_I, isa.OP_IMM, isa.F3_SLTU, 0},
	"xori":  {FMT_I, isa.OP_IMM, isa.F3_XOR, 0},
	"ori":   {FMT_I, isa.OP_IMM, isa.F3_OR, 0},
	"andi":  {FMT_I, isa.OP_IMM, isa.F3_AND, 0},

	"slli": {FMT_SHIFT, isa.OP_IMM, isa.F3_SLL, isa.F7_BASE},
	"srli": {FMT_SHIFT, isa.OP_IMM, isa.F3_SRL, isa.F7_BASE},
	"srai": {FMT_SHIFT, isa.OP_IMM, isa.F3_SRL, isa.F7_ALT},

	"lb":  {FMT_LOAD, isa.OP_LOAD, isa.F3_LB, 0},
	"lh":  {FMT_LOAD, isa.OP_LOAD, isa.F3_LH, 0},
	"lw":  {FMT_LOAD, isa.OP_LOAD, isa.F3_LW, 0},
	"lbu": {FMT_LOAD, isa.OP_LOAD, isa.F3_LBU, 0},
	"lhu": {FMT_LOAD, isa.OP_LOAD, isa.F3_LHU, 0},

	"sb": {FMT_STORE, isa.OP_STORE, isa.F3_SB, 0},
	"sh": {FMT_STORE, isa.OP_STORE, isa.F3_SH, 0},
	"sw": {FMT_STORE, isa.OP_STORE, isa.F3_SW, 0},

	"beq":  {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BEQ, 0},
	"bne":  {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BNE, 0},
	"blt":  {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BLT, 0},
	"bge":  {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BGE, 0},
	"bltu": {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BLTU, 0},
	"bgeu": {FMT_BRANCH, isa.OP_BRANCH, isa.F3_BGEU, 0},

	"lui":   {FMT_U, isa.OP_LUI, 0, 0},
	"auipc": {FMT_U, isa.OP_AUIPC, 0, 0},

	"jal":  {FMT_JAL, isa.OP_JAL, 0, 0},
	"jalr": {FMT_JALR, isa.OP_JALR, 0, 0},

	"ecall":  {FMT_SYSTEM, isa.OP_SYSTEM, 0, isa.SYS_ECALL},
	"ebreak": {FMT_SYSTEM, isa.OP_SYSTEM, 0, isa.SYS_EBREAK},

	"nop":  {format: FMT_PSEUDO},
	"li":   {format: FMT_PSEUDO},
	"la":   {format: FMT_PSEUDO},
	"mv":   {format: FMT_PSEUDO},
	"not":  {format: FMT_PSEUDO},
	"neg":  {format: FMT_PSEUDO},
	"j":    {format: FMT_PSEUDO},
	"jr":   {format: FMT_PSEUDO},
	"ret":  {format: FMT_PSEUDO},
	"call": {format: FMT_PSEUDO},
	"beqz": {format: FMT_PSEUDO},
	"bnez": {format: FMT_PSEUDO},

	".word":  {format: FMT_DATA},
	".space": {format: FMT_DATA},
	".ascii": {format: FMT_DATA},
	".asciz": {format: FMT_DATA},
}

func (asm *Assembler) reg(word string) (reg int, err error) {
	reg, ok := isa.Reg(word)
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

func (asm *Assembler) imm(word string, pc uint32, min, max int64) (imm int32, err error) {
	value, err := asm.valueOf(word, pc, 0)
	if err != nil {
		return
	}
	if value < min || value > max {
		err = ErrImmRange
		return
	}
	imm = int32(value)
	return
}

func (asm *Assembler) offset(word string, pc uint32, min, max int64) (off int32, err error) {
	target, err := asm.valueOf(word, pc, 0)
	if err != nil {
		return
	}
	delta := int64(int32(uint32(target) - pc))
	if delta&1 != 0 {
		err = ErrTargetAlignment
		return
	}
	if delta < min || delta > max {
		err = ErrTargetRange
		return
	}
	off = int32(delta)
	return
}

func (asm *Assembler) memory(word string, pc uint32) (off int32, reg int, err error) {
	offset, name, err := splitMemory(word)
	if err != nil {
		return
	}
	reg, err = asm.reg(name)
	if err != nil {
		return
	}
	off, err = asm.imm(offset, pc, isa.IMM12_MIN, isa.IMM12_MAX)
	return
}

// regs parses the leading register operands of a statement.
func (asm *Assembler) regs(ops []string, count int) (regs []int, err error) {
	regs = make([]int, count)
	for n := range count {
		regs[n], err = asm.reg(ops[n])
		if err != nil {
			return
		}
	}
	return
}

// loadConstant emits LI/LA, in one or two words as sized by the first pass.
func (asm *Assembler) loadConstant(st *Statement, rd int, word string) (words []uint32, err error) {
	value, err := asm.valueOf(word, st.Addr, 0)
	if err != nil {
		return
	}
	if value < -(1<<31) || value > 0xffffffff {
		err = ErrImmRange
		return
	}
	if st.Size == 1 {
		if value < isa.IMM12_MIN || value > isa.IMM12_MAX {
			err = ErrImmRange
			return
		}
		words = []uint32{uint32(isa.I(isa.OP_IMM, isa.F3_ADD, rd, isa.REG_ZERO, int32(value)))}
		return
	}
	hi, lo := isa.HiLo(uint32(value))
	words = []uint32{
		uint32(isa.U(isa.OP_LUI, rd, hi)),
		uint32(isa.I(isa.OP_IMM, isa.F3_ADD, rd, rd, lo)),
	}
	return
}

func operands(ops []string, counts ...int) (err error) {
	for _, count := range counts {
		if len(ops) == count {
			return
		}
	}
	err = ErrOperandCount
	return
}

// encode is the second pass over a statement.
func (asm *Assembler) encode(st *Statement) (words []uint32, err error) {
	mnemonic := st.Words[0]
	ops := st.Words[1:]
	pc := st.Addr
	ins := instructions[mnemonic]

	var word isa.Word
	var regs []int
	var imm int32

	switch ins.format {
	case FMT_R:
		if err = operands(ops, 3); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 3); err != nil {
			return
		}
		word = isa.R(ins.op, ins.f3, ins.f7, regs[0], regs[1], regs[2])
	case FMT_I:
		if err = operands(ops, 3); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 2); err != nil {
			return
		}
		if imm, err = asm.imm(ops[2], pc, isa.IMM12_MIN, isa.IMM12_MAX); err != nil {
			return
		}
		word = isa.I(ins.op, ins.f3, regs[0], regs[1], imm)
	case FMT_SHIFT:
		if err = operands(ops, 3); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 2); err != nil {
			return
		}
		if imm, err = asm.imm(ops[2], pc, 0, 31); err != nil {
			return
		}
		word = isa.I(ins.op, ins.f3, regs[0], regs[1], int32(ins.f7<<5)|imm)
	case FMT_LOAD:
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		var base int
		if imm, base, err = asm.memory(ops[1], pc); err != nil {
			return
		}
		word = isa.I(ins.op, ins.f3, regs[0], base, imm)
	case FMT_STORE:
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		var base int
		if imm, base, err = asm.memory(ops[1], pc); err != nil {
			return
		}
		word = isa.S(ins.op, ins.f3, base, regs[0], imm)
	case FMT_BRANCH:
		if err = operands(ops, 3); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 2); err != nil {
			return
		}
		if imm, err = asm.offset(ops[2], pc, isa.IMM13_MIN, isa.IMM13_MAX); err != nil {
			return
		}
		word = isa.B(ins.op, ins.f3, regs[0], regs[1], imm)
	case FMT_U:
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		if imm, err = asm.imm(ops[1], pc, 0, 0xfffff); err != nil {
			return
		}
		word = isa.U(ins.op, regs[0], uint32(imm))
	case FMT_JAL:
		if err = operands(ops, 1, 2); err != nil {
			return
		}
		rd := isa.REG_RA
		if len(ops) == 2 {
			if rd, err = asm.reg(ops[0]); err != nil {
				return
			}
		}
		if imm, err = asm.offset(ops[len(ops)-1], pc, isa.IMM21_MIN, isa.IMM21_MAX); err != nil {
			return
		}
		word = isa.J(ins.op, rd, imm)
	case FMT_JALR:
		if err = operands(ops, 1, 2, 3); err != nil {
			return
		}
		rd := isa.REG_RA
		var base int
		switch len(ops) {
		case 1:
			if base, err = asm.reg(ops[0]); err != nil {
				imm, base, err = asm.memory(ops[0], pc)
			}
		case 2:
			if rd, err = asm.reg(ops[0]); err != nil {
				return
			}
			imm, base, err = asm.memory(ops[1], pc)
		case 3:
			if regs, err = asm.regs(ops, 2); err != nil {
				return
			}
			rd, base = regs[0], regs[1]
			imm, err = asm.imm(ops[2], pc, isa.IMM12_MIN, isa.IMM12_MAX)
		}
		if err != nil {
			return
		}
		word = isa.I(ins.op, 0, rd, base, imm)
	case FMT_SYSTEM:
		if err = operands(ops, 0); err != nil {
			return
		}
		word = isa.I(ins.op, 0, 0, 0, int32(ins.f7))
	case FMT_PSEUDO:
		words, err = asm.pseudo(st, mnemonic, ops)
		return
	case FMT_DATA:
		words, err = asm.data(st, mnemonic, ops)
		return
	default:
		err = ErrMnemonicInvalid
		return
	}

	words = []uint32{uint32(word)}
	return
}

// pseudo expands the pseudo-instructions.
func (asm *Assembler) pseudo(st *Statement, mnemonic string, ops []string) (words []uint32, err error) {
	pc := st.Addr
	var regs []int
	var word isa.Word

	switch mnemonic {
	case "nop":
		if err = operands(ops, 0); err != nil {
			return
		}
		word = isa.Word(isa.NOP)
	case "li", "la":
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		words, err = asm.loadConstant(st, regs[0], ops[1])
		return
	case "mv", "not", "neg":
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 2); err != nil {
			return
		}
		switch mnemonic {
		case "mv":
			word = isa.I(isa.OP_IMM, isa.F3_ADD, regs[0], regs[1], 0)
		case "not":
			word = isa.I(isa.OP_IMM, isa.F3_XOR, regs[0], regs[1], -1)
		case "neg":
			word = isa.R(isa.OP_REG, isa.F3_ADD, isa.F7_ALT, regs[0], isa.REG_ZERO, regs[1])
		}
	case "j", "call":
		if err = operands(ops, 1); err != nil {
			return
		}
		var off int32
		if off, err = asm.offset(ops[0], pc, isa.IMM21_MIN, isa.IMM21_MAX); err != nil {
			return
		}
		rd := isa.REG_ZERO
		if mnemonic == "call" {
			rd = isa.REG_RA
		}
		word = isa.J(isa.OP_JAL, rd, off)
	case "jr":
		if err = operands(ops, 1); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		word = isa.I(isa.OP_JALR, 0, isa.REG_ZERO, regs[0], 0)
	case "ret":
		if err = operands(ops, 0); err != nil {
			return
		}
		word = isa.I(isa.OP_JALR, 0, isa.REG_ZERO, isa.REG_RA, 0)
	case "beqz", "bnez":
		if err = operands(ops, 2); err != nil {
			return
		}
		if regs, err = asm.regs(ops, 1); err != nil {
			return
		}
		var off int32
		if off, err = asm.offset(ops[1], pc, isa.IMM13_MIN, isa.IMM13_MAX); err != nil {
			return
		}
		f3 := isa.F3_BEQ
		if mnemonic == "bnez" {
			f3 = isa.F3_BNE
		}
		word = isa.B(isa.OP_BRANCH, f3, regs[0], isa.REG_ZERO, off)
	default:
		err = ErrMnemonicInvalid
		return
	}

	words = []uint32{uint32(word)}
	return
}

// data emits the words of a data directive.
func (asm *Assembler) data(st *Statement, mnemonic string, ops []string) (words []uint32, err error) {
	switch mnemonic {
	case ".word":
		for _, op := range ops {
			var value int64
			value, err = asm.valueOf(op, st.Addr, 0)
			if err != nil {
				return
			}
			if value < -(1<<31) || value > 0xffffffff {
				err = ErrImmRange
				return
			}
			words = append(words, uint32(value))
		}
	case ".space":
		words = make([]uint32, st.Size)
	case ".ascii", ".asciz":
		words = make([]uint32, st.Size)
		for n := 0; n < len(st.text); n++ {
			words[n/4] |= uint32(st.text[n]) << (8 * (n % 4))
		}
	}
	return
}
