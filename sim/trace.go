package sim

import (
	"github.com/ezrec/rvboot/isa"
)

// Reads reports whether the instruction reads register reg.
func (r Retired) Reads(reg int) bool {
	if reg == 0 {
		return false
	}
	w := r.Word
	switch w.Opcode() {
	case isa.OP_JALR, isa.OP_LOAD, isa.OP_IMM:
		return w.Rs1() == reg
	case isa.OP_BRANCH, isa.OP_STORE, isa.OP_REG:
		return w.Rs1() == reg || w.Rs2() == reg
	}
	return false
}

// Writes reports whether the instruction wrote register reg.
func (r Retired) Writes(reg int) bool {
	return reg != 0 && r.Rd == reg
}

// Touches reports whether the instruction reads or writes register reg.
func (r Retired) Touches(reg int) bool {
	return r.Reads(reg) || r.Writes(reg)
}

// Jumps reports whether the instruction redirected the pc.
func (r Retired) Jumps() bool {
	return r.Next != r.Pc+4
}
