package isa

import (
	"fmt"
)

// ABI register names, by number.
var RegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var regIndex map[string]int

func init() {
	regIndex = make(map[string]int, 65)
	for n, name := range RegNames {
		regIndex[name] = n
		regIndex[fmt.Sprintf("x%d", n)] = n
	}
	regIndex["fp"] = 8
}

// Reg looks up a register by ABI or numeric name.
func Reg(name string) (reg int, ok bool) {
	reg, ok = regIndex[name]
	return
}
