//go:build tinygo.riscv

// Command firmware is the first stage loader image for the reference board.
package main

import (
	"github.com/ezrec/rvboot/boot"
	"github.com/ezrec/rvboot/config"
)

func main() {
	boot.NewTarget(config.Default()).Run()
}
