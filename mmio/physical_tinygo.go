//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Physical is the processor's own address space. Every access is a volatile
// load or store, so the compiler keeps each register write in program order.
type Physical struct{}

var _ Bus = Physical{}

func (Physical) Read32(addr uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

func (Physical) Write32(addr uint32, value uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), value)
}
