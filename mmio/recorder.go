package mmio

import (
	"fmt"
	"iter"
)

// Access is one bus transaction.
type Access struct {
	Write bool
	Addr  uint32
	Value uint32
}

func (a Access) String() string {
	if a.Write {
		return fmt.Sprintf("W %08x <- %08x", a.Addr, a.Value)
	}
	return fmt.Sprintf("R %08x -> %08x", a.Addr, a.Value)
}

// Recorder wraps a Bus and keeps every access in program order.
type Recorder struct {
	Bus
	Log []Access
}

var _ Bus = (*Recorder)(nil)

func (rec *Recorder) Read32(addr uint32) (value uint32) {
	value = rec.Bus.Read32(addr)
	rec.Log = append(rec.Log, Access{Addr: addr, Value: value})
	return
}

func (rec *Recorder) Write32(addr uint32, value uint32) {
	rec.Log = append(rec.Log, Access{Write: true, Addr: addr, Value: value})
	rec.Bus.Write32(addr, value)
}

// Writes yields the index and value of every write, in order.
func (rec *Recorder) Writes() iter.Seq2[int, Access] {
	return func(yield func(int, Access) bool) {
		for n, access := range rec.Log {
			if !access.Write {
				continue
			}
			if !yield(n, access) {
				return
			}
		}
	}
}

// WritesTo returns the values written to addr, in order.
func (rec *Recorder) WritesTo(addr uint32) (values []uint32) {
	for _, access := range rec.Writes() {
		if access.Addr == addr {
			values = append(values, access.Value)
		}
	}
	return
}

// Reset drops the log.
func (rec *Recorder) Reset() {
	rec.Log = rec.Log[:0]
}
