package sim

import (
	"errors"

	"github.com/ezrec/rvboot/translate"
)

var f = translate.From

var (
	ErrUnmapped   = errors.New(f("address unmapped"))
	ErrMisaligned = errors.New(f("access misaligned"))
	ErrMapOverlap = errors.New(f("mapping overlaps"))
	ErrMapEmpty   = errors.New(f("mapping empty"))
	ErrBreak      = errors.New(f("ebreak"))
	ErrEcall      = errors.New(f("ecall"))
	ErrIdle       = errors.New(f("idle loop"))
	ErrStepLimit  = errors.New(f("step limit reached"))
)

// ErrFault is a bus fault at an address.
type ErrFault struct {
	Addr uint32
	Err  error
}

func (err *ErrFault) Error() string {
	return f("fault at %v: %v", translate.Hex(err.Addr), err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrIllegal is an instruction word the CPU cannot execute.
type ErrIllegal uint32

func (err ErrIllegal) Error() string {
	return f("illegal instruction %v", translate.Hex(uint32(err)))
}

// ErrRuntime locates a runtime error at the failing instruction.
type ErrRuntime struct {
	Pc  uint32
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("pc %v: %v", translate.Hex(err.Pc), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
