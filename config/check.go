package config

import (
	"errors"

	"github.com/ezrec/rvboot/translate"
)

var f = translate.From

var (
	ErrAlignment  = errors.New(f("register address not word aligned"))
	ErrAppOutside = errors.New(f("application region outside RAM"))
	ErrRamWrap    = errors.New(f("RAM wraps the address space"))
	ErrOverlap    = errors.New(f("UART registers overlap RAM"))
)

// Check rejects layouts the simulator and image tool cannot represent.
// The target firmware does not call it.
func (l *Layout) Check() (err error) {
	if l.RateAddr&3 != 0 || l.TransmitAddr&3 != 0 || l.AppBase&3 != 0 {
		err = ErrAlignment
		return
	}

	if l.RamBase+l.RamSize < l.RamBase {
		err = ErrRamWrap
		return
	}

	if l.AppBase < l.RamBase || l.AppBase+8 > l.RamEnd() {
		err = ErrAppOutside
		return
	}

	for _, addr := range []uint32{l.RateAddr, l.TransmitAddr} {
		if addr >= l.RamBase && addr < l.RamEnd() {
			err = ErrOverlap
			return
		}
	}

	return
}
