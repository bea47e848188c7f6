// Package uart is the transmit-only UART used for boot diagnostics.
//
// There is no status polling, buffering or flow control: each call is a single
// register write and completes whether or not anything is listening.
package uart

import (
	"io"

	"github.com/ezrec/rvboot/mmio"
)

// UART is a transmit-only serial port described by two registers.
type UART struct {
	Rate mmio.Register // Clock divisor / rate selector.
	Tx   mmio.Register // Transmit data.
}

var _ io.Writer = (*UART)(nil)

// New binds a UART to its rate and transmit register addresses.
func New(bus mmio.Bus, rateAddr, txAddr uint32) *UART {
	return &UART{
		Rate: mmio.NewRegister(bus, rateAddr),
		Tx:   mmio.NewRegister(bus, txAddr),
	}
}

// Configure writes the rate selector.
func (u *UART) Configure(rate uint32) {
	u.Rate.Write(rate)
}

// SendByte writes one byte to the transmit register.
func (u *UART) SendByte(b byte) {
	u.Tx.Write(uint32(b))
}

// Write sends each byte of p verbatim. It never fails.
func (u *UART) Write(p []byte) (n int, err error) {
	for _, b := range p {
		u.SendByte(b)
	}
	n = len(p)
	return
}

// WriteString sends each byte of s verbatim. It never fails.
func (u *UART) WriteString(s string) (n int, err error) {
	for n = 0; n < len(s); n++ {
		u.SendByte(s[n])
	}
	return
}
