package sim

import (
	"io"
	"log"
)

// UART is the simulated UART: a rate selector and a transmit register.
// Transmitted bytes are copied to Output, if set.
type UART struct {
	Verbose bool
	Output  io.Writer

	Rate       uint32 // Last rate selector value.
	Configured bool   // Set by the first rate write.
	Sent       []byte // Every transmitted byte.
	Early      int    // Transmits seen before the rate was configured.
}

// Map places the UART registers on a bus.
func (u *UART) Map(bus *Bus, rateAddr uint32, txAddr uint32) (err error) {
	err = bus.MapIO("uart.rate", rateAddr, rateAddr+3,
		func(addr uint32) uint32 { return u.Rate },
		func(addr uint32, value uint32) {
			u.Rate = value
			u.Configured = true
			if u.Verbose {
				log.Printf("sim: uart: rate %v", value)
			}
		})
	if err != nil {
		return
	}

	err = bus.MapIO("uart.tx", txAddr, txAddr+3,
		func(addr uint32) uint32 { return 0 },
		func(addr uint32, value uint32) {
			u.Send(byte(value))
		})

	return
}

// Send transmits one byte.
func (u *UART) Send(b byte) {
	if !u.Configured {
		u.Early++
	}
	u.Sent = append(u.Sent, b)
	if u.Output != nil {
		u.Output.Write([]byte{b})
	}
}

// Reset clears the UART state. Output is kept.
func (u *UART) Reset() {
	u.Rate = 0
	u.Configured = false
	u.Sent = nil
	u.Early = 0
}

// Port is a write-only character output port.
type Port struct {
	Output io.Writer
	Data   []byte
}

// Map places the port register on a bus.
func (port *Port) Map(bus *Bus, addr uint32) (err error) {
	err = bus.MapIO("outport", addr, addr+3, nil,
		func(addr uint32, value uint32) {
			port.Data = append(port.Data, byte(value))
			if port.Output != nil {
				port.Output.Write([]byte{byte(value)})
			}
		})
	return
}
