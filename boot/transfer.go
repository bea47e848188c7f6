package boot

// Transferer hands the processor to new code.
type Transferer interface {
	// Transfer loads sp into the stack pointer, then jumps to pc. On the
	// target it never returns.
	Transfer(sp uint32, pc uint32)
}

// TransferFunc adapts a function to a Transferer.
type TransferFunc func(sp uint32, pc uint32)

func (tf TransferFunc) Transfer(sp uint32, pc uint32) {
	tf(sp, pc)
}

// idle parks the processor until the next reset.
func idle() {
	for {
	}
}
