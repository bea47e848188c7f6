package boot

// State of the boot sequence.
type State int

//go:generate go tool stringer -type=State
const (
	RESET           = State(0) // Out of reset, nothing written.
	UART_CONFIGURED = State(1) // Rate register programmed.
	DESCRIPTOR_READ = State(2) // Descriptor loaded from the application region.
	TRANSFERRED     = State(3) // Control handed to the application.
	REJECTED        = State(4) // Optional validation refused the descriptor.
	IDLE            = State(5) // Parked; reached only if a transfer returns.
)
