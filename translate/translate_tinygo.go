//go:build tinygo

package translate

import (
	"fmt"
)

// From formats an en-US Sprintf() format. Firmware builds carry no locale
// tables.
func From(key string, args ...any) string {
	return fmt.Sprintf(key, args...)
}

// Hex formats a 32-bit bus address the same way in every message.
func Hex(addr uint32) string {
	return fmt.Sprintf("0x%08x", addr)
}
