package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("fault at 12", From("fault at %v", 12))
	assert.Equal("plain", From("plain"))
}

func TestHex(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0x00104000", Hex(0x00104000))
	assert.Equal("0xffffffff", Hex(0xffffffff))
}
