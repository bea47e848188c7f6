//go:build !tinygo

package approm

import (
	"io"

	"github.com/marcinbor85/gohex"

	"github.com/ezrec/rvboot/mmio"
)

const (
	HEX_LINE_LENGTH = 16   // Data bytes per Intel HEX record.
	HEX_PADDING     = 0xff // Erased flash value for gaps between segments.
)

// Image is an application region: the descriptor followed by the payload.
type Image struct {
	Base       uint32
	Descriptor Descriptor
	Payload    []byte
}

// NewImage places payload directly after the descriptor at base, with the
// entry point at the first payload byte.
func NewImage(base uint32, sp uint32, payload []byte) *Image {
	return &Image{
		Base: base,
		Descriptor: Descriptor{
			StackPointer: sp,
			EntryPoint:   base + DESCRIPTOR_SIZE,
		},
		Payload: payload,
	}
}

// Bytes returns the region contents, descriptor first.
func (img *Image) Bytes() (data []byte) {
	data, _ = img.Descriptor.MarshalBinary()
	data = append(data, img.Payload...)
	return
}

// Size of the region contents in bytes.
func (img *Image) Size() int {
	return DESCRIPTOR_SIZE + len(img.Payload)
}

// Load writes the image into a bus, one word at a time. A trailing partial
// word is zero padded.
func (img *Image) Load(bus mmio.Bus) {
	data := img.Bytes()
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	for n := 0; n < len(data); n += 4 {
		bus.Write32(img.Base+uint32(n), ByteOrder.Uint32(data[n:]))
	}
}

// EncodeIntelHex writes the image as Intel HEX. The start address record
// carries the entry point.
func (img *Image) EncodeIntelHex(w io.Writer) (err error) {
	mem := gohex.NewMemory()
	err = mem.AddBinary(img.Base, img.Bytes())
	if err != nil {
		return
	}
	mem.SetStartAddress(img.Descriptor.EntryPoint)
	err = mem.DumpIntelHex(w, HEX_LINE_LENGTH)
	return
}

// DecodeIntelHex reads an image from Intel HEX. The lowest addressed segment
// must start at base and hold at least a descriptor; gaps between segments
// read back as erased flash.
func DecodeIntelHex(r io.Reader, base uint32) (img *Image, err error) {
	mem := gohex.NewMemory()
	err = mem.ParseIntelHex(r)
	if err != nil {
		return
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		err = ErrImageEmpty
		return
	}

	if segments[0].Address != base {
		err = ErrImageBase
		return
	}

	if len(segments[0].Data) < DESCRIPTOR_SIZE {
		err = ErrImageEmpty
		return
	}

	last := segments[len(segments)-1]
	end := last.Address + uint32(len(last.Data))
	data := mem.ToBinary(base, end-base, HEX_PADDING)

	img = &Image{Base: base}
	err = img.Descriptor.UnmarshalBinary(data)
	if err != nil {
		img = nil
		err = ErrImageEmpty
		return
	}
	img.Payload = data[DESCRIPTOR_SIZE:]

	return
}
