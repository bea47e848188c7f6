package approm

import (
	"errors"

	"github.com/ezrec/rvboot/translate"
)

var f = translate.From

var (
	ErrDescriptorShort = errors.New(f("descriptor shorter than 8 bytes"))
	ErrEntryAlignment  = errors.New(f("entry point not word aligned"))
	ErrEntryOutside    = errors.New(f("entry point outside memory"))
	ErrStackOutside    = errors.New(f("stack pointer outside memory"))
	ErrImageEmpty      = errors.New(f("image has no descriptor"))
	ErrImageBase       = errors.New(f("image does not start at the application base"))
)

// ErrDescriptor reports a rejected descriptor.
type ErrDescriptor struct {
	Descriptor Descriptor
	Err        error
}

func (err *ErrDescriptor) Error() string {
	return f("descriptor %v: %v", err.Descriptor, err.Err)
}

func (err *ErrDescriptor) Unwrap() error {
	return err.Err
}
