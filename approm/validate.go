package approm

// Validator accepts or rejects a descriptor before control is transferred.
type Validator interface {
	Validate(desc Descriptor) error
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(desc Descriptor) error

func (vf ValidatorFunc) Validate(desc Descriptor) error {
	return vf(desc)
}

// Region is a span of addressable memory.
type Region struct {
	Base uint32
	Size uint32
}

// Contains reports whether addr is inside the region.
func (r Region) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// Top reports whether addr is a usable initial stack pointer for the region:
// above the base, and at most one past the last byte.
func (r Region) Top(addr uint32) bool {
	return addr > r.Base && addr-r.Base <= r.Size
}

// Regions checks that the stack pointer and entry point fall inside one of
// the listed regions, and that the entry point is word aligned.
type Regions []Region

var _ Validator = Regions(nil)

func (rs Regions) Validate(desc Descriptor) (err error) {
	if desc.EntryPoint&3 != 0 {
		err = &ErrDescriptor{Descriptor: desc, Err: ErrEntryAlignment}
		return
	}

	stack_ok := false
	entry_ok := false
	for _, r := range rs {
		stack_ok = stack_ok || r.Top(desc.StackPointer)
		entry_ok = entry_ok || r.Contains(desc.EntryPoint)
	}

	switch {
	case !stack_ok:
		err = &ErrDescriptor{Descriptor: desc, Err: ErrStackOutside}
	case !entry_ok:
		err = &ErrDescriptor{Descriptor: desc, Err: ErrEntryOutside}
	}

	return
}

// Validate checks the descriptor with v. A nil v accepts everything.
func (desc Descriptor) Validate(v Validator) (err error) {
	if v == nil {
		return
	}
	err = v.Validate(desc)
	return
}
