package asm

import (
	"encoding/binary"
	"iter"
)

// Statement is one source line that produces words.
type Statement struct {
	LineNo int      // Source line number.
	Line   string   // Source text.
	Addr   uint32   // Address of the first word.
	Size   int      // Words emitted.
	Words  []string // Mnemonic and operands.

	text string // Unquoted .ascii payload.
}

// Contains reports whether addr falls in the statement's words.
func (st *Statement) Contains(addr uint32) bool {
	return addr >= st.Addr && addr < st.Addr+uint32(4*st.Size)
}

// Program is assembled machine code.
type Program struct {
	Base       uint32
	Code       []uint32
	Statements []Statement
	Labels     map[string]uint32
}

// End is the first address past the program.
func (prog *Program) End() uint32 {
	return prog.Base + uint32(4*len(prog.Code))
}

// Bytes returns the little-endian image of the program.
func (prog *Program) Bytes() (data []byte) {
	data = make([]byte, 0, 4*len(prog.Code))
	for _, word := range prog.Code {
		data = binary.LittleEndian.AppendUint32(data, word)
	}
	return
}

// Debug returns the statement that emitted the word at addr.
func (prog *Program) Debug(addr uint32) (st *Statement, ok bool) {
	for n := range prog.Statements {
		if prog.Statements[n].Contains(addr) {
			st = &prog.Statements[n]
			ok = true
			return
		}
	}
	return
}

// Words yields each address and word of the program.
func (prog *Program) Words() iter.Seq2[uint32, uint32] {
	return func(yield func(addr uint32, word uint32) bool) {
		for n, word := range prog.Code {
			if !yield(prog.Base+uint32(4*n), word) {
				return
			}
		}
	}
}
