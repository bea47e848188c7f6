package asm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		code   []uint32
	}){
		{"nop", []uint32{0x00000013}},
		{"mv sp, a1", []uint32{0x00058113}},
		{"jr a0", []uint32{0x00050067}},
		{"ret", []uint32{0x00008067}},
		{"li a0, 5", []uint32{0x00500513}},
		{"li a0, -1", []uint32{0xfff00513}},
		{"li t0, 0x10000000", []uint32{0x100002b7, 0x00028293}},
		{"la a0, 0x1000", []uint32{0x00001537, 0x00050513}},
		{"li a0, $(1 + 2 * 3)", []uint32{0x00700513}},
		{"lui a0, %hi(0x12345fff)", []uint32{0x12346537}},
		{"addi a0, a0, %lo(0x12345fff)", []uint32{0xfff50513}},
		{"srai a0, a0, 3", []uint32{0x40355513}},
		{"sub a0, a1, a2", []uint32{0x40c58533}},
		{"not a0, a1", []uint32{0xfff5c513}},
		{"NEG a0, a1", []uint32{0x40b00533}},
		{"lw a0, 4(sp)", []uint32{0x00412503}},
		{"lbu a0, (a1)", []uint32{0x0005c503}},
		{"sw a1, 8(a0)", []uint32{0x00b52423}},
		{"sb a0, 0(t0)", []uint32{0x00a28023}},
		{"jalr a0", []uint32{0x000500e7}},
		{"jalr ra, 4(a0)", []uint32{0x004500e7}},
		{"jalr ra, a0, 4", []uint32{0x004500e7}},
		{"j .", []uint32{0x0000006f}},
		{"ecall", []uint32{0x00000073}},
		{"ebreak", []uint32{0x00100073}},
		{".word 1, 0xdeadbeef", []uint32{1, 0xdeadbeef}},
		{".ascii \"ok\"", []uint32{0x00006b6f}},
		{".asciz \"abc\"", []uint32{0x00636261}},
		{".asciz \"abcd\"", []uint32{0x64636261, 0}},
		{".space 5", []uint32{0, 0}},
		{"addi a1, a1, 1 # comment", []uint32{0x00158593}},
		{"addi a1, a1, 1 ; comment", []uint32{0x00158593}},
		{"li a0, '#'", []uint32{0x02300513}},
	}

	for _, entry := range table {
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.NoError(err, entry.source) {
			continue
		}
		assert.Equal(entry.code, prog.Code, entry.source)
	}
}

func TestLabels(t *testing.T) {
	assert := assert.New(t)

	source := `
.equ OUT 0x10000000
start:
	li t0, OUT
	la a1, message
loop:	lbu a0, 0(a1)
	beqz a0, done
	sb a0, 0(t0)
	addi a1, a1, 1
	j loop
done:	j done
message:
	.asciz "hi"
`

	asm := &Assembler{Base: 0x00104008}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal(uint32(0x00104008), prog.Labels["start"])
	assert.Equal(uint32(0x00104018), prog.Labels["loop"])
	assert.Equal(uint32(0x0010402c), prog.Labels["done"])
	assert.Equal(uint32(0x00104030), prog.Labels["message"])
	assert.Equal(uint32(0x00104034), prog.End())
	assert.Len(prog.Code, 11)

	// beqz a0, done: +0x10
	assert.Equal(uint32(0x00050863), prog.Code[5])
	// j loop: -0x10
	assert.Equal(uint32(0xff1ff06f), prog.Code[8])
	// j done
	assert.Equal(uint32(0x0000006f), prog.Code[9])
	assert.Equal(uint32(0x00006968), prog.Code[10])

	st, ok := prog.Debug(0x0010400c)
	assert.True(ok)
	assert.Equal("li", st.Words[0])
	_, ok = prog.Debug(0x00104034)
	assert.False(ok)

	data := prog.Bytes()
	assert.Len(data, 4*len(prog.Code))
	assert.Equal([]byte{0x68, 0x69, 0x00, 0x00}, data[40:])

	count := 0
	for addr, word := range prog.Words() {
		assert.Equal(prog.Code[count], word)
		assert.Equal(prog.Base+uint32(4*count), addr)
		count++
	}
	assert.Equal(len(prog.Code), count)
}

func TestForwardLi(t *testing.T) {
	assert := assert.New(t)

	// A forward reference is sized as two words, even if it fits in one.
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("li a0, small\n.equ small 5\n"))
	assert.NoError(err)
	assert.Equal([]uint32{0x00000537, 0x00550513}, prog.Code)
}

func TestPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("VALUE", "7")
	asm.Predefine("DOUBLE", "$(VALUE * 2)")

	prog, err := asm.Parse(strings.NewReader("li a0, DOUBLE"))
	assert.NoError(err)
	assert.Equal([]uint32{0x00e00513}, prog.Code)

	// Predefines survive across parses; equates do not.
	prog, err = asm.Parse(strings.NewReader(".equ OTHER 1\nli a0, VALUE"))
	assert.NoError(err)
	assert.Equal([]uint32{0x00700513}, prog.Code)
	_, err = asm.Parse(strings.NewReader("li a0, OTHER"))
	assert.Error(err)
}

func TestErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		err    error
		lineno int
	}){
		{"bogus a0", ErrMnemonicInvalid, 1},
		{"addi a0, a0", ErrOperandCount, 1},
		{"addi q0, a0, 1", ErrRegisterInvalid, 1},
		{"addi a0, a0, 4096", ErrImmRange, 1},
		{"slli a0, a0, 32", ErrImmRange, 1},
		{"lw a0, a1", ErrOperandMemory, 1},
		{"nop\nj 0x100001", ErrTargetAlignment, 2},
		{"beq a0, a1, 0x2000", ErrTargetRange, 1},
		{"x:\nx:", ErrLabelDuplicate, 2},
		{".equ A 1\n.equ A 2", ErrEquateDuplicate, 2},
		{".equ A", ErrEquateSyntax, 1},
		{".equ A A\nli a0, A", ErrEquateLoop, 2},
		{".equ A $(A + 1)\nli a0, A", ErrEquateLoop, 2},
		{".ascii ok", ErrStringSyntax, 1},
		{"j nowhere", ErrLabelMissing("nowhere"), 1},
		{"li a0, 0x", ErrParseNumber("0x"), 1},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.Error(err, entry.source) {
			continue
		}
		assert.True(errors.Is(err, entry.err), fmt.Sprintf("%v: %v", entry.source, err))
		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.source) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.source)
		}
	}
}

func TestTokenize(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"a0", "4(sp)"}, tokenize("a0, 4(sp)"))
	assert.Equal([]string{"a0", "$(1, 2)"}, tokenize("a0,$(1, 2)"))
	assert.Equal([]string{"a0", "','"}, tokenize("a0, ','"))
	assert.Nil(tokenize("  "))
}
