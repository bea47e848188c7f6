package asm

import (
	"errors"

	"github.com/ezrec/rvboot/translate"
)

var f = translate.From

var (
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrEquateLoop      = errors.New(f(".equ refers to itself"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrMnemonicInvalid = errors.New(f("mnemonic invalid"))
	ErrOperandCount    = errors.New(f("wrong number of operands"))
	ErrOperandMemory   = errors.New(f("expected offset(register)"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrImmRange        = errors.New(f("immediate out of range"))
	ErrTargetAlignment = errors.New(f("jump target not halfword aligned"))
	ErrTargetRange     = errors.New(f("jump target out of range"))
	ErrStringSyntax    = errors.New(f("string syntax"))
)

// ErrSyntax locates an error in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
