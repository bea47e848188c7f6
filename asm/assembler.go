// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package asm is a two pass assembler for the RV32I base instruction set.
//
// Source is one statement per line, with optional `label:` prefixes and
// `#` or `;` comments. Operands are registers (ABI or xN names), numbers,
// character literals, labels, equates, `%hi(x)` / `%lo(x)`, and `$(...)`
// expressions evaluated by Starlark with every equate and label in scope.
//
// Directives: `.equ NAME VALUE`, `.word v, ...`, `.ascii "s"`, `.asciz "s"`,
// `.space bytes`.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rvboot/isa"
)

const EQUATE_DEPTH = 16 // Maximum equate indirection.

// Assembler assembles RV32I source.
type Assembler struct {
	Verbose bool   // If set, logs each emitted word.
	Base    uint32 // Address of the first word.

	predefine map[string]string
	Equate    map[string]string // Map of equates to their source text.
	Label     map[string]uint32 // Map of labels to addresses.
}

// Predefine defines an equate visible to every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var reIdent = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
var reExprIdent = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// stripComment removes a trailing comment outside of quotes.
func stripComment(line string) string {
	var quote byte
	for n := 0; n < len(line); n++ {
		c := line[n]
		switch {
		case quote != 0 && c == '\\':
			n++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == '#' || c == ';':
			return line[:n]
		}
	}
	return line
}

// splitWord splits the first whitespace delimited word from text.
func splitWord(text string) (word string, rest string) {
	n := strings.IndexAny(text, " \t")
	if n < 0 {
		word = text
		return
	}
	word, rest = text[:n], text[n+1:]
	return
}

// tokenize splits operands on commas and spaces outside parentheses and
// quotes.
func tokenize(text string) (tokens []string) {
	var quote byte
	depth := 0
	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, text[start:end])
			start = -1
		}
	}
	for n := 0; n < len(text); n++ {
		c := text[n]
		switch {
		case quote != 0 && c == '\\':
			n++
			continue
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && (c == ',' || c == ' ' || c == '\t'):
			flush(n)
			continue
		}
		if start < 0 {
			start = n
		}
	}
	flush(len(text))
	return
}

// splitMemory splits `offset(reg)` into its parts.
func splitMemory(word string) (offset string, reg string, err error) {
	if !strings.HasSuffix(word, ")") {
		err = ErrOperandMemory
		return
	}
	depth := 0
	for n := len(word) - 1; n >= 0; n-- {
		switch word[n] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				offset = word[:n]
				reg = word[n+1 : len(word)-1]
				if offset == "" {
					offset = "0"
				}
				return
			}
		}
	}
	err = ErrOperandMemory
	return
}

// valueOf resolves a single operand to a number.
func (asm *Assembler) valueOf(word string, pc uint32, depth int) (value int64, err error) {
	if depth > EQUATE_DEPTH {
		err = ErrEquateLoop
		return
	}

	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	switch {
	case strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")"):
		value, err = asm.parenEval(word[2:len(word)-1], pc, depth+1)
		return
	case strings.HasPrefix(word, "%hi(") && strings.HasSuffix(word, ")"):
		value, err = asm.valueOf(word[4:len(word)-1], pc, depth+1)
		hi, _ := isa.HiLo(uint32(value))
		value = int64(hi)
		return
	case strings.HasPrefix(word, "%lo(") && strings.HasSuffix(word, ")"):
		value, err = asm.valueOf(word[4:len(word)-1], pc, depth+1)
		_, lo := isa.HiLo(uint32(value))
		value = int64(lo)
		return
	case word[0] == '\'':
		var str string
		if len(word) < 3 || word[len(word)-1] != '\'' {
			err = ErrParseNumber(word)
			return
		}
		str, err = strconv.Unquote(word)
		if err != nil || len(str) == 0 {
			err = ErrParseNumber(word)
			return
		}
		value = int64(str[0])
		return
	case word == ".":
		value = int64(pc)
		return
	}

	if equ, ok := asm.Equate[word]; ok {
		value, err = asm.valueOf(equ, pc, depth+1)
		return
	}

	if addr, ok := asm.Label[word]; ok {
		value = int64(addr)
		return
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		if reIdent.MatchString(word) {
			err = ErrLabelMissing(word)
		} else {
			err = ErrParseNumber(word)
		}
	}
	return
}

func starlarkHiLo(hi bool) *starlark.Builtin {
	name := "lo"
	if hi {
		name = "hi"
	}
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var arg starlark.Int
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &arg); err != nil {
			return nil, err
		}
		value, ok := arg.Int64()
		if !ok {
			return nil, fmt.Errorf("%s: value out of range", fn.Name())
		}
		h, l := isa.HiLo(uint32(value))
		if hi {
			return starlark.MakeInt64(int64(h)), nil
		}
		return starlark.MakeInt64(int64(l)), nil
	})
}

// parenEval does $(...) evaluations
func (asm *Assembler) parenEval(expr string, pc uint32, depth int) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"HERE": starlark.MakeInt64(int64(pc)),
		"hi":   starlarkHiLo(true),
		"lo":   starlarkHiLo(false),
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt64(int64(addr))
	}
	for _, key := range reExprIdent.FindAllString(expr, -1) {
		str, ok := asm.Equate[key]
		if !ok {
			continue
		}
		var equ int64
		equ, err = asm.valueOf(str, pc, depth+1)
		if errors.Is(err, ErrEquateLoop) {
			return
		}
		if err != nil {
			// Ignore equates that cannot be resolved yet.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(equ)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// scanLine is the first pass over a line: labels, equates and sizing.
func (asm *Assembler) scanLine(line string, lineno int, pc uint32) (st *Statement, err error) {
	text := strings.TrimSpace(stripComment(line))

	for len(text) > 0 {
		head, rest := splitWord(text)
		if !strings.HasSuffix(head, ":") {
			break
		}
		label := strings.TrimSuffix(head, ":")
		if !reIdent.MatchString(label) {
			err = ErrLabelMissing(label)
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		if _, ok := asm.Equate[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = pc
		text = strings.TrimSpace(rest)
	}

	if len(text) == 0 {
		return
	}

	mnemonic, rest := splitWord(text)
	mnemonic = strings.ToLower(mnemonic)
	rest = strings.TrimSpace(rest)

	st = &Statement{
		LineNo: lineno,
		Line:   line,
		Addr:   pc,
	}

	switch mnemonic {
	case ".ascii", ".asciz":
		st.Words = []string{mnemonic, rest}
		st.text, err = strconv.Unquote(rest)
		if err != nil || rest[0] != '"' {
			err = ErrStringSyntax
			return
		}
		if mnemonic == ".asciz" {
			st.text += "\x00"
		}
		st.Size = (len(st.text) + 3) / 4
		return
	}

	st.Words = append([]string{mnemonic}, tokenize(rest)...)
	ops := st.Words[1:]

	switch mnemonic {
	case ".equ":
		if len(ops) != 2 {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[ops[0]]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[ops[0]] = ops[1]
		st = nil
		return
	case ".word":
		st.Size = len(ops)
	case ".space":
		if len(ops) != 1 {
			err = ErrOperandCount
			return
		}
		var count int64
		count, err = asm.valueOf(ops[0], pc, 0)
		if err != nil {
			return
		}
		if count < 0 {
			err = ErrImmRange
			return
		}
		st.Size = int((count + 3) / 4)
	case "la":
		st.Size = 2
	case "li":
		if len(ops) != 2 {
			err = ErrOperandCount
			return
		}
		st.Size = 2
		value, verr := asm.valueOf(ops[1], pc, 0)
		if verr == nil && value >= isa.IMM12_MIN && value <= isa.IMM12_MAX {
			st.Size = 1
		}
	default:
		if _, ok := instructions[mnemonic]; !ok {
			err = ErrMnemonicInvalid
			return
		}
		st.Size = 1
	}

	return
}

// Parse assembles a program from source.
func (asm *Assembler) Parse(in io.Reader) (prog *Program, err error) {
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = map[string]string{}
	}
	asm.Label = map[string]uint32{}

	prog = &Program{Base: asm.Base}

	// Pass 1: addresses.
	scanner := bufio.NewScanner(in)
	pc := asm.Base
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		var st *Statement
		st, err = asm.scanLine(line, lineno, pc)
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			return
		}
		if st == nil || st.Size == 0 {
			continue
		}
		prog.Statements = append(prog.Statements, *st)
		pc += uint32(4 * st.Size)
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Pass 2: encoding.
	for n := range prog.Statements {
		st := &prog.Statements[n]
		var words []uint32
		words, err = asm.encode(st)
		if err != nil {
			err = &ErrSyntax{LineNo: st.LineNo, Line: st.Line, Err: err}
			return
		}
		if len(words) != st.Size {
			panic(fmt.Sprintf("asm: %v emitted %d words, sized %d", st.Words[0], len(words), st.Size))
		}
		if asm.Verbose {
			for i, word := range words {
				log.Printf("asm: %08x: %08x %v", st.Addr+uint32(4*i), word, strings.TrimSpace(st.Line))
			}
		}
		prog.Code = append(prog.Code, words...)
	}

	prog.Labels = maps.Clone(asm.Label)

	return
}
