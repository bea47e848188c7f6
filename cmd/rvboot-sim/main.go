// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-tty"

	"github.com/ezrec/rvboot/approm"
	"github.com/ezrec/rvboot/asm"
	"github.com/ezrec/rvboot/config"
	"github.com/ezrec/rvboot/sim"
)

var errQuit = errors.New("quit")

func loadApp(m *sim.Machine, hexfile string, source string, sp uint64) (err error) {
	layout := m.Layout

	var img *approm.Image
	switch {
	case len(hexfile) != 0:
		var inf *os.File
		inf, err = os.Open(hexfile)
		if err != nil {
			return
		}
		defer inf.Close()
		img, err = approm.DecodeIntelHex(inf, layout.AppBase)
		if err != nil {
			err = fmt.Errorf("%v: %w", hexfile, err)
			return
		}
	case len(source) != 0:
		var inf *os.File
		inf, err = os.Open(source)
		if err != nil {
			return
		}
		defer inf.Close()
		as := &asm.Assembler{Base: layout.AppBase + approm.DESCRIPTOR_SIZE}
		for key, value := range m.Defines() {
			as.Predefine(key, value)
		}
		var prog *asm.Program
		prog, err = as.Parse(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", source, err)
			return
		}
		if sp == 0 {
			sp = uint64(layout.RamEnd())
		}
		img = approm.NewImage(layout.AppBase, uint32(sp), prog.Bytes())
	default:
		// Run with whatever the application region holds: zeros.
		return
	}

	err = m.LoadImage(img)
	return
}

func main() {
	var layoutPath string
	var hexfile string
	var source string
	var steps int
	var sp uint64
	var verbose bool
	var single bool
	var check bool

	flag.StringVar(&layoutPath, "l", "", ".pkl board layout (default: reference board)")
	flag.StringVar(&hexfile, "x", "", "Intel HEX application image")
	flag.StringVar(&source, "a", "", "application assembly source")
	flag.Uint64Var(&sp, "sp", 0, "initial stack pointer for -a (default: end of RAM)")
	flag.IntVar(&steps, "steps", 1000000, "application instruction limit (negative: unlimited)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&single, "t", false, "Single step on keypress ('q' quits)")
	flag.BoolVar(&check, "check", false, "Reject descriptors outside RAM")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	layout := config.Default()
	if len(layoutPath) != 0 {
		var err error
		layout, err = config.LoadFromPath(context.Background(), layoutPath)
		if err != nil {
			log.Fatalf("%v: %v", layoutPath, err)
		}
	}

	m, err := sim.NewMachine(layout)
	if err != nil {
		log.Fatal(err)
	}
	m.Verbose = verbose
	m.Steps = steps
	m.UART.Output = os.Stdout
	m.Port.Output = os.Stdout

	err = loadApp(m, hexfile, source, sp)
	if err != nil {
		log.Fatal(err)
	}

	if check {
		m.Boot.Validator = approm.Regions{{Base: layout.RamBase, Size: layout.RamSize}}
	}

	var term *tty.TTY
	if single {
		term, err = tty.Open()
		if err != nil {
			log.Fatal(err)
		}

		m.OnTick = func(m *sim.Machine) (err error) {
			fmt.Fprint(os.Stderr, m.Cpu.String())
			key, err := term.ReadRune()
			if err != nil {
				return
			}
			if key == 'q' {
				err = errQuit
			}
			return
		}
	}

	err = m.Run()

	// Restore the terminal before any exit below.
	if term != nil {
		term.Close()
	}

	if verbose {
		log.Printf("sim: %v after %d instructions", m.Boot.State, m.Cpu.Ticks)
	}
	if m.Boot.Err != nil {
		log.Printf("sim: rejected: %v", m.Boot.Err)
	}
	if err != nil && !errors.Is(err, errQuit) {
		log.Fatal(err)
	}
}
