// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"

	"github.com/ezrec/rvboot/approm"
	"github.com/ezrec/rvboot/asm"
	"github.com/ezrec/rvboot/config"
)

func main() {
	var layoutPath string
	var base uint64
	var sp uint64
	var entry uint64
	var binary string
	var source string
	var output string
	var verbose bool

	flag.StringVar(&layoutPath, "l", "", ".pkl board layout (default: reference board)")
	flag.Uint64Var(&base, "base", 0, "application region base (default: from layout)")
	flag.Uint64Var(&sp, "sp", 0, "initial stack pointer (default: end of RAM)")
	flag.Uint64Var(&entry, "entry", 0, "entry point (default: first payload byte)")
	flag.StringVar(&binary, "bin", "", "raw binary payload")
	flag.StringVar(&source, "asm", "", "assembly payload")
	flag.StringVar(&output, "o", "-", "Intel HEX output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(binary) != 0 && len(source) != 0 {
		log.Fatalf("%v: -bin and -asm are exclusive", os.Args[0])
	}

	layout := config.Default()
	if len(layoutPath) != 0 {
		var err error
		layout, err = config.LoadFromPath(context.Background(), layoutPath)
		if err != nil {
			log.Fatalf("%v: %v", layoutPath, err)
		}
	}

	if base == 0 {
		base = uint64(layout.AppBase)
	}
	if sp == 0 {
		sp = uint64(layout.RamEnd())
	}

	var payload []byte
	switch {
	case len(binary) != 0:
		var err error
		payload, err = os.ReadFile(binary)
		if err != nil {
			log.Fatal(err)
		}
	case len(source) != 0:
		inf, err := os.Open(source)
		if err != nil {
			log.Fatal(err)
		}
		defer inf.Close()

		as := &asm.Assembler{Verbose: verbose, Base: uint32(base) + approm.DESCRIPTOR_SIZE}
		for key, value := range layout.Defines() {
			as.Predefine(key, value)
		}
		prog, err := as.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
		payload = prog.Bytes()
	}

	img := approm.NewImage(uint32(base), uint32(sp), payload)
	if entry != 0 {
		img.Descriptor.EntryPoint = uint32(entry)
	}
	if verbose {
		log.Printf("approm: %v, %d bytes at %08x", img.Descriptor, img.Size(), img.Base)
	}

	var buf bytes.Buffer
	err := img.EncodeIntelHex(&buf)
	if err != nil {
		log.Fatal(err)
	}

	if output == "-" {
		_, err = os.Stdout.Write(buf.Bytes())
	} else {
		err = os.WriteFile(output, buf.Bytes(), 0o644)
	}
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
}
