// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/ezrec/umips/cpu"
	"github.com/ezrec/umips/emulator"
	umio "github.com/ezrec/umips/io"
	"github.com/ezrec/umips/translate"
)

// saveSegment writes segment words to a file.
func saveSegment(path string, data []uint32) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	err = umio.WriteSegment(ouf, data)
	err = errors.Join(err, ouf.Close())

	return
}

func main() {
	var text string
	var data string
	var compile string
	var save bool
	var verbose bool
	var strict bool
	var max_ticks int
	var quiet bool
	var print_program bool

	flag.StringVar(&text, "t", "text_segment machine code.txt", "Text segment file")
	flag.StringVar(&data, "d", "data_segment machine code.txt", "Data segment file")
	flag.StringVar(&compile, "c", "", "Assembly file to compile, instead of loading segments")
	flag.BoolVar(&save, "s", false, "Save compiled segments to the -t and -d files, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode, with a stage trace to stderr")
	flag.BoolVar(&strict, "strict", false, "Unimplemented instructions and syscalls are errors")
	flag.IntVar(&max_ticks, "n", emulator.DEFAULT_MAX_TICKS, "Maximum ticks to run, 0 for no limit")
	flag.BoolVar(&quiet, "q", false, "Do not dump registers on exit")
	flag.BoolVar(&print_program, "p", false, "Print the loaded program to stderr")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Strict = strict
	emu.MaxTicks = max_ticks

	if len(compile) != 0 {
		// Compile a new program.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if save {
			err = saveSegment(text, emu.Program.Binary())
			if err != nil {
				log.Fatalf("%v: %v", text, err)
			}
			err = saveSegment(data, emu.Program.Data)
			if err != nil {
				log.Fatalf("%v: %v", data, err)
			}
			return
		}
	} else {
		// Load the segment files.
		inf, err := os.Open(text)
		if err != nil {
			log.Fatalf("%v: %v", text, err)
		}
		defer inf.Close()

		var data_in io.Reader
		dnf, err := os.Open(data)
		if err != nil {
			log.Printf("%v: %v", data, err)
		} else {
			defer dnf.Close()
			data_in = dnf
		}

		err = emu.LoadSegments(inf, data_in)
		if err != nil {
			log.Fatal(err)
		}
	}

	if print_program {
		pp.Fprintln(os.Stderr, emu.Program)
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	translate.Printer().Printf("--- Simulation Start ---\n")

	run_err := emu.Run()

	err = emu.Report(os.Stdout, !quiet)
	if err != nil {
		log.Fatal(err)
	}

	if run_err != nil {
		log.Fatal(run_err)
	}
}
