package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"hacktoolchain.dev/n2t/pkg/asm"
	"hacktoolchain.dev/n2t/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .vm file
	WithArg(cli.NewArg("inputs", "The bytecode (.vm) file(s) or directories to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes bootstrap code in the final .asm file").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug", "Interleaves a debug comment above each lowered Asm block").
		WithChar('d').WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 || options["output"] == "" {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	output, err := os.Create(options["output"])
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// 'Sys.vm' is translated first (so the bootstrap's 'call Sys.init 0' lands
	// right above it), 'Main.vm' second, everything else in discovery order.
	// Directory arguments are walked recursively and expanded to the '.vm' files found in them.
	files := []string{}
	for _, arg := range args {
		err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() && filepath.Ext(path) == ".vm" {
				files = append(files, path)
			}
			return err
		})
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}
	}
	inputs := vm.OrderTranslationUnits(files)

	// Allocates a 'vm.Program' struct to save all the parsed translation units
	// (the .vm files), each kept as its own named 'vm.Module' and lowered together
	// into one .asm output, where cross-module 'call' targets are plain labels
	// resolved when that output is assembled.
	program := vm.Program{}

	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Parses the input file content and extract the operation list (a 'vm.Module') from it.
		operations, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}

		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		program = append(program, vm.Module{Name: name, Operations: operations})
	}

	// Instantiate a lowerer to convert the program from Vm to Asm
	lowerer := vm.NewLowerer(program)
	if _, enabled := options["debug"]; enabled {
		lowerer.WithDebugComments(true)
	}

	// When the user opts in to include the 'bootstrap' code as the first instructions of our
	// translated program: sets the Stack Pointer to its base location at memory address 256,
	// poisons the sentinel segment pointers, then jumps to 'Sys.init' (defined by one of the
	// translated modules).
	asmProgram := asm.Program{}
	if _, enabled := options["bootstrap"]; enabled {
		bootstrap, err := lowerer.LowerBootstrap()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'bootstrap' pass: %s\n", err)
			return -1
		}
		asmProgram = append(asmProgram, bootstrap...)
	}

	// Lowers the vm.Program to an in-memory/IR representation of its Asm counterpart 'asm.Program'.
	lowered, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}
	asmProgram = append(asmProgram, lowered...)

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
