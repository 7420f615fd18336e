package hack_test

import (
	"fmt"
	"testing"

	"hacktoolchain.dev/n2t/pkg/hack"
)

func TestAInstructions(t *testing.T) {
	// Instantiate a basic simple table with some entries and shared codegen for every test cases
	table := hack.SymbolTable{"Test1": 0, "Test2": 67, "hmny": 9393, "n2t": 754, "JUMP": 90}
	codegen := hack.NewCodeGenerator(hack.Program{}, table)

	test := func(inst hack.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if !fail && res != expected {
			t.Errorf("expected %q got %q", expected, res)
		}
		if err != nil && !fail {
			t.Errorf("unexpected error: %s", err)
		}
		if err == nil && fail {
			t.Errorf("expected an error, got none (result: %q)", res)
		}
	}

	t.Run("Raw memory access", func(t *testing.T) {
		// This A Instruction reference correct raw location/address, to be correct a raw address
		// must be strictly below 2^15, since onl 15 bits are available to index the Hack memory.
		test(hack.AInstruction{LocType: hack.Raw, LocName: "38"}, fmt.Sprintf("%016b", 38), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "42"}, fmt.Sprintf("%016b", 42), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "64"}, fmt.Sprintf("%016b", 64), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "128"}, fmt.Sprintf("%016b", 128), false)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "32767"}, fmt.Sprintf("%016b", 32767), false)
		// This are just some example of invalid (Out of Bounds) address that shouldn't be translated.
		test(hack.AInstruction{LocType: hack.Raw, LocName: "32768"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "65538"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "66500"}, "", true)
		test(hack.AInstruction{LocType: hack.Raw, LocName: "70000"}, "", true)
	})

	t.Run("Hack built-in labels", func(t *testing.T) {
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "SP"}, fmt.Sprintf("%016b", 0), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "LCL"}, fmt.Sprintf("%016b", 1), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "ARG"}, fmt.Sprintf("%016b", 2), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "THIS"}, fmt.Sprintf("%016b", 3), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "THAT"}, fmt.Sprintf("%016b", 4), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "R13"}, fmt.Sprintf("%016b", 13), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "R15"}, fmt.Sprintf("%016b", 15), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "KBD"}, fmt.Sprintf("%016b", 24576), false)
		test(hack.AInstruction{LocType: hack.BuiltIn, LocName: "SCREEN"}, fmt.Sprintf("%016b", 16384), false)
	})

	t.Run("User-defined labels", func(t *testing.T) {
		test(hack.AInstruction{LocType: hack.Label, LocName: "Test1"}, fmt.Sprintf("%016b", table["Test1"]), false)
		test(hack.AInstruction{LocType: hack.Label, LocName: "Test2"}, fmt.Sprintf("%016b", table["Test2"]), false)
		test(hack.AInstruction{LocType: hack.Label, LocName: "hmny"}, fmt.Sprintf("%016b", table["hmny"]), false)
		test(hack.AInstruction{LocType: hack.Label, LocName: "n2t"}, fmt.Sprintf("%016b", table["n2t"]), false)
		test(hack.AInstruction{LocType: hack.Label, LocName: "JUMP"}, fmt.Sprintf("%016b", table["JUMP"]), false)
	})

	t.Run("Unresolved labels become new variables starting at 16", func(t *testing.T) {
		fresh := hack.NewCodeGenerator(hack.Program{}, hack.SymbolTable{})
		first, err := fresh.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "i"})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if first != fmt.Sprintf("%016b", 16) {
			t.Errorf("expected first new variable at address 16, got %q", first)
		}
		second, err := fresh.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "j"})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if second != fmt.Sprintf("%016b", 17) {
			t.Errorf("expected second new variable at address 17, got %q", second)
		}
		// Referencing 'i' again must resolve to the SAME address, not allocate a new one.
		again, err := fresh.GenerateAInst(hack.AInstruction{LocType: hack.Label, LocName: "i"})
		if err != nil || again != first {
			t.Errorf("expected repeated reference to 'i' to resolve to %q, got %q (err: %v)", first, again, err)
		}
	})
}

func TestCInstructions(t *testing.T) {
	codegen := hack.NewCodeGenerator(hack.Program{}, hack.SymbolTable{})

	test := func(inst hack.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if !fail && res != expected {
			t.Errorf("expected %q got %q", expected, res)
		}
		if err != nil && !fail {
			t.Errorf("unexpected error: %s", err)
		}
	}

	t.Run("Comp only, no dest or jump", func(t *testing.T) {
		test(hack.CInstruction{Comp: "M"}, "1111110000000000", false)
		test(hack.CInstruction{Comp: "A"}, "1110110000000000", false)
	})

	t.Run("Comp with jump, no dest", func(t *testing.T) {
		test(hack.CInstruction{Comp: "0", Jump: "JGT"}, "1110101010000001", false)
		test(hack.CInstruction{Comp: "1", Jump: "JEQ"}, "1110111111000010", false)
		test(hack.CInstruction{Comp: "-1", Jump: "JEQ"}, "1110111010000010", false)
		test(hack.CInstruction{Comp: "D", Jump: "JGE"}, "1110001100000011", false)
		test(hack.CInstruction{Comp: "D+1", Jump: "JMP"}, "1110011111000111", false)
	})

	t.Run("Comp with dest, no jump", func(t *testing.T) {
		test(hack.CInstruction{Comp: "D+A", Dest: ""}, "1110000010000000", false)
		test(hack.CInstruction{Comp: "D-A", Dest: "M"}, "1110010011001000", false)
		test(hack.CInstruction{Comp: "A-D", Dest: "D"}, "1110000111010000", false)
		test(hack.CInstruction{Comp: "D&A", Dest: "A"}, "1110000000100000", false)
		test(hack.CInstruction{Comp: "D|A", Dest: "MD"}, "1110010101011000", false)
		test(hack.CInstruction{Comp: "M", Dest: "AMD"}, "1111110000111000", false)
	})

	t.Run("Comp with both dest and jump", func(t *testing.T) {
		// dest=comp;jump is a valid, if unusual, C instruction shape.
		test(hack.CInstruction{Comp: "D+1", Dest: "D", Jump: "JMP"}, "1110011111010111", false)
	})

	t.Run("Invalid comp opcode", func(t *testing.T) {
		test(hack.CInstruction{Comp: "D+D"}, "", true)
		test(hack.CInstruction{Comp: ""}, "", true)
	})
}
