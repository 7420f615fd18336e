package asm_test

import (
	"testing"

	"hacktoolchain.dev/n2t/pkg/asm"
)

func TestAInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if !fail && res != expected {
			t.Errorf("expected %q got %q", expected, res)
		}
		if err != nil && !fail {
			t.Errorf("unexpected error: %s", err)
		}
	}

	t.Run("Raw memory access and labels", func(t *testing.T) {
		// At the 'asm' level locations aren't yet classified (Raw|BuiltIn|Label), that
		// happens during lowering; here we just check the literal '@<location>' rendering.
		test(asm.AInstruction{Location: "38"}, "@38", false)
		test(asm.AInstruction{Location: "1024"}, "@1024", false)
		test(asm.AInstruction{Location: "SP"}, "@SP", false)
		test(asm.AInstruction{Location: "LOOP"}, "@LOOP", false)
	})

	t.Run("Empty location is malformed", func(t *testing.T) {
		test(asm.AInstruction{Location: ""}, "", true)
	})
}

func TestCInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if !fail && res != expected {
			t.Errorf("expected %q got %q", expected, res)
		}
		if err != nil && !fail {
			t.Errorf("unexpected error: %s", err)
		}
	}

	t.Run("Comp only", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D+1"}, "D+1", false)
		test(asm.CInstruction{Comp: "A"}, "A", false)
	})

	t.Run("Comp with jump, no dest", func(t *testing.T) {
		test(asm.CInstruction{Comp: "0", Jump: "JGT"}, "0;JGT", false)
		test(asm.CInstruction{Comp: "1", Jump: "JEQ"}, "1;JEQ", false)
		test(asm.CInstruction{Comp: "!A", Jump: "JLT"}, "!A;JLT", false)
	})

	t.Run("Comp with dest, no jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D-A", Dest: "M"}, "M=D-A", false)
		test(asm.CInstruction{Comp: "D|A", Dest: "MD"}, "MD=D|A", false)
		test(asm.CInstruction{Comp: "M", Dest: "AM"}, "AM=M", false)
	})

	t.Run("Comp with both dest and jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D+1", Dest: "D", Jump: "JMP"}, "D=D+1;JMP", false)
	})

	t.Run("Missing comp is malformed", func(t *testing.T) {
		test(asm.CInstruction{Dest: "AM", Jump: "JNE"}, "", true)
		test(asm.CInstruction{Dest: "", Jump: "JGT"}, "", true)
	})
}

func TestLabelDecl(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.LabelDecl, expected string, fail bool) {
		res, err := codegen.GenerateLabelDecl(inst)
		if !fail && res != expected {
			t.Errorf("expected %q got %q", expected, res)
		}
		if err != nil && !fail {
			t.Errorf("unexpected error: %s", err)
		}
	}

	t.Run("Fuzzy labels", func(t *testing.T) {
		test(asm.LabelDecl{Name: "test123"}, "(test123)", false)
		test(asm.LabelDecl{Name: "ping"}, "(ping)", false)
		test(asm.LabelDecl{Name: "PONG"}, "(PONG)", false)
	})

	t.Run("Cannot shadow a built-in symbol", func(t *testing.T) {
		test(asm.LabelDecl{Name: "SP"}, "", true)
		test(asm.LabelDecl{Name: "R1"}, "", true)
		test(asm.LabelDecl{Name: "LCL"}, "", true)
		test(asm.LabelDecl{Name: "R15"}, "", true)
	})
}
