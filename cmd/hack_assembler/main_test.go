package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Assembles a small program by hand, computing the expected binary with the
// same CompTable/DestTable/JumpTable/BuiltInTable bit-codes documented in
// pkg/hack, so the test stays correct without depending on external fixtures.
func TestHackAssembler(t *testing.T) {
	test := func(name, source string, expected []string) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, name+".asm")
			output := filepath.Join(dir, name+".hack")

			if err := os.WriteFile(input, []byte(source), 0644); err != nil {
				t.Fatalf("unable to write fixture input: %s", err)
			}

			status := Handler([]string{input, output}, nil)
			if status != 0 {
				t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
			}

			content, err := os.ReadFile(output)
			if err != nil {
				t.Fatalf("unable to read generated output: %s", err)
			}

			got := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
			if len(got) != len(expected) {
				t.Fatalf("expected %d lines got %d: %v", len(expected), len(got), got)
			}
			for i := range expected {
				if got[i] != expected[i] {
					t.Errorf("line %d: expected %s got %s", i, expected[i], got[i])
				}
			}
		})
	}

	test("Add", "@2\nD=A\n@3\nD=D+A\n@0\nM=D\n", []string{
		bin(2), "1110110000010000", bin(3), "1110000010010000", bin(0), "1110001100001000",
	})

	test("LabelsAndVars", "(LOOP)\n@i\nM=0\n@LOOP\n0;JMP\n", []string{
		bin(16), "1110101010001000", bin(0), "1110101010000111",
	})

	t.Run("dump-symbols", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "prog.asm")
		output := filepath.Join(dir, "prog.hack")
		symbols := filepath.Join(dir, "symbols.yaml")

		os.WriteFile(input, []byte("(LOOP)\n@LOOP\n0;JMP\n"), 0644)
		status := Handler([]string{input, output}, map[string]string{"dump-symbols": symbols})
		if status != 0 {
			t.Fatalf("unexpected exit status code: %d", status)
		}
		if _, err := os.Stat(symbols); err != nil {
			t.Fatalf("expected symbol dump file to exist: %s", err)
		}
	})
}

func bin(n int) string { return fmt.Sprintf("%016b", n) }
