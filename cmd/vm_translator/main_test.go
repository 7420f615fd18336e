package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runTranslator(t *testing.T, files map[string]string, options map[string]string) []string {
	t.Helper()
	dir := t.TempDir()

	var inputs []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("unable to write fixture %q: %s", name, err)
		}
		inputs = append(inputs, path)
	}

	output := filepath.Join(dir, "out.asm")
	opts := map[string]string{"output": output}
	for k, v := range options {
		opts[k] = v
	}

	if status := Handler(inputs, opts); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	compiled, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("unable to read translated output: %s", err)
	}

	lines := strings.Split(strings.TrimRight(string(compiled), "\n"), "\n")
	return lines
}

func TestVMTranslator(t *testing.T) {
	t.Run("SimpleAdd", func(t *testing.T) {
		lines := runTranslator(t, map[string]string{
			"SimpleAdd.vm": "push constant 7\npush constant 8\nadd\n",
		}, nil)

		want := []string{
			"@7", "D=A", "@SP", "A=M", "M=D", "@SP", "M=M+1",
			"@8", "D=A", "@SP", "A=M", "M=D", "@SP", "M=M+1",
			"@SP", "AM=M-1", "D=M", "A=A-1", "M=D+M",
		}
		assertLines(t, want, lines)
	})

	t.Run("PointerAndStatic", func(t *testing.T) {
		lines := runTranslator(t, map[string]string{
			"PointerTest.vm": "push constant 3040\npop pointer 0\npush constant 32\npop static 2\n",
		}, nil)

		if !contains(lines, "@THIS") {
			t.Fatalf("expected a reference to THIS in: %v", lines)
		}
		if !contains(lines, "@PointerTest.2") {
			t.Fatalf("expected a static reference scoped to the module name in: %v", lines)
		}
	})

	t.Run("multi-file bootstrap orders Sys.vm first", func(t *testing.T) {
		lines := runTranslator(t, map[string]string{
			"Main.vm": "function Main.main 0\npush constant 1\nreturn\n",
			"Sys.vm":  "function Sys.init 0\ncall Main.main 0\nreturn\n",
		}, map[string]string{"bootstrap": "true"})

		sysIdx, mainIdx := -1, -1
		for i, l := range lines {
			if l == "(Sys.init)" {
				sysIdx = i
			}
			if l == "(Main.main)" && mainIdx == -1 {
				mainIdx = i
			}
		}
		if sysIdx == -1 || mainIdx == -1 {
			t.Fatalf("expected both Sys.init and Main.main labels, got: %v", lines)
		}
		if sysIdx > mainIdx {
			t.Fatalf("expected Sys.vm to be translated before Main.vm, got Sys at %d and Main at %d", sysIdx, mainIdx)
		}
		if !contains(lines, "@256") {
			t.Fatalf("expected bootstrap to set SP=256, got: %v", lines)
		}
	})

	t.Run("debug mode interleaves a comment per operation", func(t *testing.T) {
		lines := runTranslator(t, map[string]string{
			"Simple.vm": "push constant 1\n",
		}, map[string]string{"debug": "true"})

		if !contains(lines, "// push constant 1") {
			t.Fatalf("expected an interleaved debug comment, got: %v", lines)
		}
	})
}

func assertLines(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("line %d: expected %q got %q", i, want[i], got[i])
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
