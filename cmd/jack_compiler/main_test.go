package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCompiler(t *testing.T, files map[string]string) map[string][]string {
	t.Helper()
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("unable to write fixture %q: %s", name, err)
		}
	}

	if status := Handler([]string{dir}, map[string]string{}); status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	out := map[string][]string{}
	for name := range files {
		vmPath := strings.TrimSuffix(filepath.Join(dir, name), ".jack") + ".vm"
		content, err := os.ReadFile(vmPath)
		if err != nil {
			t.Fatalf("expected compiled output for %q: %s", name, err)
		}
		out[name] = strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	}
	return out
}

func TestJackCompiler(t *testing.T) {
	t.Run("simple function returns a constant", func(t *testing.T) {
		out := runCompiler(t, map[string]string{
			"Main.jack": `
				class Main {
					function void main() {
						return;
					}
				}
			`,
		})

		lines := out["Main.jack"]
		if len(lines) == 0 || lines[0] != "function Main.main 0" {
			t.Fatalf("expected the output to start with 'function Main.main 0', got: %v", lines)
		}
	})

	t.Run("constructor allocates memory for its fields", func(t *testing.T) {
		out := runCompiler(t, map[string]string{
			"Point.jack": `
				class Point {
					field int x, y;

					constructor Point new(int ax, int ay) {
						let x = ax;
						let y = ay;
						return this;
					}
				}
			`,
		})

		lines := out["Point.jack"]
		if !contains(lines, "call Memory.alloc 1") {
			t.Fatalf("expected the constructor to allocate memory, got: %v", lines)
		}
		if !contains(lines, "pop pointer 0") {
			t.Fatalf("expected the constructor to set the 'this' pointer, got: %v", lines)
		}
	})

	t.Run("if and while labels are independent and reset per subroutine", func(t *testing.T) {
		out := runCompiler(t, map[string]string{
			"Main.jack": `
				class Main {
					function void first() {
						var int x;
						if (true) {
							let x = 1;
						}
						if (true) {
							let x = 2;
						}
						return;
					}

					function void second() {
						var int x;
						while (true) {
							let x = 1;
						}
						return;
					}
				}
			`,
		})

		lines := out["Main.jack"]
		if !contains(lines, "label ELSE_0") || !contains(lines, "label ELSE_1") {
			t.Fatalf("expected two independent if-label indices in 'first', got: %v", lines)
		}
		if !contains(lines, "label WHILE_START_0") {
			t.Fatalf("expected the while-label counter to restart at 0 in 'second', got: %v", lines)
		}
	})
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.TrimSpace(s) == needle {
			return true
		}
	}
	return false
}
