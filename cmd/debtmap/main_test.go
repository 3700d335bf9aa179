package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/internal/scorer"
)

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "no args defaults to current dir",
			args:     []string{},
			expected: []string{"."},
		},
		{
			name:     "single path",
			args:     []string{"/foo/bar"},
			expected: []string{"/foo/bar"},
		},
		{
			name:     "multiple paths",
			args:     []string{"/foo", "/bar"},
			expected: []string{"/foo", "/bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Flags:  []cli.Flag{},
				Action: func(c *cli.Context) error { return nil },
			}
			set := flag.NewFlagSet("test", flag.ContinueOnError)
			if err := set.Parse(tt.args); err != nil {
				t.Fatalf("failed to parse args: %v", err)
			}
			ctx := cli.NewContext(app, set, nil)

			result := getPaths(ctx)
			if len(result) != len(tt.expected) {
				t.Fatalf("getPaths() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("getPaths()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{input: "hello", maxLen: 10, expected: "hello"},
		{input: "hello world", maxLen: 8, expected: "hello..."},
		{input: "", maxLen: 5, expected: ""},
		{input: "hi", maxLen: 2, expected: "hi"},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestPriorityLabel(t *testing.T) {
	tests := []struct {
		priority scorer.Priority
		want     string
	}{
		{scorer.PriorityCritical, "CRITICAL"},
		{scorer.PriorityHigh, "HIGH"},
		{scorer.PriorityMedium, "MEDIUM"},
		{scorer.PriorityLow, "LOW"},
	}

	for _, tt := range tests {
		if got := priorityLabel(tt.priority); got != tt.want {
			t.Errorf("priorityLabel(%v) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestVersionVariable(t *testing.T) {
	if version == "" {
		t.Error("version variable should have a default value")
	}
}

func TestNewAppRegistersCommands(t *testing.T) {
	app := newApp()

	want := []string{"score", "mcp"}

	have := make(map[string]bool, len(app.Commands))
	for _, cmd := range app.Commands {
		have[cmd.Name] = true
	}

	for _, name := range want {
		if !have[name] {
			t.Errorf("newApp() missing command %q", name)
		}
	}

	if len(app.Commands) != len(want) {
		t.Errorf("newApp() registered %d commands, want exactly %d (%v)", len(app.Commands), len(want), want)
	}
}

func TestScoreCommandE2E(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "sample.go")
	content := `package sample

func Simple(a int) int {
	return a + 1
}

func Complex(a, b int) int {
	if a > 0 {
		if b > 0 {
			return a + b
		}
		return a
	}
	return 0
}
`
	if err := os.WriteFile(goFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	app := newApp()
	if err := app.Run([]string{"debtmap", "-f", "json", "score", tmpDir}); err != nil {
		t.Fatalf("score command failed: %v", err)
	}
}

func TestScoreCommandTopFlag(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "sample.go")
	content := `package sample

func A() int { return 1 }
func B() int { return 2 }
func C() int { return 3 }
`
	if err := os.WriteFile(goFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	app := newApp()
	if err := app.Run([]string{"debtmap", "-f", "text", "score", "--top", "1", tmpDir}); err != nil {
		t.Fatalf("score command failed: %v", err)
	}
}

func TestDebtAdjustmentFromSATD(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "sample.go")
	content := `package sample

// TODO: replace this with a real implementation
func Stub() int {
	// FIXME: this is wrong
	return 0
}

func Clean() int {
	return 1
}
`
	if err := os.WriteFile(goFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	provider := debtAdjustmentFromSATD([]string{goFile})
	if provider == nil {
		t.Fatal("expected a non-nil provider when SATD markers are present")
	}

	got := provider(model.FunctionID{File: goFile, Name: "Stub", Line: 6})
	if got <= 0 {
		t.Errorf("expected a positive debt_adjustment for a file with TODO/FIXME markers, got %v", got)
	}
}

func TestDebtAdjustmentFromSATD_NoMarkers(t *testing.T) {
	tmpDir := t.TempDir()
	goFile := filepath.Join(tmpDir, "clean.go")
	content := `package sample

func Clean() int {
	return 1
}
`
	if err := os.WriteFile(goFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	provider := debtAdjustmentFromSATD([]string{goFile})
	if provider != nil {
		t.Error("expected a nil provider when no SATD markers are found")
	}
}

func TestNoFilesError(t *testing.T) {
	tmpDir := t.TempDir()

	app := newApp()
	// Should not crash on an empty directory.
	_ = app.Run([]string{"debtmap", "score", tmpDir})
}
