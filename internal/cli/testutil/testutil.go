// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/querycanvas/internal/cli/output"
)

// SalesCanvas is a canvas with one join chain and one unjoined table.
const SalesCanvas = `name: sales
nodes:
  - id: c
    table: customers
  - id: o
    table: orders
  - id: i
    table: order_items
  - id: p
    table: promotions
edges:
  - source: c
    target: o
    join_type: left
  - source: o
    target: i
`

// CycleCanvas is a canvas whose joins form a cycle.
const CycleCanvas = `name: loop
nodes:
  - id: a
  - id: b
  - id: c
edges:
  - source: a
    target: b
  - source: b
    target: c
  - source: c
    target: b
`

// TestSecretKey is a valid 32-byte hex secret key.
const TestSecretKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// SetupTestProject creates a temporary project with a config file, a state
// directory and a canvases directory holding SalesCanvas and CycleCanvas.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	config := `state_path: .querycanvas/state.db
secret_key: ` + TestSecretKey + `
server:
  canvas_dir: canvases
`
	if err := os.WriteFile(filepath.Join(tmpDir, "querycanvas.yaml"), []byte(config), 0600); err != nil {
		t.Fatalf("failed to create querycanvas.yaml: %v", err)
	}

	canvasDir := filepath.Join(tmpDir, "canvases")
	if err := os.MkdirAll(canvasDir, 0750); err != nil {
		t.Fatalf("failed to create directory %s: %v", canvasDir, err)
	}
	WriteCanvas(t, canvasDir, "sales.yaml", SalesCanvas)
	WriteCanvas(t, canvasDir, "loop.yaml", CycleCanvas)

	return tmpDir
}

// WriteCanvas writes a canvas file into dir and returns its path.
func WriteCanvas(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
