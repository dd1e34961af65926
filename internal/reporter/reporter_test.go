package reporter

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr, oldVerbose := Stdout, Stderr, Verbose
	Stdout, Stderr = &out, &errOut
	SetNoColor(true)
	t.Cleanup(func() {
		Stdout, Stderr, Verbose = oldOut, oldErr, oldVerbose
	})
	return &out, &errOut
}

func TestDebugNeedsVerbose(t *testing.T) {
	_, errOut := capture(t)
	Debug("hidden %d", 1)
	if errOut.Len() != 0 {
		t.Errorf("debug should be silent without Verbose: %q", errOut.String())
	}
	Verbose = true
	Debug("shown %d", 2)
	if !strings.Contains(errOut.String(), "shown 2") {
		t.Errorf("debug output = %q", errOut.String())
	}
}

func TestStatusLines(t *testing.T) {
	_, errOut := capture(t)
	Ok("parsed")
	Warn("careful")
	Err("broken")
	got := errOut.String()
	for _, want := range []string{"✓ parsed", "⚠ careful", "✗ broken"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestTable(t *testing.T) {
	out, _ := capture(t)
	Table([]string{"table", "kind"}, []map[string]any{
		{"table": "blog", "kind": "collection"},
		{"table": "blog_tags", "kind": "junction"},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if lines[1] != "| table     | kind       |" {
		t.Errorf("header = %q", lines[1])
	}
}
