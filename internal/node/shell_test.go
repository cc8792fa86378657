package node

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := &Shell{node: nil}
	out := captureStdout(t, func() { s.Dispatch(context.Background(), "Frobnicate") })
	if strings.TrimSpace(out) != "Invalid command." {
		t.Fatalf("output = %q, want %q", out, "Invalid command.")
	}
}

func TestDispatchArityMismatch(t *testing.T) {
	s := &Shell{node: nil}
	out := captureStdout(t, func() { s.Dispatch(context.Background(), "Local-store-ps") })
	if strings.TrimSpace(out) != "Invalid arguments to the command." {
		t.Fatalf("output = %q, want %q", out, "Invalid arguments to the command.")
	}
}

func TestDispatchEmptyLineIsNoop(t *testing.T) {
	s := &Shell{node: nil}
	out := captureStdout(t, func() { s.Dispatch(context.Background(), "   ") })
	if out != "" {
		t.Fatalf("expected no output for a blank line, got %q", out)
	}
}

func TestDispatchNonNumericArityStillRejected(t *testing.T) {
	s := &Shell{node: nil}
	out := captureStdout(t, func() { s.Dispatch(context.Background(), "Local-store-ps not-a-number") })
	if strings.TrimSpace(out) != "Invalid arguments to the command." {
		t.Fatalf("output = %q, want %q", out, "Invalid arguments to the command.")
	}
}
