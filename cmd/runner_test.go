package main

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/chapgen/cli/internal/shared"
	tu "github.com/chapgen/cli/internal/testing"
)

func TestNewRunner(t *testing.T) {
	t.Run("fills in defaults", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})

		if r.config == nil {
			t.Error("expected a default config")
		}
		if r.logger == nil {
			t.Error("expected a default logger")
		}
		if r.httpClient != http.DefaultClient {
			t.Error("expected the default HTTP client")
		}
		if r.output != os.Stdout {
			t.Error("expected stdout output")
		}
	})

	t.Run("keeps what the caller provides", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Backend.BaseURL = "https://backend.test"
		out := &bytes.Buffer{}

		r := NewRunner(RunnerOpts{Config: config, Output: out})

		if r.config.Backend.BaseURL != "https://backend.test" {
			t.Errorf("config replaced: %q", r.config.Backend.BaseURL)
		}
		if r.output != out {
			t.Error("output replaced")
		}
	})

	t.Run("SetLogger swaps the logger", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})
		logger := shared.NewLogger(&bytes.Buffer{})

		r.SetLogger(logger)

		if r.logger != logger {
			t.Error("expected the new logger")
		}
	})
}

func TestRegister(t *testing.T) {
	r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
	commands := r.register()

	if len(commands) != 6 {
		t.Fatalf("expected 6 commands, got %d", len(commands))
	}

	seen := map[string]bool{}
	for _, cmd := range commands {
		if cmd == nil {
			t.Fatal("nil command registered")
		}
		seen[cmd.Name] = true
	}

	for _, name := range []string{"setup", "auth", "generate", "jobs", "settings", "tui"} {
		if !seen[name] {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("compact", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		if err := r.writeJSON(payload{Name: "a", Count: 2}, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := out.String(); got != `{"name":"a","count":2}`+"\n" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		if err := r.writeJSON(payload{Name: "a"}, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := out.String(); !strings.Contains(got, "  \"name\": \"a\"") {
			t.Errorf("expected indented output, got %q", got)
		}
	})

	t.Run("marshal failure is reported", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		err := r.writeJSON(make(chan int), false)
		if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
			t.Errorf("expected a marshal error, got %v", err)
		}
	})

	t.Run("write failure is reported", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		err := r.writeJSON(payload{}, false)
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected a write error, got %v", err)
		}
	})

	t.Run("newline write failure is reported", func(t *testing.T) {
		lw := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
		r := NewRunner(RunnerOpts{Output: &lw})

		err := r.writeJSON(payload{}, false)
		if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
			t.Errorf("expected a newline error, got %v", err)
		}
	})
}

func TestWritePlain(t *testing.T) {
	t.Run("formats into the output", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		if err := r.writePlain("hello %s", "there"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.String() != "hello there" {
			t.Errorf("unexpected output: %q", out.String())
		}
	})

	t.Run("writePlainln wraps with newlines", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		r.writePlainln("line %d", 1)

		if out.String() != "\nline 1\n" {
			t.Errorf("unexpected output: %q", out.String())
		}
	})

	t.Run("header surrounds the title", func(t *testing.T) {
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: out})

		r.writePlainHeader("Chapters")

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		if len(lines) != 3 || lines[1] != "Chapters" {
			t.Errorf("unexpected header: %q", out.String())
		}
	})

	t.Run("write failure is reported", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := r.writePlain("x"); err == nil {
			t.Error("expected a write error")
		}
	})
}
