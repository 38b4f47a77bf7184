package main

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/titilda/museterm/internal/services"
	"github.com/titilda/museterm/internal/shared"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "museterm.db")
	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	t.Cleanup(r.Close)
	return r, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := services.NewClient(services.ClientOpts{BaseURL: "http://example.com"})

			runner := NewRunner(RunnerOpts{
				Config: config,
				Client: client,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.client == nil {
				t.Error("expected a client to be built")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})
	})

	t.Run("ensureSession", func(t *testing.T) {
		t.Run("opens and migrates the database once", func(t *testing.T) {
			r, _ := newTestRunner(t)

			first, err := r.ensureSession()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			second, err := r.ensureSession()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if first != second {
				t.Error("expected the same session on repeat calls")
			}
			if r.db == nil {
				t.Error("expected the database handle to be kept")
			}
		})

		t.Run("requireAuth fails without a credential", func(t *testing.T) {
			r, _ := newTestRunner(t)

			if _, err := r.requireAuth(); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			r, output := newTestRunner(t)

			if err := r.writeJSON(map[string]string{"name": "Focus"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "{\"name\":\"Focus\"}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("pretty", func(t *testing.T) {
			r, output := newTestRunner(t)

			if err := r.writeJSON(map[string]string{"name": "Focus"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "  \"name\": \"Focus\"") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		r, output := newTestRunner(t)

		if err := r.writePlain("page %d/%d\n", 1, 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "page 1/3\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		r, _ := newTestRunner(t)

		commands := r.register()
		if len(commands) != 8 {
			t.Errorf("expected 8 top-level commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "login", "signup", "logout", "whoami", "playlists", "songs", "tui"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})
}
