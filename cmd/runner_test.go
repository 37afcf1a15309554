package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/shared"
	tu "github.com/desertthunder/snx/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			doer := tu.NewRouteDoer()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Doer:       doer,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.doer != doer {
				t.Error("expected doer to be set")
			}
			if runner.suno.Doer() != doer {
				t.Error("expected suno service to use the doer")
			}
			if runner.engine == nil || runner.api == nil {
				t.Error("expected engine and api service to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without a doer builds an executor", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			executor, ok := runner.doer.(*fetch.Executor)
			if !ok {
				t.Fatalf("expected *fetch.Executor, got %T", runner.doer)
			}
			if got := executor.URL("/profiles/followers"); got != "https://studio-api.prod.suno.com/api/profiles/followers" {
				t.Errorf("unexpected base URL: %s", got)
			}
			if executor.Policy().Retries != 3 {
				t.Errorf("expected 3 retries, got %d", executor.Policy().Retries)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("SetLogger keeps a custom doer", func(t *testing.T) {
		doer := tu.NewRouteDoer()
		runner := NewRunner(RunnerOpts{Doer: doer, Output: io.Discard})
		logger := shared.NewLogger(io.Discard)

		runner.SetLogger(logger)

		if runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
		if runner.doer != doer {
			t.Error("expected custom doer to survive")
		}
	})

	t.Run("ask", func(t *testing.T) {
		t.Run("skip bypasses the prompt", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Confirm: func(string) (bool, error) {
				t.Fatal("prompt should not run")
				return false, nil
			}})
			if err := runner.ask("sure?", true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("declining aborts", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Confirm: func(string) (bool, error) { return false, nil }})
			if err := runner.ask("sure?", false); !errors.Is(err, shared.ErrAborted) {
				t.Errorf("expected ErrAborted, got %v", err)
			}
		})

		t.Run("prompt errors are wrapped", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Confirm: func(string) (bool, error) { return false, errors.New("no tty") }})
			err := runner.ask("sure?", false)
			if err == nil || !strings.Contains(err.Error(), "confirmation failed") {
				t.Errorf("expected confirmation error, got %v", err)
			}
		})
	})

	t.Run("spin without a terminal runs the action directly", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		ran := false
		err := runner.spin(context.Background(), "working", func(context.Context) error {
			ran = true
			return nil
		})
		if err != nil || !ran {
			t.Errorf("expected action to run, ran=%v err=%v", ran, err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writeRaw", func(t *testing.T) {
		t.Run("re-encodes JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeRaw(json.RawMessage(`{ "id" : "c1" }`), false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != `{"id":"c1"}`+"\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("rejects non-JSON", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeRaw(json.RawMessage(`<html>`), false); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"setup", "auth", "profiles", "notifications", "users", "songs", "hide-creator", "workspace", "index", "history", "api"} {
			if !seen[name] {
				t.Errorf("expected command %q", name)
			}
		}
	})
}
