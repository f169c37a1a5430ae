package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vango-dev/hookrt/internal/config"
	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/hooks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %v is not *errors.Error", err)
	}
	if e.Code != code {
		t.Errorf("Code = %s, want %s", e.Code, code)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q, want %q", out, version+"\n")
	}

	out, _, err = execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version output missing Go version:\n%s", out)
	}
}

func TestDemosList(t *testing.T) {
	out, _, err := execute(t, "demos")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"NAME", "clock", "color", "counter", "theme", "increment,decrement,reset"} {
		if !strings.Contains(out, name) {
			t.Errorf("demos output missing %q:\n%s", name, out)
		}
	}
}

func TestRunCounter(t *testing.T) {
	out, _, err := execute(t, "run", "counter", "-a", "increment", "-a", "increment", "-a", "decrement")
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	wants := []string{"[mount] ", "Count: 0", "Count: 1", "Count: 2", "Count: 1"}
	if !strings.HasPrefix(lines[0], wants[0]) {
		t.Errorf("line 0 = %q, want prefix %q", lines[0], wants[0])
	}
	for i, want := range wants[1:] {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "run", "counter", "--json", "-a", "increment")
	if err != nil {
		t.Fatal(err)
	}

	dec := json.NewDecoder(strings.NewReader(out))
	var steps []string
	for {
		var s struct {
			Step   string          `json:"step"`
			Output json.RawMessage `json:"output"`
		}
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		steps = append(steps, s.Step)
		if !bytes.Contains(s.Output, []byte(`"tag":"div"`)) {
			t.Errorf("step %s output = %s", s.Step, s.Output)
		}
	}
	if strings.Join(steps, ",") != "mount,increment" {
		t.Errorf("steps = %v", steps)
	}
}

func TestRunUnknownDemo(t *testing.T) {
	_, _, err := execute(t, "run", "nope")
	assertCode(t, err, errors.CodeUnknownDemo)
}

func TestRunUnknownAction(t *testing.T) {
	_, _, err := execute(t, "run", "counter", "-a", "explode")
	assertCode(t, err, errors.CodeUnknownAction)
}

func TestRunRequiresDemo(t *testing.T) {
	if _, _, err := execute(t, "run"); err == nil {
		t.Error("run without a demo should fail")
	}
}

func TestRunWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hookrt.yaml")
	content := "log:\n  level: debug\nmetrics:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := execute(t, "--config", path, "run", "counter", "-a", "increment")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "level=DEBUG") {
		t.Errorf("debug logs missing from stderr:\n%s", stderr)
	}
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hookrt.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := execute(t, "--config", path, "run", "counter")
	assertCode(t, err, errors.CodeConfigParse)

	_, _, err = execute(t, "--log-level", "loud", "run", "counter")
	assertCode(t, err, errors.CodeConfigInvalid)
}

func TestRunClockWait(t *testing.T) {
	out, _, err := execute(t, "run", "clock", "-a", "pause", "--wait", "20ms")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[pause]") || !strings.Contains(out, "[wait]") {
		t.Errorf("clock output = %q", out)
	}
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.New()
	return newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAppRecordsErrors(t *testing.T) {
	a := testApp(t)
	depthErr := &hooks.UpdateDepthError{Instance: 1, Component: "Loop", Passes: 50}
	a.onError(depthErr)

	if errs := a.errs(); len(errs) != 1 || errs[0] != error(depthErr) {
		t.Errorf("errs = %v", errs)
	}

	families, err := a.registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "hookrt_errors_total" {
			for _, m := range f.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "code" && l.GetValue() == hooks.CodeUpdateDepth {
						found = m.GetCounter().GetValue() == 1
					}
				}
			}
		}
	}
	if !found {
		t.Error("hookrt_errors_total{code=H005} should be 1")
	}
}

func TestServe(t *testing.T) {
	a := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, io.Discard, a, "127.0.0.1:0", []string{"counter", "theme"}, func(addr net.Addr) {
			ready <- addr
		})
	}()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not become ready")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr.String() + "/api/instances")
	if err != nil {
		t.Fatal(err)
	}
	var snap []hooks.InstanceInfo
	err = json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 2 || snap[0].Component != "Counter" || snap[1].Component != "ThemeProvider" {
		t.Errorf("snapshot roots = %+v", snap)
	}

	resp, err = client.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "hookrt_mounted_instances 5") {
		t.Errorf("/metrics should report 5 mounted instances:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestServeUnknownDemo(t *testing.T) {
	err := serve(context.Background(), io.Discard, testApp(t), "127.0.0.1:0", []string{"nope"}, nil)
	assertCode(t, err, errors.CodeUnknownDemo)
}

func TestServeBadAddr(t *testing.T) {
	err := serve(context.Background(), io.Discard, testApp(t), "256.0.0.1:bad", nil, nil)
	assertCode(t, err, errors.CodeServe)
}
