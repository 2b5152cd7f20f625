package hook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeHook(t *testing.T, root, name, script string) {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: name + ".sh",
		Events:     []string{"rep"},
	}
	manifestBytes, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(dir, "hook.json"), manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name+".sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	writeHook(t, tmpDir, "announce", "#!/bin/sh\necho '{\"success\":true}'\n")

	// A stray file at the top level must be ignored.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644)

	// A subdirectory without a manifest must be ignored.
	os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755)

	m := NewManager(tmpDir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	hooks := m.List()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}
	if hooks[0].Manifest.Name != "announce" {
		t.Errorf("hook name = %q, want %q", hooks[0].Manifest.Name, "announce")
	}

	h, err := m.Get("announce")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.HasSuffix(h.Executable, "announce.sh") {
		t.Errorf("executable = %q, want it to end with announce.sh", h.Executable)
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrHookNotFound) {
		t.Errorf("Get() on missing hook error = %v, want ErrHookNotFound", err)
	}
}

func TestManager_Discover_MissingDirIsNotAnError(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := m.Discover(); err != nil {
		t.Errorf("Discover() on missing dir error = %v, want nil", err)
	}
	if len(m.List()) != 0 {
		t.Errorf("expected no hooks, got %d", len(m.List()))
	}
}

func TestExecutor_Notify(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()

	// The script echoes the received event back inside its response so we
	// can verify it arrived on stdin.
	writeHook(t, tmpDir, "echo", `#!/bin/sh
INPUT=$(cat)
COUNT=$(echo "$INPUT" | sed 's/.*"count"://;s/,.*//')
echo "{\"success\":true,\"error\":\"count=$COUNT\"}"
`)

	m := NewManager(tmpDir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	h, err := m.Get("echo")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	e := NewExecutor(5 * time.Second)
	resp, err := e.Notify(h, &Event{
		Type:        "rep",
		Count:       7,
		MetDepth:    true,
		DepthPx:     52,
		TimestampMs: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !resp.Success {
		t.Error("expected success response")
	}
	if resp.Error != "count=7" {
		t.Errorf("echoed payload = %q, want %q", resp.Error, "count=7")
	}
}

func TestExecutor_Notify_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	writeHook(t, tmpDir, "sleepy", "#!/bin/sh\nsleep 5\necho '{\"success\":true}'\n")

	m := NewManager(tmpDir)
	m.Discover()
	h, _ := m.Get("sleepy")

	e := NewExecutor(100 * time.Millisecond)
	if _, err := e.Notify(h, &Event{Type: "rep", Count: 1}); err == nil {
		t.Error("expected timeout error")
	}
}

func TestExecutor_Notify_BadOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	writeHook(t, tmpDir, "garbled", "#!/bin/sh\necho 'not json'\n")

	m := NewManager(tmpDir)
	m.Discover()
	h, _ := m.Get("garbled")

	e := NewExecutor(5 * time.Second)
	if _, err := e.Notify(h, &Event{Type: "rep", Count: 1}); err == nil {
		t.Error("expected parse error for non-JSON output")
	}
}
