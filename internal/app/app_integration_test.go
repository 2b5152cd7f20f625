package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/repwatch/internal/counter"
	"github.com/ayusman/repwatch/internal/hook"
	"github.com/ayusman/repwatch/internal/pose"
	"github.com/ayusman/repwatch/internal/store"
)

// testConfig returns the default counter config with the cooldown removed
// so tests do not have to sleep between transitions.
func testConfig() counter.Config {
	cfg := counter.DefaultConfig()
	cfg.MinCooldown = 0
	return cfg
}

// feedRep pushes one full qualifying rep cycle through the app: warm-up
// at the top, a deep descent, then the ascent back up.
func feedRep(t *testing.T, a *App) counter.Output {
	t.Helper()

	var out counter.Output
	for i := 0; i < 7; i++ {
		out = a.ProcessBody(pose.BodyAt(160, 150))
	}
	for i := 0; i < 7; i++ {
		out = a.ProcessBody(pose.BodyAt(80, 210))
	}
	for i := 0; i < 6; i++ {
		out = a.ProcessBody(pose.BodyAt(165, 150))
	}
	return out
}

func TestApp_CountingPipeline_SingleRep(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	a, err := New(Config{
		Store:        s,
		HookDir:      filepath.Join(tmpDir, "hooks"),
		MotionThresh: 1.0,
		Counter:      testConfig(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a.SetDetector(pose.NewMockDetector())
	a.SetEnabled(true)

	var updates []counter.Output
	a.OnUpdate(func(out counter.Output) {
		updates = append(updates, out)
	})

	out := feedRep(t, a)

	if out.Count != 1 {
		t.Errorf("count = %d, want 1", out.Count)
	}
	if out.State != counter.StateUp {
		t.Errorf("state = %s, want %s", out.State, counter.StateUp)
	}
	if out.LastRep == nil {
		t.Fatal("expected rep quality to be recorded")
	}
	if !out.LastRep.MetDepth {
		t.Error("expected the rep to meet depth")
	}
	if out.LastRep.DepthPx != 60 {
		t.Errorf("depth = %.1f px, want 60", out.LastRep.DepthPx)
	}

	if len(updates) != 20 {
		t.Errorf("OnUpdate called %d times, want once per frame (20)", len(updates))
	}

	if snap := a.Snapshot(); snap.Count != 1 {
		t.Errorf("Snapshot().Count = %d, want 1", snap.Count)
	}

	a.ResetCounter()
	if snap := a.Snapshot(); snap.Count != 0 {
		t.Errorf("count after reset = %d, want 0", snap.Count)
	}
}

func TestApp_RepFiresHooks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	hookDir := filepath.Join(tmpDir, "hooks")
	eventFile := filepath.Join(tmpDir, "event.json")

	// A hook that records the event it receives on stdin.
	dir := filepath.Join(hookDir, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest, _ := json.Marshal(hook.Manifest{
		Name:       "recorder",
		Version:    "1.0.0",
		Executable: "recorder.sh",
		Events:     []string{"rep"},
	})
	os.WriteFile(filepath.Join(dir, "hook.json"), manifest, 0644)
	script := "#!/bin/sh\ncat > " + eventFile + "\necho '{\"success\":true}'\n"
	os.WriteFile(filepath.Join(dir, "recorder.sh"), []byte(script), 0755)

	a, err := New(Config{
		HookDir:      hookDir,
		MotionThresh: 1.0,
		Counter:      testConfig(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.DiscoverHooks(); err != nil {
		t.Fatalf("DiscoverHooks() error = %v", err)
	}

	a.SetDetector(pose.NewMockDetector())
	a.SetEnabled(true)
	feedRep(t, a)

	// Hooks run asynchronously; wait for the event file to appear.
	var data []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err = os.ReadFile(eventFile)
		if err == nil && len(data) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(data) == 0 {
		t.Fatal("hook was never invoked")
	}

	var ev hook.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("failed to parse recorded event: %v", err)
	}
	if ev.Type != "rep" {
		t.Errorf("event type = %q, want %q", ev.Type, "rep")
	}
	if ev.Count != 1 {
		t.Errorf("event count = %d, want 1", ev.Count)
	}
	if !ev.MetDepth {
		t.Error("expected event to report depth met")
	}
}

func TestApp_ApplyProfile(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	p := &store.Profile{
		ID:            "prof-1",
		Name:          "Strict Curl",
		UpThreshold:   150,
		DownThreshold: 100,
		Hysteresis:    5,
		MinDepthPx:    60,
		MinFrames:     2,
		CooldownMs:    0,
	}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, err := New(Config{
		Store:   s,
		Counter: testConfig(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := a.ApplyProfile(p); err != nil {
		t.Fatalf("ApplyProfile() error = %v", err)
	}

	info := a.TestInfo()
	if info.EffectiveUpThreshold != 155 {
		t.Errorf("effective up threshold = %.1f, want 155", info.EffectiveUpThreshold)
	}
	if info.EffectiveDownThreshold != 95 {
		t.Errorf("effective down threshold = %.1f, want 95", info.EffectiveDownThreshold)
	}
	if info.MinDepthPx != 60 {
		t.Errorf("min depth = %.1f, want 60", info.MinDepthPx)
	}

	// The active profile must be persisted for the next startup.
	id, err := s.GetSetting(ActiveProfileKey)
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if id != p.ID {
		t.Errorf("active profile = %q, want %q", id, p.ID)
	}

	// A fresh App picks the profile up from the store.
	b, err := New(Config{Store: s, Counter: testConfig()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.LoadActiveProfile(); err != nil {
		t.Fatalf("LoadActiveProfile() error = %v", err)
	}
	if got := b.TestInfo().EffectiveUpThreshold; got != 155 {
		t.Errorf("effective up threshold after reload = %.1f, want 155", got)
	}
}

func TestApp_ApplyProfile_InvalidRejected(t *testing.T) {
	a, err := New(Config{Counter: testConfig()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	bad := &store.Profile{
		ID:            "bad",
		Name:          "Inverted",
		UpThreshold:   100,
		DownThreshold: 150,
	}
	if err := a.ApplyProfile(bad); err == nil {
		t.Error("expected invalid profile to be rejected")
	}

	// The running counter must be untouched.
	if got := a.TestInfo().EffectiveUpThreshold; got != 148 {
		t.Errorf("effective up threshold = %.1f, want unchanged 148", got)
	}
}

func TestApp_EnableDisable(t *testing.T) {
	a, err := New(Config{Counter: testConfig()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.IsEnabled() {
		t.Error("app should start disabled")
	}
	a.SetEnabled(true)
	if !a.IsEnabled() {
		t.Error("expected app to be enabled")
	}
}
