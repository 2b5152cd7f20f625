package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != "127.0.0.1:8750" {
		t.Errorf("ListenAddr = %q, want default 127.0.0.1:8750", cfg.ListenAddr)
	}
	if cfg.CameraID != 0 {
		t.Errorf("CameraID = %d, want 0", cfg.CameraID)
	}
	if cfg.MotionThreshold != 1.0 {
		t.Errorf("MotionThreshold = %.1f, want 1.0", cfg.MotionThreshold)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPWATCH_ADDR", "0.0.0.0:9000")
	t.Setenv("REPWATCH_CAMERA_ID", "2")
	t.Setenv("REPWATCH_MOTION_THRESHOLD", "2.5")
	t.Setenv("REPWATCH_UP_THRESHOLD", "150")

	cfg := Load()

	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:9000", cfg.ListenAddr)
	}
	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
	if cfg.MotionThreshold != 2.5 {
		t.Errorf("MotionThreshold = %.1f, want 2.5", cfg.MotionThreshold)
	}
	if cfg.UpThreshold != 150 {
		t.Errorf("UpThreshold = %.1f, want 150", cfg.UpThreshold)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REPWATCH_CAMERA_ID", "not-a-number")
	t.Setenv("REPWATCH_MOTION_THRESHOLD", "abc")

	cfg := Load()

	if cfg.CameraID != 0 {
		t.Errorf("CameraID = %d, want default 0", cfg.CameraID)
	}
	if cfg.MotionThreshold != 1.0 {
		t.Errorf("MotionThreshold = %.1f, want default 1.0", cfg.MotionThreshold)
	}
}

func TestCounterConfig_Overrides(t *testing.T) {
	c := &Config{
		UpThreshold: 155,
		MinFrames:   4,
		CooldownMs:  600,
	}

	cfg := c.CounterConfig()

	if cfg.UpThreshold != 155 {
		t.Errorf("UpThreshold = %.1f, want 155", cfg.UpThreshold)
	}
	if cfg.MinFramesInState != 4 {
		t.Errorf("MinFramesInState = %d, want 4", cfg.MinFramesInState)
	}
	if cfg.MinCooldown != 600*time.Millisecond {
		t.Errorf("MinCooldown = %s, want 600ms", cfg.MinCooldown)
	}

	// Untouched fields keep their defaults.
	if cfg.DownThreshold != 110 {
		t.Errorf("DownThreshold = %.1f, want default 110", cfg.DownThreshold)
	}
	if cfg.SmoothWindow != 3 {
		t.Errorf("SmoothWindow = %d, want default 3", cfg.SmoothWindow)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("overridden config should validate, got %v", err)
	}
}
