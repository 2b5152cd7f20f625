// Package config loads Repwatch settings from the environment, with an
// optional .env file for local overrides.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/repwatch/internal/counter"
)

type Config struct {
	// Server
	ListenAddr string
	StaticDir  string

	// Capture
	CameraID        int
	MotionThreshold float64

	// Storage and hooks
	DBPath  string
	HookDir string

	// Counter threshold overrides. Zero values fall back to the tuned
	// defaults.
	UpThreshold   float64
	DownThreshold float64
	Hysteresis    float64
	MinDepthPx    float64
	MinFrames     int
	CooldownMs    int64
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ListenAddr: getEnv("REPWATCH_ADDR", "127.0.0.1:8750"),
		StaticDir:  getEnv("REPWATCH_STATIC_DIR", ""),

		CameraID:        getEnvInt("REPWATCH_CAMERA_ID", 0),
		MotionThreshold: getEnvFloat("REPWATCH_MOTION_THRESHOLD", 1.0),

		DBPath:  getEnv("REPWATCH_DB_PATH", ""),
		HookDir: getEnv("REPWATCH_HOOK_DIR", ""),

		UpThreshold:   getEnvFloat("REPWATCH_UP_THRESHOLD", 0),
		DownThreshold: getEnvFloat("REPWATCH_DOWN_THRESHOLD", 0),
		Hysteresis:    getEnvFloat("REPWATCH_HYSTERESIS", 0),
		MinDepthPx:    getEnvFloat("REPWATCH_MIN_DEPTH_PX", 0),
		MinFrames:     getEnvInt("REPWATCH_MIN_FRAMES", 0),
		CooldownMs:    int64(getEnvInt("REPWATCH_COOLDOWN_MS", 0)),
	}
}

// CounterConfig builds the counter configuration: tuned defaults with any
// environment overrides applied on top.
func (c *Config) CounterConfig() counter.Config {
	cfg := counter.DefaultConfig()
	if c.UpThreshold > 0 {
		cfg.UpThreshold = c.UpThreshold
	}
	if c.DownThreshold > 0 {
		cfg.DownThreshold = c.DownThreshold
	}
	if c.Hysteresis > 0 {
		cfg.Hysteresis = c.Hysteresis
	}
	if c.MinDepthPx > 0 {
		cfg.MinDepthPx = c.MinDepthPx
	}
	if c.MinFrames > 0 {
		cfg.MinFramesInState = c.MinFrames
	}
	if c.CooldownMs > 0 {
		cfg.MinCooldown = time.Duration(c.CooldownMs) * time.Millisecond
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}
