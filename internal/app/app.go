// Package app provides the main application logic for the Repwatch rep
// counting system.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/repwatch/internal/capture"
	"github.com/ayusman/repwatch/internal/counter"
	"github.com/ayusman/repwatch/internal/hook"
	"github.com/ayusman/repwatch/internal/pose"
	"github.com/ayusman/repwatch/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nobody is moving in frame.
	IdleFPS = 5
	// ActiveFPS is the frame rate during an active set.
	ActiveFPS = 15
	// IdleTimeoutMs is how long after the last motion the pipeline
	// drops back to idle.
	IdleTimeoutMs = 2000
	// HookTimeout bounds each rep hook invocation.
	HookTimeout = 5 * time.Second
)

// ActiveProfileKey is the settings key naming the profile applied at startup.
const ActiveProfileKey = "active_profile"

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	HookDir      string
	CameraID     int
	MotionThresh float64
	Counter      counter.Config
}

// App owns the capture, pose detection and counting pipeline. All access
// to the counter goes through the App's lock: the core itself is
// single-writer by contract.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector pose.Detector
	counter  *counter.Counter
	hookMgr  *hook.Manager
	hookExec *hook.Executor
	enabled  bool
	onUpdate func(counter.Output)
	mu       sync.RWMutex
	stopCh   chan struct{}
}

// New creates a new App instance with the given configuration.
// An invalid counter configuration fails construction.
func New(config Config) (*App, error) {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	ctr, err := counter.New(config.Counter)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		motion:   capture.NewMotionDetector(motionThreshold),
		counter:  ctr,
		hookMgr:  hook.NewManager(config.HookDir),
		hookExec: hook.NewExecutor(HookTimeout),
	}

	// Try MediaPipe first, fall back to the mock detector
	if mp, err := pose.NewMediaPipeDetector(pose.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = pose.NewMockDetector()
	}

	return a, nil
}

// SetEnabled enables or disables rep counting.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether rep counting is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d pose.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera, for tests that play back recorded frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// OnUpdate registers a callback invoked with every processed frame's
// output. Used by the websocket feed and the tray.
func (a *App) OnUpdate(fn func(counter.Output)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = fn
}

// LoadActiveProfile applies the profile named by the active_profile
// setting, if any. A missing setting or profile is not an error.
func (a *App) LoadActiveProfile() error {
	if a.config.Store == nil {
		return nil
	}

	id, err := a.config.Store.GetSetting(ActiveProfileKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	p, err := a.config.Store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Active profile %s no longer exists, keeping defaults", id)
			return nil
		}
		return err
	}

	if err := a.ApplyProfile(p); err != nil {
		return err
	}

	log.Printf("Applied counting profile %q", p.Name)
	return nil
}

// ApplyProfile swaps the counter's thresholds for the profile's and
// resets counting state. Rejected if the resulting config is invalid.
func (a *App) ApplyProfile(p *store.Profile) error {
	cfg := a.config.Counter
	cfg.UpThreshold = p.UpThreshold
	cfg.DownThreshold = p.DownThreshold
	cfg.Hysteresis = p.Hysteresis
	cfg.MinDepthPx = p.MinDepthPx
	cfg.MinFramesInState = p.MinFrames
	cfg.MinCooldown = time.Duration(p.CooldownMs) * time.Millisecond

	ctr, err := counter.New(cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.counter = ctr
	a.config.Counter = cfg

	if a.config.Store != nil {
		if err := a.config.Store.SetSetting(ActiveProfileKey, p.ID); err != nil {
			log.Printf("Failed to persist active profile: %v", err)
		}
	}

	return nil
}

// ProcessBody runs one frame's detected body through the counter and
// notifies listeners and hooks. Serialized by the App's lock.
func (a *App) ProcessBody(body *pose.Body) counter.Output {
	a.mu.Lock()
	before := a.counter.Count()
	out := a.counter.Process(body)
	onUpdate := a.onUpdate
	a.mu.Unlock()

	if onUpdate != nil {
		onUpdate(out)
	}
	if out.Count > before {
		a.fireHooks(out)
	}

	return out
}

// Snapshot returns the counter's current output without consuming a frame.
func (a *App) Snapshot() counter.Output {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counter.Snapshot()
}

// ResetCounter clears the count and all counting state.
func (a *App) ResetCounter() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counter.Reset()
}

// TestInfo exposes the counter's effective thresholds and timings.
func (a *App) TestInfo() counter.TestInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counter.TestInfo()
}

// DiscoverHooks scans the hook directory and loads available hooks.
func (a *App) DiscoverHooks() error {
	return a.hookMgr.Discover()
}

// Hooks returns the hook manager.
func (a *App) Hooks() *hook.Manager {
	return a.hookMgr
}

// fireHooks notifies every discovered hook of a counted rep. Hook
// failures are logged and never affect counting.
func (a *App) fireHooks(out counter.Output) {
	hooks := a.hookMgr.List()
	if len(hooks) == 0 {
		return
	}

	ev := &hook.Event{
		Type:        "rep",
		Count:       out.Count,
		TimestampMs: time.Now().UnixMilli(),
	}
	if out.LastRep != nil {
		ev.MetDepth = out.LastRep.MetDepth
		ev.DepthPx = out.LastRep.DepthPx
	}

	go func() {
		for _, h := range hooks {
			if _, err := a.hookExec.Notify(h, ev); err != nil {
				log.Printf("Hook %s: %v", h.Manifest.Name, err)
			}
		}
	}()
}

// Start begins the counting pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Counting pipeline started")
	return nil
}

// Stop halts the counting pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Counting pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the pose detector.
func (a *App) Detector() pose.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
