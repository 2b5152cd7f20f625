// Package counter implements the streaming rep-counting state machine at
// the heart of Repwatch. It consumes already-extracted joint landmarks,
// smooths them, and drives a three-state machine with hysteresis, frame
// debouncing, a transition cooldown and a shoulder-drop depth gate to turn
// noisy per-frame angles into a monotonic repetition count.
package counter

import (
	"fmt"
	"time"

	"github.com/ayusman/repwatch/internal/pose"
)

// State is the rep machine's position state.
type State string

const (
	// StateUnknown is the only initial state. It is left on the first
	// validated frame and never re-entered except by Reset.
	StateUnknown State = "unknown"
	// StateUp means the arm is extended (angle above the up threshold).
	StateUp State = "up"
	// StateDown means the arm is bent (angle below the down threshold).
	StateDown State = "down"
)

// Clock supplies the current time for the transition cooldown. Injectable
// so tests control elapsed time instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config holds the thresholds and timing parameters of the rep machine.
type Config struct {
	// UpThreshold is the smoothed angle above which the arm counts as
	// extended (degrees).
	UpThreshold float64

	// DownThreshold is the smoothed angle below which the arm counts as
	// bent (degrees). Must be strictly below UpThreshold.
	DownThreshold float64

	// Hysteresis is the extra margin beyond each threshold required
	// before a state change is accepted (degrees).
	Hysteresis float64

	// MinFramesInState is how many consecutive frames a pending
	// transition's angle condition must hold before it is acted on.
	MinFramesInState int

	// MinCooldown is the minimum elapsed time between accepted
	// transitions.
	MinCooldown time.Duration

	// MinDepthPx is the minimum accumulated shoulder drop, in pixels,
	// for a completed rep to qualify and be counted.
	MinDepthPx float64

	// MinConfidence is the per-frame joint confidence floor.
	MinConfidence float64

	// MinValidFrames is how many consecutive in-position frames must
	// accumulate before frame data reaches the smoother.
	MinValidFrames int

	// SmoothWindow is the moving-average window for the angle and
	// shoulder-height signals.
	SmoothWindow int

	// MinAngle and MaxAngle bound the plausible counting position;
	// frames outside the band are treated as not in position.
	MinAngle float64
	MaxAngle float64
}

// DefaultConfig returns the tuned defaults for a curl-style exercise.
func DefaultConfig() Config {
	return Config{
		UpThreshold:      140,
		DownThreshold:    110,
		Hysteresis:       8,
		MinFramesInState: 3,
		MinCooldown:      400 * time.Millisecond,
		MinDepthPx:       40,
		MinConfidence:    0.5,
		MinValidFrames:   5,
		SmoothWindow:     3,
		MinAngle:         50,
		MaxAngle:         175,
	}
}

// Validate reports configuration errors eagerly; an inconsistent config
// must fail construction rather than manifest as silent mis-counting.
func (c Config) Validate() error {
	if c.DownThreshold >= c.UpThreshold {
		return fmt.Errorf("down threshold %.1f must be below up threshold %.1f", c.DownThreshold, c.UpThreshold)
	}
	if c.Hysteresis < 0 {
		return fmt.Errorf("hysteresis must not be negative, got %.1f", c.Hysteresis)
	}
	if c.DownThreshold-c.Hysteresis <= c.MinAngle {
		return fmt.Errorf("down threshold %.1f minus hysteresis %.1f leaves no room above the %.1f position floor", c.DownThreshold, c.Hysteresis, c.MinAngle)
	}
	if c.UpThreshold+c.Hysteresis >= c.MaxAngle {
		return fmt.Errorf("up threshold %.1f plus hysteresis %.1f exceeds the %.1f position ceiling", c.UpThreshold, c.Hysteresis, c.MaxAngle)
	}
	if c.MinAngle >= c.MaxAngle {
		return fmt.Errorf("position band [%.1f, %.1f] is empty", c.MinAngle, c.MaxAngle)
	}
	if c.MinFramesInState < 1 {
		return fmt.Errorf("min frames in state must be at least 1, got %d", c.MinFramesInState)
	}
	if c.MinValidFrames < 1 {
		return fmt.Errorf("min valid frames must be at least 1, got %d", c.MinValidFrames)
	}
	if c.SmoothWindow < 1 {
		return fmt.Errorf("smoothing window must be at least 1, got %d", c.SmoothWindow)
	}
	if c.MinCooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %s", c.MinCooldown)
	}
	if c.MinDepthPx < 0 {
		return fmt.Errorf("min depth must not be negative, got %.1f", c.MinDepthPx)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("confidence floor must be in [0,1], got %.2f", c.MinConfidence)
	}
	return nil
}

// Quality is the verdict recorded when a DOWN->UP transition is evaluated,
// whether or not it incremented the count.
type Quality struct {
	MetDepth bool    `json:"metDepth"`
	DepthPx  float64 `json:"depthPx"`
}

// Output is the per-frame result of processing.
type Output struct {
	Count         int      `json:"count"`
	State         State    `json:"state"`
	InPosition    bool     `json:"inPosition"`
	SmoothedAngle float64  `json:"smoothedAngle"`
	LastRep       *Quality `json:"lastRep,omitempty"`
}

// TestInfo exposes the effective (post-hysteresis) thresholds and timing
// parameters for external verification and display.
type TestInfo struct {
	EffectiveUpThreshold   float64 `json:"effectiveUpThreshold"`
	EffectiveDownThreshold float64 `json:"effectiveDownThreshold"`
	MinFramesInState       int     `json:"minFramesInState"`
	MinCooldownMs          int64   `json:"minCooldownMs"`
	MinDepthPx             float64 `json:"minDepthPx"`
	MinValidFrames         int     `json:"minValidFrames"`
	SmoothWindow           int     `json:"smoothWindow"`
}

// Counter is the streaming rep counter. It is single-writer: callers with
// concurrent producers must serialize access externally. Live frames
// (Process) and scripted angles (ProcessSimulatedAngle) must not be
// interleaved on one instance without an intervening Reset.
type Counter struct {
	cfg   Config
	clock Clock

	state          State
	count          int
	angle          *MovingAverage
	shoulder       *MovingAverage
	validFrames    int
	pendingFrames  int
	lastTransition time.Time
	baselineSet    bool
	baselineY      float64
	maxDrop        float64
	lastRep        *Quality
}

// New creates a Counter with the system clock.
func New(cfg Config) (*Counter, error) {
	return NewWithClock(cfg, systemClock{})
}

// NewWithClock creates a Counter with an injected time source.
func NewWithClock(cfg Config, clock Clock) (*Counter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid counter config: %w", err)
	}

	return &Counter{
		cfg:      cfg,
		clock:    clock,
		state:    StateUnknown,
		angle:    NewMovingAverage(cfg.SmoothWindow),
		shoulder: NewMovingAverage(cfg.SmoothWindow),
	}, nil
}

// Process consumes one live frame's detected body. Frames with missing or
// low-confidence joints, or with an angle outside the plausible band, are
// absorbed as "not in position": they reset the consecutive-valid-frame
// run and touch neither the smoothers nor the baseline. Never panics on
// malformed input.
func (c *Counter) Process(body *pose.Body) Output {
	sample, ok := SampleFromBody(body, c.cfg.MinConfidence)
	if !ok || sample.AngleDegrees < c.cfg.MinAngle || sample.AngleDegrees > c.cfg.MaxAngle {
		c.validFrames = 0
		return c.output(false)
	}

	c.validFrames++
	if c.validFrames < c.cfg.MinValidFrames {
		// Still absorbing detector warm-up; data stays out of the smoother.
		return c.output(false)
	}

	angle := c.angle.Push(sample.AngleDegrees)
	shoulder := c.shoulder.Push(sample.ShoulderY)

	// The baseline shoulder height is fixed on the first validated frame
	// and is the zero reference for depth until Reset.
	if !c.baselineSet {
		c.baselineSet = true
		c.baselineY = shoulder
	}

	if c.state == StateDown {
		if drop := shoulder - c.baselineY; drop > c.maxDrop {
			c.maxDrop = drop
		}
	}

	c.step(angle, true)
	return c.output(true)
}

// ProcessSimulatedAngle is the deterministic test-harness entry point. It
// bypasses the estimator, position validation and the depth gate: the
// value is forced in position, fed through the angle smoother, and every
// DOWN->UP transition that satisfies the frame and cooldown conditions
// increments the count unconditionally.
func (c *Counter) ProcessSimulatedAngle(angle float64) Output {
	if c.validFrames < c.cfg.MinValidFrames {
		c.validFrames = c.cfg.MinValidFrames
	}

	smoothed := c.angle.Push(angle)
	c.step(smoothed, false)
	return c.output(true)
}

// step is the single transition function shared by the live and simulated
// paths, parameterized by whether depth qualification applies.
func (c *Counter) step(angle float64, requireDepth bool) {
	switch c.state {
	case StateUnknown:
		// First validated frame classifies directly and does not start
		// the cooldown window.
		if angle > c.cfg.UpThreshold {
			c.state = StateUp
		} else {
			c.state = StateDown
		}
		c.pendingFrames = 0

	case StateUp:
		if angle < c.cfg.DownThreshold-c.cfg.Hysteresis {
			c.pendingFrames++
		} else {
			c.pendingFrames = 0
		}

		if c.pendingFrames >= c.cfg.MinFramesInState && c.cooldownElapsed() {
			c.state = StateDown
			c.pendingFrames = 0
			c.maxDrop = 0
			c.lastTransition = c.clock.Now()
		}

	case StateDown:
		if angle > c.cfg.UpThreshold+c.cfg.Hysteresis {
			c.pendingFrames++
		} else {
			c.pendingFrames = 0
		}

		if c.pendingFrames >= c.cfg.MinFramesInState && c.cooldownElapsed() {
			q := &Quality{
				MetDepth: !requireDepth || c.maxDrop >= c.cfg.MinDepthPx,
				DepthPx:  c.maxDrop,
			}
			if q.MetDepth {
				c.count++
			}
			c.lastRep = q
			c.state = StateUp
			c.pendingFrames = 0
			c.maxDrop = 0
			c.lastTransition = c.clock.Now()
		}
	}
}

// cooldownElapsed reports whether enough wall-clock time has passed since
// the last accepted transition. The zero time (no transition yet) always
// passes.
func (c *Counter) cooldownElapsed() bool {
	if c.lastTransition.IsZero() {
		return true
	}
	return c.clock.Now().Sub(c.lastTransition) > c.cfg.MinCooldown
}

func (c *Counter) output(inPosition bool) Output {
	return Output{
		Count:         c.count,
		State:         c.state,
		InPosition:    inPosition,
		SmoothedAngle: c.angle.Value(),
		LastRep:       c.lastRep,
	}
}

// Reset clears the count and all internal state back to construction-time
// defaults. It always succeeds and may be called between any two
// processing calls.
func (c *Counter) Reset() {
	c.state = StateUnknown
	c.count = 0
	c.validFrames = 0
	c.pendingFrames = 0
	c.lastTransition = time.Time{}
	c.baselineSet = false
	c.baselineY = 0
	c.maxDrop = 0
	c.lastRep = nil
	c.angle.Reset()
	c.shoulder.Reset()
}

// Count returns the current cumulative rep count.
func (c *Counter) Count() int {
	return c.count
}

// State returns the current machine state.
func (c *Counter) State() State {
	return c.state
}

// Snapshot returns the current output without processing a frame.
func (c *Counter) Snapshot() Output {
	return c.output(c.validFrames >= c.cfg.MinValidFrames)
}

// TestInfo returns the effective thresholds and timing parameters.
func (c *Counter) TestInfo() TestInfo {
	return TestInfo{
		EffectiveUpThreshold:   c.cfg.UpThreshold + c.cfg.Hysteresis,
		EffectiveDownThreshold: c.cfg.DownThreshold - c.cfg.Hysteresis,
		MinFramesInState:       c.cfg.MinFramesInState,
		MinCooldownMs:          c.cfg.MinCooldown.Milliseconds(),
		MinDepthPx:             c.cfg.MinDepthPx,
		MinValidFrames:         c.cfg.MinValidFrames,
		SmoothWindow:           c.cfg.SmoothWindow,
	}
}
