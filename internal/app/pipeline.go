package app

import (
	"log"
	"time"
)

// runPipeline is the main counting loop that processes frames from the
// camera. It manages the transitions between idle and active modes based
// on motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS=5)
// 2. On motion detected, switch to active mode (ActiveFPS=15)
// 3. Run pose detection on the frame
// 4. Feed the detected body to the rep counter
// 5. After 2s without motion, switch back to idle mode
//
// Counting state deliberately survives idle periods: a rest between sets
// must not clear the count.
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if counting is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.Camera().SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			detector := a.Detector()
			if !activeMode || detector == nil {
				frame.Close()
				continue
			}

			// Step 2: Pose detection
			body, err := detector.Detect(frame)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting pose: %v", err)
				continue
			}

			// Step 3: Counting. A nil body (nobody in frame) still goes
			// through so the counter can tear down its warm-up state.
			a.ProcessBody(body)
		}
	}
}
