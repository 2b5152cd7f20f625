package pose

import (
	"math"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	body *Body
	err  error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetBody sets the body that will be returned by Detect.
func (m *MockDetector) SetBody(body *Body) {
	m.body = body
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured body or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Body, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Segment length in pixels used by the synthetic arm builders.
const mockArmLength = 100.0

// ArmAt builds an arm whose elbow bend is exactly angleDeg. The elbow hangs
// straight below the shoulder; the forearm is rotated so the interior angle
// at the elbow matches. All three joints carry the given confidence.
func ArmAt(angleDeg, shoulderX, shoulderY, confidence float64) Arm {
	rad := angleDeg * math.Pi / 180

	shoulder := Landmark{X: shoulderX, Y: shoulderY, Confidence: confidence}
	elbow := Landmark{X: shoulderX, Y: shoulderY + mockArmLength, Confidence: confidence}

	// elbow->shoulder points straight up; rotate the forearm by angleDeg
	// from it so the interior angle at the elbow is exact.
	wrist := Landmark{
		X:          elbow.X + mockArmLength*math.Sin(rad),
		Y:          elbow.Y - mockArmLength*math.Cos(rad),
		Confidence: confidence,
	}

	return Arm{Shoulder: shoulder, Elbow: elbow, Wrist: wrist}
}

// BodyAt builds a body with both arms bent at angleDeg and shoulders at
// shoulderY, suitable for driving the counter through exact angle sequences.
func BodyAt(angleDeg, shoulderY float64) *Body {
	return &Body{
		Left:  ArmAt(angleDeg, 200, shoulderY, 0.95),
		Right: ArmAt(angleDeg, 440, shoulderY, 0.95),
		Score: 0.95,
	}
}
