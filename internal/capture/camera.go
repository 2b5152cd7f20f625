// Package capture provides webcam frame acquisition for the Repwatch rep
// counting pipeline using GoCV (OpenCV).
package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// Capture defaults. The pipeline opens at the idle rate and raises the
// rate only while someone is actually moving in frame.
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when reading from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// webcam captures frames from a physical camera device via GoCV.
type webcam struct {
	deviceID int
	capture  *gocv.VideoCapture
	fps      int
	open     bool
	mu       sync.Mutex
}

// NewCamera creates a Camera for the given device ID. Capture starts at
// the idle frame rate until the pipeline raises it.
func NewCamera(deviceID int) Camera {
	return &webcam{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open opens the device and pins the resolution to 640x480; pose
// detection gains nothing from larger frames and JPEG encoding cost
// scales with area.
func (w *webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.open {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(w.deviceID)
	if err != nil {
		return err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(w.fps))

	w.capture = capture
	w.open = true

	return nil
}

// Close releases the device. Closing an unopened camera is a no-op.
func (w *webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open || w.capture == nil {
		w.open = false
		return nil
	}

	err := w.capture.Close()
	w.capture = nil
	w.open = false

	return err
}

// ReadFrame reads a single frame. The caller owns the returned Mat and
// must close it.
func (w *webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open || w.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := w.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS changes the capture rate. Values below 1 are ignored.
func (w *webcam) SetFPS(fps int) {
	if fps < 1 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.fps = fps
	if w.capture != nil {
		w.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current capture rate setting.
func (w *webcam) FPS() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fps
}

// IsOpen reports whether the device is currently open.
func (w *webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}
