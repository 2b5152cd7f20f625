// Package testdata provides synthetic pose sequences for driving the
// counting pipeline through known rep patterns in tests.
package testdata

import "github.com/ayusman/repwatch/internal/pose"

// Shoulder heights (pixels, image coordinates: larger is lower) for the
// synthetic sequences.
const (
	topShoulderY  = 150
	deepShoulderY = 210 // 60px below the baseline, comfortably past depth
	highShoulderY = 170 // only 20px below, a shallow rep
)

// Hold returns n frames holding the given elbow angle and shoulder height.
func Hold(n int, angleDeg, shoulderY float64) []*pose.Body {
	frames := make([]*pose.Body, n)
	for i := range frames {
		frames[i] = pose.BodyAt(angleDeg, shoulderY)
	}
	return frames
}

// RepCycle returns one clean qualifying rep: warm-up at the top, a deep
// descent, then the ascent back to extension. Fed in order to a counter
// with default thresholds it produces exactly one counted rep.
func RepCycle() []*pose.Body {
	var frames []*pose.Body
	frames = append(frames, Hold(7, 160, topShoulderY)...)
	frames = append(frames, Hold(7, 80, deepShoulderY)...)
	frames = append(frames, Hold(6, 165, topShoulderY)...)
	return frames
}

// ShallowRep returns a rep whose shoulder never drops far enough to meet
// the depth requirement. The angle pattern matches RepCycle.
func ShallowRep() []*pose.Body {
	var frames []*pose.Body
	frames = append(frames, Hold(7, 160, topShoulderY)...)
	frames = append(frames, Hold(7, 80, highShoulderY)...)
	frames = append(frames, Hold(6, 165, topShoulderY)...)
	return frames
}

// Absent returns n frames with nobody in the picture.
func Absent(n int) []*pose.Body {
	return make([]*pose.Body, n)
}
