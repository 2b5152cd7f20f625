package counter

import (
	"math"

	"github.com/ayusman/repwatch/internal/pose"
)

// JointSample is one frame's derived elbow bend angle and the supporting
// Y-coordinates for an arm (or the average of both arms).
type JointSample struct {
	AngleDegrees float64
	Confidence   float64
	ShoulderY    float64
	ElbowY       float64
	WristY       float64
}

// ElbowAngle computes the interior angle at the elbow between the
// elbow->shoulder and elbow->wrist vectors, in degrees in [0,180].
func ElbowAngle(shoulder, elbow, wrist pose.Landmark) float64 {
	v1x := shoulder.X - elbow.X
	v1y := shoulder.Y - elbow.Y
	v2x := wrist.X - elbow.X
	v2y := wrist.Y - elbow.Y

	mag := math.Hypot(v1x, v1y) * math.Hypot(v2x, v2y)
	if mag == 0 {
		return 0
	}

	cos := (v1x*v2x + v1y*v2y) / mag

	// Clamp against floating point drift before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi
}

// armSample derives a sample from one arm. The arm qualifies only when the
// weakest of its three joint confidences meets the floor; a missing joint
// carries confidence 0 and fails the gate like any low-confidence one.
func armSample(arm pose.Arm, minConfidence float64) (JointSample, bool) {
	conf := arm.Confidence()
	if conf < minConfidence {
		return JointSample{}, false
	}

	return JointSample{
		AngleDegrees: ElbowAngle(arm.Shoulder, arm.Elbow, arm.Wrist),
		Confidence:   conf,
		ShoulderY:    arm.Shoulder.Y,
		ElbowY:       arm.Elbow.Y,
		WristY:       arm.Wrist.Y,
	}, true
}

// SampleFromBody derives the frame's joint sample. If both sides pass the
// confidence gate the result is their componentwise average; if exactly one
// passes it is used as-is; if neither passes there is no sample for the
// frame. Pure function of the current frame; stale data is never reused.
func SampleFromBody(body *pose.Body, minConfidence float64) (JointSample, bool) {
	if body == nil {
		return JointSample{}, false
	}

	left, leftOK := armSample(body.Left, minConfidence)
	right, rightOK := armSample(body.Right, minConfidence)

	switch {
	case leftOK && rightOK:
		return JointSample{
			AngleDegrees: (left.AngleDegrees + right.AngleDegrees) / 2,
			Confidence:   (left.Confidence + right.Confidence) / 2,
			ShoulderY:    (left.ShoulderY + right.ShoulderY) / 2,
			ElbowY:       (left.ElbowY + right.ElbowY) / 2,
			WristY:       (left.WristY + right.WristY) / 2,
		}, true
	case leftOK:
		return left, true
	case rightOK:
		return right, true
	default:
		return JointSample{}, false
	}
}
