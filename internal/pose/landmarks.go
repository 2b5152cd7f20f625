// Package pose provides body pose detection interfaces and types for the
// Repwatch rep counting system.
package pose

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	NumLandmarks  = 33
)

// Landmark is a single detected body point in pixel coordinates with a
// detection confidence in [0,1]. The zero value represents a landmark the
// detector did not see: its confidence is 0, so downstream confidence
// gates reject it without a separate "missing" case.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Arm groups the three landmarks the counter cares about for one side.
type Arm struct {
	Shoulder Landmark `json:"shoulder"`
	Elbow    Landmark `json:"elbow"`
	Wrist    Landmark `json:"wrist"`
}

// Confidence returns the weakest confidence among the arm's three joints.
func (a Arm) Confidence() float64 {
	c := a.Shoulder.Confidence
	if a.Elbow.Confidence < c {
		c = a.Elbow.Confidence
	}
	if a.Wrist.Confidence < c {
		c = a.Wrist.Confidence
	}
	return c
}

// Body holds one frame's detected upper-body landmarks for both sides.
type Body struct {
	Left  Arm     `json:"left"`
	Right Arm     `json:"right"`
	Score float64 `json:"score"`
}

// BodyFromLandmarks extracts the two arms from a full landmark set.
// Short slices are tolerated; absent indices stay at the zero value.
func BodyFromLandmarks(points []Landmark, score float64) *Body {
	b := &Body{Score: score}

	get := func(i int) Landmark {
		if i < len(points) {
			return points[i]
		}
		return Landmark{}
	}

	b.Left = Arm{
		Shoulder: get(LeftShoulder),
		Elbow:    get(LeftElbow),
		Wrist:    get(LeftWrist),
	}
	b.Right = Arm{
		Shoulder: get(RightShoulder),
		Elbow:    get(RightElbow),
		Wrist:    get(RightWrist),
	}

	return b
}
