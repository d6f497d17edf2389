package tracking

import (
	"time"

	"github.com/vapefi/puffd/pkg/tracking/detection"
)

// fm builds frame metrics directly for scorer tests.
func fm(aspect, pursing, cheek, pucker float64) FrameMetrics {
	return FrameMetrics{AspectRatio: aspect, LipPursing: pursing, CheekPuff: cheek, MouthPucker: pucker}
}

func repeat(m FrameMetrics, n int) []FrameMetrics {
	out := make([]FrameMetrics, n)
	for i := range out {
		out[i] = m
	}
	return out
}

// meshFace builds a 478-point mesh with the given normalized mouth width and height.
func meshFace(width, height float64, shapes ...detection.Blendshape) detection.Face {
	lm := make([]detection.Point3D, 478)
	lm[detection.MouthCornerLeft] = detection.Point3D{X: 0.5 - width/2, Y: 0.7}
	lm[detection.MouthCornerRight] = detection.Point3D{X: 0.5 + width/2, Y: 0.7}
	lm[detection.UpperLipCenter] = detection.Point3D{X: 0.5, Y: 0.7 - height/2}
	lm[detection.LowerLipCenter] = detection.Point3D{X: 0.5, Y: 0.7 + height/2}
	return detection.Face{Landmarks: lm, Blendshapes: shapes}
}

// puffFace scores 100: aspect ~0.34, pursing 0.65, cheekPuff 0.55.
func puffFace() detection.Face {
	return meshFace(0.035, 0.012, detection.Blendshape{CategoryName: detection.CheekPuff, Score: 0.55})
}

// neutralFace scores 0: closed, relaxed mouth with no blendshapes.
func neutralFace() detection.Face {
	return meshFace(0.1, 0.001)
}

const frameInterval = 33 * time.Millisecond

// framesFrom returns n frames of face starting at start, one per frame interval.
func framesFrom(start time.Duration, n int, face detection.Face) []detection.Frame {
	out := make([]detection.Frame, n)
	for i := range out {
		out[i] = detection.FrameAt(start+time.Duration(i)*frameInterval, face)
	}
	return out
}
