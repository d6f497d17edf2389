package tracking

import (
	"time"

	"github.com/vapefi/puffd/pkg/tracking/detection"
)

// Geometry constants for the metric extractor.
const (
	// landmarkScale turns normalized landmark distances into readable units.
	landmarkScale = 1000.0

	// aspectEpsilon keeps the aspect ratio finite when the corners coincide.
	aspectEpsilon = 1e-3

	// ReferenceMouthWidth is a relaxed mouth's corner span in scaled units
	// (about a tenth of the normalized frame). Narrower means pursed.
	ReferenceMouthWidth = 100.0
)

// FrameMetrics holds the mouth measurements for one processed frame.
// It is immutable once extracted.
type FrameMetrics struct {
	MouthHeight float64 `json:"mouth_height"`
	MouthWidth  float64 `json:"mouth_width"`
	AspectRatio float64 `json:"aspect_ratio"`
	LipPursing  float64 `json:"lip_pursing"`

	CheekPuff   float64 `json:"cheek_puff"`
	MouthPucker float64 `json:"mouth_pucker"`
	JawOpen     float64 `json:"jaw_open"`

	Timestamp time.Duration `json:"timestamp"`
}

// ExtractMetrics computes mouth metrics from one face.
// It returns false when there is no usable face: nil, no landmarks, or a
// mesh missing the mouth indices.
func ExtractMetrics(face *detection.Face, at time.Duration) (FrameMetrics, bool) {
	if face == nil || len(face.Landmarks) == 0 || !face.HasMouth() {
		return FrameMetrics{}, false
	}

	lm := face.Landmarks
	height := lm[detection.UpperLipCenter].Distance(lm[detection.LowerLipCenter]) * landmarkScale
	width := lm[detection.MouthCornerLeft].Distance(lm[detection.MouthCornerRight]) * landmarkScale

	// Funnel and pucker are both puckering signals
	pucker := face.Blendshape(detection.MouthPucker)
	if funnel := face.Blendshape(detection.MouthFunnel); funnel > pucker {
		pucker = funnel
	}

	return FrameMetrics{
		MouthHeight: height,
		MouthWidth:  width,
		AspectRatio: height / (width + aspectEpsilon),
		LipPursing:  clamp(1-width/ReferenceMouthWidth, 0, 1),
		CheekPuff:   face.Blendshape(detection.CheekPuff),
		MouthPucker: pucker,
		JawOpen:     face.Blendshape(detection.JawOpen),
		Timestamp:   at,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
