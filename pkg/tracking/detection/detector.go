// Package detection provides face landmark sources for puff tracking.
//
// Landmark inference itself happens in an external face model (MediaPipe
// FaceLandmarker in the browser). Detectors in this package deliver that
// model's per-frame output to the tracking pipeline.
package detection

import (
	"context"
	"errors"
	"math"
	"time"
)

// Face-mesh landmark indices used for mouth geometry.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	UpperLipCenter   = 13
	LowerLipCenter   = 14
	MouthCornerLeft  = 61
	MouthCornerRight = 291
)

// Blendshape category names read by the extractor.
const (
	CheekPuff   = "cheekPuff"
	MouthPucker = "mouthPucker"
	MouthFunnel = "mouthFunnel"
	JawOpen     = "jawOpen"
)

// ErrClosed is returned by Detect after the detector has been closed.
var ErrClosed = errors.New("detection: detector closed")

// Point3D is a landmark position in the model's normalized coordinate space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the Euclidean distance between two points.
func (p Point3D) Distance(q Point3D) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Blendshape is a named expressiveness score in [0,1].
type Blendshape struct {
	CategoryName string  `json:"categoryName"`
	Score        float64 `json:"score"`
}

// Face is one detected face: its landmark array plus a parallel blendshape list.
type Face struct {
	Landmarks   []Point3D    `json:"landmarks"`
	Blendshapes []Blendshape `json:"blendshapes,omitempty"`
}

// HasMouth reports whether every mouth landmark index is present.
func (f *Face) HasMouth() bool {
	if f == nil {
		return false
	}
	n := len(f.Landmarks)
	return n > UpperLipCenter && n > LowerLipCenter &&
		n > MouthCornerLeft && n > MouthCornerRight
}

// MouthSpan returns the corner-to-corner distance, or 0 without a mouth.
func (f *Face) MouthSpan() float64 {
	if !f.HasMouth() {
		return 0
	}
	return f.Landmarks[MouthCornerLeft].Distance(f.Landmarks[MouthCornerRight])
}

// Blendshape returns the score of the named category, or 0 if absent.
func (f *Face) Blendshape(name string) float64 {
	if f == nil {
		return 0
	}
	for _, b := range f.Blendshapes {
		if b.CategoryName == name {
			return b.Score
		}
	}
	return 0
}

// Frame is the landmark model's output for one captured video frame.
type Frame struct {
	// TimestampMS is the monotonic capture time in milliseconds
	// (performance.now() on the browser side).
	TimestampMS float64 `json:"ts"`
	Faces       []Face  `json:"faces,omitempty"`
}

// Time returns the capture time as a duration since stream start.
func (f Frame) Time() time.Duration {
	return time.Duration(f.TimestampMS * float64(time.Millisecond))
}

// FrameAt builds a frame captured at d since stream start.
func FrameAt(d time.Duration, faces ...Face) Frame {
	return Frame{TimestampMS: float64(d) / float64(time.Millisecond), Faces: faces}
}

// Empty reports whether no face was detected in the frame.
func (f Frame) Empty() bool {
	return len(f.Faces) == 0
}

// Detector is the interface for landmark sources.
type Detector interface {
	// Open acquires the underlying stream (camera, socket, file).
	// A failed Open means tracking must not start.
	Open(ctx context.Context) error

	// Detect blocks until the next frame is available.
	// io.EOF signals that the stream has ended.
	Detect(ctx context.Context) (Frame, error)

	// Close releases resources
	Close() error
}

// SelectBest picks the face to score when the model reports several.
// The face with the widest mouth span wins (the one closest to the camera).
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	if len(faces) == 1 {
		return &faces[0]
	}

	best := &faces[0]
	bestSpan := best.MouthSpan()
	for i := 1; i < len(faces); i++ {
		if span := faces[i].MouthSpan(); span > bestSpan {
			bestSpan = span
			best = &faces[i]
		}
	}

	return best
}
