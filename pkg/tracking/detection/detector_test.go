package detection

import (
	"math"
	"testing"
	"time"
)

// mouthFace builds a face whose mouth corners are width apart and lips height apart.
func mouthFace(width, height float64) Face {
	lm := make([]Point3D, 478)
	lm[MouthCornerLeft] = Point3D{X: 0.5 - width/2, Y: 0.6}
	lm[MouthCornerRight] = Point3D{X: 0.5 + width/2, Y: 0.6}
	lm[UpperLipCenter] = Point3D{X: 0.5, Y: 0.6 - height/2}
	lm[LowerLipCenter] = Point3D{X: 0.5, Y: 0.6 + height/2}
	return Face{Landmarks: lm}
}

func TestPoint3D_Distance(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point3D
		expect float64
	}{
		{"same point", Point3D{1, 2, 3}, Point3D{1, 2, 3}, 0},
		{"unit x", Point3D{0, 0, 0}, Point3D{1, 0, 0}, 1},
		{"3-4-5 triangle", Point3D{0, 0, 0}, Point3D{3, 4, 0}, 5},
		{"uses depth", Point3D{0, 0, 0}, Point3D{0, 0, 2}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Distance(tc.b); math.Abs(got-tc.expect) > 1e-9 {
				t.Errorf("Distance: got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestFace_HasMouth(t *testing.T) {
	full := mouthFace(0.1, 0.02)
	if !full.HasMouth() {
		t.Error("full mesh should have mouth landmarks")
	}

	short := Face{Landmarks: make([]Point3D, 100)}
	if short.HasMouth() {
		t.Error("mesh without index 291 should not have mouth")
	}

	var nilFace *Face
	if nilFace.HasMouth() {
		t.Error("nil face should not have mouth")
	}
}

func TestFace_Blendshape(t *testing.T) {
	f := Face{Blendshapes: []Blendshape{
		{CategoryName: CheekPuff, Score: 0.4},
		{CategoryName: JawOpen, Score: 0.2},
	}}

	if got := f.Blendshape(CheekPuff); got != 0.4 {
		t.Errorf("cheekPuff: got %v, want 0.4", got)
	}
	if got := f.Blendshape(MouthPucker); got != 0 {
		t.Errorf("missing category should be 0, got %v", got)
	}
}

func TestFrame_Time(t *testing.T) {
	f := FrameAt(1500 * time.Millisecond)
	if f.TimestampMS != 1500 {
		t.Errorf("TimestampMS: got %v, want 1500", f.TimestampMS)
	}
	if f.Time() != 1500*time.Millisecond {
		t.Errorf("Time: got %v", f.Time())
	}
	if !f.Empty() {
		t.Error("frame without faces should be empty")
	}
}

func TestSelectBest(t *testing.T) {
	t.Run("no faces", func(t *testing.T) {
		if SelectBest(nil) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("single face", func(t *testing.T) {
		faces := []Face{mouthFace(0.05, 0.01)}
		if SelectBest(faces) != &faces[0] {
			t.Error("expected the only face")
		}
	})

	t.Run("widest mouth wins", func(t *testing.T) {
		faces := []Face{mouthFace(0.05, 0.01), mouthFace(0.12, 0.01), mouthFace(0.08, 0.01)}
		if SelectBest(faces) != &faces[1] {
			t.Error("expected the face with the widest mouth")
		}
	})
}
