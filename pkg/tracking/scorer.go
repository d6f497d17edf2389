package tracking

import "fmt"

// Reasons reported when no puff is scored.
const (
	ReasonBuildingHistory = "Building pattern history…"
	ReasonNoFace          = "No face detected"
)

// Result is the scorer's verdict over the current history.
type Result struct {
	IsPuff     bool   `json:"is_puff"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`

	// Sub-scores
	OpeningScore  int `json:"opening_score"`
	PursingScore  int `json:"pursing_score"`
	PuffScore     int `json:"puff_score"`
	SequenceScore int `json:"sequence_score"`

	// Window maxima, always reported for debugging and UI display
	MaxAspectRatio float64 `json:"max_aspect_ratio"`
	MaxLipPursing  float64 `json:"max_lip_pursing"`
	MaxCheekPuff   float64 `json:"max_cheek_puff"`
	MaxMouthPucker float64 `json:"max_mouth_pucker"`

	Frames int `json:"frames"`
}

// Scorer turns a metrics history into a confidence score.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer for the given configuration.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score evaluates history, oldest frame first.
func (s *Scorer) Score(history []FrameMetrics) Result {
	th := s.config.Thresholds

	if len(history) < s.config.MinFrames {
		return Result{Reason: ReasonBuildingHistory, Frames: len(history)}
	}

	window := history
	if n := s.config.ScoreWindow; len(window) > n {
		window = window[len(window)-n:]
	}

	r := Result{Frames: len(window)}
	for _, m := range window {
		r.MaxAspectRatio = max(r.MaxAspectRatio, m.AspectRatio)
		r.MaxLipPursing = max(r.MaxLipPursing, m.LipPursing)
		r.MaxCheekPuff = max(r.MaxCheekPuff, m.CheekPuff)
		r.MaxMouthPucker = max(r.MaxMouthPucker, m.MouthPucker)
	}

	r.OpeningScore = award(th.Opening, r.MaxAspectRatio)
	r.PursingScore = award(th.Pursing, r.MaxLipPursing)
	// Either signal clearing a bar is enough
	r.PuffScore = award(th.Puff, max(r.MaxCheekPuff, r.MaxMouthPucker))
	r.SequenceScore = s.sequenceBonus(window, r.MaxAspectRatio, r.OpeningScore > 0)

	r.Confidence = r.OpeningScore + r.PursingScore + r.PuffScore + r.SequenceScore
	r.IsPuff = r.Confidence >= th.Detect

	if r.IsPuff {
		r.Reason = fmt.Sprintf("Puff detected (%.1f%% confidence)", float64(r.Confidence))
	} else {
		r.Reason = fmt.Sprintf("Below threshold (%.1f%% < %d%%)", float64(r.Confidence), th.Detect)
	}
	return r
}

// sequenceBonus rewards a mouth that opened in the first third of the
// sequence and puffed in the last third.
func (s *Scorer) sequenceBonus(window []FrameMetrics, maxAspect float64, opened bool) int {
	th := s.config.Thresholds

	seq := window
	if len(seq) > th.SequenceWindow {
		seq = seq[len(seq)-th.SequenceWindow:]
	}
	third := len(seq) / 3
	if third == 0 {
		return 0
	}

	var early, late float64
	for _, m := range seq[:third] {
		early += m.AspectRatio
	}
	for _, m := range seq[len(seq)-third:] {
		late += m.CheekPuff + m.MouthPucker
	}
	early /= float64(third)
	late /= float64(third)

	bonus := 0
	if opened && early >= th.EarlyOpenRatio*maxAspect {
		bonus += th.EarlyOpenPoints
	}
	if late > th.LatePuffAverage {
		bonus += th.LatePuffPoints
	}
	return bonus
}
