package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

type replayFlags struct {
	jsonOutput bool
	cooldown   time.Duration
	detect     int
	verbose    bool
}

// ReplaySummary is printed after a replay finishes.
type ReplaySummary struct {
	File          string `json:"file"`
	Frames        int    `json:"frames"`
	NoFaceFrames  int    `json:"no_face_frames"`
	Puffs         int    `json:"puffs"`
	Suppressed    int    `json:"suppressed"`
	MaxConfidence int    `json:"max_confidence"`
}

func newReplayCommand(opts *options) *cobra.Command {
	flags := &replayFlags{}

	cmd := &cobra.Command{
		Use:   "replay <frames.jsonl>",
		Short: "Run recorded frames through a tracking session",
		Long: `Replays a JSON Lines recording (one landmark frame per line, as sent by
the browser) through a tracking session and prints every fired detection.
Cooldown runs on recorded capture time, so results are deterministic.`,
		Example: `  # Print detections with the default thresholds
  puffctl replay session.jsonl

  # Try a looser threshold and print every analysis as JSON
  puffctl replay session.jsonl --detect 80 --verbose --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trackingConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cooldown") {
				cfg.Cooldown = flags.cooldown
			}
			if cmd.Flags().Changed("detect") {
				cfg.Thresholds.Detect = flags.detect
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := replay(cmd, args[0], cfg, flags)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, flags.jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print JSON lines instead of text")
	cmd.Flags().DurationVar(&flags.cooldown, "cooldown", 0, "override the cooldown period")
	cmd.Flags().IntVar(&flags.detect, "detect", 0, "override the detection threshold")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print every analysis, not only detections")
	return cmd
}

func replay(cmd *cobra.Command, path string, cfg tracking.Config, flags *replayFlags) (ReplaySummary, error) {
	out := cmd.OutOrStdout()
	summary := ReplaySummary{File: path}

	session := tracking.NewSession(cfg)
	session.OnPuff(func(e tracking.Event) {
		summary.Puffs++
		if flags.jsonOutput {
			writeJSON(out, map[string]any{"puff": e})
			return
		}
		fmt.Fprintf(out, "💨 puff #%d at %8.0fms  confidence %3d%%\n", e.Sequence, e.FrameTime, e.Confidence)
	})

	tracker := tracking.NewTracker(session, detection.NewReplay(path))
	tracker.OnAnalysis(func(a tracking.Analysis) {
		if a.State == tracking.StateNoFace {
			summary.NoFaceFrames++
		}
		if a.Suppressed != "" {
			summary.Suppressed++
		}
		if a.Confidence > summary.MaxConfidence {
			summary.MaxConfidence = a.Confidence
		}
		if !flags.verbose {
			return
		}
		if flags.jsonOutput {
			writeJSON(out, map[string]any{"analysis": a, "state": a.State.String()})
			return
		}
		fmt.Fprintf(out, "   %-8s %3d%%  %s\n", a.State, a.Confidence, a.Reason)
	})

	if err := tracker.Run(cmd.Context()); err != nil {
		return summary, err
	}
	summary.Frames = tracker.Frames()
	return summary, nil
}

func printSummary(w io.Writer, s ReplaySummary, asJSON bool) error {
	if asJSON {
		return writeJSON(w, map[string]any{"summary": s})
	}
	_, err := fmt.Fprintf(w, "\n%s: %d frames (%d without a face), %d puffs, %d suppressed, max confidence %d%%\n",
		s.File, s.Frames, s.NoFaceFrames, s.Puffs, s.Suppressed, s.MaxConfidence)
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
