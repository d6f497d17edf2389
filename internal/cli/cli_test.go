package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vapefi/puffd/internal/config"
	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

func puffFace() detection.Face {
	lm := make([]detection.Point3D, 478)
	lm[detection.MouthCornerLeft] = detection.Point3D{X: 0.4825, Y: 0.7}
	lm[detection.MouthCornerRight] = detection.Point3D{X: 0.5175, Y: 0.7}
	lm[detection.UpperLipCenter] = detection.Point3D{X: 0.5, Y: 0.694}
	lm[detection.LowerLipCenter] = detection.Point3D{X: 0.5, Y: 0.706}
	return detection.Face{
		Landmarks:   lm,
		Blendshapes: []detection.Blendshape{{CategoryName: detection.CheekPuff, Score: 0.55}},
	}
}

// writeRecording writes n puff frames 33ms apart.
func writeRecording(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := 0; i < n; i++ {
		require.NoError(t, enc.Encode(detection.FrameAt(time.Duration(i)*33*time.Millisecond, puffFace())))
	}
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PUFFD_THRESHOLDS", "")
	t.Setenv("PUFFD_PRESET", "")
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReplay_PrintsDetections(t *testing.T) {
	path := writeRecording(t, 20)

	out, err := run(t, "replay", path)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "puff #"))
	assert.Contains(t, out, "20 frames")
	assert.Contains(t, out, "1 puffs")
	assert.Contains(t, out, "5 suppressed")
	assert.Contains(t, out, "max confidence 100%")
}

func TestReplay_CooldownOverride(t *testing.T) {
	path := writeRecording(t, 20)

	out, err := run(t, "replay", path, "--cooldown", "0s")
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(out, "puff #"))
}

func TestReplay_JSON(t *testing.T) {
	path := writeRecording(t, 16)

	out, err := run(t, "replay", path, "--json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var puff struct {
		Puff tracking.Event `json:"puff"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &puff))
	assert.Equal(t, 1, puff.Puff.Sequence)
	assert.Equal(t, 100, puff.Puff.Confidence)

	var summary struct {
		Summary ReplaySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &summary))
	assert.Equal(t, 16, summary.Summary.Frames)
	assert.Equal(t, 1, summary.Summary.Puffs)
}

func TestReplay_Verbose(t *testing.T) {
	path := writeRecording(t, 3)

	out, err := run(t, "replay", path, "-v")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, tracking.ReasonBuildingHistory))
}

func TestReplay_MissingFile(t *testing.T) {
	_, err := run(t, "replay", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, tracking.ErrCameraUnavailable)
}

func TestReplay_InvalidOverride(t *testing.T) {
	path := writeRecording(t, 1)

	_, err := run(t, "replay", path, "--detect", "101")
	assert.ErrorIs(t, err, tracking.ErrInvalidConfig)
}

func TestReplay_RequiresFile(t *testing.T) {
	_, err := run(t, "replay")
	assert.Error(t, err)
}

func TestThresholds_PrintsYAML(t *testing.T) {
	out, err := run(t, "thresholds")
	require.NoError(t, err)

	cfg, err := config.ParseTracking([]byte(out), tracking.Config{})
	require.NoError(t, err)
	assert.Equal(t, tracking.DefaultConfig(), cfg)
}

func TestThresholds_AppliesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  detect: 80\n"), 0o644))

	out, err := run(t, "--thresholds", path, "thresholds")
	require.NoError(t, err)
	assert.Contains(t, out, "detect: 80")
}

func TestReplay_Preset(t *testing.T) {
	path := writeRecording(t, 20)

	out, err := run(t, "--preset", tracking.PresetCalibration, "replay", path)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(out, "puff #"))

	_, err = run(t, "--preset", "turbo", "thresholds")
	assert.ErrorIs(t, err, tracking.ErrInvalidConfig)
}
