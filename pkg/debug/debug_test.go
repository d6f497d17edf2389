package debug

import (
	"bytes"
	"testing"
)

func TestToggles(t *testing.T) {
	defer SetEnabled(false)
	defer SetTracking(false)

	if Enabled() || Tracking() {
		t.Fatal("debug output should be off by default")
	}

	SetTracking(true)
	if !Tracking() {
		t.Error("Tracking should be on after SetTracking(true)")
	}
	if Enabled() {
		t.Error("SetTracking should not enable general debug")
	}
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetEnabled(false)
	defer SetTracking(false)

	Log("hidden %s\n", "line")
	TrackLog("hidden frame %d\n", 1)
	if buf.Len() != 0 {
		t.Fatalf("output while disabled: %q", buf.String())
	}

	SetEnabled(true)
	Log("start %s\n", "abc")
	TrackLog("hidden frame %d\n", 2)
	if got := buf.String(); got != "start abc\n" {
		t.Errorf("Log output: got %q, want %q", got, "start abc\n")
	}

	buf.Reset()
	SetTracking(true)
	TrackLog("frame %d\n", 3)
	if got := buf.String(); got != "frame 3\n" {
		t.Errorf("TrackLog output: got %q, want %q", got, "frame 3\n")
	}
}
