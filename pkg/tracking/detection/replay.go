package detection

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// maxLineSize bounds a single JSON Lines record (478 landmarks + blendshapes).
const maxLineSize = 1 << 20

// Replay is a detector that reads recorded frames from a JSON Lines file,
// one Frame per line. It is used to calibrate thresholds against labelled
// recordings without a camera.
type Replay struct {
	path string

	mu      sync.Mutex
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// NewReplay creates a replay detector for the given file.
func NewReplay(path string) *Replay {
	return &Replay{path: path}
}

// Open opens the recording.
func (r *Replay) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	r.file = f
	r.scanner = bufio.NewScanner(f)
	r.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	r.line = 0
	return nil
}

// Detect returns the next recorded frame. Blank lines are skipped.
// A malformed line is reported as an error for that frame only.
func (r *Replay) Detect(ctx context.Context) (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scanner == nil {
		return Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return f, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read recording: %w", err)
	}
	return Frame{}, io.EOF
}

// Close closes the recording.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scanner = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
