package detection

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_DeliversInOrder(t *testing.T) {
	s := NewStream(4)
	require.NoError(t, s.Open(context.Background()))

	for i := 1; i <= 3; i++ {
		require.True(t, s.Push(FrameAt(time.Duration(i)*time.Millisecond)))
	}

	for i := 1; i <= 3; i++ {
		f, err := s.Detect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, float64(i), f.TimestampMS)
	}
}

func TestStream_DropsOldestOnOverflow(t *testing.T) {
	s := NewStream(2)
	s.Push(FrameAt(1 * time.Millisecond))
	s.Push(FrameAt(2 * time.Millisecond))
	s.Push(FrameAt(3 * time.Millisecond))

	assert.Equal(t, 1, s.Dropped())

	f, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(2), f.TimestampMS)
}

func TestStream_CloseEndsDetect(t *testing.T) {
	s := NewStream(1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Detect(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("Detect did not return after Close")
	}

	assert.False(t, s.Push(Frame{}), "push after close should fail")
	assert.ErrorIs(t, s.Open(context.Background()), ErrClosed)
}

func TestStream_ContextCancel(t *testing.T) {
	s := NewStream(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Detect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSafe_DegradesErrorsToEmptyFrames(t *testing.T) {
	m := &Mock{DetectFunc: func(ctx context.Context) (Frame, error) {
		return Frame{}, errors.New("inference exploded")
	}}
	s := Safe(m)

	f, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Equal(t, 1, s.Errors())
}

func TestSafe_RecoversPanics(t *testing.T) {
	m := &Mock{DetectFunc: func(ctx context.Context) (Frame, error) {
		panic("model not loaded")
	}}
	s := Safe(m)

	f, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Equal(t, 1, s.Errors())
}

func TestSafe_PropagatesEOFAndOpenErrors(t *testing.T) {
	m := NewMock()
	m.OpenFunc = func(ctx context.Context) error { return errors.New("camera denied") }
	s := Safe(m)

	assert.Error(t, s.Open(context.Background()))

	_, err := s.Detect(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, s.Errors())
}

func TestReplay_ReadsFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.jsonl")
	data := `{"ts":0,"faces":[{"landmarks":[{"x":0.1,"y":0.2,"z":0}],"blendshapes":[{"categoryName":"cheekPuff","score":0.3}]}]}

{"ts":33.3}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	r := NewReplay(path)
	require.NoError(t, r.Open(context.Background()))
	defer r.Close()

	f, err := r.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, f.Faces, 1)
	assert.Equal(t, 0.3, f.Faces[0].Blendshape(CheekPuff))

	f, err = r.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Equal(t, 33.3, f.TimestampMS)

	_, err = r.Detect(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplay_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"ts\":1}\n"), 0o644))

	r := NewReplay(path)
	require.NoError(t, r.Open(context.Background()))
	defer r.Close()

	_, err := r.Detect(context.Background())
	assert.ErrorContains(t, err, "line 1")

	f, err := r.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(1), f.TimestampMS)
}

func TestReplay_MissingFile(t *testing.T) {
	r := NewReplay("/nonexistent/recording.jsonl")
	assert.Error(t, r.Open(context.Background()))

	_, err := r.Detect(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
