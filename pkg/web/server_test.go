package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vapefi/puffd/pkg/gateway"
	"github.com/vapefi/puffd/pkg/protocol"
	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(Options{Version: "test", Tracking: tracking.DefaultConfig()})
	s.Mount(gateway.New(gateway.Config{Tracking: tracking.DefaultConfig(), StreamBuffer: 64}, nil, s))
	return s
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func puffMessage(t *testing.T, id, wallet string) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewPuffMessage(tracking.Event{ID: id, Confidence: 95}, wallet, 1)
	require.NoError(t, err)
	return msg
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)

	code, body := get(t, s, "/api/status")
	require.Equal(t, 200, code)

	var st Status
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, 0, st.Sessions)
	assert.Equal(t, 0, st.Pending)
}

type fakeQueue int

func (q fakeQueue) Pending() int { return int(q) }

func TestStatus_PendingPuffs(t *testing.T) {
	s := NewServer(Options{Tracking: tracking.DefaultConfig(), Queue: fakeQueue(3)})

	code, body := get(t, s, "/api/status")
	require.Equal(t, 200, code)

	var st Status
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 3, st.Pending)
}

func TestThresholds(t *testing.T) {
	s := newTestServer(t)

	code, body := get(t, s, "/api/thresholds")
	require.Equal(t, 200, code)

	var got struct {
		Config        tracking.Config `json:"config"`
		CooldownMS    int64           `json:"cooldown_ms"`
		MaxConfidence int             `json:"max_confidence"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, int64(4000), got.CooldownMS)
	assert.Equal(t, 100, got.MaxConfidence)
	assert.Equal(t, 90, got.Config.Thresholds.Detect)
	assert.Len(t, got.Config.Thresholds.Opening, 4)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, body := get(t, s, "/metrics")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), "puffd_active_sessions")
}

func TestSessionsMounted(t *testing.T) {
	s := newTestServer(t)

	code, body := get(t, s, "/api/sessions/stats")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), `"sessions":0`)
}

func TestFeedRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)

	code, _ := get(t, s, "/ws/feed")
	assert.Equal(t, fiber.StatusUpgradeRequired, code)
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>puffd</h1>"), 0o644))

	s := NewServer(Options{StaticDir: dir, Tracking: tracking.DefaultConfig()})
	code, body := get(t, s, "/")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), "puffd")
}

func TestPublish_RecentPuffs(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < MaxRecentPuffs+5; i++ {
		wallet := "a"
		if i%2 == 1 {
			wallet = "b"
		}
		require.NoError(t, s.Publish(puffMessage(t, "p", wallet)))
	}
	// Non-puff messages only go to the feed
	ping, _ := protocol.NewPingMessage()
	require.NoError(t, s.Publish(ping))

	_, body := get(t, s, "/api/puffs")
	var all []protocol.PuffData
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, MaxRecentPuffs)

	_, body = get(t, s, "/api/puffs?wallet=b")
	var onlyB []protocol.PuffData
	require.NoError(t, json.Unmarshal(body, &onlyB))
	assert.NotEmpty(t, onlyB)
	for _, p := range onlyB {
		assert.Equal(t, "b", p.Wallet)
	}
}

func TestFeed_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()
	defer func() {
		cancel()
		<-served
	}()

	feed, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/feed", nil)
	require.NoError(t, err)
	defer feed.Close()
	require.Eventually(t, func() bool { return s.Feed().ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	session, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/session/wallet1", nil)
	require.NoError(t, err)
	defer session.Close()

	write := func(msg *protocol.Message, err error) {
		require.NoError(t, err)
		data, err := msg.Bytes()
		require.NoError(t, err)
		require.NoError(t, session.WriteMessage(websocket.TextMessage, data))
	}

	write(protocol.NewMessage(protocol.TypeStart, nil))
	lm := make([]detection.Point3D, 478)
	lm[detection.MouthCornerLeft] = detection.Point3D{X: 0.4825, Y: 0.7}
	lm[detection.MouthCornerRight] = detection.Point3D{X: 0.5175, Y: 0.7}
	lm[detection.UpperLipCenter] = detection.Point3D{X: 0.5, Y: 0.694}
	lm[detection.LowerLipCenter] = detection.Point3D{X: 0.5, Y: 0.706}
	face := detection.Face{
		Landmarks:   lm,
		Blendshapes: []detection.Blendshape{{CategoryName: detection.CheekPuff, Score: 0.55}},
	}
	for i := 0; i < 15; i++ {
		write(protocol.NewFrameMessage(detection.FrameAt(time.Duration(i)*33*time.Millisecond, face)))
	}

	feed.SetReadDeadline(time.Now().Add(3 * time.Second))
	var puff *protocol.PuffData
	for puff == nil {
		_, data, err := feed.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.ParseMessage(data)
		require.NoError(t, err)
		if msg.Type == protocol.TypePuff {
			puff, err = msg.GetPuffData()
			require.NoError(t, err)
		}
	}
	assert.Equal(t, "wallet1", puff.Wallet)

	_, body := get(t, s, "/api/puffs")
	var recent []protocol.PuffData
	require.NoError(t, json.Unmarshal(body, &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, puff.ID, recent[0].ID)
}
