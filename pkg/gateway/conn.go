package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/vapefi/puffd/pkg/debug"
	"github.com/vapefi/puffd/pkg/metrics"
	"github.com/vapefi/puffd/pkg/protocol"
	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// drainWait is how long Stop waits for queued frames to be scored
	drainWait = time.Second
)

// Conn is one browser connection and the tracking session it drives.
type Conn struct {
	gw        *Gateway
	ws        *websocket.Conn
	wallet    string
	session   *tracking.Session
	connected time.Time
	logger    *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	stream   *detection.Stream
	tracker  *tracking.Tracker
	cancel   context.CancelFunc
	done     chan struct{}
	frames   int
	dropped  int
	lastSeen time.Time
}

func newConn(g *Gateway, wallet string, ws *websocket.Conn) *Conn {
	session := tracking.NewSession(g.config.Tracking)
	now := time.Now()
	c := &Conn{
		gw:        g,
		ws:        ws,
		wallet:    wallet,
		session:   session,
		connected: now,
		lastSeen:  now,
		logger:    g.logger.With("session", session.ID(), "wallet", wallet),
	}
	session.OnPuff(func(e tracking.Event) {
		g.recordPuff(c, e)
	})
	return c
}

// ID returns the session ID.
func (c *Conn) ID() string {
	return c.session.ID()
}

// Wallet returns the wallet the session is attributed to.
func (c *Conn) Wallet() string {
	return c.wallet
}

// Session returns the tracking session.
func (c *Conn) Session() *tracking.Session {
	return c.session
}

// Tracking reports whether a tracker is running for the connection.
func (c *Conn) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker != nil
}

// Info returns a snapshot of the connection.
func (c *Conn) Info() SessionInfo {
	c.mu.Lock()
	frames, dropped, lastSeen := c.frames, c.dropped, c.lastSeen
	if c.tracker != nil {
		frames += c.tracker.Frames()
		dropped += c.stream.Dropped()
	}
	c.mu.Unlock()

	return SessionInfo{
		ID:        c.ID(),
		Wallet:    c.wallet,
		State:     c.session.State().String(),
		Counting:  c.session.Counting(),
		Count:     c.session.Count(),
		Frames:    frames,
		Dropped:   dropped,
		Connected: c.connected,
		LastSeen:  lastSeen,
	}
}

// handle dispatches one inbound message.
func (c *Conn) handle(data []byte) {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		c.logger.Debug("parse error", "error", err)
		c.sendError(CodeBadMessage, err.Error())
		return
	}
	// Frames arrive at camera rate and are traced by the session instead
	if msg.Type != protocol.TypeFrame {
		debug.Log("📨 %s: %s\n", c.ID(), msg.Type)
	}

	switch msg.Type {
	case protocol.TypeFrame:
		frame, err := msg.GetFrameData()
		if err != nil {
			c.sendError(CodeBadMessage, err.Error())
			return
		}
		c.gw.framesReceived.Add(1)
		c.push(*frame)

	case protocol.TypeStart:
		c.startTracking()

	case protocol.TypeStop:
		c.stopTracking()
		c.sendState(tracking.StateIdle, c.session.Count())

	case protocol.TypeCounting:
		counting, err := msg.GetCountingData()
		if err != nil {
			c.sendError(CodeBadMessage, err.Error())
			return
		}
		c.session.SetCounting(counting.Enabled)
		c.sendState(c.session.State(), c.session.Count())

	case protocol.TypePing:
		if pong, err := protocol.NewPongMessage(msg.Timestamp); err == nil {
			c.send(pong)
		}

	default:
		c.sendError(CodeUnknownType, "unsupported message type "+string(msg.Type))
	}
}

func (c *Conn) push(frame detection.Frame) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	if stream == nil || !stream.Push(frame) {
		c.sendError(CodeNotDetecting, tracking.ErrNotDetecting.Error())
	}
}

// startTracking starts a tracker over a fresh frame stream. It is a no-op
// while one is already running.
func (c *Conn) startTracking() {
	c.mu.Lock()
	if c.tracker != nil {
		c.mu.Unlock()
		c.sendState(c.session.State(), c.session.Count())
		return
	}

	stream := detection.NewStream(c.gw.config.StreamBuffer)
	tracker := tracking.NewTracker(c.session, stream)
	tracker.OnAnalysis(c.onAnalysis)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.stream, c.tracker, c.cancel, c.done = stream, tracker, cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		if err := tracker.Run(ctx); err != nil {
			c.logger.Error("tracking failed", "error", err)
			c.sendError(CodeTrackingFailed, err.Error())
		}
	}()

	// A fresh stream always opens and Start resets the count
	c.sendState(tracking.StateNoFace, 0)
}

// stopTracking ends the running tracker and waits for it to release the
// session. Frames already queued are scored first.
func (c *Conn) stopTracking() {
	c.mu.Lock()
	stream, tracker, cancel, done := c.stream, c.tracker, c.cancel, c.done
	c.stream, c.tracker, c.cancel, c.done = nil, nil, nil, nil
	c.mu.Unlock()

	if tracker == nil {
		return
	}

	stream.Close()
	select {
	case <-done:
	case <-time.After(drainWait):
		c.logger.Warn("tracker slow to drain, cancelling")
	}
	cancel()
	<-done

	c.mu.Lock()
	c.frames += tracker.Frames()
	c.dropped += stream.Dropped()
	c.mu.Unlock()
}

func (c *Conn) onAnalysis(a tracking.Analysis) {
	metrics.Observe(a)

	msg, err := protocol.NewAnalysisMessage(c.ID(), a)
	if err != nil {
		c.logger.Error("encode analysis", "error", err)
		return
	}
	c.send(msg)
	c.gw.publish(msg)
}

func (c *Conn) sendState(state tracking.State, count int) {
	msg, err := protocol.NewStateMessage(c.ID(), state, c.session.Counting(), count)
	if err != nil {
		return
	}
	c.send(msg)
	c.gw.publish(msg)
}

func (c *Conn) sendError(code, message string) {
	msg, err := protocol.NewErrorMessage(code, message)
	if err != nil {
		return
	}
	c.send(msg)
}

// send writes a message. Writes from the read loop and the tracker
// goroutine are serialized.
func (c *Conn) send(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("write failed", "type", msg.Type, "error", err)
		return
	}
	c.gw.messagesSent.Add(1)
}
