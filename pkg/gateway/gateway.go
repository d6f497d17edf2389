// Package gateway serves the browser-facing tracking endpoint.
//
// Each WebSocket connection owns one tracking session: the browser runs the
// landmark model and streams frames here, the gateway scores them and writes
// the analysis back. Fired detections go to the rewards recorder and the
// dashboard feed.
package gateway

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/metrics"
	"github.com/vapefi/puffd/pkg/protocol"
	"github.com/vapefi/puffd/pkg/rewards"
	"github.com/vapefi/puffd/pkg/tracking"
)

// MaxWalletLength bounds the wallet path parameter.
const MaxWalletLength = 64

// Error codes sent in protocol error messages.
const (
	CodeBadMessage      = "bad_message"
	CodeUnknownType     = "unknown_type"
	CodeNotDetecting    = "not_detecting"
	CodeTooManySessions = "too_many_sessions"
	CodeInvalidWallet   = "invalid_wallet"
	CodeTrackingFailed  = "tracking_failed"
)

var (
	// ErrTooManySessions is returned when MaxSessions connections are open.
	ErrTooManySessions = errors.New("gateway: too many sessions")

	// ErrInvalidWallet is returned for an empty or oversized wallet.
	ErrInvalidWallet = errors.New("gateway: invalid wallet")
)

// Recorder accepts fired puffs for the rewards backend.
type Recorder interface {
	Submit(p rewards.Puff) error
}

// Publisher broadcasts messages to the dashboard feed.
type Publisher interface {
	Publish(msg *protocol.Message) error
}

// Config configures the gateway.
type Config struct {
	Tracking     tracking.Config
	MaxSessions  int // 0 means unlimited
	StreamBuffer int // frames buffered per session before the oldest is dropped
}

// Gateway manages browser tracking connections.
type Gateway struct {
	config   Config
	recorder Recorder
	feed     Publisher
	logger   *slog.Logger

	mu     sync.RWMutex
	conns  map[string]*Conn
	totals map[string]int

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	puffs            atomic.Uint64
}

// New creates a gateway. recorder and feed may be nil.
func New(config Config, recorder Recorder, feed Publisher) *Gateway {
	return &Gateway{
		config:   config,
		recorder: recorder,
		feed:     feed,
		logger:   log.Component("gateway"),
		conns:    make(map[string]*Conn),
		totals:   make(map[string]int),
	}
}

// RegisterRoutes registers the session WebSocket endpoint on a Fiber app.
func (g *Gateway) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/session", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/session/:wallet", websocket.New(g.handleSession))
}

// RegisterAPIRoutes registers session inspection routes.
func (g *Gateway) RegisterAPIRoutes(api fiber.Router) {
	sessions := api.Group("/sessions")

	sessions.Get("/", func(c *fiber.Ctx) error {
		infos := g.Sessions()
		return c.JSON(fiber.Map{
			"sessions": infos,
			"count":    len(infos),
		})
	})

	sessions.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(g.Stats())
	})
}

// handleSession runs one browser connection until it disconnects.
func (g *Gateway) handleSession(ws *websocket.Conn) {
	wallet := ws.Params("wallet")

	c, err := g.attach(wallet, ws)
	if err != nil {
		code := CodeBadMessage
		switch {
		case errors.Is(err, ErrTooManySessions):
			code = CodeTooManySessions
		case errors.Is(err, ErrInvalidWallet):
			code = CodeInvalidWallet
		}
		g.logger.Warn("session rejected", "wallet", wallet, "error", err)
		if msg, merr := protocol.NewErrorMessage(code, err.Error()); merr == nil {
			if data, merr := msg.Bytes(); merr == nil {
				ws.WriteMessage(websocket.TextMessage, data)
			}
		}
		ws.Close()
		return
	}
	defer g.detach(c)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.logger.Debug("read ended", "error", err)
			return
		}
		g.messagesReceived.Add(1)
		c.handle(data)
	}
}

func (g *Gateway) attach(wallet string, ws *websocket.Conn) (*Conn, error) {
	if wallet == "" || len(wallet) > MaxWalletLength {
		return nil, ErrInvalidWallet
	}

	g.mu.Lock()
	if g.config.MaxSessions > 0 && len(g.conns) >= g.config.MaxSessions {
		g.mu.Unlock()
		return nil, ErrTooManySessions
	}
	c := newConn(g, wallet, ws)
	g.conns[c.ID()] = c
	count := len(g.conns)
	g.mu.Unlock()

	metrics.ActiveSessions.Inc()
	c.logger.Info("session connected", "sessions", count)
	c.sendState(tracking.StateIdle, 0)
	return c, nil
}

func (g *Gateway) detach(c *Conn) {
	c.stopTracking()

	g.mu.Lock()
	delete(g.conns, c.ID())
	count := len(g.conns)
	g.mu.Unlock()

	metrics.ActiveSessions.Dec()
	c.logger.Info("session disconnected", "sessions", count, "puffs", c.session.Count())
}

// recordPuff attributes a fired event to the wallet and fans it out.
func (g *Gateway) recordPuff(c *Conn, e tracking.Event) {
	g.mu.Lock()
	g.totals[c.wallet]++
	total := g.totals[c.wallet]
	g.mu.Unlock()
	g.puffs.Add(1)

	if g.recorder != nil {
		if err := g.recorder.Submit(rewards.Puff{Event: e, Wallet: c.wallet}); err != nil {
			c.logger.Warn("puff not queued", "id", e.ID, "error", err)
		}
	}

	msg, err := protocol.NewPuffMessage(e, c.wallet, total)
	if err != nil {
		c.logger.Error("encode puff", "error", err)
		return
	}
	c.send(msg)
	g.publish(msg)
}

func (g *Gateway) publish(msg *protocol.Message) {
	if g.feed == nil {
		return
	}
	if err := g.feed.Publish(msg); err != nil {
		g.logger.Warn("feed publish", "type", msg.Type, "error", err)
	}
}

// Close disconnects every session. Handlers unwind through detach.
func (g *Gateway) Close() {
	g.mu.RLock()
	conns := make([]*Conn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		c.stopTracking()
		c.ws.Close()
	}
}

// SessionCount returns the number of connected sessions.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// WalletTotal returns how many puffs a wallet has fired since startup.
func (g *Gateway) WalletTotal(wallet string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.totals[wallet]
}

// SessionInfo describes a connected session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	State     string    `json:"state"`
	Counting  bool      `json:"counting"`
	Count     int       `json:"count"`
	Frames    int       `json:"frames"`
	Dropped   int       `json:"dropped"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// Sessions returns info about every connected session, oldest first.
func (g *Gateway) Sessions() []SessionInfo {
	g.mu.RLock()
	infos := make([]SessionInfo, 0, len(g.conns))
	for _, c := range g.conns {
		infos = append(infos, c.Info())
	}
	g.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Connected.Before(infos[j].Connected)
	})
	return infos
}

// Stats contains gateway statistics.
type Stats struct {
	Sessions         int    `json:"sessions"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	Puffs            uint64 `json:"puffs"`
}

// Stats returns gateway statistics.
func (g *Gateway) Stats() Stats {
	return Stats{
		Sessions:         g.SessionCount(),
		MessagesReceived: g.messagesReceived.Load(),
		MessagesSent:     g.messagesSent.Load(),
		FramesReceived:   g.framesReceived.Load(),
		Puffs:            g.puffs.Load(),
	}
}
