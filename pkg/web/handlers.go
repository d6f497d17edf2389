package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/vapefi/puffd/pkg/protocol"
)

// Status is the /api/status response body.
type Status struct {
	Status      string  `json:"status"`
	Version     string  `json:"version,omitempty"`
	Uptime      float64 `json:"uptime_seconds"`
	Sessions    int     `json:"sessions"`
	FeedClients int     `json:"feed_clients"`
	Puffs       uint64  `json:"puffs"`
	Pending     int     `json:"pending_puffs"`
}

// handleStatus returns service health and counts
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := Status{
		Status:      "ok",
		Version:     s.opts.Version,
		Uptime:      time.Since(s.started).Seconds(),
		FeedClients: s.feed.ClientCount(),
	}
	if s.gateway != nil {
		stats := s.gateway.Stats()
		st.Sessions = stats.Sessions
		st.Puffs = stats.Puffs
	}
	if s.opts.Queue != nil {
		st.Pending = s.opts.Queue.Pending()
	}
	return c.JSON(st)
}

// handleThresholds returns the effective tracking configuration
func (s *Server) handleThresholds(c *fiber.Ctx) error {
	cfg := s.opts.Tracking
	return c.JSON(fiber.Map{
		"config":         cfg,
		"cooldown_ms":    cfg.Cooldown.Milliseconds(),
		"max_confidence": cfg.Thresholds.MaxConfidence(),
	})
}

// handleRecentPuffs returns recently fired puffs, oldest first
func (s *Server) handleRecentPuffs(c *fiber.Ctx) error {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()

	wallet := c.Query("wallet")
	if wallet == "" {
		return c.JSON(s.recent)
	}

	out := make([]protocol.PuffData, 0)
	for _, p := range s.recent {
		if p.Wallet == wallet {
			out = append(out, p)
		}
	}
	return c.JSON(out)
}

// handleFeedWS streams feed broadcasts to a dashboard client
func (s *Server) handleFeedWS(c *websocket.Conn) {
	s.feed.Serve(c)
}
