// Package web serves the puffd dashboard: status and threshold APIs,
// Prometheus metrics and a live feed of analyses and puffs.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/gateway"
	"github.com/vapefi/puffd/pkg/hub"
	"github.com/vapefi/puffd/pkg/protocol"
	"github.com/vapefi/puffd/pkg/tracking"
)

// MaxRecentPuffs is how many puffs /api/puffs keeps.
const MaxRecentPuffs = 500

// Options configures the server.
type Options struct {
	Port      string
	StaticDir string // empty disables static files
	Version   string
	Debug     bool // log every request
	Tracking  tracking.Config
	Queue     Queue // optional rewards queue reported by /api/status
}

// Queue reports puffs waiting to be recorded.
type Queue interface {
	Pending() int
}

// Server is the dashboard HTTP server.
type Server struct {
	app     *fiber.App
	opts    Options
	feed    *hub.Hub
	gateway *gateway.Gateway
	started time.Time
	logger  *slog.Logger

	recent   []protocol.PuffData
	recentMu sync.RWMutex
}

// NewServer creates the dashboard server. Mount the gateway before serving.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:    opts,
		feed:    hub.New("feed"),
		started: time.Now(),
		logger:  log.Component("web"),
		recent:  make([]protocol.PuffData, 0, MaxRecentPuffs),
	}

	app := fiber.New(fiber.Config{
		AppName:               "puffd",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// The browser client may be served from another origin
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if opts.Debug {
		app.Use(logger.New())
	}

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/thresholds", s.handleThresholds)
	api.Get("/puffs", s.handleRecentPuffs)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws/feed", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", websocket.New(s.handleFeedWS))

	s.app = app
	return s
}

// Mount registers the session gateway's routes.
func (s *Server) Mount(g *gateway.Gateway) {
	s.gateway = g
	g.RegisterRoutes(s.app)
	g.RegisterAPIRoutes(s.app.Group("/api"))
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Feed returns the dashboard broadcast hub.
func (s *Server) Feed() *hub.Hub {
	return s.feed
}

// Publish records puffs for /api/puffs and broadcasts msg on the feed.
func (s *Server) Publish(msg *protocol.Message) error {
	if msg.Type == protocol.TypePuff {
		puff, err := msg.GetPuffData()
		if err != nil {
			return err
		}
		s.recentMu.Lock()
		s.recent = append(s.recent, *puff)
		if len(s.recent) > MaxRecentPuffs {
			s.recent = s.recent[1:]
		}
		s.recentMu.Unlock()
	}
	return s.feed.Publish(msg)
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.opts.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the feed hub and serves on ln until ctx is cancelled, then
// disconnects all sessions and shuts the app down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.feed.Run(ctx)

	go func() {
		<-ctx.Done()
		if s.gateway != nil {
			s.gateway.Close()
		}
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}
