package server

import (
	"context"
	"net/http"
	"slices"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"go.uber.org/zap"
)

// Hub tracks one websocket client per player and routes decision
// snapshots to it. It implements decision.Notifier.
type Hub struct {
	cfg      config.WebSocketConfig
	codec    Codec
	upgrader websocket.Upgrader
	logger   *zap.Logger

	manager *decision.Manager

	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a hub. Bind must be called before Run.
func NewHub(cfg config.WebSocketConfig, codec Codec, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Hub{
		cfg:   cfg,
		codec: codec,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Bind attaches the session manager and subscribes to its lifecycle bus.
func (h *Hub) Bind(manager *decision.Manager) {
	h.manager = manager
	manager.Events().Subscribe(h.onLifecycle)
}

// Run processes registrations until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			clients := h.clients
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			for _, c := range clients {
				c.close()
			}
			return

		case c := <-h.register:
			h.mu.Lock()
			previous := h.clients[c.player]
			h.clients[c.player] = c
			h.mu.Unlock()
			if previous != nil {
				h.logger.Info("client replaced",
					zap.String("player", c.player),
					zap.String("previous", previous.id),
				)
				previous.close()
			}
			h.logger.Info("client registered",
				zap.String("player", c.player),
				zap.String("connection", c.id),
			)
			h.manager.Open(c.player).Resend()

		case c := <-h.unregister:
			h.mu.Lock()
			current := h.clients[c.player] == c
			if current {
				delete(h.clients, c.player)
			}
			h.mu.Unlock()
			c.close()
			if current {
				// Cancels the outstanding decision, if any.
				h.manager.Close(c.player)
				h.logger.Info("client unregistered",
					zap.String("player", c.player),
					zap.String("connection", c.id),
				)
			}
		}
	}
}

// Players lists connected players, sorted.
func (h *Hub) Players() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	players := make([]string, 0, len(h.clients))
	for p := range h.clients {
		players = append(players, p)
	}
	sort.Strings(players)
	return players
}

func (h *Hub) client(player string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[player]
	return c, ok
}

// Notify sends a snapshot to the player's connection, if any.
func (h *Hub) Notify(player string, snap decision.Snapshot) {
	c, ok := h.client(player)
	if !ok {
		h.logger.Debug("snapshot for disconnected player",
			zap.String("player", player),
			zap.String("request_id", snap.RequestID),
		)
		return
	}
	frame, err := snapshotFrame(snap)
	if err != nil {
		h.logger.Error("failed to build snapshot frame", zap.String("player", player), zap.Error(err))
		return
	}
	c.enqueue(frame)
}

func (h *Hub) onLifecycle(ev decision.Lifecycle) {
	if ev.Type != decision.LifecycleCommitted && ev.Type != decision.LifecycleCancelled {
		return
	}
	if c, ok := h.client(ev.Client); ok {
		c.enqueue(closedFrame(ev))
	}
}

// ServeWS upgrades GET /ws?player=name.
func (h *Hub) ServeWS(c *gin.Context) {
	player := c.Query("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("player", player), zap.Error(err))
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		player: player,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
		done:   make(chan struct{}),
		logger: h.logger.With(zap.String("player", player)),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
