package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"go.uber.org/zap"
)

const (
	defaultSendBuffer   = 256
	defaultPongTimeout  = 60 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Client is one websocket connection bound to a player's decision session.
type Client struct {
	id     string
	player string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// close stops the write pump, which closes the connection. The send
// channel stays open so late notifications never panic.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue encodes f and queues it without blocking. A full buffer drops
// the frame; the client recovers with a resync.
func (c *Client) enqueue(f Frame) {
	data, err := c.hub.codec.Encode(f)
	if err != nil {
		c.logger.Error("failed to encode frame", zap.String("type", f.Type), zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping frame",
			zap.String("type", f.Type),
			zap.String("request_id", f.RequestID),
		)
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongTimeout
	if c.hub.cfg.ReadLimit > 0 {
		c.conn.SetReadLimit(c.hub.cfg.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	raw, err := c.hub.codec.Decode(message)
	if err != nil {
		c.enqueue(errorFrame("", fmt.Errorf("%w: %v", decision.ErrProtocol, err)))
		return
	}
	frame, err := decodeFrame(raw)
	if err != nil {
		c.enqueue(errorFrame("", err))
		return
	}

	if frame.Type == frameResync {
		if s, ok := c.hub.manager.Session(c.player); !ok || !s.Resend() {
			c.logger.Debug("nothing to resync")
		}
		return
	}

	ev, err := frame.event()
	if err == nil {
		err = c.hub.manager.Dispatch(c.player, ev)
	}
	if err != nil {
		c.logger.Debug("event rejected",
			zap.String("event", frame.Type),
			zap.String("request_id", frame.RequestID),
			zap.Error(err),
		)
		c.enqueue(errorFrame(frame.RequestID, err))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(c.hub.codec.MessageType(), message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
