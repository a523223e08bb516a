package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tictactoe/internal/config"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
)

// client pumps one WebSocket connection. readPump owns the read side and the
// Dispatcher registration; writePump owns every write.
type client struct {
	id         string
	ws         *websocket.Conn
	outbox     *gameserver.Outbox
	dispatcher *gameserver.Dispatcher
	cfg        config.WebSocketConfig
	logger     *zap.Logger
}

func (c *client) pingPeriod() time.Duration {
	return c.cfg.PongTimeout * 9 / 10
}

// readPump feeds inbound frames to the Dispatcher until the connection
// fails, then reports the close exactly once.
func (c *client) readPump() {
	defer func() {
		c.dispatcher.Disconnect(c.id)
		_ = c.outbox.Close()
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			c.logger.Debug("ignoring non-text frame", zap.Int("kind", kind))
			continue
		}
		c.dispatcher.HandleMessage(c.id, data)
	}
}

// writePump drains the outbox. A closed outbox means the client fell behind
// or disconnected; either way the socket is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.outbox.Events():
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("write failed", zap.String("event", string(ev.Type)), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
