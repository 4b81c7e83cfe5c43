package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 * 1024 // review surfaces only send pings
)

// Conn is the gorilla connection of one client. Only WritePump writes to it.
type Conn struct {
	*websocket.Conn
}

func (c *Conn) write(messageType int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(messageType, data)
}

func (c *Conn) extendRead() error {
	return c.SetReadDeadline(time.Now().Add(pongWait))
}

// ReadPump consumes client frames until the peer goes away, then unregisters
// the client. A missed pong within pongWait ends the session.
func (c *Client) ReadPump() {
	connected := time.Now()
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
		logger.Debug("Review surface disconnected", map[string]interface{}{
			"user_id":    c.UserID,
			"session_ms": time.Since(connected).Milliseconds(),
		})
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.extendRead()
	c.Conn.SetPongHandler(func(string) error { return c.Conn.extendRead() })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Review surface closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// WritePump drains Send and keeps the connection alive with pings. The hub
// closes Send to end the session.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.write(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to push event to review surface", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
				return
			}
		case <-ticker.C:
			if err := c.Conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
