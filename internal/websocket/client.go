package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Client is one live connection. A user may hold several, one per device.
type Client struct {
	ID       string
	UserID   string
	DeviceID string
	Conn     *websocket.Conn
	Manager  *Manager
	Send     chan []byte
}

func NewClient(id, userID, deviceID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:       id,
		UserID:   userID,
		DeviceID: deviceID,
		Conn:     conn,
		Manager:  manager,
		Send:     make(chan []byte, sendBuffer),
	}
}

// ReadPump consumes inbound frames until the peer goes away, then detaches the
// client from its manager.
func (c *Client) ReadPump() {
	m := c.Manager
	defer func() {
		m.detach(c)
		c.Conn.Close()
	}()

	if m.maxMessageSize > 0 {
		c.Conn.SetReadLimit(m.maxMessageSize)
	}
	extend := func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(m.pongWait))
	}
	extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				m.logger.Warn("websocket read failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		if !m.receive(&ClientMessage{Client: c, Message: data}) {
			return
		}
	}
}

// WritePump sends one event per frame and pings the peer on an interval. It
// exits when Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Manager.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.Manager.logger.Debug("websocket write failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, data)
}
