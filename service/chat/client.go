package chat

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"baatcheet/logger"
)

// Client represents one live connection to the gateway. UserID may be empty
// or a sentinel for sockets that connected without a resolvable identity;
// those stay attached (and receive broadcasts) but are never registered.
type Client struct {
	ConnID string          // unique within this process
	UserID string          // identity from the handshake, "" if invalid
	WS     *websocket.Conn // underlying connection
	Send   chan []byte     // outbound queue, consumed by a single writer

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue queues a payload for the writer without blocking. Returns false
// when the client is closed or its queue is full; callers treat both as a
// dropped best-effort delivery.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close stops the writer. Idempotent; never closes the Send channel, so
// concurrent Enqueue calls stay safe.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the send queue and keeps the connection alive with
// pings. Runs as the only writer goroutine for this connection.
func (c *Client) writePump(o Options) {
	ticker := time.NewTicker(o.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()
	for {
		select {
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(o.WriteTimeout))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write err conn=%s err=%v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(o.WriteTimeout))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.WS.SetWriteDeadline(time.Now().Add(o.WriteTimeout))
			_ = c.WS.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump blocks until the peer goes away. The wire carries no
// client-to-server application frames; reads exist to drive pong handling
// and to observe the close.
func (c *Client) readPump(o Options) {
	c.WS.SetReadLimit(maxFrameBytes)
	_ = c.WS.SetReadDeadline(time.Now().Add(o.PongTimeout))
	c.WS.SetPongHandler(func(string) error {
		return c.WS.SetReadDeadline(time.Now().Add(o.PongTimeout))
	})
	for {
		if _, _, err := c.WS.ReadMessage(); err != nil {
			switch {
			case websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived):
				logger.Infof("[WS] peer closed conn=%s user=%s", c.ConnID, c.UserID)
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					logger.Infof("[WS] read timeout conn=%s err=%v", c.ConnID, err)
				} else {
					logger.Infof("[WS] read err conn=%s err=%v", c.ConnID, err)
				}
			}
			return
		}
	}
}

const maxFrameBytes = 1 << 20
