package gateway

import (
	"sync"
	"time"

	"github.com/vkmindia80/Unified/logger"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// Client is one live transport session. A user may hold several of these at
// once (multi-device); each keeps its own send queue, consumed by a single
// writer goroutine. Identity and room membership live in the Registry;
// the client's own mutex only guards the send queue's closed flag, because
// fanout workers may still hold this client in a delivery snapshot taken
// before the disconnect.
type Client struct {
	ConnID string
	WS     *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

// enqueue is non-blocking: a slow client drops frames rather than stalling
// the broadcaster. Best-effort delivery is the contract. After shutdown the
// frame is dropped silently; a delivery snapshot taken just before the
// disconnect may still reference this client.
func (c *Client) enqueue(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warnf("[gateway] send queue full, drop frame conn=%s", c.ConnID)
	}
}

// shutdown closes the send queue exactly once; the write pump drains what
// is left and closes the socket. Safe against concurrent enqueue.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// writePump drains the send queue onto the socket. Runs until the queue is
// closed by the read loop's cleanup path or a write fails.
func (c *Client) writePump() {
	defer func() {
		_ = c.WS.Close()
	}()
	for payload := range c.Send {
		if err := c.WS.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
			logger.Infof("[gateway] set write deadline conn=%s err=%v", c.ConnID, err)
			return
		}
		if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Infof("[gateway] write err conn=%s err=%v", c.ConnID, err)
			return
		}
	}
}
