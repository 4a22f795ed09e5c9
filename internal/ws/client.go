package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Source produces the frames of one live view refresh.
type Source interface {
	Snapshot(ctx context.Context, installID string) ([]Frame, error)
}

// Client is one live view connection. It refreshes the view on its own
// ticker, which stops when the socket closes.
type Client struct {
	InstallID string

	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	source   Source
	interval time.Duration

	done chan struct{}
	once sync.Once
}

func NewClient(installID string, conn *websocket.Conn, hub *Hub, source Source, interval time.Duration) *Client {
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		InstallID: installID,
		conn:      conn,
		send:      make(chan []byte, 64),
		hub:       hub,
		source:    source,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Run serves the connection until it closes.
func (c *Client) Run() {
	c.hub.register(c)
	defer c.hub.unregister(c)

	go c.writePump()

	c.queueFrame(Frame{Type: FrameReady})
	c.refresh()

	c.readPump()
}

func (c *Client) queue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.hub.log.Warn("send buffer full, dropping frame", "install_id", c.InstallID)
	}
}

func (c *Client) queueFrame(f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.queue(msg)
}

func (c *Client) refresh() {
	frames, err := c.source.Snapshot(context.Background(), c.InstallID)
	if err != nil {
		c.hub.log.Error("live view snapshot", "install_id", c.InstallID, "error", err)
		c.queueFrame(Frame{Type: FrameError, Data: ErrorPayload{Message: "failed to load state"}})
		return
	}
	for _, f := range frames {
		c.queueFrame(f)
	}
}

// readPump only services control frames; the live view takes no input.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	view := time.NewTicker(c.interval)
	defer func() {
		ping.Stop()
		view.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-view.C:
			c.refresh()

		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
