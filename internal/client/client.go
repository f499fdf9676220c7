package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed for one hub operation triggered by a frame.
	requestTimeout = 5 * time.Second
)

// Client is a WebSocket client connected to the hub.
type Client struct {
	hub   *hub.Hub
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	owner string
	id    string
	log   zerolog.Logger
}

// New creates a new Client for the given owner identifier.
func New(h *hub.Hub, conn *websocket.Conn, owner string, log zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		done:  make(chan struct{}),
		owner: owner,
		id:    id,
		log:   log.With().Str("client", id).Str("owner", owner).Logger(),
	}
}

// Owner returns the client's owner identifier.
func (c *Client) Owner() string {
	return c.owner
}

// ID returns the connection's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Send queues a message to be sent to the WebSocket client.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		// Client send buffer full, drop message.
		c.log.Warn().Msg("send buffer full, dropping message")
	}
}

// ReadPump joins the hub, then reads frames from the WebSocket connection
// and dispatches them until the connection closes. WritePump stops when
// ReadPump returns.
func (c *Client) ReadPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	err := c.hub.Join(ctx, c)
	cancel()
	if err != nil {
		c.log.Warn().Err(err).Msg("join failed")
		return
	}
	defer c.hub.Leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump writes messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	req, err := domain.DecodeRequest(data)
	if err != nil {
		c.sendError("invalid_json", "invalid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch req.Type {
	case domain.FrameRegister:
		// Success is announced to everyone through the room broadcast.
		if _, err := c.hub.Register(ctx, c.owner, req.Name); err != nil {
			c.sendFailure(err)
		}

	case domain.FrameChat:
		if _, err := c.hub.PostMessage(ctx, c.owner, req.Text); err != nil {
			c.sendFailure(err)
		}

	case domain.FrameWhois:
		owner := req.Owner
		if owner == "" {
			owner = c.owner
		}
		name, err := c.hub.Whois(ctx, owner)
		if err != nil {
			c.sendFailure(err)
			return
		}
		c.sendFrame(domain.WhoisFrame{Type: domain.FrameWhois, Owner: owner, DisplayName: name})

	default:
		c.sendError("unknown_type", "unknown message type: "+req.Type)
	}
}

func (c *Client) sendFailure(err error) {
	if !registry.IsValidation(err) {
		c.log.Error().Err(err).Msg("request failed")
	}
	c.sendError(registry.Code(err), err.Error())
}

func (c *Client) sendError(code, message string) {
	c.sendFrame(domain.ErrorFrame{Type: domain.FrameError, Code: code, Message: message})
}

func (c *Client) sendFrame(frame any) {
	if data, err := domain.Encode(frame); err == nil {
		c.Send(data)
	}
}
