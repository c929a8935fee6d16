package room

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one participant connection. The room's run loop owns Name and
// Role; the pumps only touch conn and send.
type Client struct {
	ID   string
	Name string
	Role Role

	conn *websocket.Conn
	send chan any
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Role: RoleObserver,
		conn: conn,
		send: make(chan any, 16),
	}
}

// deliver queues a message without blocking the room loop. A full send
// buffer means the connection is stalled; the caller drops the client.
func (c *Client) deliver(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	close(c.send)
}

// ReadPump decodes inbound JSON and forwards it to the room until the
// connection drops, then reports the disconnect.
func (c *Client) ReadPump(r *Room) {
	defer func() {
		r.Disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			r.Join(c, msg)
		case "ready":
			r.Ready(c)
		case "submit_answer":
			r.Submit(c, msg)
		default:
			// ignore unknown types
		}
	}
}

// WritePump drains the send queue onto the wire. The room closes the queue
// when it drops the client.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
