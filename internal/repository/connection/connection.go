// Package connection tracks live websocket connections and the room/identity
// session bound to each after join.
package connection

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
	ErrAlreadyJoined = errors.New("connection already joined a room")
)

// Session binds a connection to a room and a self-asserted identity. Zero
// value means the connection has not joined yet.
type Session struct {
	RoomKey  string
	Username string
}

// Conn wraps a websocket connection with a write lock. gorilla/websocket
// allows one concurrent writer, and broadcasts fan in from many handlers.
type Conn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{id: id, ws: ws}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) WS() *websocket.Conn {
	return c.ws
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
