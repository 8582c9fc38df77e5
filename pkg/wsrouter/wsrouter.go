package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

// ErrorFunc is invoked when a handler returns an error or a message carries
// an unregistered type. The connection keeps serving afterwards.
type ErrorFunc func(ctx context.Context, messageType string, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorFunc
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]HandlerFunc),
		onError: func(context.Context, string, error) {},
	}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) OnError(f ErrorFunc) {
	r.onError = f
}

// ServeConn reads messages from conn until the read fails and dispatches each
// to the registered handler. A failing handler never tears the connection down.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			r.onError(ctx, msg.Type, fmt.Errorf("unknown message type %q", msg.Type))
			continue
		}

		r.dispatch(ctx, conn, msg, handler)
	}
}

func (r *WSRouter) dispatch(ctx context.Context, conn *websocket.Conn, msg message, handler HandlerFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onError(ctx, msg.Type, fmt.Errorf("handler panic: %v", rec))
		}
	}()

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)
	if err := handler(ctx, conn, msg.Payload); err != nil {
		r.onError(ctx, msg.Type, err)
	}
}
