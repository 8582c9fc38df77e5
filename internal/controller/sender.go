package controller

import (
	"context"

	"github.com/viberoom/server/internal/repository/connection"
)

// broadcast is fire-and-forget: a failed write is logged and the remaining
// recipients still get theirs.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, out *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "conn_id", conn.ID(), "error", err)
		}
	}
}

func (c controller) writeToConn(_ context.Context, conn *connection.Conn, out *Output) error {
	return conn.WriteJSON(out)
}
