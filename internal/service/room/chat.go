package room

import (
	"context"

	"github.com/viberoom/server/internal/repository/connection"
)

type RelayParams struct {
	SenderConnID string
	RoomKey      string
}

type RelayResponse struct {
	Conns []*connection.Conn
}

// Chat and emoji reactions are stateless pass-through: no registry mutation,
// delivery to every member except the sender.

func (s service) RelayChatMessage(_ context.Context, params *RelayParams) (RelayResponse, error) {
	return RelayResponse{Conns: s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)}, nil
}

func (s service) RelayEmojiReaction(_ context.Context, params *RelayParams) (RelayResponse, error) {
	return RelayResponse{Conns: s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)}, nil
}
