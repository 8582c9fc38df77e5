package room

import (
	"context"
	"fmt"

	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/internal/repository/room"
)

type UpdateQueueParams struct {
	SenderConnID string
	RoomKey      string
	Queue        []domain.QueueEntry
	Index        int
}

type UpdateQueueResponse struct {
	// Room carries the resolved record: clamped index and the isPlaying flag
	// possibly flipped by the autoplay-on-content policy.
	Room room.Room
	// Conns includes the sender. The sender needs the echo because the
	// registry may have altered isPlaying behind its optimistic local state.
	Conns []*connection.Conn
}

func (s service) UpdateQueue(ctx context.Context, params *UpdateQueueParams) (UpdateQueueResponse, error) {
	if s.queueLimit > 0 && len(params.Queue) > s.queueLimit {
		return UpdateQueueResponse{}, ErrQueueLimitReached
	}

	rm, err := s.registry.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: params.RoomKey,
		Queue:   params.Queue,
		Index:   params.Index,
	})
	if err != nil {
		return UpdateQueueResponse{}, fmt.Errorf("failed to apply queue update: %w", err)
	}

	return UpdateQueueResponse{
		Room:  rm,
		Conns: s.connRepo.GetByRoom(params.RoomKey),
	}, nil
}
