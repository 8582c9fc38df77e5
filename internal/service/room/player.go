package room

import (
	"context"
	"fmt"

	"github.com/viberoom/server/internal/repository/connection"
)

type PlaybackParams struct {
	SenderConnID string
	RoomKey      string
	Username     string
	Time         float64
}

type PlaybackResponse struct {
	Conns []*connection.Conn
}

func (s service) Play(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if err := s.registry.ApplyPlay(ctx, params.RoomKey, params.Time); err != nil {
		return PlaybackResponse{}, fmt.Errorf("failed to apply play: %w", err)
	}

	return PlaybackResponse{Conns: s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)}, nil
}

func (s service) Pause(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if err := s.registry.ApplyPause(ctx, params.RoomKey, params.Time); err != nil {
		return PlaybackResponse{}, fmt.Errorf("failed to apply pause: %w", err)
	}

	return PlaybackResponse{Conns: s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)}, nil
}

func (s service) Seek(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if err := s.registry.ApplySeek(ctx, params.RoomKey, params.Time); err != nil {
		return PlaybackResponse{}, fmt.Errorf("failed to apply seek: %w", err)
	}

	return PlaybackResponse{Conns: s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)}, nil
}
