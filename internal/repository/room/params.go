package room

import (
	"context"

	"github.com/viberoom/server/internal/domain"
)

type ApplyQueueUpdateParams struct {
	RoomKey string
	Queue   []domain.QueueEntry
	Index   int
}

// Registry is the room-state store contract both backends implement. Every
// method returns detached copies; mutations run under per-room serialization.
// AddMember checks the limit and admits under the same room lock, so
// concurrent joins cannot overshoot it; limit <= 0 means unlimited.
type Registry interface {
	GetOrCreate(ctx context.Context, roomKey string) (Room, error)
	AddMember(ctx context.Context, roomKey, username string, limit int) (Room, bool, error)
	RemoveMember(ctx context.Context, roomKey, username string) (Room, bool, error)
	ApplyQueueUpdate(ctx context.Context, params *ApplyQueueUpdateParams) (Room, error)
	ApplyPlay(ctx context.Context, roomKey string, time float64) error
	ApplyPause(ctx context.Context, roomKey string, time float64) error
	ApplySeek(ctx context.Context, roomKey string, time float64) error
	Snapshot(ctx context.Context, roomKey string) (Room, error)
}
