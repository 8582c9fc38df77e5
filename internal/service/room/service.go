// Package room implements the event-relay semantics on top of the room
// registry and the connection repository: join/leave lifecycle, queue and
// playback updates, chat/emoji pass-through and signaling relay.
package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/internal/repository/room"
)

var (
	ErrMemberLimitReached = errors.New("member limit reached")
	ErrQueueLimitReached  = errors.New("queue limit reached")
)

type iRoomRegistry interface {
	GetOrCreate(ctx context.Context, roomKey string) (room.Room, error)
	AddMember(ctx context.Context, roomKey, username string, limit int) (room.Room, bool, error)
	RemoveMember(ctx context.Context, roomKey, username string) (room.Room, bool, error)
	ApplyQueueUpdate(ctx context.Context, params *room.ApplyQueueUpdateParams) (room.Room, error)
	ApplyPlay(ctx context.Context, roomKey string, time float64) error
	ApplyPause(ctx context.Context, roomKey string, time float64) error
	ApplySeek(ctx context.Context, roomKey string, time float64) error
}

type iConnRepo interface {
	Add(conn *connection.Conn) error
	Bind(connID string, session connection.Session) error
	Remove(connID string) (*connection.Conn, connection.Session, bool, error)
	Get(connID string) (*connection.Conn, error)
	GetSession(connID string) (connection.Session, error)
	GetByRoom(roomKey string, exclude ...string) []*connection.Conn
	GetByIdentity(roomKey, username string) []*connection.Conn
	All() []*connection.Conn
}

type Config struct {
	MembersLimit int
	QueueLimit   int
}

type service struct {
	registry     iRoomRegistry
	connRepo     iConnRepo
	membersLimit int
	queueLimit   int
	logger       *slog.Logger
}

func NewService(registry iRoomRegistry, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		registry:     registry,
		connRepo:     connRepo,
		membersLimit: cfg.MembersLimit,
		queueLimit:   cfg.QueueLimit,
		logger:       logger,
	}
}

// Connect registers a freshly upgraded connection that has not joined any
// room yet.
func (s service) Connect(conn *connection.Conn) error {
	return s.connRepo.Add(conn)
}

// CloseAll closes every live connection. Used on shutdown.
func (s service) CloseAll() {
	for _, conn := range s.connRepo.All() {
		_ = conn.Close()
	}
}
