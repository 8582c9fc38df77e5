package room

import (
	"context"
	"fmt"

	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/internal/repository/room"
)

type JoinRoomParams struct {
	ConnID   string
	RoomKey  string
	Username string
}

type JoinRoomResponse struct {
	// Snapshot is the room record as of the join itself, taken under the
	// room lock so no concurrent queue-update can interleave.
	Snapshot   room.Room
	Users      []string
	JoinerConn *connection.Conn
	OtherConns []*connection.Conn
	AllConns   []*connection.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	joinerConn, err := s.connRepo.Get(params.ConnID)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get joiner conn: %w", err)
	}
	if _, err := s.connRepo.GetSession(params.ConnID); err == nil {
		return JoinRoomResponse{}, connection.ErrAlreadyJoined
	}

	// the limit check and the admit run under the same room lock, so two
	// racing joins cannot both squeeze past it
	rm, admitted, err := s.registry.AddMember(ctx, params.RoomKey, params.Username, s.membersLimit)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}
	if !admitted {
		return JoinRoomResponse{}, ErrMemberLimitReached
	}

	if err := s.connRepo.Bind(params.ConnID, connection.Session{
		RoomKey:  params.RoomKey,
		Username: params.Username,
	}); err != nil {
		// the conn raced its own removal; take the membership back out
		_, _, _ = s.registry.RemoveMember(ctx, params.RoomKey, params.Username)
		return JoinRoomResponse{}, fmt.Errorf("failed to bind session: %w", err)
	}

	return JoinRoomResponse{
		Snapshot:   rm,
		Users:      rm.Users,
		JoinerConn: joinerConn,
		OtherConns: s.connRepo.GetByRoom(params.RoomKey, params.ConnID),
		AllConns:   s.connRepo.GetByRoom(params.RoomKey),
	}, nil
}

type DisconnectParams struct {
	ConnID string
}

type DisconnectResponse struct {
	Joined      bool
	RoomKey     string
	Username    string
	Users       []string
	RoomDeleted bool
	Conns       []*connection.Conn
}

// Disconnect removes the connection unconditionally. If it had joined a
// room, the member is evicted and the room deleted when it becomes empty.
// Closing the socket itself is the caller's business.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	_, session, joined, err := s.connRepo.Remove(params.ConnID)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove conn: %w", err)
	}

	if !joined {
		return DisconnectResponse{}, nil
	}

	rm, deleted, err := s.registry.RemoveMember(ctx, session.RoomKey, session.Username)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	return DisconnectResponse{
		Joined:      true,
		RoomKey:     session.RoomKey,
		Username:    session.Username,
		Users:       rm.Users,
		RoomDeleted: deleted,
		Conns:       s.connRepo.GetByRoom(session.RoomKey),
	}, nil
}
