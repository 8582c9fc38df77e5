package room

import (
	"context"

	"github.com/viberoom/server/internal/repository/connection"
)

type RelaySignalParams struct {
	SenderConnID string
	RoomKey      string
	Target       string
}

type RelaySignalResponse struct {
	// Sender is the relaying identity, empty when the connection never
	// joined a room.
	Sender string
	Conns  []*connection.Conn
}

// RelaySignal resolves delivery for offer/answer/ice-candidate payloads.
// A target identity addresses its connections directly; without one the
// signal goes to every other member of the room (first call in the room).
// The relay holds no session state and does not inspect payloads.
func (s service) RelaySignal(_ context.Context, params *RelaySignalParams) (RelaySignalResponse, error) {
	sender := ""
	if session, err := s.connRepo.GetSession(params.SenderConnID); err == nil {
		sender = session.Username
	}

	var conns []*connection.Conn
	if params.Target != "" {
		conns = s.connRepo.GetByIdentity(params.RoomKey, params.Target)
	} else {
		conns = s.connRepo.GetByRoom(params.RoomKey, params.SenderConnID)
	}

	return RelaySignalResponse{Sender: sender, Conns: conns}, nil
}

type SyncVideoParams struct {
	SenderConnID string
	RoomKey      string
	Target       string
}

// SyncVideo resolves the addressed newcomer's connections for a
// point-in-time state push from an existing member.
func (s service) SyncVideo(_ context.Context, params *SyncVideoParams) (RelaySignalResponse, error) {
	sender := ""
	if session, err := s.connRepo.GetSession(params.SenderConnID); err == nil {
		sender = session.Username
	}

	return RelaySignalResponse{
		Sender: sender,
		Conns:  s.connRepo.GetByIdentity(params.RoomKey, params.Target),
	}, nil
}
