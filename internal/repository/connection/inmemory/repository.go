package inmemory

import (
	"sync"

	"golang.org/x/exp/maps"

	"github.com/viberoom/server/internal/repository/connection"
)

type repo struct {
	mu       sync.RWMutex
	conns    map[string]*connection.Conn
	sessions map[string]connection.Session
}

func NewRepo() *repo {
	return &repo{
		conns:    make(map[string]*connection.Conn),
		sessions: make(map[string]connection.Session),
	}
}

func (r *repo) Add(conn *connection.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; ok {
		return connection.ErrAlreadyExists
	}
	r.conns[conn.ID()] = conn

	return nil
}

// Bind attaches a room/identity session to a registered connection. A
// connection joins at most one room for its lifetime.
func (r *repo) Bind(connID string, session connection.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return connection.ErrNotFound
	}
	if _, ok := r.sessions[connID]; ok {
		return connection.ErrAlreadyJoined
	}
	r.sessions[connID] = session

	return nil
}

// Remove unregisters the connection and returns it together with its bound
// session, if any.
func (r *repo) Remove(connID string) (*connection.Conn, connection.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, connection.Session{}, false, connection.ErrNotFound
	}

	session, joined := r.sessions[connID]
	delete(r.conns, connID)
	delete(r.sessions, connID)

	return conn, session, joined, nil
}

func (r *repo) Get(connID string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetSession(connID string) (connection.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connID]
	if !ok {
		return connection.Session{}, connection.ErrNotFound
	}

	return session, nil
}

// GetByRoom returns every connection bound to the room, excluding the given
// connection ids.
func (r *repo) GetByRoom(roomKey string, exclude ...string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0)
	for connID, session := range r.sessions {
		if session.RoomKey != roomKey || excluded(connID, exclude) {
			continue
		}
		if conn, ok := r.conns[connID]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

// GetByIdentity returns every connection in the room bound to the given
// identity. Identities are not unique, so this may match several.
func (r *repo) GetByIdentity(roomKey, username string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0)
	for connID, session := range r.sessions {
		if session.RoomKey != roomKey || session.Username != username {
			continue
		}
		if conn, ok := r.conns[connID]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (r *repo) All() []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.conns)
}

func excluded(connID string, exclude []string) bool {
	for _, id := range exclude {
		if id == connID {
			return true
		}
	}

	return false
}
