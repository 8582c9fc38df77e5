package reconciler

import (
	"encoding/json"
	"fmt"
	"sync"
)

// SessionState tracks a pairwise voice session through the signaling
// handshake.
type SessionState int

const (
	SessionNone SessionState = iota
	SessionOfferSent
	SessionAnswerReceived
	SessionICEExchange
	SessionConnected
)

// PeerConnector is the media-stack side of a voice session. Implementations
// own the actual peer connections; the mesh only sequences the handshake.
type PeerConnector interface {
	CreateOffer(peer string) error
	AcceptOffer(peer string, payload json.RawMessage) error
	AcceptAnswer(peer string, payload json.RawMessage) error
	AddCandidate(peer string, payload json.RawMessage) error
	Close(peer string)
}

type peerSession struct {
	state     SessionState
	initiator bool
	// pending buffers candidates that arrive before the session description;
	// signaling order over the relay is not guaranteed.
	pending []json.RawMessage
}

// VoiceMesh keeps one signaling session per room peer. Which side initiates
// is settled by name order, so both ends agree without negotiation.
type VoiceMesh struct {
	mu        sync.Mutex
	self      string
	connector PeerConnector
	peers     map[string]*peerSession
}

func NewVoiceMesh(self string, connector PeerConnector) *VoiceMesh {
	return &VoiceMesh{
		self:      self,
		connector: connector,
		peers:     make(map[string]*peerSession),
	}
}

// PeerJoined starts a session toward a newly seen peer. The lexicographically
// smaller name sends the offer; the other side waits for it.
func (m *VoiceMesh) PeerJoined(peer string) error {
	if peer == m.self {
		return nil
	}

	m.mu.Lock()
	if _, exists := m.peers[peer]; exists {
		m.mu.Unlock()
		return nil
	}

	session := &peerSession{initiator: m.self < peer}
	m.peers[peer] = session
	initiator := session.initiator
	m.mu.Unlock()

	if !initiator {
		return nil
	}

	if err := m.connector.CreateOffer(peer); err != nil {
		return fmt.Errorf("failed to create offer for %s: %w", peer, err)
	}

	m.mu.Lock()
	session.state = SessionOfferSent
	m.mu.Unlock()

	return nil
}

// HandleOffer answers an incoming offer on the non-initiating side.
func (m *VoiceMesh) HandleOffer(peer string, payload json.RawMessage) error {
	session := m.session(peer)

	if err := m.connector.AcceptOffer(peer, payload); err != nil {
		return fmt.Errorf("failed to accept offer from %s: %w", peer, err)
	}

	m.mu.Lock()
	session.state = SessionAnswerReceived
	pending := session.pending
	session.pending = nil
	m.mu.Unlock()

	return m.flush(peer, session, pending)
}

// HandleAnswer completes the initiator's handshake.
func (m *VoiceMesh) HandleAnswer(peer string, payload json.RawMessage) error {
	session := m.session(peer)

	if err := m.connector.AcceptAnswer(peer, payload); err != nil {
		return fmt.Errorf("failed to accept answer from %s: %w", peer, err)
	}

	m.mu.Lock()
	session.state = SessionAnswerReceived
	pending := session.pending
	session.pending = nil
	m.mu.Unlock()

	return m.flush(peer, session, pending)
}

// HandleCandidate feeds a remote candidate in. Candidates that outrun the
// offer or answer are buffered and replayed once the description lands.
func (m *VoiceMesh) HandleCandidate(peer string, payload json.RawMessage) error {
	session := m.session(peer)

	m.mu.Lock()
	if session.state < SessionAnswerReceived {
		session.pending = append(session.pending, payload)
		m.mu.Unlock()
		return nil
	}
	session.state = SessionICEExchange
	m.mu.Unlock()

	if err := m.connector.AddCandidate(peer, payload); err != nil {
		return fmt.Errorf("failed to add candidate from %s: %w", peer, err)
	}

	return nil
}

// MarkConnected records that media is flowing with the peer.
func (m *VoiceMesh) MarkConnected(peer string) {
	session := m.session(peer)

	m.mu.Lock()
	session.state = SessionConnected
	m.mu.Unlock()
}

// PeerLeft tears the session down.
func (m *VoiceMesh) PeerLeft(peer string) {
	m.mu.Lock()
	_, exists := m.peers[peer]
	delete(m.peers, peer)
	m.mu.Unlock()

	if exists {
		m.connector.Close(peer)
	}
}

// State reports the handshake state toward a peer.
func (m *VoiceMesh) State(peer string) SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.peers[peer]; ok {
		return session.state
	}

	return SessionNone
}

// Peers lists the peers with live sessions.
func (m *VoiceMesh) Peers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	peers := make([]string, 0, len(m.peers))
	for peer := range m.peers {
		peers = append(peers, peer)
	}

	return peers
}

func (m *VoiceMesh) session(peer string) *peerSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.peers[peer]
	if !ok {
		session = &peerSession{initiator: m.self < peer}
		m.peers[peer] = session
	}

	return session
}

func (m *VoiceMesh) flush(peer string, session *peerSession, pending []json.RawMessage) error {
	for _, candidate := range pending {
		if err := m.connector.AddCandidate(peer, candidate); err != nil {
			return fmt.Errorf("failed to add buffered candidate from %s: %w", peer, err)
		}
	}

	if len(pending) > 0 {
		m.mu.Lock()
		session.state = SessionICEExchange
		m.mu.Unlock()
	}

	return nil
}
