package reconciler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	offers     []string
	answers    []string
	candidates map[string][]string
	closed     []string
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{candidates: make(map[string][]string)}
}

func (c *fakeConnector) CreateOffer(peer string) error {
	c.offers = append(c.offers, peer)
	return nil
}

func (c *fakeConnector) AcceptOffer(peer string, _ json.RawMessage) error {
	return nil
}

func (c *fakeConnector) AcceptAnswer(peer string, _ json.RawMessage) error {
	c.answers = append(c.answers, peer)
	return nil
}

func (c *fakeConnector) AddCandidate(peer string, payload json.RawMessage) error {
	c.candidates[peer] = append(c.candidates[peer], string(payload))
	return nil
}

func (c *fakeConnector) Close(peer string) {
	c.closed = append(c.closed, peer)
}

func TestInitiatorIsSettledByNameOrder(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))
	assert.Equal(t, []string{"bob"}, connector.offers, "the smaller name must offer")
	assert.Equal(t, SessionOfferSent, mesh.State("bob"))

	// the larger name waits for the offer instead
	connector2 := newFakeConnector()
	mesh2 := NewVoiceMesh("bob", connector2)
	require.NoError(t, mesh2.PeerJoined("alice"))
	assert.Empty(t, connector2.offers)
	assert.Equal(t, SessionNone, mesh2.State("alice"))
}

func TestPeerJoinedIsIdempotent(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))
	require.NoError(t, mesh.PeerJoined("bob"))
	assert.Len(t, connector.offers, 1, "a repeated join must not re-offer")

	require.NoError(t, mesh.PeerJoined("alice"))
	assert.NotContains(t, mesh.Peers(), "alice", "no session toward ourselves")
}

func TestHandshakeCompletes(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))
	require.NoError(t, mesh.HandleAnswer("bob", json.RawMessage(`{"sdp":"x"}`)))
	assert.Equal(t, SessionAnswerReceived, mesh.State("bob"))

	require.NoError(t, mesh.HandleCandidate("bob", json.RawMessage(`{"c":1}`)))
	assert.Equal(t, SessionICEExchange, mesh.State("bob"))
	assert.Equal(t, []string{`{"c":1}`}, connector.candidates["bob"])

	mesh.MarkConnected("bob")
	assert.Equal(t, SessionConnected, mesh.State("bob"))
}

func TestEarlyCandidatesAreBuffered(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))

	// candidates outrun the answer over the relay
	require.NoError(t, mesh.HandleCandidate("bob", json.RawMessage(`{"c":1}`)))
	require.NoError(t, mesh.HandleCandidate("bob", json.RawMessage(`{"c":2}`)))
	assert.Empty(t, connector.candidates["bob"], "early candidates must wait for the description")

	require.NoError(t, mesh.HandleAnswer("bob", json.RawMessage(`{"sdp":"x"}`)))
	assert.Equal(t, []string{`{"c":1}`, `{"c":2}`}, connector.candidates["bob"], "buffered candidates must replay in order")
	assert.Equal(t, SessionICEExchange, mesh.State("bob"))
}

func TestResponderSideHandshake(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("bob", connector)

	require.NoError(t, mesh.PeerJoined("alice"))
	require.NoError(t, mesh.HandleCandidate("alice", json.RawMessage(`{"c":1}`)))
	require.NoError(t, mesh.HandleOffer("alice", json.RawMessage(`{"sdp":"x"}`)))

	assert.Equal(t, []string{`{"c":1}`}, connector.candidates["alice"])
	assert.Equal(t, SessionICEExchange, mesh.State("alice"))
}

func TestSessionsAreIndependent(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))
	require.NoError(t, mesh.PeerJoined("carol"))
	require.NoError(t, mesh.HandleAnswer("bob", json.RawMessage(`{}`)))

	assert.Equal(t, SessionAnswerReceived, mesh.State("bob"))
	assert.Equal(t, SessionOfferSent, mesh.State("carol"), "one handshake must not advance another")
	assert.ElementsMatch(t, []string{"bob", "carol"}, mesh.Peers())
}

func TestPeerLeftTearsDown(t *testing.T) {
	connector := newFakeConnector()
	mesh := NewVoiceMesh("alice", connector)

	require.NoError(t, mesh.PeerJoined("bob"))
	mesh.PeerLeft("bob")

	assert.Equal(t, []string{"bob"}, connector.closed)
	assert.Equal(t, SessionNone, mesh.State("bob"))
	assert.Empty(t, mesh.Peers())

	// leaving twice is harmless
	mesh.PeerLeft("bob")
	assert.Len(t, connector.closed, 1)
}
