package controller

import (
	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	// lifecycle
	mux.Handle(domain.EventJoinRoom, c.handleJoinRoom)

	// playback and queue
	mux.Handle(domain.EventQueueUpdate, c.handleQueueUpdate)
	mux.Handle(domain.EventPlay, c.handlePlay)
	mux.Handle(domain.EventPause, c.handlePause)
	mux.Handle(domain.EventSeek, c.handleSeek)
	mux.Handle(domain.EventSyncVideo, c.handleSyncVideo)

	// chat
	mux.Handle(domain.EventChatMessage, c.handleChatMessage)
	mux.Handle(domain.EventEmojiReaction, c.handleEmojiReaction)

	// voice signaling
	mux.Handle(domain.EventOffer, c.handleSignal)
	mux.Handle(domain.EventAnswer, c.handleSignal)
	mux.Handle(domain.EventICECandidate, c.handleSignal)

	// diagnostics
	mux.Handle(domain.EventClientLog, c.handleClientLog)

	return mux
}
