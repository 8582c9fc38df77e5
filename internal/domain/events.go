// Package domain holds the wire-level event names and payload shapes shared
// by the relay, the connection layer and the client reconciler.
package domain

import "encoding/json"

const (
	EventJoinRoom      = "join-room"
	EventRoomUsers     = "room-users"
	EventQueueUpdate   = "queue-update"
	EventPlay          = "play"
	EventPause         = "pause"
	EventSeek          = "seek"
	EventSyncVideo     = "sync-video"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventChatMessage   = "chat-message"
	EventEmojiReaction = "emoji-reaction"
	EventOffer         = "offer"
	EventAnswer        = "answer"
	EventICECandidate  = "ice-candidate"
	EventClientLog     = "client-log"
)

// QueueEntry is one addressable media item plus attribution. Entries are
// immutable once added; queue edits replace the whole sequence.
type QueueEntry struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Channel   string `json:"channel"`
	AddedBy   string `json:"addedBy"`
}

// QueueUpdateEvent replaces the room queue wholesale. Origin is a
// client-generated token echoed back untouched so the sender can recognize
// its own update in the rebroadcast.
type QueueUpdateEvent struct {
	Room              string       `json:"room,omitempty"`
	Queue             []QueueEntry `json:"queue"`
	CurrentVideoIndex int          `json:"currentVideoIndex"`
	CurrentTime       *float64     `json:"currentTime,omitempty"`
	IsPlaying         bool         `json:"isPlaying"`
	Origin            string       `json:"origin,omitempty"`
}

// PlaybackEvent carries play, pause and seek.
type PlaybackEvent struct {
	Room     string  `json:"room,omitempty"`
	Username string  `json:"username"`
	Time     float64 `json:"time"`
}

type ChatMessageEvent struct {
	Room      string `json:"room,omitempty"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type EmojiReactionEvent struct {
	Room     string `json:"room,omitempty"`
	Username string `json:"username"`
	Emoji    string `json:"emoji"`
}

// SignalEvent carries offer, answer and ice-candidate. The payload is opaque
// to the relay; Target addresses one identity and an absent Target means
// room-wide delivery.
type SignalEvent struct {
	Room    string          `json:"room,omitempty"`
	Sender  string          `json:"sender,omitempty"`
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// SyncVideoEvent is a point-in-time state push from an existing member toward
// a named newcomer, relayed verbatim.
type SyncVideoEvent struct {
	Room         string      `json:"room,omitempty"`
	CurrentVideo *QueueEntry `json:"currentVideo"`
	CurrentTime  float64     `json:"currentTime"`
	IsPlaying    bool        `json:"isPlaying"`
	Username     string      `json:"username,omitempty"`
	Target       string      `json:"targetIdentity,omitempty"`
}

type RoomUsersEvent struct {
	Users []string `json:"users"`
}

type PresenceEvent struct {
	Username string `json:"username"`
}
