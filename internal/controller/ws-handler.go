package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/ctxlogger"
	"github.com/viberoom/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := connection.NewConn(uuid.NewString(), ws)
	if err := c.roomService.Connect(conn); err != nil {
		c.logger.WarnContext(r.Context(), "failed to register conn", "error", err)
		ws.Close()
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", conn.ID()))
	ctx = context.WithValue(ctx, connIDCtxKey, conn.ID())
	defer ws.Close()
	defer c.disconnect(ctx, conn.ID())

	if err := c.wsmux.ServeConn(ctx, ws); err != nil {
		c.logger.DebugContext(ctx, "conn closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, connID string) {
	resp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{ConnID: connID})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to disconnect", "error", err)
		return
	}
	if !resp.Joined {
		return
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    domain.EventUserLeft,
		Payload: domain.PresenceEvent{Username: resp.Username},
	})
	c.broadcast(ctx, resp.Conns, &Output{
		Type:    domain.EventRoomUsers,
		Payload: domain.RoomUsersEvent{Users: resp.Users},
	})
}

// decode unmarshals and validates an inbound payload. Any failure makes the
// event malformed; callers bubble the error up so the dispatcher drops it.
func (c controller) decode(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("invalid payload: %v", validationErrors)
	}

	return nil
}

type JoinRoomInput struct {
	Room     string `json:"room" validate:"required"`
	Username string `json:"username" validate:"required,max=32"`
}

func (c controller) handleJoinRoom(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input JoinRoomInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	joinResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnID:   c.getConnIDFromCtx(ctx),
		RoomKey:  input.Room,
		Username: input.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.InfoContext(ctx, "member joined", "room", input.Room, "username", input.Username)

	// seed the late joiner with the current record before anyone else hears
	// about it
	currentTime := joinResp.Snapshot.CurrentTime
	if err := c.writeToConn(ctx, joinResp.JoinerConn, &Output{
		Type: domain.EventQueueUpdate,
		Payload: domain.QueueUpdateEvent{
			Queue:             joinResp.Snapshot.Queue,
			CurrentVideoIndex: joinResp.Snapshot.CurrentVideoIndex,
			CurrentTime:       &currentTime,
			IsPlaying:         joinResp.Snapshot.IsPlaying,
		},
	}); err != nil {
		return fmt.Errorf("failed to seed joiner: %w", err)
	}

	c.broadcast(ctx, joinResp.AllConns, &Output{
		Type:    domain.EventRoomUsers,
		Payload: domain.RoomUsersEvent{Users: joinResp.Users},
	})
	c.broadcast(ctx, joinResp.OtherConns, &Output{
		Type:    domain.EventUserJoined,
		Payload: domain.PresenceEvent{Username: input.Username},
	})

	return nil
}

type QueueUpdateInput struct {
	Room              string               `json:"room" validate:"required"`
	Queue             *[]domain.QueueEntry `json:"queue" validate:"required"`
	CurrentVideoIndex *int                 `json:"currentVideoIndex" validate:"required"`
	Origin            string               `json:"origin"`
}

func (c controller) handleQueueUpdate(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input QueueUpdateInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	updateResp, err := c.roomService.UpdateQueue(ctx, &room.UpdateQueueParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Queue:        *input.Queue,
		Index:        *input.CurrentVideoIndex,
	})
	if err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}

	// everyone hears this one, the sender included: the registry may have
	// flipped isPlaying behind the sender's back
	c.broadcast(ctx, updateResp.Conns, &Output{
		Type: domain.EventQueueUpdate,
		Payload: domain.QueueUpdateEvent{
			Queue:             updateResp.Room.Queue,
			CurrentVideoIndex: updateResp.Room.CurrentVideoIndex,
			IsPlaying:         updateResp.Room.IsPlaying,
			Origin:            input.Origin,
		},
	})

	return nil
}

type PlaybackInput struct {
	Room     string   `json:"room" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Time     *float64 `json:"time" validate:"required"`
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	playResp, err := c.roomService.Play(ctx, &room.PlaybackParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Username:     input.Username,
		Time:         *input.Time,
	})
	if err != nil {
		return fmt.Errorf("failed to apply play: %w", err)
	}

	c.broadcast(ctx, playResp.Conns, &Output{
		Type:    domain.EventPlay,
		Payload: domain.PlaybackEvent{Username: input.Username, Time: *input.Time},
	})

	return nil
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	pauseResp, err := c.roomService.Pause(ctx, &room.PlaybackParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Username:     input.Username,
		Time:         *input.Time,
	})
	if err != nil {
		return fmt.Errorf("failed to apply pause: %w", err)
	}

	c.broadcast(ctx, pauseResp.Conns, &Output{
		Type:    domain.EventPause,
		Payload: domain.PlaybackEvent{Username: input.Username, Time: *input.Time},
	})

	return nil
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	seekResp, err := c.roomService.Seek(ctx, &room.PlaybackParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Username:     input.Username,
		Time:         *input.Time,
	})
	if err != nil {
		return fmt.Errorf("failed to apply seek: %w", err)
	}

	c.broadcast(ctx, seekResp.Conns, &Output{
		Type:    domain.EventSeek,
		Payload: domain.PlaybackEvent{Username: input.Username, Time: *input.Time},
	})

	return nil
}

type SyncVideoInput struct {
	Room         string             `json:"room" validate:"required"`
	CurrentVideo *domain.QueueEntry `json:"currentVideo"`
	CurrentTime  *float64           `json:"currentTime" validate:"required"`
	IsPlaying    bool               `json:"isPlaying"`
	Target       string             `json:"targetIdentity" validate:"required"`
}

func (c controller) handleSyncVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input SyncVideoInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	syncResp, err := c.roomService.SyncVideo(ctx, &room.SyncVideoParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Target:       input.Target,
	})
	if err != nil {
		return fmt.Errorf("failed to sync video: %w", err)
	}

	c.broadcast(ctx, syncResp.Conns, &Output{
		Type: domain.EventSyncVideo,
		Payload: domain.SyncVideoEvent{
			CurrentVideo: input.CurrentVideo,
			CurrentTime:  *input.CurrentTime,
			IsPlaying:    input.IsPlaying,
			Username:     syncResp.Sender,
		},
	})

	return nil
}

type ChatMessageInput struct {
	Room      string `json:"room" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Message   string `json:"message" validate:"required,max=2000"`
	Timestamp string `json:"timestamp"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input ChatMessageInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	if input.Timestamp == "" {
		input.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	chatResp, err := c.roomService.RelayChatMessage(ctx, &room.RelayParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
	})
	if err != nil {
		return fmt.Errorf("failed to relay chat message: %w", err)
	}

	c.broadcast(ctx, chatResp.Conns, &Output{
		Type: domain.EventChatMessage,
		Payload: domain.ChatMessageEvent{
			Username:  input.Username,
			Message:   input.Message,
			Timestamp: input.Timestamp,
		},
	})

	return nil
}

type EmojiReactionInput struct {
	Room     string `json:"room" validate:"required"`
	Username string `json:"username" validate:"required"`
	Emoji    string `json:"emoji" validate:"required,max=16"`
}

func (c controller) handleEmojiReaction(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input EmojiReactionInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	emojiResp, err := c.roomService.RelayEmojiReaction(ctx, &room.RelayParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
	})
	if err != nil {
		return fmt.Errorf("failed to relay emoji reaction: %w", err)
	}

	c.broadcast(ctx, emojiResp.Conns, &Output{
		Type:    domain.EventEmojiReaction,
		Payload: domain.EmojiReactionEvent{Username: input.Username, Emoji: input.Emoji},
	})

	return nil
}

type SignalInput struct {
	Room    string          `json:"room" validate:"required"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// handleSignal serves offer, answer and ice-candidate alike; the concrete
// event name travels in the router context and is echoed on the way out.
func (c controller) handleSignal(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input SignalInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}
	if len(input.Payload) == 0 || string(input.Payload) == "null" {
		return fmt.Errorf("signal payload is missing")
	}

	signalResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomKey:      input.Room,
		Target:       input.Target,
	})
	if err != nil {
		return fmt.Errorf("failed to relay signal: %w", err)
	}

	c.broadcast(ctx, signalResp.Conns, &Output{
		Type: wsrouter.GetMessageTypeFromCtx(ctx),
		Payload: domain.SignalEvent{
			Sender:  signalResp.Sender,
			Payload: input.Payload,
		},
	})

	return nil
}

func (c controller) handleClientLog(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	c.logger.DebugContext(ctx, "client log", "message", string(payload))
	return nil
}
