package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/validator"
	"github.com/viberoom/server/pkg/wsrouter"
	"github.com/viberoom/server/pkg/ytcatalog"
)

type iRoomService interface {
	Connect(conn *connection.Conn) error
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) (room.JoinRoomResponse, error)
	Disconnect(ctx context.Context, params *room.DisconnectParams) (room.DisconnectResponse, error)
	UpdateQueue(ctx context.Context, params *room.UpdateQueueParams) (room.UpdateQueueResponse, error)
	Play(ctx context.Context, params *room.PlaybackParams) (room.PlaybackResponse, error)
	Pause(ctx context.Context, params *room.PlaybackParams) (room.PlaybackResponse, error)
	Seek(ctx context.Context, params *room.PlaybackParams) (room.PlaybackResponse, error)
	RelayChatMessage(ctx context.Context, params *room.RelayParams) (room.RelayResponse, error)
	RelayEmojiReaction(ctx context.Context, params *room.RelayParams) (room.RelayResponse, error)
	RelaySignal(ctx context.Context, params *room.RelaySignalParams) (room.RelaySignalResponse, error)
	SyncVideo(ctx context.Context, params *room.SyncVideoParams) (room.RelaySignalResponse, error)
	CloseAll()
}

type iCatalog interface {
	Search(ctx context.Context, query string) ([]ytcatalog.Video, error)
	Lookup(ctx context.Context, videoID string) (*ytcatalog.Video, error)
}

type controller struct {
	roomService iRoomService
	catalog     iCatalog
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, catalog iCatalog, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		catalog:     catalog,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}

	c.wsmux = c.getWSRouter()
	// malformed and failing events are dropped, never surfaced to the sender
	c.wsmux.OnError(func(ctx context.Context, messageType string, err error) {
		c.logger.DebugContext(ctx, "dropped event", "type", messageType, "error", err)
	})

	return c
}

// Shutdown closes every live connection.
func (c controller) Shutdown() {
	c.roomService.CloseAll()
}
