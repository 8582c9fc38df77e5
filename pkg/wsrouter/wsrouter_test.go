package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchPutsTypeInContext(t *testing.T) {
	r := New()

	var gotType string
	var gotPayload json.RawMessage
	r.Handle("play", func(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
		gotType = GetMessageTypeFromCtx(ctx)
		gotPayload = payload
		return nil
	})

	r.dispatch(context.Background(), nil, message{Type: "play", Payload: json.RawMessage(`{"time":5}`)}, r.routes["play"])

	assert.Equal(t, "play", gotType)
	assert.JSONEq(t, `{"time":5}`, string(gotPayload))
}

func TestHandlerErrorGoesToOnError(t *testing.T) {
	r := New()

	handlerErr := errors.New("boom")
	r.Handle("play", func(context.Context, *websocket.Conn, json.RawMessage) error {
		return handlerErr
	})

	var reportedType string
	var reportedErr error
	r.OnError(func(_ context.Context, messageType string, err error) {
		reportedType = messageType
		reportedErr = err
	})

	r.dispatch(context.Background(), nil, message{Type: "play"}, r.routes["play"])

	assert.Equal(t, "play", reportedType)
	assert.ErrorIs(t, reportedErr, handlerErr)
}

func TestHandlerPanicIsContained(t *testing.T) {
	r := New()

	r.Handle("play", func(context.Context, *websocket.Conn, json.RawMessage) error {
		panic("oops")
	})

	var reportedErr error
	r.OnError(func(_ context.Context, _ string, err error) {
		reportedErr = err
	})

	require.NotPanics(t, func() {
		r.dispatch(context.Background(), nil, message{Type: "play"}, r.routes["play"])
	})
	assert.ErrorContains(t, reportedErr, "oops")
}

func TestGetMessageTypeFromBareCtx(t *testing.T) {
	assert.Empty(t, GetMessageTypeFromCtx(context.Background()))
}
