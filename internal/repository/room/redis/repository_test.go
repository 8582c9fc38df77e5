package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/internal/repository/room"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	return NewRepo(rc, time.Hour), s
}

func TestRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rm, admitted, err := repo.AddMember(ctx, "room-a", "user1", 0)
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, []string{"user1"}, rm.Users)

	queue := []domain.QueueEntry{{VideoID: "a", Title: "A", AddedBy: "user1"}}
	rm, err = repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   queue,
		Index:   0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, rm.CurrentVideoIndex)
	assert.True(t, rm.IsPlaying, "non-empty queue on a paused room must start playback")

	require.NoError(t, repo.ApplyPause(ctx, "room-a", 33.5))

	rm, err = repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	assert.Equal(t, queue, rm.Queue, "queue must survive the blob round trip")
	assert.Equal(t, 33.5, rm.CurrentTime)
	assert.False(t, rm.IsPlaying)
}

func TestUnknownKeyReadsAsFreshRoom(t *testing.T) {
	repo, _ := newTestRepo(t)

	rm, err := repo.Snapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, rm.Users)
	assert.Equal(t, -1, rm.CurrentVideoIndex)
}

func TestLastMemberDeletesKey(t *testing.T) {
	repo, s := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.AddMember(ctx, "room-a", "user1", 0)
	require.NoError(t, err)
	require.True(t, s.Exists("room:room-a"))

	_, deleted, err := repo.RemoveMember(ctx, "room-a", "user1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, s.Exists("room:room-a"), "empty room must be deleted from redis")
}

func TestAddMemberLimit(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, admitted, err := repo.AddMember(ctx, "room-a", "user1", 1)
	require.NoError(t, err)
	require.True(t, admitted)

	rm, admitted, err := repo.AddMember(ctx, "room-a", "user2", 1)
	require.NoError(t, err)
	assert.False(t, admitted, "a full room must refuse further members")
	assert.Equal(t, []string{"user1"}, rm.Users)
}

func TestIndexClampPersists(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rm, err := repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   []domain.QueueEntry{{VideoID: "a"}, {VideoID: "b"}},
		Index:   9,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rm.CurrentVideoIndex, "index past end must clamp to last entry")

	rm, err = repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	assert.Equal(t, 1, rm.CurrentVideoIndex)
}
