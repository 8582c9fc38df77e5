package inmemory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/internal/repository/room"
)

func entries(ids ...string) []domain.QueueEntry {
	queue := make([]domain.QueueEntry, 0, len(ids))
	for _, id := range ids {
		queue = append(queue, domain.QueueEntry{VideoID: id, Title: id, AddedBy: "user1"})
	}

	return queue
}

func TestLazyCreateAndFreshState(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	rm, err := repo.GetOrCreate(ctx, "room-a")
	require.NoError(t, err)
	assert.Empty(t, rm.Users, "fresh room must have no users")
	assert.Empty(t, rm.Queue, "fresh room must have an empty queue")
	assert.Equal(t, -1, rm.CurrentVideoIndex, "fresh room index must be -1")
	assert.False(t, rm.IsPlaying, "fresh room must be paused")
}

func TestIndexClamping(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	tests := []struct {
		name  string
		queue []domain.QueueEntry
		index int
		want  int
	}{
		{"index into bounds stays", entries("a", "b", "c"), 1, 1},
		{"index past end clamps to last", entries("a", "b"), 7, 1},
		{"index below -1 clamps to -1", entries("a"), -5, -1},
		{"empty queue forces -1", nil, 3, -1},
		{"minus one stays on non-empty queue", entries("a", "b"), -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm, err := repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
				RoomKey: "room-" + tt.name,
				Queue:   tt.queue,
				Index:   tt.index,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rm.CurrentVideoIndex)
		})
	}
}

func TestAutoplayOnContent(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	// paused room with no content
	rm, err := repo.GetOrCreate(ctx, "room-a")
	require.NoError(t, err)
	require.False(t, rm.IsPlaying)

	// content arrives: playback flips on
	rm, err = repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   entries("a"),
		Index:   0,
	})
	require.NoError(t, err)
	assert.True(t, rm.IsPlaying, "non-empty queue on a paused room must start playback")

	// an explicit pause afterwards sticks through further queue edits only
	// until the next update, which flips it back on
	require.NoError(t, repo.ApplyPause(ctx, "room-a", 10))
	rm, err = repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   entries("a", "b"),
		Index:   0,
	})
	require.NoError(t, err)
	assert.True(t, rm.IsPlaying)
}

func TestPlaybackLastWriteWins(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	require.NoError(t, repo.ApplyPlay(ctx, "room-a", 5))
	require.NoError(t, repo.ApplySeek(ctx, "room-a", 42))
	require.NoError(t, repo.ApplyPause(ctx, "room-a", 17))

	rm, err := repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	assert.Equal(t, 17.0, rm.CurrentTime, "last write must win")
	assert.False(t, rm.IsPlaying)
}

func TestRoomDeletedWhenEmpty(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	_, _, err := repo.AddMember(ctx, "room-a", "user1", 0)
	require.NoError(t, err)
	_, err = repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   entries("a"),
		Index:   0,
	})
	require.NoError(t, err)

	_, deleted, err := repo.RemoveMember(ctx, "room-a", "user1")
	require.NoError(t, err)
	assert.True(t, deleted, "room must be deleted with its last member")

	// the key is free again: the next join sees fresh state
	rm, err := repo.GetOrCreate(ctx, "room-a")
	require.NoError(t, err)
	assert.Empty(t, rm.Queue, "recreated room must not retain the old queue")
	assert.Equal(t, -1, rm.CurrentVideoIndex)
}

func TestRemoveMemberDropsOneOccurrence(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	_, _, err := repo.AddMember(ctx, "room-a", "user1", 0)
	require.NoError(t, err)
	_, _, err = repo.AddMember(ctx, "room-a", "user1", 0)
	require.NoError(t, err)

	rm, deleted, err := repo.RemoveMember(ctx, "room-a", "user1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []string{"user1"}, rm.Users, "only one occurrence must be removed")
}

func TestAddMemberLimit(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	_, admitted, err := repo.AddMember(ctx, "room-a", "user1", 2)
	require.NoError(t, err)
	assert.True(t, admitted)
	_, admitted, err = repo.AddMember(ctx, "room-a", "user2", 2)
	require.NoError(t, err)
	assert.True(t, admitted)

	rm, admitted, err := repo.AddMember(ctx, "room-a", "user3", 2)
	require.NoError(t, err)
	assert.False(t, admitted, "a full room must refuse further members")
	assert.Len(t, rm.Users, 2)
}

func TestAddMemberLimitUnderConcurrency(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	var admittedCount int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, admitted, err := repo.AddMember(ctx, "room-a", fmt.Sprintf("user%d", n), 3)
			assert.NoError(t, err)
			if admitted {
				atomic.AddInt32(&admittedCount, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(3), admittedCount, "racing joins must never overshoot the limit")

	rm, err := repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	assert.Len(t, rm.Users, 3)
}

func TestRemoveMemberUnknownRoom(t *testing.T) {
	repo := NewRepo()

	rm, deleted, err := repo.RemoveMember(context.Background(), "nope", "user1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, rm.Users)
}

func TestSnapshotIsDetached(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	_, err := repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
		RoomKey: "room-a",
		Queue:   entries("a", "b"),
		Index:   0,
	})
	require.NoError(t, err)

	rm, err := repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	rm.Queue[0].VideoID = "mutated"
	rm.Users = append(rm.Users, "ghost")

	again, err := repo.Snapshot(ctx, "room-a")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Queue[0].VideoID, "stored state must not alias returned slices")
	assert.Empty(t, again.Users)
}

func TestConcurrentUpdatesAcrossRooms(t *testing.T) {
	repo := NewRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			roomKey := fmt.Sprintf("room-%d", n%4)
			for j := 0; j < 50; j++ {
				_, err := repo.ApplyQueueUpdate(ctx, &room.ApplyQueueUpdateParams{
					RoomKey: roomKey,
					Queue:   entries("a", "b", "c"),
					Index:   j % 5,
				})
				assert.NoError(t, err)
				assert.NoError(t, repo.ApplySeek(ctx, roomKey, float64(j)))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		rm, err := repo.Snapshot(ctx, fmt.Sprintf("room-%d", i))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rm.CurrentVideoIndex, -1)
		assert.Less(t, rm.CurrentVideoIndex, 3)
	}
}
