// Package redis backs the room registry with a redis instance. Records are
// stored as one JSON value per room under a TTL safety net; per-room
// serialization is provided by a process-local keyed mutex since the relay
// runs as a single process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viberoom/server/internal/repository/room"
)

type repo struct {
	rc  *redis.Client
	exp time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRepo(rc *redis.Client, exp time.Duration) *repo {
	return &repo{
		rc:    rc,
		exp:   exp,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *repo) roomKey(key string) string {
	return "room:" + key
}

func (r *repo) lock(roomKey string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.locks[roomKey]
	if !ok {
		m = &sync.Mutex{}
		r.locks[roomKey] = m
	}

	return m
}

func (r *repo) load(ctx context.Context, roomKey string) (room.Room, error) {
	raw, err := r.rc.Get(ctx, r.roomKey(roomKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return room.NewRoom(), nil
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	var rm room.Room
	if err := json.Unmarshal(raw, &rm); err != nil {
		return room.Room{}, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return rm, nil
}

func (r *repo) save(ctx context.Context, roomKey string, rm room.Room) error {
	raw, err := json.Marshal(rm)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	if err := r.rc.Set(ctx, r.roomKey(roomKey), raw, r.exp).Err(); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r *repo) delete(ctx context.Context, roomKey string) error {
	if err := r.rc.Del(ctx, r.roomKey(roomKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	r.mu.Lock()
	delete(r.locks, roomKey)
	r.mu.Unlock()

	return nil
}

func (r *repo) GetOrCreate(ctx context.Context, roomKey string) (room.Room, error) {
	m := r.lock(roomKey)
	m.Lock()
	defer m.Unlock()

	rm, err := r.load(ctx, roomKey)
	if err != nil {
		return room.Room{}, err
	}
	if err := r.save(ctx, roomKey, rm); err != nil {
		return room.Room{}, err
	}

	return rm, nil
}

func (r *repo) AddMember(ctx context.Context, roomKey, username string, limit int) (room.Room, bool, error) {
	m := r.lock(roomKey)
	m.Lock()
	defer m.Unlock()

	rm, err := r.load(ctx, roomKey)
	if err != nil {
		return room.Room{}, false, err
	}

	if limit > 0 && len(rm.Users) >= limit {
		return rm, false, nil
	}

	rm.AddMember(username)
	if err := r.save(ctx, roomKey, rm); err != nil {
		return room.Room{}, false, err
	}

	return rm, true, nil
}

func (r *repo) RemoveMember(ctx context.Context, roomKey, username string) (room.Room, bool, error) {
	m := r.lock(roomKey)
	m.Lock()
	defer m.Unlock()

	rm, err := r.load(ctx, roomKey)
	if err != nil {
		return room.Room{}, false, err
	}

	empty := rm.RemoveMember(username)
	if empty {
		if err := r.delete(ctx, roomKey); err != nil {
			return room.Room{}, false, err
		}
		return rm, true, nil
	}

	if err := r.save(ctx, roomKey, rm); err != nil {
		return room.Room{}, false, err
	}

	return rm, false, nil
}

func (r *repo) ApplyQueueUpdate(ctx context.Context, params *room.ApplyQueueUpdateParams) (room.Room, error) {
	m := r.lock(params.RoomKey)
	m.Lock()
	defer m.Unlock()

	rm, err := r.load(ctx, params.RoomKey)
	if err != nil {
		return room.Room{}, err
	}

	rm.ApplyQueueUpdate(params.Queue, params.Index)
	if err := r.save(ctx, params.RoomKey, rm); err != nil {
		return room.Room{}, err
	}

	return rm, nil
}

func (r *repo) ApplyPlay(ctx context.Context, roomKey string, time float64) error {
	return r.mutate(ctx, roomKey, func(rm *room.Room) { rm.ApplyPlay(time) })
}

func (r *repo) ApplyPause(ctx context.Context, roomKey string, time float64) error {
	return r.mutate(ctx, roomKey, func(rm *room.Room) { rm.ApplyPause(time) })
}

func (r *repo) ApplySeek(ctx context.Context, roomKey string, time float64) error {
	return r.mutate(ctx, roomKey, func(rm *room.Room) { rm.ApplySeek(time) })
}

func (r *repo) mutate(ctx context.Context, roomKey string, apply func(*room.Room)) error {
	m := r.lock(roomKey)
	m.Lock()
	defer m.Unlock()

	rm, err := r.load(ctx, roomKey)
	if err != nil {
		return err
	}

	apply(&rm)

	return r.save(ctx, roomKey, rm)
}

func (r *repo) Snapshot(ctx context.Context, roomKey string) (room.Room, error) {
	m := r.lock(roomKey)
	m.Lock()
	defer m.Unlock()

	return r.load(ctx, roomKey)
}
