// Package inmemory is the default room registry: every room lives behind its
// own mutex in a process-local map, so operations on distinct room keys never
// block one another while same-room operations are serialized.
package inmemory

import (
	"context"
	"sync"

	"github.com/viberoom/server/internal/repository/room"
)

type record struct {
	mu   sync.Mutex
	room room.Room
}

type repo struct {
	mu    sync.RWMutex
	rooms map[string]*record
}

func NewRepo() *repo {
	return &repo{rooms: make(map[string]*record)}
}

func (r *repo) getOrCreate(roomKey string) *record {
	r.mu.RLock()
	rec, ok := r.rooms[roomKey]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.rooms[roomKey]; ok {
		return rec
	}

	rec = &record{room: room.NewRoom()}
	r.rooms[roomKey] = rec

	return rec
}

func (r *repo) GetOrCreate(_ context.Context, roomKey string) (room.Room, error) {
	rec := r.getOrCreate(roomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.room.Clone(), nil
}

// AddMember admits the identity unless the limit is already reached. The
// check and the add run under the room lock, so racing joins cannot both
// slip past the limit.
func (r *repo) AddMember(_ context.Context, roomKey, username string, limit int) (room.Room, bool, error) {
	rec := r.getOrCreate(roomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if limit > 0 && len(rec.room.Users) >= limit {
		return rec.room.Clone(), false, nil
	}
	rec.room.AddMember(username)

	return rec.room.Clone(), true, nil
}

// RemoveMember drops one occurrence of the identity and deletes the room
// entirely when its member set becomes empty. The second return value
// reports the deletion.
func (r *repo) RemoveMember(_ context.Context, roomKey, username string) (room.Room, bool, error) {
	r.mu.RLock()
	rec, ok := r.rooms[roomKey]
	r.mu.RUnlock()
	if !ok {
		return room.NewRoom(), false, nil
	}

	rec.mu.Lock()
	empty := rec.room.RemoveMember(username)
	snapshot := rec.room.Clone()
	rec.mu.Unlock()

	if empty {
		r.mu.Lock()
		if r.rooms[roomKey] == rec {
			delete(r.rooms, roomKey)
		}
		r.mu.Unlock()
	}

	return snapshot, empty, nil
}

func (r *repo) ApplyQueueUpdate(_ context.Context, params *room.ApplyQueueUpdateParams) (room.Room, error) {
	rec := r.getOrCreate(params.RoomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.room.ApplyQueueUpdate(params.Queue, params.Index)

	return rec.room.Clone(), nil
}

func (r *repo) ApplyPlay(_ context.Context, roomKey string, time float64) error {
	rec := r.getOrCreate(roomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.room.ApplyPlay(time)

	return nil
}

func (r *repo) ApplyPause(_ context.Context, roomKey string, time float64) error {
	rec := r.getOrCreate(roomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.room.ApplyPause(time)

	return nil
}

func (r *repo) ApplySeek(_ context.Context, roomKey string, time float64) error {
	rec := r.getOrCreate(roomKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.room.ApplySeek(time)

	return nil
}

// Snapshot returns the current record, or empty defaults for an unknown key.
func (r *repo) Snapshot(_ context.Context, roomKey string) (room.Room, error) {
	r.mu.RLock()
	rec, ok := r.rooms[roomKey]
	r.mu.RUnlock()
	if !ok {
		return room.NewRoom(), nil
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.room.Clone(), nil
}
