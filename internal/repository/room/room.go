// Package room defines the authoritative per-room record and the state
// transitions the registry implementations apply under their own locking.
package room

import (
	"slices"

	"github.com/viberoom/server/internal/domain"
)

// Room is the authoritative state of one active room. CurrentVideoIndex is
// −1 when nothing is selected; otherwise the registry keeps it clamped into
// the queue bounds on every update.
type Room struct {
	Users             []string            `json:"users"`
	Queue             []domain.QueueEntry `json:"queue"`
	CurrentVideoIndex int                 `json:"currentVideoIndex"`
	CurrentTime       float64             `json:"currentTime"`
	IsPlaying         bool                `json:"isPlaying"`
}

func NewRoom() Room {
	return Room{
		Users:             []string{},
		Queue:             []domain.QueueEntry{},
		CurrentVideoIndex: -1,
	}
}

// Clone returns a deep copy safe to hand out past the registry boundary.
func (rm Room) Clone() Room {
	c := rm
	c.Users = slices.Clone(rm.Users)
	c.Queue = slices.Clone(rm.Queue)
	return c
}

// ApplyQueueUpdate replaces the queue, clamps the index into
// [−1, len(queue)−1] and flips IsPlaying on when the queue becomes non-empty
// while paused, so a room with content is assumed playing unless explicitly
// paused.
func (rm *Room) ApplyQueueUpdate(queue []domain.QueueEntry, index int) {
	if queue == nil {
		queue = []domain.QueueEntry{}
	}
	rm.Queue = queue

	if index < -1 {
		index = -1
	}
	if index >= len(queue) {
		index = len(queue) - 1
	}
	rm.CurrentVideoIndex = index

	if len(queue) > 0 && !rm.IsPlaying {
		rm.IsPlaying = true
	}
}

func (rm *Room) ApplyPlay(time float64) {
	rm.CurrentTime = time
	rm.IsPlaying = true
}

func (rm *Room) ApplyPause(time float64) {
	rm.CurrentTime = time
	rm.IsPlaying = false
}

func (rm *Room) ApplySeek(time float64) {
	rm.CurrentTime = time
}

// AddMember appends the identity. Identities are not deduplicated; a
// reconnect under the same name yields two entries.
func (rm *Room) AddMember(username string) {
	rm.Users = append(rm.Users, username)
}

// RemoveMember drops the first occurrence of the identity and reports
// whether the room is empty afterwards.
func (rm *Room) RemoveMember(username string) bool {
	if i := slices.Index(rm.Users, username); i >= 0 {
		rm.Users = slices.Delete(rm.Users, i, i+1)
	}

	return len(rm.Users) == 0
}
