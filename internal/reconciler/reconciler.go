// Package reconciler converges a local media player onto the authoritative
// room record carried by queue-update and playback events. It owns the
// last-mile decisions the relay stays out of: when to reload, when to nudge
// the playhead, and when to stay silent about its own position.
package reconciler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viberoom/server/internal/domain"
	"github.com/viberoom/server/pkg/randstr"
)

type PlayerState int

const (
	StateIdle PlayerState = iota
	StatePlaying
	StatePaused
	StateEnded
)

// Player is the local playback surface the reconciler drives. Implementations
// wrap whatever embedded player the host app uses.
type Player interface {
	Load(videoID string, startAt float64)
	Play()
	Pause()
	SeekTo(t float64)
	CurrentTime() float64
	Duration() float64
	State() PlayerState
}

// Emitter sends an event toward the room. The reconciler fills the room key
// into every payload it emits.
type Emitter interface {
	Emit(event string, payload any) error
}

type Config struct {
	Room     string
	Identity string
	// DriftThreshold is the playhead divergence, in seconds, below which a
	// resync of the same video is skipped. Zero means the 1.0s default.
	DriftThreshold float64
	// SyncCooldown suppresses outgoing position events for this long after a
	// peer event has been applied, so the correction does not echo back as a
	// fresh command. Zero means the 1s default.
	SyncCooldown time.Duration
	Autoplay     bool
}

const guestAlphabet = "0123456789"

type Reconciler struct {
	mu sync.Mutex

	player  Player
	emitter Emitter

	room     string
	identity string

	driftThreshold float64
	syncCooldown   time.Duration
	autoplay       bool

	queue          []domain.QueueEntry
	currentIndex   int
	currentVideoID string

	// pendingTokens holds origin tokens of our own in-flight queue-updates;
	// the echoed rebroadcast consumes one instead of reloading the player.
	pendingTokens map[string]struct{}
	suppressUntil time.Time

	clock func() time.Time
}

func NewReconciler(player Player, emitter Emitter, cfg *Config) *Reconciler {
	identity := cfg.Identity
	if identity == "" {
		identity = "User" + randstr.New([]byte(guestAlphabet)).GenerateRandomString(4)
	}

	driftThreshold := cfg.DriftThreshold
	if driftThreshold == 0 {
		driftThreshold = 1.0
	}
	syncCooldown := cfg.SyncCooldown
	if syncCooldown == 0 {
		syncCooldown = time.Second
	}

	return &Reconciler{
		player:         player,
		emitter:        emitter,
		room:           cfg.Room,
		identity:       identity,
		driftThreshold: driftThreshold,
		syncCooldown:   syncCooldown,
		autoplay:       cfg.Autoplay,
		currentIndex:   -1,
		pendingTokens:  make(map[string]struct{}),
		clock:          time.Now,
	}
}

// Identity returns the name this reconciler joins and reacts as.
func (r *Reconciler) Identity() string {
	return r.identity
}

// ApplyQueueUpdate converges the player onto an authoritative queue-update.
// An event carrying one of our own origin tokens updates the bookkeeping but
// leaves the player alone: we already are where the event says.
func (r *Reconciler) ApplyQueueUpdate(ev domain.QueueUpdateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queue = ev.Queue
	r.currentIndex = ev.CurrentVideoIndex

	if ev.Origin != "" {
		if _, ours := r.pendingTokens[ev.Origin]; ours {
			delete(r.pendingTokens, ev.Origin)
			// no reload, but the echo still carries the resolved flag: the
			// registry may have flipped isPlaying behind our optimistic
			// local state
			if ev.IsPlaying {
				r.player.Play()
			} else {
				r.player.Pause()
			}
			return
		}
	}

	if len(ev.Queue) == 0 || ev.CurrentVideoIndex < 0 || ev.CurrentVideoIndex >= len(ev.Queue) {
		r.goIdle()
		return
	}

	entry := ev.Queue[ev.CurrentVideoIndex]
	if entry.VideoID == r.currentVideoID {
		if ev.CurrentTime != nil {
			if drift := r.player.CurrentTime() - *ev.CurrentTime; drift > r.driftThreshold || drift < -r.driftThreshold {
				r.player.SeekTo(*ev.CurrentTime)
			}
		}
	} else {
		startAt := 0.0
		if ev.CurrentTime != nil {
			startAt = *ev.CurrentTime
		}
		r.player.Load(entry.VideoID, startAt)
		r.currentVideoID = entry.VideoID
	}

	if ev.IsPlaying {
		r.player.Play()
	} else {
		r.player.Pause()
	}
	r.suppressUntil = r.clock().Add(r.syncCooldown)
}

// ApplyPlay reacts to a peer's play event. Our own events, echoed or relayed
// back, are ignored.
func (r *Reconciler) ApplyPlay(ev domain.PlaybackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Username == r.identity {
		return
	}

	if drift := r.player.CurrentTime() - ev.Time; drift > r.driftThreshold || drift < -r.driftThreshold {
		r.player.SeekTo(ev.Time)
	}
	r.player.Play()
	r.suppressUntil = r.clock().Add(r.syncCooldown)
}

func (r *Reconciler) ApplyPause(ev domain.PlaybackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Username == r.identity {
		return
	}

	r.player.Pause()
	if drift := r.player.CurrentTime() - ev.Time; drift > r.driftThreshold || drift < -r.driftThreshold {
		r.player.SeekTo(ev.Time)
	}
	r.suppressUntil = r.clock().Add(r.syncCooldown)
}

func (r *Reconciler) ApplySeek(ev domain.PlaybackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Username == r.identity {
		return
	}

	r.player.SeekTo(ev.Time)
	r.suppressUntil = r.clock().Add(r.syncCooldown)
}

// NotifyLocalPlay broadcasts a locally initiated play unless we are inside
// the cooldown window after applying a peer event.
func (r *Reconciler) NotifyLocalPlay(t float64) error {
	r.mu.Lock()
	if r.suppressed() {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.emitter.Emit(domain.EventPlay, domain.PlaybackEvent{
		Room:     r.room,
		Username: r.identity,
		Time:     t,
	})
}

func (r *Reconciler) NotifyLocalPause(t float64) error {
	r.mu.Lock()
	if r.suppressed() {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.emitter.Emit(domain.EventPause, domain.PlaybackEvent{
		Room:     r.room,
		Username: r.identity,
		Time:     t,
	})
}

func (r *Reconciler) NotifyLocalSeek(t float64) error {
	r.mu.Lock()
	if r.suppressed() {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.emitter.Emit(domain.EventSeek, domain.PlaybackEvent{
		Room:     r.room,
		Username: r.identity,
		Time:     t,
	})
}

// ProposeQueue pushes a locally edited queue to the room, tagged with a fresh
// origin token so the echoed rebroadcast does not reload our player.
func (r *Reconciler) ProposeQueue(queue []domain.QueueEntry, index int) error {
	r.mu.Lock()
	token := uuid.NewString()
	r.pendingTokens[token] = struct{}{}
	r.mu.Unlock()

	return r.emitter.Emit(domain.EventQueueUpdate, domain.QueueUpdateEvent{
		Room:              r.room,
		Queue:             queue,
		CurrentVideoIndex: index,
		Origin:            token,
	})
}

// OnPlaybackEnded advances to the next entry when autoplay is on and there is
// one, announcing the move to the room; otherwise the player goes idle.
func (r *Reconciler) OnPlaybackEnded() error {
	if !r.autoplay {
		r.mu.Lock()
		r.goIdle()
		r.mu.Unlock()
		return nil
	}

	return r.advance()
}

// OnPlaybackError skips a video the player cannot play. Unlike a natural end
// the skip happens even with autoplay off; staying stuck on a dead video
// helps nobody.
func (r *Reconciler) OnPlaybackError() error {
	r.mu.Lock()
	r.currentVideoID = ""
	r.mu.Unlock()

	return r.advance()
}

func (r *Reconciler) advance() error {
	r.mu.Lock()

	if r.currentIndex+1 < len(r.queue) {
		r.currentIndex++
		entry := r.queue[r.currentIndex]
		r.player.Load(entry.VideoID, 0)
		r.player.Play()
		r.currentVideoID = entry.VideoID
	} else {
		// end of the queue: the index stays put and the no-op announcement
		// below still goes out, so every member lands on the idle view
		r.goIdle()
	}

	token := uuid.NewString()
	r.pendingTokens[token] = struct{}{}
	queue := r.queue
	index := r.currentIndex
	r.mu.Unlock()

	return r.emitter.Emit(domain.EventQueueUpdate, domain.QueueUpdateEvent{
		Room:              r.room,
		Queue:             queue,
		CurrentVideoIndex: index,
		Origin:            token,
	})
}

// Queue returns the last applied queue and index.
func (r *Reconciler) Queue() ([]domain.QueueEntry, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.queue, r.currentIndex
}

func (r *Reconciler) suppressed() bool {
	return r.clock().Before(r.suppressUntil)
}

func (r *Reconciler) goIdle() {
	r.player.Pause()
	r.currentVideoID = ""
}
