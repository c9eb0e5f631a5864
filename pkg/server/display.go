package server

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"buckeuchre/pkg/game"
)

// DisplayScheduler freezes a just-completed trick in the rendered view while
// the authoritative state has already advanced. Each game has at most one
// pending overlay; scheduling a new one replaces any prior pending timer, and
// the fire callback runs exactly once. Cancellation after the callback has
// started is a no-op, never a double invoke.
type DisplayScheduler struct {
	log     slog.Logger
	mu      sync.Mutex
	nextGen uint64
	pending map[string]*pendingOverlay
}

type pendingOverlay struct {
	gen     uint64
	timer   *time.Timer
	overlay *game.GameState
}

// NewDisplayScheduler creates an empty scheduler.
func NewDisplayScheduler(log slog.Logger) *DisplayScheduler {
	return &DisplayScheduler{
		log:     log,
		pending: make(map[string]*pendingOverlay),
	}
}

// Schedule installs overlay as the game's rendered view and arranges for fire
// to run once delay elapses. Any previously pending overlay for the game is
// canceled first, so a game never has two timers in flight.
func (d *DisplayScheduler) Schedule(gameID string, overlay *game.GameState, delay time.Duration, fire func()) {
	d.mu.Lock()
	if prev, ok := d.pending[gameID]; ok {
		prev.timer.Stop()
		d.log.Debugf("display: superseding pending overlay for game %s", gameID)
	}
	d.nextGen++
	gen := d.nextGen
	p := &pendingOverlay{gen: gen, overlay: overlay}
	p.timer = time.AfterFunc(delay, func() {
		// Only the overlay that is still current may fire; a canceled or
		// superseded timer that squeaks through Stop is dropped here.
		d.mu.Lock()
		cur, ok := d.pending[gameID]
		if !ok || cur.gen != gen {
			d.mu.Unlock()
			return
		}
		delete(d.pending, gameID)
		d.mu.Unlock()
		fire()
	})
	d.pending[gameID] = p
	d.mu.Unlock()
}

// Cancel drops any pending overlay for the game without firing its callback.
func (d *DisplayScheduler) Cancel(gameID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[gameID]; ok {
		p.timer.Stop()
		delete(d.pending, gameID)
	}
}

// Overlay returns the game's pending display view, or nil when the rendered
// view should simply be the authoritative state.
func (d *DisplayScheduler) Overlay(gameID string) *game.GameState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[gameID]; ok {
		return p.overlay
	}
	return nil
}
