package server

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"buckeuchre/pkg/game"
)

// WatchdogConfig holds configuration for the stalled-game watchdog.
type WatchdogConfig struct {
	// Interval between sweeps over the tracked games.
	Interval time.Duration
	// StuckThreshold is how long a game may sit in an action-requiring phase
	// with no recorded activity before recovery is attempted.
	StuckThreshold time.Duration
	// MaxAttempts bounds recovery attempts per stall; once exhausted the game
	// is left alone but stays flagged for manual intervention.
	MaxAttempts int
	// Cooldown is the minimum gap between two recovery attempts.
	Cooldown time.Duration
}

// Watchdog monitors all tracked games and invokes a recovery callback for
// any that have gone quiet in a phase that requires a player action. It never
// touches game state itself; recovery is expected to enqueue an action
// through the same serialized path as a normal player action.
type Watchdog struct {
	log slog.Logger
	cfg WatchdogConfig

	// phase reports the game's current phase; ok=false drops the entry.
	phase func(gameID string) (game.Phase, bool)
	// recover is invoked outside the watchdog lock for each stuck game.
	recover func(gameID string)

	mu      sync.Mutex
	entries map[string]*watchEntry

	quit    chan struct{}
	wg      sync.WaitGroup
	started bool
}

type watchEntry struct {
	lastActivity time.Time
	attempts     int
	lastAttempt  time.Time
	exhausted    bool
}

// NewWatchdog creates a watchdog. Zero config fields get working defaults.
func NewWatchdog(log slog.Logger, cfg WatchdogConfig, phase func(string) (game.Phase, bool), recover func(string)) *Watchdog {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.StuckThreshold == 0 {
		cfg.StuckThreshold = 30 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 10 * time.Second
	}
	return &Watchdog{
		log:     log,
		cfg:     cfg,
		phase:   phase,
		recover: recover,
		entries: make(map[string]*watchEntry),
		quit:    make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.quit:
				return
			case now := <-ticker.C:
				w.sweep(now)
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.quit)
	w.wg.Wait()
}

// RecordActivity marks the game as recently active, resetting any recovery
// attempt counting. Safe to call repeatedly and for unknown game ids.
func (w *Watchdog) RecordActivity(gameID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[gameID]
	if !ok {
		e = &watchEntry{}
		w.entries[gameID] = e
	}
	e.lastActivity = time.Now()
	e.attempts = 0
	e.exhausted = false
}

// Clear stops tracking a game. Idempotent.
func (w *Watchdog) Clear(gameID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, gameID)
}

// Flagged returns the ids of games whose recovery attempts are exhausted and
// which now need external intervention.
func (w *Watchdog) Flagged() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for id, e := range w.entries {
		if e.exhausted {
			out = append(out, id)
		}
	}
	return out
}

// sweep finds stuck games and triggers recovery for them. Recovery callbacks
// run after the lock is released so they can re-enter the normal action path.
func (w *Watchdog) sweep(now time.Time) {
	var stuck []string

	w.mu.Lock()
	for id, e := range w.entries {
		phase, ok := w.phase(id)
		if !ok {
			delete(w.entries, id)
			continue
		}
		if !phase.ActionRequired() {
			continue
		}
		if now.Sub(e.lastActivity) <= w.cfg.StuckThreshold {
			continue
		}
		if e.attempts >= w.cfg.MaxAttempts {
			if !e.exhausted {
				e.exhausted = true
				w.log.Warnf("game %s stuck in %s after %d recovery attempts; leaving for manual intervention", id, phase, e.attempts)
			}
			continue
		}
		if !e.lastAttempt.IsZero() && now.Sub(e.lastAttempt) < w.cfg.Cooldown {
			continue
		}
		e.attempts++
		e.lastAttempt = now
		w.log.Infof("game %s stuck in %s for %v; recovery attempt %d/%d", id, phase, now.Sub(e.lastActivity), e.attempts, w.cfg.MaxAttempts)
		stuck = append(stuck, id)
	}
	w.mu.Unlock()

	if w.recover == nil {
		return
	}
	for _, id := range stuck {
		w.recover(id)
	}
}
