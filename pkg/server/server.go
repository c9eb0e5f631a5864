package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/vctt94/bisonbotkit/logging"

	"buckeuchre/pkg/bot"
	"buckeuchre/pkg/game"
)

// ErrGameNotFound reports a lookup for a game id the server is not tracking.
// It is distinct from the engine's validation errors so callers can tell a
// missing game apart from a bad action within one.
var ErrGameNotFound = errors.New("game not found")

// Config holds server configuration.
type Config struct {
	// DisplayDelay is how long a completed trick stays on screen before the
	// next trick (or the round result) is shown.
	DisplayDelay time.Duration
	// Seed seeds the shuffle rng. Zero means time-based.
	Seed int64
	// EventQueueSize and EventWorkers size the async event pipeline.
	EventQueueSize int
	EventWorkers   int
	// Watchdog configures stalled-game recovery.
	Watchdog WatchdogConfig
}

// gameEntry pairs a game's authoritative state with the mutex that serializes
// all transitions on it. The state pointer is only ever swapped, never
// mutated, so readers may copy it out under the lock and use it freely after.
type gameEntry struct {
	mu    sync.Mutex
	state *game.GameState
}

// Server owns every running game. All transitions on one game are serialized
// through its entry mutex; snapshots handed out are immutable, so reads never
// contend with writes beyond the pointer swap.
type Server struct {
	log        slog.Logger
	logBackend *logging.LogBackend
	db         Database

	mu    sync.RWMutex
	games map[string]*gameEntry

	events      *EventProcessor
	display     *DisplayScheduler
	watchdog    *Watchdog
	broadcaster Broadcaster

	rngMu sync.Mutex
	rng   *rand.Rand

	displayDelay time.Duration

	// Per-game save mutexes keep async writes for one game ordered while
	// letting different games persist concurrently.
	saveMu      sync.Mutex
	saveMutexes map[string]*sync.Mutex
	saveWg      sync.WaitGroup
}

// NewServer creates a server, restores any persisted games, and starts the
// event pipeline and watchdog.
func NewServer(db Database, logBackend *logging.LogBackend, cfg Config) (*Server, error) {
	if cfg.DisplayDelay == 0 {
		cfg.DisplayDelay = 2 * time.Second
	}
	if cfg.EventQueueSize == 0 {
		cfg.EventQueueSize = 100
	}
	if cfg.EventWorkers == 0 {
		cfg.EventWorkers = 4
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log := logBackend.Logger("SERVER")
	s := &Server{
		log:          log,
		logBackend:   logBackend,
		db:           db,
		games:        make(map[string]*gameEntry),
		rng:          rand.New(rand.NewSource(seed)),
		displayDelay: cfg.DisplayDelay,
		saveMutexes:  make(map[string]*sync.Mutex),
	}
	s.display = NewDisplayScheduler(logBackend.Logger("DISP"))
	s.events = NewEventProcessor(s, cfg.EventQueueSize, cfg.EventWorkers)
	s.events.Start()
	s.watchdog = NewWatchdog(logBackend.Logger("WDOG"), cfg.Watchdog, s.gamePhase, s.recoverGame)

	if err := s.loadAllGames(); err != nil {
		return nil, err
	}

	s.watchdog.Start()
	return s, nil
}

// SetBroadcaster installs the transport fan-out. May be nil (headless runs).
func (s *Server) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Stop shuts down the watchdog and event pipeline and waits for in-flight
// saves to land. The database handle is left open for the caller to close.
func (s *Server) Stop() {
	s.watchdog.Stop()
	s.events.Stop()
	s.saveWg.Wait()
}

// CreateGame creates a new four-seat game and immediately deals the first
// round. The returned snapshot is in BIDDING (or PLAYING on dirty clubs).
func (s *Server) CreateGame(seats [game.NumSeats]game.Seat) (*game.GameState, error) {
	id := uuid.New().String()
	st := game.NewGameState(game.GameStateConfig{ID: id, Seats: seats})

	next, err := st.DealRound(s.shuffledDeck())
	if err != nil {
		return nil, fmt.Errorf("deal first round: %w", err)
	}

	entry := &gameEntry{state: next}
	s.mu.Lock()
	s.games[id] = entry
	s.mu.Unlock()

	s.watchdog.RecordActivity(id)
	s.publish(GameEventTypeGameCreated, id, game.NoPosition, next)
	s.log.Infof("Created game %s (dealer seat %d, round %d)", id, next.DealerPosition, next.Round)
	return next, nil
}

// Game returns the authoritative snapshot of a game.
func (s *Server) Game(gameID string) (*game.GameState, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	st := entry.state
	entry.mu.Unlock()
	return st, nil
}

// DisplayState returns the snapshot clients should render: the pending trick
// overlay when one is active, the authoritative state otherwise.
func (s *Server) DisplayState(gameID string) (*game.GameState, error) {
	if overlay := s.display.Overlay(gameID); overlay != nil {
		return overlay, nil
	}
	return s.Game(gameID)
}

// GameIDs returns the ids of all tracked games.
func (s *Server) GameIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	return ids
}

// RemoveGame drops a finished game from memory and storage.
func (s *Server) RemoveGame(gameID string) error {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()

	s.display.Cancel(gameID)
	s.watchdog.Clear(gameID)
	if err := s.db.DeleteGame(gameID); err != nil {
		return err
	}
	s.log.Infof("Removed game %s", gameID)
	return nil
}

// PlaceBid applies one seat's bid or pass. If the bid closes an all-pass
// cycle the next round is redealt immediately with the rotated dealer.
func (s *Server) PlaceBid(gameID string, seat, amount int) (*game.GameState, error) {
	return s.apply(gameID, seat, GameEventTypeBidPlaced, func(st *game.GameState) (*game.GameState, error) {
		next, err := st.ApplyBid(seat, amount)
		if err != nil {
			return nil, err
		}
		if next.Phase == game.PhaseDealing {
			s.log.Infof("Game %s: all four seats passed, redealing with dealer %d", gameID, next.DealerPosition)
			return next.DealRound(s.shuffledDeck())
		}
		return next, nil
	})
}

// DeclareTrump sets the trump suit for the round's winning bidder.
func (s *Server) DeclareTrump(gameID string, seat int, trump game.Suit) (*game.GameState, error) {
	return s.apply(gameID, seat, GameEventTypeTrumpDeclared, func(st *game.GameState) (*game.GameState, error) {
		return st.DeclareTrump(seat, trump)
	})
}

// DecideFold records one seat's stay-or-fold choice.
func (s *Server) DecideFold(gameID string, seat int, fold bool) (*game.GameState, error) {
	return s.apply(gameID, seat, GameEventTypeFoldDecided, func(st *game.GameState) (*game.GameState, error) {
		return st.DecideFold(seat, fold)
	})
}

// PlayCard plays a card from a seat's hand. When the play completes a trick
// the finished trick is held on screen for the display delay before the next
// state is shown; when it completes the round, scoring is applied after the
// same delay.
func (s *Server) PlayCard(gameID string, seat int, cardID string) (*game.GameState, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	prev := entry.state
	next, err := prev.PlayCard(seat, cardID)
	if err != nil {
		entry.mu.Unlock()
		s.reportError(gameID, prev, err)
		return nil, err
	}
	entry.state = next
	entry.mu.Unlock()

	s.watchdog.RecordActivity(gameID)

	if len(next.Tricks) == len(prev.Tricks) {
		// Mid-trick play, nothing to hold on screen.
		s.publish(GameEventTypeCardPlayed, gameID, seat, next)
		return next, nil
	}

	// The play completed a trick. Freeze the full trick (with its winner) in
	// the rendered view, then reveal the advanced state after the delay. A
	// finished round is scored from the timer as well, so the fifth trick
	// gets its moment before the totals change.
	completed := next.Tricks[len(next.Tricks)-1]
	overlay := next.DisplayOverride(completed)
	s.publish(GameEventTypeTrickShown, gameID, seat, overlay)
	s.display.Schedule(gameID, overlay, s.displayDelay, func() {
		s.publish(GameEventTypeCardPlayed, gameID, seat, next)
		if next.Phase == game.PhaseRoundOver {
			if _, err := s.finishRound(gameID); err != nil {
				s.log.Errorf("Game %s: finishing round after trick display: %v", gameID, err)
			}
		}
	})
	return next, nil
}

// StartNextRound begins the next round of a scored game, dealing immediately.
func (s *Server) StartNextRound(gameID string) (*game.GameState, error) {
	return s.apply(gameID, game.NoPosition, GameEventTypeRoundStarted, func(st *game.GameState) (*game.GameState, error) {
		next, err := st.StartNextRound()
		if err != nil {
			return nil, err
		}
		return next.DealRound(s.shuffledDeck())
	})
}

// SetSeatConnected updates a seat's presence flag.
func (s *Server) SetSeatConnected(gameID string, seat int, connected bool) (*game.GameState, error) {
	return s.apply(gameID, seat, GameEventTypeSeatPresence, func(st *game.GameState) (*game.GameState, error) {
		return st.MarkConnected(seat, connected)
	})
}

// finishRound applies round scoring, publishing either round_finished or
// game_ended depending on the outcome.
func (s *Server) finishRound(gameID string) (*game.GameState, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	prev := entry.state
	next, err := prev.FinishRound()
	if err != nil {
		entry.mu.Unlock()
		s.reportError(gameID, prev, err)
		return nil, err
	}
	entry.state = next
	entry.mu.Unlock()

	s.watchdog.RecordActivity(gameID)
	if next.GameOver {
		s.watchdog.Clear(gameID)
		s.publish(GameEventTypeGameEnded, gameID, game.NoPosition, next)
		s.log.Infof("Game %s over: seat %d wins with score %d", gameID, next.Winner, scoreAt(next, next.Winner))
	} else {
		s.publish(GameEventTypeRoundFinished, gameID, game.NoPosition, next)
		s.log.Infof("Game %s: round %d scored", gameID, next.Round)
	}
	return next, nil
}

// apply runs one serialized transition on a game and publishes the result.
func (s *Server) apply(gameID string, seat int, eventType GameEventType, fn func(*game.GameState) (*game.GameState, error)) (*game.GameState, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	prev := entry.state
	next, err := fn(prev)
	if err != nil {
		entry.mu.Unlock()
		s.reportError(gameID, prev, err)
		return nil, err
	}
	entry.state = next
	entry.mu.Unlock()

	s.watchdog.RecordActivity(gameID)
	s.publish(eventType, gameID, seat, next)
	return next, nil
}

// entry looks up a game's entry.
func (s *Server) entry(gameID string) (*gameEntry, error) {
	s.mu.RLock()
	entry, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	return entry, nil
}

// gamePhase reports a game's current phase for the watchdog.
func (s *Server) gamePhase(gameID string) (game.Phase, bool) {
	entry, err := s.entry(gameID)
	if err != nil {
		return "", false
	}
	entry.mu.Lock()
	phase := entry.state.Phase
	entry.mu.Unlock()
	return phase, true
}

// reportError logs a rejected transition. Validation failures are routine and
// logged quietly; structural failures mean an internal invariant broke and the
// full state is dumped for diagnosis.
func (s *Server) reportError(gameID string, st *game.GameState, err error) {
	if game.IsStructural(err) {
		s.log.Errorf("Structural failure in game %s: %v\nstate: %s", gameID, err, spew.Sdump(st))
		return
	}
	s.log.Debugf("Game %s: rejected action: %v", gameID, err)
}

// publish enqueues an event for async broadcast and persistence.
func (s *Server) publish(eventType GameEventType, gameID string, seat int, st *game.GameState) {
	s.events.PublishEvent(&GameEvent{
		Type:      eventType,
		GameID:    gameID,
		Seat:      seat,
		State:     st,
		Timestamp: time.Now(),
	})
}

// shuffledDeck returns a fresh shuffled deck from the server rng.
func (s *Server) shuffledDeck() []game.Card {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return game.ShuffleDeck(game.NewDeck(), s.rng)
}

// recoverGame is the watchdog's recovery hook: it asks the bot policy for a
// legal action on behalf of the seat the game is waiting on and dispatches it
// through the normal action path.
func (s *Server) recoverGame(gameID string) {
	st, err := s.Game(gameID)
	if err != nil {
		return
	}

	action, ok := bot.Suggest(st)
	if !ok {
		s.log.Warnf("Game %s: no recovery action available in phase %s", gameID, st.Phase)
		return
	}

	s.log.Infof("Game %s: recovering seat %d with %s", gameID, action.Seat, action.Kind)
	switch action.Kind {
	case bot.ActionBid:
		_, err = s.PlaceBid(gameID, action.Seat, action.Amount)
	case bot.ActionDeclareTrump:
		_, err = s.DeclareTrump(gameID, action.Seat, action.Trump)
	case bot.ActionFold:
		_, err = s.DecideFold(gameID, action.Seat, action.Fold)
	case bot.ActionPlayCard:
		_, err = s.PlayCard(gameID, action.Seat, action.CardID)
	}
	if err != nil {
		s.log.Errorf("Game %s: recovery action failed: %v", gameID, err)
	}
}

// saveGameStateAsync persists the game's current snapshot without blocking
// the caller. Saves for one game are ordered by a per-game mutex; the version
// guard in the store drops anything that still lands out of order.
func (s *Server) saveGameStateAsync(gameID, reason string) {
	entry, err := s.entry(gameID)
	if err != nil {
		return
	}
	entry.mu.Lock()
	st := entry.state
	entry.mu.Unlock()

	s.saveWg.Add(1)
	go func() {
		defer s.saveWg.Done()

		mu := s.saveMutex(gameID)
		mu.Lock()
		defer mu.Unlock()

		payload, err := json.Marshal(st)
		if err != nil {
			s.log.Errorf("Failed to marshal game %s for save (%s): %v", gameID, reason, err)
			return
		}
		if err := s.db.SaveGame(st.ID, st.Version, string(st.Phase), payload, st.UpdatedAt); err != nil {
			s.log.Errorf("Failed to save game %s (%s): %v", gameID, reason, err)
			return
		}
		s.log.Debugf("Saved game %s v%d (%s)", gameID, st.Version, reason)
	}()
}

// saveMutex returns the per-game save mutex, creating it on first use.
func (s *Server) saveMutex(gameID string) *sync.Mutex {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	mu, ok := s.saveMutexes[gameID]
	if !ok {
		mu = &sync.Mutex{}
		s.saveMutexes[gameID] = mu
	}
	return mu
}

// loadAllGames restores persisted games on startup. Finished games are left
// in storage but not tracked for play.
func (s *Server) loadAllGames() error {
	ids, err := s.db.ListGameIDs()
	if err != nil {
		return fmt.Errorf("failed to list persisted games: %w", err)
	}
	if len(ids) == 0 {
		s.log.Infof("No persisted games found")
		return nil
	}

	loaded := 0
	for _, id := range ids {
		payload, err := s.db.LoadGame(id)
		if err != nil {
			s.log.Errorf("Failed to load game %s: %v", id, err)
			continue
		}
		var st game.GameState
		if err := json.Unmarshal(payload, &st); err != nil {
			s.log.Errorf("Failed to decode game %s: %v", id, err)
			continue
		}
		if st.GameOver {
			continue
		}

		s.mu.Lock()
		s.games[id] = &gameEntry{state: &st}
		s.mu.Unlock()
		s.watchdog.RecordActivity(id)
		loaded++
		s.log.Infof("Restored game %s at v%d in %s", id, st.Version, st.Phase)

		// Scoring normally runs from the display timer after the fifth
		// trick; a crash in that window persists an unscored ROUND_OVER
		// state no action can advance. Score it now so the game is live
		// again.
		if st.Phase == game.PhaseRoundOver && !st.RoundScored {
			s.log.Infof("Game %s restored with an unscored round; scoring it", id)
			if _, err := s.finishRound(id); err != nil {
				s.log.Errorf("Failed to score restored game %s: %v", id, err)
			}
		}
	}
	s.log.Infof("Restored %d of %d persisted games", loaded, len(ids))
	return nil
}

// scoreAt returns a seat's score, or 0 for an unknown seat.
func scoreAt(st *game.GameState, seat int) int {
	p, err := st.PlayerAt(seat)
	if err != nil {
		return 0
	}
	return p.Score
}
