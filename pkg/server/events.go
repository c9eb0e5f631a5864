package server

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"buckeuchre/pkg/game"
)

// GameEventType represents the type of game event
type GameEventType string

const (
	GameEventTypeGameCreated   GameEventType = "game_created"
	GameEventTypeBidPlaced     GameEventType = "bid_placed"
	GameEventTypeTrumpDeclared GameEventType = "trump_declared"
	GameEventTypeFoldDecided   GameEventType = "fold_decided"
	GameEventTypeCardPlayed    GameEventType = "card_played"
	GameEventTypeTrickShown    GameEventType = "trick_shown"
	GameEventTypeRoundFinished GameEventType = "round_finished"
	GameEventTypeRoundStarted  GameEventType = "round_started"
	GameEventTypeGameEnded     GameEventType = "game_ended"
	GameEventTypeSeatPresence  GameEventType = "seat_presence"
)

// GameEvent carries an immutable snapshot of a game for asynchronous fan-out.
// Engine states are never mutated after creation, so State is safe to share
// across workers without copying.
type GameEvent struct {
	Type      GameEventType
	GameID    string
	Seat      int // acting seat, or game.NoPosition
	State     *game.GameState
	Timestamp time.Time
}

// EventProcessor manages the processing of game events on a worker pool so
// that broadcasting and persistence never run under a game's lock.
type EventProcessor struct {
	server   *Server
	log      slog.Logger
	queue    chan *GameEvent
	workers  []*eventWorker
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// eventWorker processes events from the queue
type eventWorker struct {
	id        int
	processor *EventProcessor
	stopChan  chan struct{}
	wg        *sync.WaitGroup
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(server *Server, queueSize, workerCount int) *EventProcessor {
	processor := &EventProcessor{
		server:   server,
		log:      server.log,
		queue:    make(chan *GameEvent, queueSize),
		stopChan: make(chan struct{}),
	}

	processor.workers = make([]*eventWorker, workerCount)
	for i := 0; i < workerCount; i++ {
		processor.workers[i] = &eventWorker{
			id:        i,
			processor: processor,
			stopChan:  make(chan struct{}),
			wg:        &processor.wg,
		}
	}

	return processor
}

// Start begins processing events
func (ep *EventProcessor) Start() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.started {
		return
	}

	ep.started = true
	ep.log.Infof("Starting event processor with %d workers", len(ep.workers))

	for _, worker := range ep.workers {
		ep.wg.Add(1)
		go worker.run()
	}
}

// Stop gracefully stops the event processor
func (ep *EventProcessor) Stop() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.started {
		return
	}

	close(ep.stopChan)
	for _, worker := range ep.workers {
		close(worker.stopChan)
	}

	ep.wg.Wait()
	ep.started = false
	ep.log.Infof("Event processor stopped")
}

// PublishEvent publishes an event for processing
func (ep *EventProcessor) PublishEvent(event *GameEvent) {
	ep.mu.Lock()
	started := ep.started
	ep.mu.Unlock()

	if !started {
		ep.log.Warnf("Event processor not started, dropping event: %v", event.Type)
		return
	}

	select {
	case ep.queue <- event:
		ep.log.Debugf("Published event: %s for game %s (v%d)", event.Type, event.GameID, event.State.Version)
	default:
		ep.log.Errorf("Event queue full, dropping event: %s for game %s", event.Type, event.GameID)
	}
}

// run executes the worker loop
func (w *eventWorker) run() {
	defer w.wg.Done()
	w.processor.log.Debugf("Event worker %d started", w.id)

	for {
		select {
		case <-w.stopChan:
			return

		case <-w.processor.stopChan:
			return

		case event := <-w.processor.queue:
			if event != nil {
				w.processEvent(event)
			}
		}
	}
}

// processEvent processes a single event using all registered handlers
func (w *eventWorker) processEvent(event *GameEvent) {
	w.processor.log.Debugf("Worker %d processing event: %s for game %s", w.id, event.Type, event.GameID)

	w.processNotifications(event)
	w.processPersistence(event)
}

// processNotifications handles game state broadcasting for the event
func (w *eventWorker) processNotifications(event *GameEvent) {
	handler := NewNotificationHandler(w.processor.server)
	handler.HandleEvent(event)
}

// processPersistence handles state persistence for the event
func (w *eventWorker) processPersistence(event *GameEvent) {
	handler := NewPersistenceHandler(w.processor.server)
	handler.HandleEvent(event)
}
