package game

import (
	"fmt"
	"time"

	"buckeuchre/pkg/statemachine"
)

const (
	// NumSeats is the fixed number of players in a game.
	NumSeats = 4
	// HandSize is the number of cards dealt to each seat per round.
	HandSize = 5
	// TricksPerRound is the number of tricks in a completed round.
	TricksPerRound = 5
)

// Phase identifies where a game is in its lifecycle.
type Phase string

const (
	PhaseDealing         Phase = "DEALING"
	PhaseBidding         Phase = "BIDDING"
	PhaseDeclaringTrump  Phase = "DECLARING_TRUMP"
	PhaseFoldingDecision Phase = "FOLDING_DECISION"
	PhasePlaying         Phase = "PLAYING"
	PhaseRoundOver       Phase = "ROUND_OVER"
	PhaseGameOver        Phase = "GAME_OVER"
)

// ActionRequired reports whether the phase needs a player action to progress.
func (p Phase) ActionRequired() bool {
	switch p {
	case PhaseBidding, PhaseDeclaringTrump, PhaseFoldingDecision, PhasePlaying:
		return true
	}
	return false
}

// PhaseTransitions is the legal phase graph. Every transition function
// consults it before committing a phase change; DEALING -> PLAYING is the
// dirty-clubs short-circuit.
var PhaseTransitions = statemachine.New[Phase]().
	Allow(PhaseDealing, PhaseBidding, PhasePlaying).
	Allow(PhaseBidding, PhaseBidding, PhaseDeclaringTrump, PhaseDealing).
	Allow(PhaseDeclaringTrump, PhaseFoldingDecision).
	Allow(PhaseFoldingDecision, PhaseFoldingDecision, PhasePlaying).
	Allow(PhasePlaying, PhasePlaying, PhaseRoundOver).
	Allow(PhaseRoundOver, PhaseRoundOver, PhaseGameOver, PhaseDealing)

// FoldDecision tracks a seat's stay-or-fold choice for the current round. It
// moves from undecided to a final value exactly once per round.
type FoldDecision string

const (
	FoldUndecided FoldDecision = "UNDECIDED"
	FoldFold      FoldDecision = "FOLD"
	FoldStay      FoldDecision = "STAY"
)

// Player is one seat's state. Position is fixed for the life of the game and
// all scoring and trick resolution keys on it, never on slice order.
type Player struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Position     int          `json:"position"`
	Score        int          `json:"score"`
	Connected    bool         `json:"connected"`
	Hand         []Card       `json:"hand"`
	HandCount    int          `json:"handCount"`
	TricksTaken  int          `json:"tricksTaken"`
	Folded       bool         `json:"folded"`
	FoldDecision FoldDecision `json:"foldDecision"`
}

// Bid records one seat's bid or pass. Amount is BidPass or MinBid..MaxBid.
type Bid struct {
	Position int `json:"position"`
	Amount   int `json:"amount"`
}

// Seat names a participant for game creation.
type Seat struct {
	PlayerID string
	Name     string
}

// GameStateConfig configures NewGameState.
type GameStateConfig struct {
	ID    string
	Seats [NumSeats]Seat
	// Dealer forces the first dealer seat. This is a test affordance;
	// production callers leave it at the zero value.
	Dealer int
}

// GameState is the aggregate root: one immutable snapshot of a game. Every
// transition returns a new value with Version bumped; the receiver is never
// mutated, so concurrent readers can hold a snapshot safely.
type GameState struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`

	Players []*Player `json:"players"`

	Round          int    `json:"round"`
	DealerPosition int    `json:"dealerPosition"`
	Blind          []Card `json:"blind"`
	TurnUpCard     *Card  `json:"turnUpCard,omitempty"`
	IsClubsTurnUp  bool   `json:"isClubsTurnUp"`

	Bids                  []Bid `json:"bids"`
	CurrentBidder         int   `json:"currentBidder"`
	HighestBid            int   `json:"highestBid"`
	WinningBidderPosition int   `json:"winningBidderPosition"`

	TrumpSuit    Suit    `json:"trumpSuit,omitempty"`
	Tricks       []Trick `json:"tricks"`
	CurrentTrick *Trick  `json:"currentTrick,omitempty"`

	CurrentPlayerPosition int `json:"currentPlayerPosition"`

	RoundScored bool `json:"roundScored"`
	Winner      int  `json:"winner"`
	GameOver    bool `json:"gameOver"`
}

// NewGameState creates a fresh game at version 1 in the DEALING phase. All
// four seats start at StartingScore.
func NewGameState(cfg GameStateConfig) *GameState {
	s := &GameState{
		ID:                    cfg.ID,
		Phase:                 PhaseDealing,
		Version:               1,
		UpdatedAt:             time.Now(),
		Players:               make([]*Player, NumSeats),
		Round:                 0,
		DealerPosition:        cfg.Dealer % NumSeats,
		CurrentBidder:         NoPosition,
		WinningBidderPosition: NoPosition,
		CurrentPlayerPosition: NoPosition,
		Winner:                NoPosition,
	}
	for i := range s.Players {
		s.Players[i] = &Player{
			ID:           cfg.Seats[i].PlayerID,
			Name:         cfg.Seats[i].Name,
			Position:     i,
			Score:        StartingScore,
			Connected:    true,
			FoldDecision: FoldUndecided,
		}
	}
	return s
}

// PlayerAt returns the player occupying a seat.
func (s *GameState) PlayerAt(position int) (*Player, error) {
	if position < 0 || position >= NumSeats {
		return nil, fmt.Errorf("seat %d: %w", position, ErrPlayerNotFound)
	}
	if p := playerAt(s.Players, position); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("seat %d: %w", position, ErrPlayerNotFound)
}

// ActiveSeats returns the positions still in the current round, ascending.
func (s *GameState) ActiveSeats() []int {
	seats := make([]int, 0, NumSeats)
	for pos := 0; pos < NumSeats; pos++ {
		if p := playerAt(s.Players, pos); p != nil && !p.Folded {
			seats = append(seats, pos)
		}
	}
	return seats
}

// nextActiveSeat returns the first non-folded seat clockwise after from.
func (s *GameState) nextActiveSeat(from int) int {
	for i := 1; i <= NumSeats; i++ {
		pos := (from + i) % NumSeats
		if p := playerAt(s.Players, pos); p != nil && !p.Folded {
			return pos
		}
	}
	return NoPosition
}

// leftOf returns the seat clockwise of the given seat.
func leftOf(position int) int {
	return (position + 1) % NumSeats
}

// clone produces a deep copy; transitions mutate the copy, never the receiver.
func (s *GameState) clone() *GameState {
	n := *s
	n.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand = append([]Card(nil), p.Hand...)
		n.Players[i] = &cp
	}
	n.Blind = append([]Card(nil), s.Blind...)
	if s.TurnUpCard != nil {
		c := *s.TurnUpCard
		n.TurnUpCard = &c
	}
	n.Bids = append([]Bid(nil), s.Bids...)
	n.Tricks = make([]Trick, len(s.Tricks))
	for i, t := range s.Tricks {
		n.Tricks[i] = t
		n.Tricks[i].Cards = append([]PlayedCard(nil), t.Cards...)
	}
	if s.CurrentTrick != nil {
		t := *s.CurrentTrick
		t.Cards = append([]PlayedCard(nil), s.CurrentTrick.Cards...)
		n.CurrentTrick = &t
	}
	return &n
}

// requirePhase rejects an action attempted outside its phase.
func (s *GameState) requirePhase(want Phase) error {
	if s.Phase != want {
		return fmt.Errorf("in %s, action requires %s: %w", s.Phase, want, ErrInvalidPhaseTransition)
	}
	return nil
}

// shift moves the clone n to a new phase, enforcing the legal phase graph.
func (s *GameState) shift(n *GameState, to Phase) error {
	if !PhaseTransitions.Can(s.Phase, to) {
		return fmt.Errorf("%s -> %s: %w", s.Phase, to, ErrInvalidPhaseTransition)
	}
	n.Phase = to
	return nil
}

// commit stamps an accepted transition: versions strictly increase.
func (n *GameState) commit() *GameState {
	n.Version++
	n.UpdatedAt = time.Now()
	return n
}

// DealRound deals an already-shuffled 24-card deck, resets all round-scoped
// state, and moves to BIDDING with the seat left of the dealer bidding first.
// If the turn-up card is a club the round is "dirty clubs": bidding is skipped
// entirely, trump is clubs, the seat left of the dealer leads, and every seat
// is forced to stay.
func (s *GameState) DealRound(deck []Card) (*GameState, error) {
	if err := s.requirePhase(PhaseDealing); err != nil {
		return nil, err
	}
	hands, blind, err := Deal(deck)
	if err != nil {
		return nil, err
	}

	n := s.clone()
	n.Round++
	for _, p := range n.Players {
		p.Hand = hands[p.Position]
		p.HandCount = len(p.Hand)
		p.TricksTaken = 0
		p.Folded = false
		p.FoldDecision = FoldUndecided
	}
	n.Blind = blind
	turnUp := blind[0]
	n.TurnUpCard = &turnUp
	n.IsClubsTurnUp = turnUp.Suit == Clubs
	n.Bids = nil
	n.CurrentBidder = NoPosition
	n.HighestBid = 0
	n.WinningBidderPosition = NoPosition
	n.TrumpSuit = ""
	n.Tricks = nil
	n.CurrentTrick = nil
	n.RoundScored = false

	first := leftOf(n.DealerPosition)
	if n.IsClubsTurnUp {
		// Dirty clubs: no bids, forced trump, nobody may fold.
		n.TrumpSuit = Clubs
		n.WinningBidderPosition = first
		for _, p := range n.Players {
			p.FoldDecision = FoldStay
		}
		n.CurrentTrick = &Trick{Number: 1, LeadPosition: first, Winner: NoPosition}
		n.CurrentPlayerPosition = first
		if err := s.shift(n, PhasePlaying); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	n.CurrentBidder = first
	n.CurrentPlayerPosition = first
	if err := s.shift(n, PhaseBidding); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// ApplyBid records one seat's bid or pass. A numeric bid must be within
// MinBid..MaxBid and exceed the current highest bid. When the fourth bid
// completes the cycle the game moves to DECLARING_TRUMP, or back to DEALING
// with the deal rotated if all four passed.
func (s *GameState) ApplyBid(position, amount int) (*GameState, error) {
	if err := s.requirePhase(PhaseBidding); err != nil {
		return nil, err
	}
	if _, err := s.PlayerAt(position); err != nil {
		return nil, err
	}
	if position != s.CurrentBidder {
		return nil, fmt.Errorf("seat %d bid out of turn (bidder is %d): %w", position, s.CurrentBidder, ErrNotYourTurn)
	}
	if amount != BidPass {
		if amount < MinBid || amount > MaxBid {
			return nil, fmt.Errorf("bid %d out of range [%d,%d]: %w", amount, MinBid, MaxBid, ErrInvalidBid)
		}
		if amount <= s.HighestBid {
			return nil, fmt.Errorf("bid %d does not beat current high %d: %w", amount, s.HighestBid, ErrInvalidBid)
		}
	}

	n := s.clone()
	n.Bids = append(n.Bids, Bid{Position: position, Amount: amount})
	if amount != BidPass {
		n.HighestBid = amount
		n.WinningBidderPosition = position
	}

	if len(n.Bids) < NumSeats {
		n.CurrentBidder = leftOf(position)
		n.CurrentPlayerPosition = n.CurrentBidder
		if err := s.shift(n, PhaseBidding); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	// Bidding cycle complete.
	n.CurrentBidder = NoPosition
	if n.WinningBidderPosition != NoPosition {
		n.CurrentPlayerPosition = n.WinningBidderPosition
		if err := s.shift(n, PhaseDeclaringTrump); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	// All four passed: rotate the deal and require a fresh deal. The round
	// counter only advances once cards are actually dealt again.
	n.DealerPosition = leftOf(n.DealerPosition)
	n.Round--
	n.CurrentPlayerPosition = NoPosition
	if err := s.shift(n, PhaseDealing); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// DeclareTrump sets the trump suit. Only the winning bidder may declare; the
// bidder is committed to the hand, so their fold decision is forced to stay
// and the game moves to FOLDING_DECISION for the other seats.
func (s *GameState) DeclareTrump(position int, trump Suit) (*GameState, error) {
	if err := s.requirePhase(PhaseDeclaringTrump); err != nil {
		return nil, err
	}
	if _, err := s.PlayerAt(position); err != nil {
		return nil, err
	}
	if position != s.WinningBidderPosition {
		return nil, fmt.Errorf("seat %d is not the winning bidder: %w", position, ErrNotYourTurn)
	}
	if !ValidSuit(trump) {
		return nil, fmt.Errorf("unknown trump suit %q: %w", trump, ErrInvalidBid)
	}

	n := s.clone()
	n.TrumpSuit = trump
	bidder := playerAt(n.Players, position)
	bidder.FoldDecision = FoldStay
	n.CurrentPlayerPosition = n.nextUndecided(position)
	if err := s.shift(n, PhaseFoldingDecision); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// nextUndecided returns the first seat clockwise after from whose fold
// decision is still pending, or NoPosition.
func (s *GameState) nextUndecided(from int) int {
	for i := 1; i <= NumSeats; i++ {
		pos := (from + i) % NumSeats
		if p := playerAt(s.Players, pos); p != nil && p.FoldDecision == FoldUndecided {
			return pos
		}
	}
	return NoPosition
}

// DecideFold records a non-bidder seat's stay-or-fold choice. Each seat
// decides exactly once per round; when the last pending seat decides, play
// begins with the winning bidder leading trick 1.
func (s *GameState) DecideFold(position int, folded bool) (*GameState, error) {
	if err := s.requirePhase(PhaseFoldingDecision); err != nil {
		return nil, err
	}
	p, err := s.PlayerAt(position)
	if err != nil {
		return nil, err
	}
	if position == s.WinningBidderPosition {
		return nil, fmt.Errorf("the winning bidder cannot fold: %w", ErrNotYourTurn)
	}
	if p.FoldDecision != FoldUndecided {
		return nil, fmt.Errorf("seat %d already decided %s: %w", position, p.FoldDecision, ErrAlreadyDecided)
	}

	n := s.clone()
	np := playerAt(n.Players, position)
	if folded {
		np.FoldDecision = FoldFold
		np.Folded = true
	} else {
		np.FoldDecision = FoldStay
	}

	if next := n.nextUndecided(position); next != NoPosition {
		n.CurrentPlayerPosition = next
		if err := s.shift(n, PhaseFoldingDecision); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	n.CurrentTrick = &Trick{Number: 1, LeadPosition: n.WinningBidderPosition, Winner: NoPosition}
	n.CurrentPlayerPosition = n.WinningBidderPosition
	if err := s.shift(n, PhasePlaying); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// PlayCard plays the identified card from a seat's hand into the current
// trick. The led suit must be followed when the hand allows it (left bower
// counts as trump throughout). A trick completes once every active seat has
// played; the winner leads the next trick, and after the fifth trick the
// round is over.
func (s *GameState) PlayCard(position int, cardID string) (*GameState, error) {
	if err := s.requirePhase(PhasePlaying); err != nil {
		return nil, err
	}
	p, err := s.PlayerAt(position)
	if err != nil {
		return nil, err
	}
	if position != s.CurrentPlayerPosition {
		return nil, fmt.Errorf("seat %d played out of turn (turn is %d): %w", position, s.CurrentPlayerPosition, ErrNotYourTurn)
	}

	cardIdx := -1
	for i, c := range p.Hand {
		if c.ID() == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return nil, fmt.Errorf("card %s not held by seat %d: %w", cardID, position, ErrCardNotInHand)
	}
	card := p.Hand[cardIdx]

	if led := s.CurrentTrick.LedSuit(s.TrumpSuit); led != "" {
		if EffectiveSuit(card, s.TrumpSuit) != led && s.holdsSuit(p, led) {
			return nil, fmt.Errorf("must follow %s: %w", led, ErrMustFollowSuit)
		}
	}

	n := s.clone()
	np := playerAt(n.Players, position)
	np.Hand = append(np.Hand[:cardIdx:cardIdx], np.Hand[cardIdx+1:]...)
	np.HandCount = len(np.Hand)
	n.CurrentTrick.Cards = append(n.CurrentTrick.Cards, PlayedCard{Card: card, Position: position})

	active := n.ActiveSeats()
	if len(n.CurrentTrick.Cards) < len(active) {
		n.CurrentPlayerPosition = n.nextActiveSeat(position)
		if err := s.shift(n, PhasePlaying); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	// Trick complete: resolve it and either start the next or end the round.
	winner, err := TrickWinner(*n.CurrentTrick, n.TrumpSuit, active)
	if err != nil {
		return nil, err
	}
	n.CurrentTrick.Winner = winner
	playerAt(n.Players, winner).TricksTaken++
	n.Tricks = append(n.Tricks, *n.CurrentTrick)

	if len(n.Tricks) >= TricksPerRound {
		n.CurrentTrick = nil
		n.CurrentPlayerPosition = NoPosition
		if err := s.shift(n, PhaseRoundOver); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	n.CurrentTrick = &Trick{Number: len(n.Tricks) + 1, LeadPosition: winner, Winner: NoPosition}
	n.CurrentPlayerPosition = winner
	if err := s.shift(n, PhasePlaying); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// holdsSuit reports whether the player holds any card of the given effective suit.
func (s *GameState) holdsSuit(p *Player, suit Suit) bool {
	for _, c := range p.Hand {
		if EffectiveSuit(c, s.TrumpSuit) == suit {
			return true
		}
	}
	return false
}

// FinishRound applies round scoring once and evaluates the win condition,
// moving to terminal GAME_OVER when a seat has reached zero or below.
func (s *GameState) FinishRound() (*GameState, error) {
	if err := s.requirePhase(PhaseRoundOver); err != nil {
		return nil, err
	}
	if s.RoundScored {
		return nil, fmt.Errorf("round %d already scored: %w", s.Round, ErrInvalidPhaseTransition)
	}

	bidder := s.WinningBidderPosition
	if s.IsClubsTurnUp {
		bidder = NoPosition
	}
	deltas, err := RoundScores(s.Players, bidder, s.HighestBid, s.IsClubsTurnUp)
	if err != nil {
		return nil, err
	}

	n := s.clone()
	for _, p := range n.Players {
		p.Score += deltas[p.Position]
	}
	n.RoundScored = true

	if winner, over := CheckWinCondition(n.Players); over {
		n.Winner = winner
		n.GameOver = true
		if err := s.shift(n, PhaseGameOver); err != nil {
			return nil, err
		}
		return n.commit(), nil
	}

	if err := s.shift(n, PhaseRoundOver); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// StartNextRound rotates the dealer and returns to DEALING for the next hand.
// It is only legal from a scored ROUND_OVER state.
func (s *GameState) StartNextRound() (*GameState, error) {
	if err := s.requirePhase(PhaseRoundOver); err != nil {
		return nil, err
	}
	if !s.RoundScored {
		return nil, fmt.Errorf("round %d not yet scored: %w", s.Round, ErrInvalidPhaseTransition)
	}

	n := s.clone()
	n.DealerPosition = leftOf(n.DealerPosition)
	n.CurrentPlayerPosition = NoPosition
	if err := s.shift(n, PhaseDealing); err != nil {
		return nil, err
	}
	return n.commit(), nil
}

// MarkConnected flips a seat's connected flag. It is a versioned transition
// like any other so clients observe the change through the normal sync path.
func (s *GameState) MarkConnected(position int, connected bool) (*GameState, error) {
	if _, err := s.PlayerAt(position); err != nil {
		return nil, err
	}
	n := s.clone()
	playerAt(n.Players, position).Connected = connected
	return n.commit(), nil
}

// DisplayOverride returns a render-only view with the completed trick t shown
// as the current trick. The authoritative state may already have advanced; the
// view keeps the same Version so it is never mistaken for a transition and is
// never persisted.
func (s *GameState) DisplayOverride(t Trick) *GameState {
	n := s.clone()
	ct := t
	ct.Cards = append([]PlayedCard(nil), t.Cards...)
	n.CurrentTrick = &ct
	n.Version = s.Version
	n.UpdatedAt = s.UpdatedAt
	return n
}

// RedactFor returns a copy of the state suitable for broadcasting to one
// seat: other seats' hands are hidden (their counts remain) and the blind is
// reduced to the turn-up card everyone is entitled to see.
func (s *GameState) RedactFor(position int) *GameState {
	n := s.clone()
	for _, p := range n.Players {
		p.HandCount = len(p.Hand)
		if p.Position != position {
			p.Hand = nil
		}
	}
	n.Blind = nil
	return n
}
