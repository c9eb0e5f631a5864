// Package bot provides a rules-respecting automatic player. The server uses
// it to recover stalled games; it can also drive fully automated games for
// demos and tests.
package bot

import (
	"buckeuchre/pkg/game"
)

// ActionKind identifies which game operation an Action maps to.
type ActionKind string

const (
	ActionBid          ActionKind = "bid"
	ActionDeclareTrump ActionKind = "declare_trump"
	ActionFold         ActionKind = "fold"
	ActionPlayCard     ActionKind = "play_card"
)

// Action is one concrete, legal move for the seat a game is waiting on.
type Action struct {
	Kind   ActionKind
	Seat   int
	Amount int       // ActionBid
	Trump  game.Suit // ActionDeclareTrump
	Fold   bool      // ActionFold
	CardID string    // ActionPlayCard
}

// Suggest returns a legal action for the seat the game is currently waiting
// on, or ok=false when the phase needs no player action. The returned action
// always passes the engine's validation for the given state.
func Suggest(st *game.GameState) (Action, bool) {
	seat := st.CurrentPlayerPosition
	if seat == game.NoPosition {
		return Action{}, false
	}
	p, err := st.PlayerAt(seat)
	if err != nil {
		return Action{}, false
	}

	switch st.Phase {
	case game.PhaseBidding:
		return Action{Kind: ActionBid, Seat: seat, Amount: suggestBid(st, p)}, true
	case game.PhaseDeclaringTrump:
		return Action{Kind: ActionDeclareTrump, Seat: seat, Trump: bestTrump(p.Hand)}, true
	case game.PhaseFoldingDecision:
		return Action{Kind: ActionFold, Seat: seat, Fold: shouldFold(st, p)}, true
	case game.PhasePlaying:
		card, ok := firstLegalCard(st, p)
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionPlayCard, Seat: seat, CardID: card.ID()}, true
	}
	return Action{}, false
}

// suggestBid bids the minimum raise when the hand is strong enough, otherwise
// passes. The last bidder must bid if everyone else passed, so a recovered
// game cannot loop through endless redeals.
func suggestBid(st *game.GameState, p *game.Player) int {
	mustBid := len(st.Bids) == game.NumSeats-1 && st.HighestBid == 0

	bid := st.HighestBid + 1
	if bid < game.MinBid {
		bid = game.MinBid
	}
	if bid > game.MaxBid {
		return game.BidPass
	}

	strength := bestSuitStrength(p.Hand)
	if strength >= 2+bid || mustBid {
		return bid
	}
	return game.BidPass
}

// bestTrump picks the suit the hand is strongest in.
func bestTrump(hand []game.Card) game.Suit {
	best := game.Spades
	bestScore := -1
	for _, suit := range game.Suits {
		score := suitStrength(hand, suit)
		if score > bestScore {
			best, bestScore = suit, score
		}
	}
	return best
}

// bestSuitStrength returns the strength of the hand's best candidate trump.
func bestSuitStrength(hand []game.Card) int {
	best := 0
	for _, suit := range game.Suits {
		if s := suitStrength(hand, suit); s > best {
			best = s
		}
	}
	return best
}

// suitStrength scores a hand under a candidate trump: two points per bower,
// one per other trump card, one per off-suit ace.
func suitStrength(hand []game.Card, trump game.Suit) int {
	score := 0
	for _, c := range hand {
		eff := game.EffectiveSuit(c, trump)
		switch {
		case eff == trump && c.Rank == game.Jack:
			score += 2
		case eff == trump:
			score++
		case c.Rank == game.Ace:
			score++
		}
	}
	return score
}

// shouldFold stays with any trump above the nine or an off-suit ace, folds
// otherwise. Taking one trick scores better than folding, but being bucked
// costs the full penalty, so weak hands sit out.
func shouldFold(st *game.GameState, p *game.Player) bool {
	for _, c := range p.Hand {
		eff := game.EffectiveSuit(c, st.TrumpSuit)
		if eff == st.TrumpSuit && c.Rank != game.Nine {
			return false
		}
		if eff != st.TrumpSuit && c.Rank == game.Ace {
			return false
		}
	}
	return true
}

// firstLegalCard returns the first card in hand that the engine would accept:
// a card following the led suit when the hand holds one, any card otherwise.
func firstLegalCard(st *game.GameState, p *game.Player) (game.Card, bool) {
	if len(p.Hand) == 0 {
		return game.Card{}, false
	}
	if st.CurrentTrick == nil {
		return p.Hand[0], true
	}
	led := st.CurrentTrick.LedSuit(st.TrumpSuit)
	if led == "" {
		return p.Hand[0], true
	}
	for _, c := range p.Hand {
		if game.EffectiveSuit(c, st.TrumpSuit) == led {
			return c, true
		}
	}
	return p.Hand[0], true
}
