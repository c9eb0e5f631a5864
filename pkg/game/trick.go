package game

import "fmt"

// NoPosition marks an unset seat reference (no winner yet, no bidder, etc).
const NoPosition = -1

// PlayedCard stores a card along with the seat that played it.
type PlayedCard struct {
	Card     Card `json:"card"`
	Position int  `json:"position"`
}

// Trick represents one trick of a round: up to one card per active seat, in
// play order. Winner is NoPosition until the trick is resolved.
type Trick struct {
	Number       int          `json:"number"`
	LeadPosition int          `json:"leadPosition"`
	Cards        []PlayedCard `json:"cards"`
	Winner       int          `json:"winner"`
}

// LedSuit returns the effective suit of the first card played, or "" if the
// trick is empty.
func (t *Trick) LedSuit(trump Suit) Suit {
	if len(t.Cards) == 0 {
		return ""
	}
	return EffectiveSuit(t.Cards[0].Card, trump)
}

// TrickWinner determines the winning seat of a trick. Trump beats non-trump
// unconditionally; among cards of the same effective suit the higher RankValue
// wins; non-trump cards that do not match the led suit can never win. Cards
// played by seats not in activeSeats are ignored (folded seats never play, but
// a stray card must not decide a trick).
func TrickWinner(t Trick, trump Suit, activeSeats []int) (int, error) {
	if len(activeSeats) == 0 {
		return NoPosition, ErrNoActiveSeats
	}
	active := make(map[int]bool, len(activeSeats))
	for _, seat := range activeSeats {
		active[seat] = true
	}

	plays := make([]PlayedCard, 0, len(t.Cards))
	for _, pc := range t.Cards {
		if active[pc.Position] {
			plays = append(plays, pc)
		}
	}
	if len(plays) == 0 {
		return NoPosition, fmt.Errorf("trick %d: %w", t.Number, ErrEmptyTrick)
	}

	led := EffectiveSuit(plays[0].Card, trump)
	best := plays[0]
	for _, pc := range plays[1:] {
		if beats(pc.Card, best.Card, led, trump) {
			best = pc
		}
	}
	return best.Position, nil
}

// beats reports whether card a beats card b given the led and trump suits.
func beats(a, b Card, led, trump Suit) bool {
	aSuit := EffectiveSuit(a, trump)
	bSuit := EffectiveSuit(b, trump)
	aTrump := trump != "" && aSuit == trump
	bTrump := trump != "" && bSuit == trump

	if aTrump != bTrump {
		return aTrump
	}
	if aTrump {
		return RankValue(a, trump) > RankValue(b, trump)
	}
	// Neither is trump: only cards of the led suit are eligible to win.
	if (aSuit == led) != (bSuit == led) {
		return aSuit == led
	}
	if aSuit != led {
		return false
	}
	return RankValue(a, trump) > RankValue(b, trump)
}
