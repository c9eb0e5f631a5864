package game

import "fmt"

const (
	// MinBid and MaxBid bound a numeric bid; BidPass records a pass.
	MinBid  = 2
	MaxBid  = 5
	BidPass = 0

	// StartingScore is each seat's score at game creation. Scores count down;
	// reaching zero or below wins.
	StartingScore = 15

	// SetPenalty is added to a seat's score when it is euchred or bucked.
	SetPenalty = 5
)

// RoundScores computes the per-seat score delta for a finished round, keyed
// strictly by Player.Position (never by slice order; the caller may hand us a
// shuffled slice and scoring must not change).
//
// A folded seat scores 0. In a dirty-clubs round every seat is scored as a
// non-bidder. Otherwise the bidder loses a point per trick taken when the
// contract is met and takes SetPenalty when euchred; non-bidders that stayed
// lose a point per trick taken, or take SetPenalty when bucked with none.
func RoundScores(players []*Player, winningBidder int, bid int, clubsTurnUp bool) (map[int]int, error) {
	if !clubsTurnUp {
		if winningBidder == NoPosition {
			return nil, fmt.Errorf("score round: %w", ErrMissingBidder)
		}
		if bid < MinBid || bid > MaxBid {
			return nil, fmt.Errorf("score round: bid %d out of range: %w", bid, ErrInvalidBid)
		}
	}

	deltas := make(map[int]int, len(players))
	for _, p := range players {
		switch {
		case p.Folded:
			deltas[p.Position] = 0
		case !clubsTurnUp && p.Position == winningBidder:
			if p.TricksTaken >= bid {
				deltas[p.Position] = -p.TricksTaken
			} else {
				deltas[p.Position] = SetPenalty // euchred
			}
		default:
			if p.TricksTaken >= 1 {
				deltas[p.Position] = -p.TricksTaken
			} else {
				deltas[p.Position] = SetPenalty // bucked
			}
		}
	}
	return deltas, nil
}

// CheckWinCondition reports whether any seat has won. A seat wins at score
// zero or below; if several qualify at once the lowest score takes it, ties
// broken by the lowest seat.
func CheckWinCondition(players []*Player) (int, bool) {
	winner := NoPosition
	best := 0
	for pos := 0; pos < NumSeats; pos++ {
		p := playerAt(players, pos)
		if p == nil || p.Score > 0 {
			continue
		}
		if winner == NoPosition || p.Score < best {
			winner = pos
			best = p.Score
		}
	}
	return winner, winner != NoPosition
}

// playerAt returns the player occupying a seat, resilient to slice order.
func playerAt(players []*Player, position int) *Player {
	for _, p := range players {
		if p != nil && p.Position == position {
			return p
		}
	}
	return nil
}
