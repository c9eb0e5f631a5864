package game

import "errors"

// Validation failures: the caller did something illegal and can correct its
// input. These are reported back to the originating seat only.
var (
	ErrNotYourTurn            = errors.New("not your turn")
	ErrCardNotInHand          = errors.New("card not in hand")
	ErrMustFollowSuit         = errors.New("must follow suit")
	ErrAlreadyDecided         = errors.New("fold decision already made")
	ErrInvalidBid             = errors.New("invalid bid")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrPlayerNotFound         = errors.New("player not found")
)

// Structural failures: these indicate a bug upstream of the public transition
// functions and should be logged loudly, never silently swallowed.
var (
	ErrEmptyTrick      = errors.New("no cards played in trick")
	ErrNoActiveSeats   = errors.New("no active seats")
	ErrMissingBidder   = errors.New("no winning bidder for round")
	ErrInvalidDeckSize = errors.New("deck does not contain exactly 24 cards")
)

// IsValidation reports whether err is a recoverable caller error.
func IsValidation(err error) bool {
	for _, e := range []error{
		ErrNotYourTurn, ErrCardNotInHand, ErrMustFollowSuit, ErrAlreadyDecided,
		ErrInvalidBid, ErrInvalidPhaseTransition, ErrPlayerNotFound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsStructural reports whether err indicates a broken internal invariant.
func IsStructural(err error) bool {
	for _, e := range []error{
		ErrEmptyTrick, ErrNoActiveSeats, ErrMissingBidder, ErrInvalidDeckSize,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
