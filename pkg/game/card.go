package game

import (
	"fmt"
	"math/rand"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "SPADES"
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
)

// Suits lists the four suits in canonical deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Color represents a suit color
type Color string

const (
	Black Color = "BLACK"
	Red   Color = "RED"
)

// Color returns the suit's color.
func (s Suit) Color() Color {
	switch s {
	case Hearts, Diamonds:
		return Red
	default:
		return Black
	}
}

// Symbol returns the one-rune display symbol for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	}
	return "?"
}

// ValidSuit reports whether s is one of the four playable suits.
func ValidSuit(s Suit) bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// SameColor reports whether two suits share a color.
func SameColor(a, b Suit) bool {
	return a.Color() == b.Color()
}

// Rank represents a card rank. The euchre deck runs 9 through Ace.
type Rank string

const (
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists the six ranks in canonical deck order.
var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

// DeckSize is the number of cards in a buck euchre deck (6 ranks x 4 suits).
const DeckSize = 24

// Card represents a playing card. Cards are immutable values; the 24 cards
// produced by NewDeck are the only ones that exist in a game.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// ID returns the card's unique identifier, e.g. "JH" for the Jack of Hearts.
func (c Card) ID() string {
	return string(c.Rank) + string(c.Suit[0])
}

// String returns a short display form, e.g. "J♥".
func (c Card) String() string {
	return string(c.Rank) + c.Suit.Symbol()
}

// NewDeck creates the 24 canonical cards in a fixed, deterministic order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// ShuffleDeck returns a Fisher-Yates permutation of deck using the given
// random number generator. The input slice is not modified; passing a seeded
// rng yields a reproducible ordering.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Deal splits a 24-card deck into four 5-card hands dealt round-robin
// (seat 0,1,2,3 repeated five times) and a 4-card blind from the remainder.
func Deal(deck []Card) (hands [NumSeats][]Card, blind []Card, err error) {
	if len(deck) != DeckSize {
		return hands, nil, fmt.Errorf("deal: got %d cards: %w", len(deck), ErrInvalidDeckSize)
	}
	for i := range hands {
		hands[i] = make([]Card, 0, HandSize)
	}
	for i := 0; i < NumSeats*HandSize; i++ {
		seat := i % NumSeats
		hands[seat] = append(hands[seat], deck[i])
	}
	blind = make([]Card, DeckSize-NumSeats*HandSize)
	copy(blind, deck[NumSeats*HandSize:])
	return hands, blind, nil
}

// EffectiveSuit returns the suit a card counts as under the given trump suit.
// The Jack of the suit sharing trump's color (the left bower) counts as trump;
// every other card counts as its printed suit. All suit-following and ranking
// logic routes through this.
func EffectiveSuit(c Card, trump Suit) Suit {
	if trump != "" && c.Rank == Jack && c.Suit != trump && SameColor(c.Suit, trump) {
		return trump
	}
	return c.Suit
}

// RankValue returns the card's strength under the given trump suit. Within
// trump the right bower beats the left bower beats Ace down to Nine; in plain
// suits Ace is high and Jack sits between Queen and Ten. Values are only
// comparable between cards of the same effective suit, except that any trump
// value beats any plain value by rule (see TrickWinner).
func RankValue(c Card, trump Suit) int {
	if EffectiveSuit(c, trump) == trump && trump != "" {
		switch {
		case c.Rank == Jack && c.Suit == trump:
			return 7 // right bower
		case c.Rank == Jack:
			return 6 // left bower
		case c.Rank == Ace:
			return 5
		case c.Rank == King:
			return 4
		case c.Rank == Queen:
			return 3
		case c.Rank == Ten:
			return 2
		default:
			return 1
		}
	}
	switch c.Rank {
	case Ace:
		return 6
	case King:
		return 5
	case Queen:
		return 4
	case Jack:
		return 3
	case Ten:
		return 2
	default:
		return 1
	}
}
