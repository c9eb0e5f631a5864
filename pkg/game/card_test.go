package game

import (
	"math/rand"
	"testing"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()

	if len(deck) != DeckSize {
		t.Fatalf("Expected deck size %d, got %d", DeckSize, len(deck))
	}

	seen := make(map[Card]bool)
	for _, card := range deck {
		if seen[card] {
			t.Errorf("Duplicate card found: %v", card)
		}
		seen[card] = true
	}

	suitCount := make(map[Suit]int)
	rankCount := make(map[Rank]int)
	for _, card := range deck {
		suitCount[card.Suit]++
		rankCount[card.Rank]++
	}
	for suit, count := range suitCount {
		if count != 6 {
			t.Errorf("Expected 6 cards of suit %v, got %d", suit, count)
		}
	}
	for rank, count := range rankCount {
		if count != 4 {
			t.Errorf("Expected 4 cards of rank %v, got %d", rank, count)
		}
	}
}

func TestShuffleDeck(t *testing.T) {
	deck := NewDeck()
	original := make([]Card, len(deck))
	copy(original, deck)

	// Same seed, same order.
	s1 := ShuffleDeck(deck, rand.New(rand.NewSource(42)))
	s2 := ShuffleDeck(deck, rand.New(rand.NewSource(42)))
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("Decks with same seed diverge at position %d", i)
		}
	}

	// Input is never modified.
	for i := range deck {
		if deck[i] != original[i] {
			t.Fatalf("ShuffleDeck modified its input at position %d", i)
		}
	}

	// All 24 cards still present.
	seen := make(map[Card]bool)
	for _, c := range s1 {
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Errorf("Shuffled deck has %d distinct cards, want %d", len(seen), DeckSize)
	}
}

func TestDeal(t *testing.T) {
	hands, blind, err := Deal(NewDeck())
	if err != nil {
		t.Fatalf("Deal failed: %v", err)
	}

	seen := make(map[Card]bool)
	for seat, hand := range hands {
		if len(hand) != HandSize {
			t.Errorf("Seat %d: expected %d cards, got %d", seat, HandSize, len(hand))
		}
		for _, c := range hand {
			if seen[c] {
				t.Errorf("Card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	if len(blind) != 4 {
		t.Errorf("Expected 4-card blind, got %d", len(blind))
	}
	for _, c := range blind {
		if seen[c] {
			t.Errorf("Blind card %v also in a hand", c)
		}
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Errorf("Deal used %d distinct cards, want %d", len(seen), DeckSize)
	}
}

func TestDealRejectsWrongDeckSize(t *testing.T) {
	_, _, err := Deal(NewDeck()[:23])
	if err == nil {
		t.Fatal("Expected error dealing a 23-card deck")
	}
	if !IsStructural(err) {
		t.Errorf("Expected structural error, got %v", err)
	}
}

func TestCardID(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Suit: Hearts, Rank: Jack}, "JH"},
		{Card{Suit: Spades, Rank: Ten}, "10S"},
		{Card{Suit: Diamonds, Rank: Ace}, "AD"},
		{Card{Suit: Clubs, Rank: Nine}, "9C"},
	}
	for _, tt := range tests {
		if got := tt.card.ID(); got != tt.want {
			t.Errorf("ID(%v) = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestEffectiveSuit(t *testing.T) {
	tests := []struct {
		name  string
		card  Card
		trump Suit
		want  Suit
	}{
		{"right bower is trump", Card{Suit: Hearts, Rank: Jack}, Hearts, Hearts},
		{"left bower counts as trump", Card{Suit: Diamonds, Rank: Jack}, Hearts, Hearts},
		{"off-color jack keeps its suit", Card{Suit: Spades, Rank: Jack}, Hearts, Spades},
		{"plain card keeps its suit", Card{Suit: Diamonds, Rank: Ace}, Hearts, Diamonds},
		{"no trump declared", Card{Suit: Diamonds, Rank: Jack}, "", Diamonds},
		{"black left bower", Card{Suit: Clubs, Rank: Jack}, Spades, Spades},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveSuit(tt.card, tt.trump); got != tt.want {
				t.Errorf("EffectiveSuit(%v, %v) = %v, want %v", tt.card, tt.trump, got, tt.want)
			}
		})
	}
}

func TestRankValueTrumpOrdering(t *testing.T) {
	// With hearts trump: JH > JD > AH > KH > QH > 10H > 9H.
	order := []Card{
		{Suit: Hearts, Rank: Jack},
		{Suit: Diamonds, Rank: Jack},
		{Suit: Hearts, Rank: Ace},
		{Suit: Hearts, Rank: King},
		{Suit: Hearts, Rank: Queen},
		{Suit: Hearts, Rank: Ten},
		{Suit: Hearts, Rank: Nine},
	}
	for i := 1; i < len(order); i++ {
		hi := RankValue(order[i-1], Hearts)
		lo := RankValue(order[i], Hearts)
		if hi <= lo {
			t.Errorf("Expected %v (%d) > %v (%d) under hearts trump", order[i-1], hi, order[i], lo)
		}
	}
}

func TestRankValuePlainOrdering(t *testing.T) {
	// Plain suit: A > K > Q > J > 10 > 9.
	order := []Rank{Ace, King, Queen, Jack, Ten, Nine}
	for i := 1; i < len(order); i++ {
		hi := RankValue(Card{Suit: Spades, Rank: order[i-1]}, Hearts)
		lo := RankValue(Card{Suit: Spades, Rank: order[i]}, Hearts)
		if hi <= lo {
			t.Errorf("Expected %v (%d) > %v (%d) in plain spades", order[i-1], hi, order[i], lo)
		}
	}
}
