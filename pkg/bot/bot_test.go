package bot

import (
	"testing"

	"buckeuchre/pkg/game"
)

func card(rank game.Rank, suit game.Suit) game.Card {
	return game.Card{Suit: suit, Rank: rank}
}

// biddingState builds a minimal bidding-phase snapshot for seat 0.
func biddingState(hand []game.Card, bids []game.Bid, highest int) *game.GameState {
	st := &game.GameState{
		ID:                    "g1",
		Phase:                 game.PhaseBidding,
		Players:               make([]*game.Player, game.NumSeats),
		Bids:                  bids,
		CurrentBidder:         0,
		HighestBid:            highest,
		WinningBidderPosition: game.NoPosition,
		CurrentPlayerPosition: 0,
	}
	for i := range st.Players {
		st.Players[i] = &game.Player{Position: i, FoldDecision: game.FoldUndecided}
	}
	st.Players[0].Hand = hand
	return st
}

func TestSuggestBidIsLegal(t *testing.T) {
	hands := [][]game.Card{
		{card(game.Jack, game.Spades), card(game.Jack, game.Clubs), card(game.Ace, game.Spades), card(game.King, game.Spades), card(game.Queen, game.Spades)},
		{card(game.Nine, game.Hearts), card(game.Nine, game.Diamonds), card(game.Ten, game.Clubs), card(game.Queen, game.Spades), card(game.Ten, game.Hearts)},
	}
	for _, hand := range hands {
		st := biddingState(hand, nil, 0)
		action, ok := Suggest(st)
		if !ok {
			t.Fatal("Expected an action in the bidding phase")
		}
		if action.Kind != ActionBid || action.Seat != 0 {
			t.Fatalf("Expected a bid for seat 0, got %+v", action)
		}
		if action.Amount == game.BidPass {
			continue
		}
		if action.Amount < game.MinBid || action.Amount > game.MaxBid {
			t.Errorf("Suggested bid %d out of range", action.Amount)
		}
	}
}

func TestSuggestBidStrongHandBids(t *testing.T) {
	// Both bowers and three more trumps: must not pass.
	hand := []game.Card{
		card(game.Jack, game.Spades), card(game.Jack, game.Clubs),
		card(game.Ace, game.Spades), card(game.King, game.Spades), card(game.Queen, game.Spades),
	}
	action, ok := Suggest(biddingState(hand, nil, 0))
	if !ok || action.Amount == game.BidPass {
		t.Errorf("Strong hand must bid, got %+v", action)
	}
}

func TestSuggestBidWeakHandPasses(t *testing.T) {
	hand := []game.Card{
		card(game.Nine, game.Hearts), card(game.Ten, game.Diamonds),
		card(game.Nine, game.Clubs), card(game.Queen, game.Spades), card(game.Ten, game.Hearts),
	}
	action, ok := Suggest(biddingState(hand, nil, 0))
	if !ok || action.Amount != game.BidPass {
		t.Errorf("Weak hand must pass, got %+v", action)
	}
}

func TestSuggestLastBidderMustBid(t *testing.T) {
	weak := []game.Card{
		card(game.Nine, game.Hearts), card(game.Ten, game.Diamonds),
		card(game.Nine, game.Clubs), card(game.Queen, game.Spades), card(game.Ten, game.Hearts),
	}
	passes := []game.Bid{
		{Position: 1, Amount: game.BidPass},
		{Position: 2, Amount: game.BidPass},
		{Position: 3, Amount: game.BidPass},
	}
	action, ok := Suggest(biddingState(weak, passes, 0))
	if !ok || action.Amount == game.BidPass {
		t.Errorf("Last bidder after three passes must bid, got %+v", action)
	}
}

func TestSuggestDeclareTrump(t *testing.T) {
	st := &game.GameState{
		ID:                    "g1",
		Phase:                 game.PhaseDeclaringTrump,
		Players:               make([]*game.Player, game.NumSeats),
		WinningBidderPosition: 0,
		CurrentPlayerPosition: 0,
	}
	for i := range st.Players {
		st.Players[i] = &game.Player{Position: i}
	}
	st.Players[0].Hand = []game.Card{
		card(game.Jack, game.Hearts), card(game.Ace, game.Hearts),
		card(game.King, game.Hearts), card(game.Nine, game.Spades), card(game.Ten, game.Clubs),
	}

	action, ok := Suggest(st)
	if !ok || action.Kind != ActionDeclareTrump {
		t.Fatalf("Expected a trump declaration, got %+v", action)
	}
	if action.Trump != game.Hearts {
		t.Errorf("Hand is strongest in hearts, suggested %v", action.Trump)
	}
}

func foldingState(hand []game.Card, trump game.Suit) *game.GameState {
	st := &game.GameState{
		ID:                    "g1",
		Phase:                 game.PhaseFoldingDecision,
		Players:               make([]*game.Player, game.NumSeats),
		TrumpSuit:             trump,
		WinningBidderPosition: 1,
		CurrentPlayerPosition: 0,
	}
	for i := range st.Players {
		st.Players[i] = &game.Player{Position: i, FoldDecision: game.FoldUndecided}
	}
	st.Players[0].Hand = hand
	return st
}

func TestSuggestFold(t *testing.T) {
	weak := []game.Card{
		card(game.Nine, game.Hearts), card(game.Ten, game.Diamonds),
		card(game.Nine, game.Clubs), card(game.Queen, game.Diamonds), card(game.Ten, game.Hearts),
	}
	action, ok := Suggest(foldingState(weak, game.Spades))
	if !ok || action.Kind != ActionFold || !action.Fold {
		t.Errorf("Trumpless hand must fold, got %+v", action)
	}

	strong := append([]game.Card{card(game.Jack, game.Spades)}, weak[1:]...)
	action, ok = Suggest(foldingState(strong, game.Spades))
	if !ok || action.Fold {
		t.Errorf("Right bower holder must stay, got %+v", action)
	}
}

func TestSuggestPlayFollowsSuit(t *testing.T) {
	st := &game.GameState{
		ID:                    "g1",
		Phase:                 game.PhasePlaying,
		Players:               make([]*game.Player, game.NumSeats),
		TrumpSuit:             game.Hearts,
		CurrentPlayerPosition: 0,
		CurrentTrick: &game.Trick{
			Number:       1,
			LeadPosition: 3,
			Cards:        []game.PlayedCard{{Card: card(game.Ace, game.Spades), Position: 3}},
			Winner:       game.NoPosition,
		},
	}
	for i := range st.Players {
		st.Players[i] = &game.Player{Position: i}
	}
	st.Players[0].Hand = []game.Card{
		card(game.Ace, game.Diamonds), card(game.Ten, game.Spades), card(game.King, game.Hearts),
	}

	action, ok := Suggest(st)
	if !ok || action.Kind != ActionPlayCard {
		t.Fatalf("Expected a card play, got %+v", action)
	}
	if action.CardID != "10S" {
		t.Errorf("Must follow spades with 10S, suggested %s", action.CardID)
	}
}

func TestSuggestNoActionInIdlePhases(t *testing.T) {
	st := &game.GameState{
		ID:                    "g1",
		Phase:                 game.PhaseRoundOver,
		Players:               []*game.Player{{Position: 0}},
		CurrentPlayerPosition: game.NoPosition,
	}
	if _, ok := Suggest(st); ok {
		t.Error("Expected no action when the phase needs none")
	}
}
