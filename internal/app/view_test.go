package app

import (
	"testing"

	"whist/internal/domain"
	"whist/internal/game"
)

func TestTableCardsMasksFaceDown(t *testing.T) {
	cards := []domain.PlayedCard{
		{Card: domain.Card{Suit: domain.Hearts, Rank: domain.Seven}, PlayedBy: domain.North},
		{Card: domain.Card{Suit: domain.Clubs, Rank: domain.Two}, PlayedBy: domain.East, FaceDown: true},
	}
	tests := []struct {
		name    string
		viewer  domain.Seat
		visible bool
	}{
		{name: "owner sees discard", viewer: domain.East, visible: true},
		{name: "other seat", viewer: domain.South, visible: false},
		{name: "public", viewer: domain.NoSeat, visible: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tableCards(cards, tt.viewer)
			if out[0].Card == nil || *out[0].Card != cards[0].Card {
				t.Errorf("expected face-up card visible, got %+v", out[0])
			}
			if got := out[1].Card != nil; got != tt.visible {
				t.Errorf("expected visible %v, got %v", tt.visible, got)
			}
			if !out[1].FaceDown || out[1].Seat != domain.East {
				t.Errorf("unexpected discard view %+v", out[1])
			}
		})
	}
}

func TestClientStateHidesOtherHands(t *testing.T) {
	m := newTestManager(t, 3)
	if _, _, err := m.StartHand(seed(2)); err != nil {
		t.Fatal(err)
	}

	north := m.ClientState(domain.North)
	if len(north.Hand) != domain.CardsPerHand || !north.YourTurn {
		t.Fatalf("expected north to hold 13 cards on turn, got %d %v", len(north.Hand), north.YourTurn)
	}
	if len(north.PermittedMoves) != domain.CardsPerHand {
		t.Errorf("expected 13 permitted moves, got %d", len(north.PermittedMoves))
	}
	for i := 1; i < len(north.Hand); i++ {
		a, b := north.Hand[i-1], north.Hand[i]
		if a.Suit == b.Suit && a.Rank > b.Rank {
			t.Errorf("hand not sorted: %v", north.Hand)
		}
	}
	if north.HandsPerGame != 3 || north.Phase != game.PhasePlaying || north.TrumpSuit == "" {
		t.Errorf("unexpected header %+v", north)
	}

	east := m.ClientState(domain.East)
	if east.YourTurn || east.PermittedMoves != nil {
		t.Error("east should not be on turn")
	}
	for _, c := range east.Hand {
		if domain.ContainsCard(north.Hand, c) {
			t.Fatalf("east view leaks north card %s", c)
		}
	}
	for _, p := range east.Players {
		if p.CardsInHand != domain.CardsPerHand {
			t.Errorf("expected 13 cards for %s, got %d", p.Seat, p.CardsInHand)
		}
	}

	spectator := m.ClientState(domain.NoSeat)
	if len(spectator.Hand) != 0 || spectator.CanCreateRule {
		t.Errorf("spectator should see no hand, got %v", spectator.Hand)
	}
}
