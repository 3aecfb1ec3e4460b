package domain

import (
	"math/rand"
	"sort"
	"time"
)

const (
	DeckSize      = 52
	CardsPerHand  = 13
	CardsPerTrick = NumSeats
	TricksPerHand = CardsPerHand
)

// NewDeck returns a sorted 52-card deck, suit by suit from two up to the ace.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range AllSuits() {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck. A nil seed draws
// from the clock; a fixed seed always yields the same order.
func ShuffleDeck(deck []Card, seed *int64) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)

	src := time.Now().UnixNano()
	if seed != nil {
		src = *seed
	}
	rng := rand.New(rand.NewSource(src))
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal hands out a full deck round-robin starting at North. The last card
// dealt lands with West and decides trump.
func Deal(deck []Card) [NumSeats][]Card {
	var hands [NumSeats][]Card
	for i := range hands {
		hands[i] = make([]Card, 0, len(deck)/NumSeats)
	}
	for i, c := range deck {
		seat := i % NumSeats
		hands[seat] = append(hands[seat], c)
	}
	return hands
}

// SortHand orders a hand by suit then ascending rank, in place.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Suit != cards[j].Suit {
			return suitOrder(cards[i].Suit) < suitOrder(cards[j].Suit)
		}
		return cards[i].Rank < cards[j].Rank
	})
}

func suitOrder(s Suit) int {
	for i, candidate := range AllSuits() {
		if candidate == s {
			return i
		}
	}
	return len(AllSuits())
}

// ContainsCard reports whether hand holds c.
func ContainsCard(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

// HasSuit reports whether hand holds any card of suit.
func HasSuit(hand []Card, suit Suit) bool {
	for _, h := range hand {
		if h.Suit == suit {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of hand without the first occurrence of c.
func RemoveCard(hand []Card, c Card) []Card {
	out := make([]Card, 0, len(hand))
	removed := false
	for _, h := range hand {
		if !removed && h == c {
			removed = true
			continue
		}
		out = append(out, h)
	}
	return out
}
