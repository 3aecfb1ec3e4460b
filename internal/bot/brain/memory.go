package brain

import (
	"whist/internal/app"
	"whist/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // We don't know who has it
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Seen face up on the table
)

// HandMemory stores the bot's private view of the current hand. Face-down
// discards are never revealed, so their cards stay unknown.
type HandMemory struct {
	// DeckStatus tracks all 52 cards. Index = suit*13 + rank-2.
	DeckStatus [domain.DeckSize]CardStatus
	// Opponents tracks behavioural profiles by seat.
	Opponents map[domain.Seat]*OpponentProfile
	Trump     domain.Suit
}

func NewMemory() *HandMemory {
	return &HandMemory{
		Opponents: make(map[domain.Seat]*OpponentProfile),
	}
}

// Reset clears the memory for a new hand.
func (m *HandMemory) Reset(trump domain.Suit) {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	for _, p := range m.Opponents {
		p.Reset()
	}
	m.Trump = trump
}

// MarkMine records the cards currently in the bot's hand.
func (m *HandMemory) MarkMine(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// MarkPlayed records cards that have been played face up.
func (m *HandMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

// UpdateHand marks the current hand as Mine and reverts stale Mine entries.
// A Mine card that left the hand face up is already Played.
func (m *HandMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	m.MarkMine(hand)
}

// RecordTrick learns from a completed trick: face-up cards are out, and a
// seat that did not follow the lead suit is void in it.
func (m *HandMemory) RecordTrick(cards []app.TableCard) {
	if len(cards) == 0 || cards[0].Card == nil {
		return
	}
	lead := cards[0].Card.Suit
	for i, tc := range cards {
		if tc.Card != nil && !tc.FaceDown {
			m.MarkPlayed([]domain.Card{*tc.Card})
		}
		if i == 0 {
			continue
		}
		p := m.Profile(tc.Seat)
		if tc.FaceDown {
			p.RecordDiscard()
		}
		if tc.FaceDown || tc.Card == nil || tc.Card.Suit != lead {
			p.RecordVoid(lead)
		}
	}
}

// Profile returns the profile for seat, creating it on first use.
func (m *HandMemory) Profile(seat domain.Seat) *OpponentProfile {
	p, ok := m.Opponents[seat]
	if !ok {
		p = NewOpponentProfile(seat)
		m.Opponents[seat] = p
	}
	return p
}

// IsBoss returns true if no higher card of the same suit may still be held
// by someone else.
func (m *HandMemory) IsBoss(c domain.Card) bool {
	for r := c.Rank + 1; r <= domain.Ace; r++ {
		if m.DeckStatus[cardToIndex(domain.Card{Suit: c.Suit, Rank: r})] == StatusUnknown {
			return false
		}
	}
	return true
}

// IsPlayed returns true if the card was seen face up.
func (m *HandMemory) IsPlayed(c domain.Card) bool {
	return m.DeckStatus[cardToIndex(c)] == StatusPlayed
}

// UnknownInSuit counts cards of suit that may still be held by others.
func (m *HandMemory) UnknownInSuit(suit domain.Suit) int {
	n := 0
	for r := domain.Two; r <= domain.Ace; r++ {
		if m.DeckStatus[cardToIndex(domain.Card{Suit: suit, Rank: r})] == StatusUnknown {
			n++
		}
	}
	return n
}

// AnyVoid reports whether a seat other than self is known to be void in suit.
func (m *HandMemory) AnyVoid(suit domain.Suit, self domain.Seat) bool {
	for seat, p := range m.Opponents {
		if seat != self && p.IsVoid(suit) {
			return true
		}
	}
	return false
}

func cardToIndex(c domain.Card) int {
	suit := 0
	for i, s := range domain.AllSuits() {
		if s == c.Suit {
			suit = i
			break
		}
	}
	return suit*domain.CardsPerHand + int(c.Rank-domain.Two)
}
