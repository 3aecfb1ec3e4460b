package brain

import "whist/internal/domain"

// OpponentProfile tracks what a seat has revealed during the current hand.
type OpponentProfile struct {
	Seat     domain.Seat
	Voids    map[domain.Suit]bool
	Discards int
}

func NewOpponentProfile(seat domain.Seat) *OpponentProfile {
	return &OpponentProfile{
		Seat:  seat,
		Voids: make(map[domain.Suit]bool),
	}
}

func (p *OpponentProfile) Reset() {
	p.Voids = make(map[domain.Suit]bool)
	p.Discards = 0
}

// RecordVoid notes that the seat failed to follow suit.
func (p *OpponentProfile) RecordVoid(suit domain.Suit) {
	p.Voids[suit] = true
}

func (p *OpponentProfile) RecordDiscard() {
	p.Discards++
}

// IsVoid returns true once the seat has shown it holds no card of suit.
func (p *OpponentProfile) IsVoid(suit domain.Suit) bool {
	return p.Voids[suit]
}
