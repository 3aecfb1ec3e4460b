package domain

import "fmt"

// PlayedCard is one card laid on the table.
type PlayedCard struct {
	Card     Card `json:"card"`
	PlayedBy Seat `json:"played_by"`
	FaceDown bool `json:"face_down"`
	PlayedAt int  `json:"played_at"`
}

// Trick is the set of up to four cards played in rotation.
type Trick struct {
	Cards         []PlayedCard `json:"cards"`
	LeadSuit      Suit         `json:"lead_suit,omitempty"`
	Leader        Seat         `json:"leader"`
	CurrentPlayer Seat         `json:"current_player"`
	TrickNumber   int          `json:"trick_number"`
	Winner        Seat         `json:"winner"`
}

// NewTrick opens an empty trick led by leader.
func NewTrick(number int, leader Seat) *Trick {
	return &Trick{
		Cards:         []PlayedCard{},
		Leader:        leader,
		CurrentPlayer: leader,
		TrickNumber:   number,
		Winner:        NoSeat,
	}
}

func (t *Trick) IsComplete() bool { return len(t.Cards) >= CardsPerTrick }

// HasPlayed reports whether seat already contributed a card.
func (t *Trick) HasPlayed(seat Seat) bool {
	for _, pc := range t.Cards {
		if pc.PlayedBy == seat {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (t *Trick) Clone() *Trick {
	if t == nil {
		return nil
	}
	out := *t
	out.Cards = append([]PlayedCard{}, t.Cards...)
	return &out
}

// NextToPlay returns the seat clockwise of from that has not yet played.
// With skip set the first such seat is passed over once, unless it is the
// only one left. It returns NoSeat when everyone has played.
func (t *Trick) NextToPlay(from Seat, skip bool) Seat {
	waiting := make([]Seat, 0, NumSeats)
	for s := from.Next(); s != from; s = s.Next() {
		if !t.HasPlayed(s) {
			waiting = append(waiting, s)
		}
	}
	switch {
	case len(waiting) == 0:
		return NoSeat
	case skip && len(waiting) > 1:
		return waiting[1]
	default:
		return waiting[0]
	}
}

// ResolveTrick returns the winning seat of a complete trick. Face-down cards
// never win; the highest trump wins, otherwise the highest card of the lead
// suit. If every card is face down the leader keeps the trick.
func ResolveTrick(cards []PlayedCard, trump Suit) Seat {
	if len(cards) != CardsPerTrick {
		panic(fmt.Sprintf("domain: resolve trick with %d cards", len(cards)))
	}
	best, ok := CurrentWinner(cards, trump, cards[0].Card.Suit)
	if !ok {
		return cards[0].PlayedBy
	}
	return best.PlayedBy
}

// CurrentWinner returns the card presently winning a possibly partial trick.
// ok is false when no face-up card contends.
func CurrentWinner(cards []PlayedCard, trump, lead Suit) (PlayedCard, bool) {
	bestIdx := -1
	for i, pc := range cards {
		if pc.FaceDown {
			continue
		}
		if pc.Card.Suit != trump && pc.Card.Suit != lead {
			continue
		}
		if bestIdx < 0 || beats(pc.Card, cards[bestIdx].Card, trump) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return PlayedCard{}, false
	}
	return cards[bestIdx], true
}

// beats compares two contending cards; both are trump or lead suit.
func beats(challenger, best Card, trump Suit) bool {
	cTrump := challenger.Suit == trump
	bTrump := best.Suit == trump
	if cTrump != bTrump {
		return cTrump
	}
	return challenger.Rank > best.Rank
}
