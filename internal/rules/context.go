package rules

import "whist/internal/domain"

// Play is the card being attempted or just accepted.
type Play struct {
	Card     domain.Card
	FaceDown bool
}

// PlayerView is the acting player as seen by a rule.
type PlayerView struct {
	Seat      domain.Seat
	Hand      []domain.Card
	TricksWon int
}

// TrickView is the trick so far.
type TrickView struct {
	Cards       []domain.PlayedCard
	LeadSuit    domain.Suit
	TrickNumber int
}

// GameView carries hand level facts.
type GameView struct {
	TrumpSuit  domain.Suit
	HandNumber int
}

// Context is the read-only projection handed to the evaluator for one
// event. Play is nil for trick and hand end events.
type Context struct {
	Play   *Play
	Player PlayerView
	Trick  TrickView
	Game   GameView
}

// withPlayed returns a copy of c whose played card is card.
func (c Context) withPlayed(card domain.Card) Context {
	p := Play{Card: card}
	if c.Play != nil {
		p.FaceDown = c.Play.FaceDown
	}
	c.Play = &p
	return c
}
