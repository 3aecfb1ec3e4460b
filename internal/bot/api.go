package bot

import (
	"errors"

	"whist/internal/app"
	"whist/internal/domain"
	"whist/internal/rules"
)

var ErrNoMove = errors.New("bot has no permitted move")

// Move represents the decision made by the AI.
type Move struct {
	Card     domain.Card
	FaceDown bool
}

// Brain is the interface that all bot strategies must implement. Brains see
// only the seat's client view and the events addressed to it.
type Brain interface {
	CalculateMove(view app.ClientView) (Move, error)
	DraftRule(view app.ClientView) (rules.Draft, bool)
	OnEvent(ev app.Event)
}
