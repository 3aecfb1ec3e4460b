package bot

import (
	"whist/internal/app"
	"whist/internal/domain"
	"whist/internal/rules"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Seat     domain.Seat
	Strategy Brain
}

// Play asks the agent to calculate its move from its seat's view. A move
// the view does not permit is replaced by the first permitted one.
func (a *Agent) Play(view app.ClientView) (Move, error) {
	if !view.YourTurn {
		return Move{}, ErrNoMove
	}
	move, err := a.Strategy.CalculateMove(view)
	if err == nil && permits(view, move) {
		return move, nil
	}
	if fallback, ok := FirstPermitted(view); ok {
		return fallback, nil
	}
	if err == nil {
		err = ErrNoMove
	}
	return Move{}, err
}

// DraftRule asks the agent for a house rule after winning a hand.
func (a *Agent) DraftRule(view app.ClientView) (rules.Draft, bool) {
	return a.Strategy.DraftRule(view)
}

// OnGameEvent notifies the agent of an event it is allowed to see.
func (a *Agent) OnGameEvent(ev app.Event) {
	if len(ev.Recipients) > 0 {
		addressed := false
		for _, seat := range ev.Recipients {
			if seat == a.Seat {
				addressed = true
				break
			}
		}
		if !addressed {
			return
		}
	}
	a.Strategy.OnEvent(ev)
}

// FirstPermitted returns the first permitted move, preferring face up.
func FirstPermitted(view app.ClientView) (Move, bool) {
	for _, mv := range view.PermittedMoves {
		if mv.FaceUp {
			return Move{Card: mv.Card}, true
		}
	}
	for _, mv := range view.PermittedMoves {
		if mv.FaceDown {
			return Move{Card: mv.Card, FaceDown: true}, true
		}
	}
	return Move{}, false
}

func permits(view app.ClientView, move Move) bool {
	for _, mv := range view.PermittedMoves {
		if mv.Card != move.Card {
			continue
		}
		if move.FaceDown {
			return mv.FaceDown
		}
		return mv.FaceUp
	}
	return false
}
