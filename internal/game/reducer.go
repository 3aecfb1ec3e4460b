package game

import "whist/internal/domain"

// Reduce applies a to s and returns the next state. It never panics on bad
// input: an action whose preconditions do not hold returns s unchanged.
// Reduce records outcomes supplied by the caller; it does not resolve
// tricks or score hands itself.
func Reduce(s GameState, a Action) GameState {
	switch a.Type {
	case ActionAddPlayer:
		return addPlayer(s, a)
	case ActionRemovePlayer:
		return removePlayer(s, a)
	case ActionStartHand:
		return startHand(s, a)
	case ActionPlayCard:
		return playCard(s, a)
	case ActionCompleteTrick:
		return completeTrick(s, a)
	case ActionCompleteHand:
		return completeHand(s, a)
	case ActionAddRule:
		return addRule(s, a)
	case ActionStartNextHand:
		return startNextHand(s)
	case ActionEndGame:
		return endGame(s)
	case ActionSetPlayerConnected:
		return setConnected(s, a)
	}
	return s
}

func addPlayer(s GameState, a Action) GameState {
	if s.Phase != PhaseWaiting || !a.Seat.Valid() || s.Players[a.Seat] != nil || a.PlayerID == "" {
		return s
	}
	if _, taken := s.SeatOf(a.PlayerID); taken {
		return s
	}
	next := s.Clone()
	next.Players[a.Seat] = &Player{
		ID:          a.PlayerID,
		Name:        a.Name,
		Position:    a.Seat,
		Hand:        []domain.Card{},
		IsBot:       a.IsBot,
		IsConnected: true,
	}
	return next
}

// Seats are fixed once the first hand is dealt.
func removePlayer(s GameState, a Action) GameState {
	if s.Phase != PhaseWaiting || s.Player(a.Seat) == nil {
		return s
	}
	next := s.Clone()
	next.Players[a.Seat] = nil
	return next
}

func startHand(s GameState, a Action) GameState {
	if s.Phase != PhaseWaiting && s.Phase != PhaseDealing {
		return s
	}
	if !s.IsFull() || !a.Trump.Valid() || !a.Leader.Valid() || len(a.Hands) != domain.NumSeats {
		return s
	}
	for _, h := range a.Hands {
		if len(h) != domain.CardsPerHand {
			return s
		}
	}

	next := s.Clone()
	for i, p := range next.Players {
		p.Hand = append([]domain.Card{}, a.Hands[i]...)
		p.TricksWon = 0
	}
	next.Hand = &Hand{
		Number:          len(s.HandHistory) + 1,
		TrumpSuit:       a.Trump,
		CompletedTricks: []domain.Trick{},
		CurrentTrick:    domain.NewTrick(1, a.Leader),
	}
	next.Phase = PhasePlaying
	return next
}

func playCard(s GameState, a Action) GameState {
	if s.Phase != PhasePlaying || s.Hand == nil || s.Hand.CurrentTrick == nil || a.Card == nil {
		return s
	}
	t := s.Hand.CurrentTrick
	if t.IsComplete() || t.CurrentPlayer != a.Seat || t.HasPlayed(a.Seat) {
		return s
	}
	p := s.Player(a.Seat)
	if p == nil || !domain.ContainsCard(p.Hand, *a.Card) {
		return s
	}

	next := s.Clone()
	player := next.Players[a.Seat]
	player.Hand = domain.RemoveCard(player.Hand, *a.Card)

	trick := next.Hand.CurrentTrick
	if len(trick.Cards) == 0 {
		trick.LeadSuit = a.Card.Suit
	}
	trick.Cards = append(trick.Cards, domain.PlayedCard{
		Card:     *a.Card,
		PlayedBy: a.Seat,
		FaceDown: a.FaceDown,
		PlayedAt: len(trick.Cards),
	})
	if !trick.IsComplete() {
		trick.CurrentPlayer = trick.NextToPlay(a.Seat, a.SkipNext)
	}
	return next
}

func completeTrick(s GameState, a Action) GameState {
	if s.Phase != PhasePlaying || s.Hand == nil || s.Hand.CurrentTrick == nil {
		return s
	}
	if !s.Hand.CurrentTrick.IsComplete() || !a.Winner.Valid() {
		return s
	}

	next := s.Clone()
	h := next.Hand
	done := *h.CurrentTrick
	done.Winner = a.Winner
	done.CurrentPlayer = domain.NoSeat
	h.CompletedTricks = append(h.CompletedTricks, done)
	h.TricksPlayed = len(h.CompletedTricks)
	next.Players[a.Winner].TricksWon++

	if h.TricksPlayed >= domain.TricksPerHand {
		h.CurrentTrick = nil
		next.Phase = PhaseHandEnd
		return next
	}
	h.CurrentTrick = domain.NewTrick(h.TricksPlayed+1, a.Winner)
	return next
}

func completeHand(s GameState, a Action) GameState {
	if s.Phase != PhaseHandEnd || s.Hand == nil || !a.Winner.Valid() {
		return s
	}

	next := s.Clone()
	summary := HandSummary{
		Number:    next.Hand.Number,
		TrumpSuit: next.Hand.TrumpSuit,
		Winner:    a.Winner,
	}
	for i, p := range next.Players {
		if p == nil {
			continue
		}
		summary.TricksWon[i] = p.TricksWon
		next.Scores[i] += p.TricksWon
	}
	next.HandHistory = append(next.HandHistory, summary)
	next.Phase = PhaseRuleCreate
	return next
}

func addRule(s GameState, a Action) GameState {
	if s.Phase != PhaseRuleCreate || a.Rule == nil {
		return s
	}
	last, ok := s.LastHand()
	if !ok || a.Rule.CreatedBy != last.Winner {
		return s
	}
	next := s.Clone()
	next.Rules = append(next.Rules, a.Rule.Clone())
	next.Phase = PhaseDealing
	return next
}

func startNextHand(s GameState) GameState {
	if s.Phase != PhaseRuleCreate && s.Phase != PhaseDealing {
		return s
	}
	next := s.Clone()
	next.Hand = nil
	for _, p := range next.Players {
		if p != nil {
			p.Hand = []domain.Card{}
			p.TricksWon = 0
		}
	}
	next.Phase = PhaseDealing
	return next
}

func endGame(s GameState) GameState {
	if s.Phase == PhaseGameEnd {
		return s
	}
	next := s.Clone()
	next.Phase = PhaseGameEnd
	return next
}

func setConnected(s GameState, a Action) GameState {
	p := s.Player(a.Seat)
	if p == nil || p.IsConnected == a.Connected {
		return s
	}
	next := s.Clone()
	next.Players[a.Seat].IsConnected = a.Connected
	return next
}
