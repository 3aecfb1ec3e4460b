package app

import (
	"whist/internal/domain"
	"whist/internal/game"
	"whist/internal/rules"
)

// TableCard is a played card as shown to one viewer. Card is nil when it
// was played face down by someone else.
type TableCard struct {
	Seat     domain.Seat  `json:"seat"`
	Card     *domain.Card `json:"card,omitempty"`
	FaceDown bool         `json:"face_down"`
}

// SeatView is the public part of a player.
type SeatView struct {
	Seat        domain.Seat `json:"seat"`
	PlayerID    string      `json:"player_id"`
	Name        string      `json:"name"`
	IsBot       bool        `json:"is_bot"`
	IsConnected bool        `json:"is_connected"`
	CardsInHand int         `json:"cards_in_hand"`
	TricksWon   int         `json:"tricks_won"`
	Score       int         `json:"score"`
}

type TrickView struct {
	Number        int         `json:"number"`
	Leader        domain.Seat `json:"leader"`
	LeadSuit      domain.Suit `json:"lead_suit,omitempty"`
	CurrentPlayer domain.Seat `json:"current_player"`
	Cards         []TableCard `json:"cards"`
}

// ClientView is the state projected for one seat.
type ClientView struct {
	GameID         string               `json:"game_id"`
	Seat           domain.Seat          `json:"seat"`
	Phase          game.Phase           `json:"phase"`
	HandNumber     int                  `json:"hand_number"`
	HandsPerGame   int                  `json:"hands_per_game"`
	TrumpSuit      domain.Suit          `json:"trump_suit,omitempty"`
	Players        []SeatView           `json:"players"`
	Hand           []domain.Card        `json:"hand"`
	Trick          *TrickView           `json:"trick,omitempty"`
	YourTurn       bool                 `json:"your_turn"`
	PermittedMoves []domain.LegalMove   `json:"permitted_moves,omitempty"`
	RulesSuspended bool                 `json:"rules_suspended,omitempty"`
	CanCreateRule  bool                 `json:"can_create_rule"`
	Rules          []rules.Rule         `json:"rules"`
	Scores         [domain.NumSeats]int `json:"scores"`
	History        []game.HandSummary   `json:"history"`
}

// ClientState projects the game for seat. Other seats' hands are reduced to
// counts and their face-down cards stay hidden. Moves are listed only when
// it is seat's turn.
func (m *Manager) ClientState(seat domain.Seat) ClientView {
	s := m.state
	v := ClientView{
		GameID:       m.id,
		Seat:         seat,
		Phase:        s.Phase,
		HandNumber:   s.HandNumber(),
		HandsPerGame: m.opts.HandsPerGame,
		Players:      make([]SeatView, 0, domain.NumSeats),
		Hand:         []domain.Card{},
		Rules:        make([]rules.Rule, 0, len(s.Rules)),
		Scores:       s.Scores,
		History:      append([]game.HandSummary{}, s.HandHistory...),
	}
	for _, r := range s.Rules {
		v.Rules = append(v.Rules, r.Clone())
	}

	for i, p := range s.Players {
		if p == nil {
			continue
		}
		v.Players = append(v.Players, SeatView{
			Seat:        domain.Seat(i),
			PlayerID:    p.ID,
			Name:        p.Name,
			IsBot:       p.IsBot,
			IsConnected: p.IsConnected,
			CardsInHand: len(p.Hand),
			TricksWon:   p.TricksWon,
			Score:       s.Scores[i],
		})
	}
	if p := s.Player(seat); p != nil {
		v.Hand = append(v.Hand, p.Hand...)
		domain.SortHand(v.Hand)
	}

	if h := s.Hand; h != nil {
		v.TrumpSuit = h.TrumpSuit
		if t := h.CurrentTrick; t != nil {
			v.Trick = &TrickView{
				Number:        t.TrickNumber,
				Leader:        t.Leader,
				LeadSuit:      t.LeadSuit,
				CurrentPlayer: t.CurrentPlayer,
				Cards:         tableCards(t.Cards, seat),
			}
			v.YourTurn = s.Phase == game.PhasePlaying && !t.IsComplete() && t.CurrentPlayer == seat
		}
	}
	if v.YourTurn {
		v.PermittedMoves, v.RulesSuspended = m.PermittedMoves(seat)
	}
	if last, ok := s.LastHand(); ok {
		v.CanCreateRule = s.Phase == game.PhaseRuleCreate && last.Winner == seat && !m.ruleLimitReached()
	}
	return v
}

// tableCards masks face-down cards for everyone except the seat that played
// them. Pass domain.NoSeat for a fully public view.
func tableCards(cards []domain.PlayedCard, viewer domain.Seat) []TableCard {
	out := make([]TableCard, 0, len(cards))
	for _, pc := range cards {
		tc := TableCard{Seat: pc.PlayedBy, FaceDown: pc.FaceDown}
		if !pc.FaceDown || pc.PlayedBy == viewer {
			c := pc.Card
			tc.Card = &c
		}
		out = append(out, tc)
	}
	return out
}
