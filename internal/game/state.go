package game

import (
	"whist/internal/domain"
	"whist/internal/rules"
)

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseDealing    Phase = "dealing"
	PhasePlaying    Phase = "playing"
	PhaseHandEnd    Phase = "hand_end"
	PhaseRuleCreate Phase = "rule_create"
	PhaseGameEnd    Phase = "game_end"
)

// Player holds state for a participant seated at the table.
type Player struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Position    domain.Seat   `json:"position"`
	Hand        []domain.Card `json:"hand"`
	TricksWon   int           `json:"tricks_won"`
	IsBot       bool          `json:"is_bot"`
	IsConnected bool          `json:"is_connected"`
}

func (p *Player) clone() *Player {
	if p == nil {
		return nil
	}
	out := *p
	out.Hand = append([]domain.Card{}, p.Hand...)
	return &out
}

// Hand is one deal of thirteen tricks.
type Hand struct {
	Number          int            `json:"number"`
	TrumpSuit       domain.Suit    `json:"trump_suit"`
	CompletedTricks []domain.Trick `json:"completed_tricks"`
	CurrentTrick    *domain.Trick  `json:"current_trick"`
	TricksPlayed    int            `json:"tricks_played"`
}

func (h *Hand) clone() *Hand {
	if h == nil {
		return nil
	}
	out := *h
	out.CompletedTricks = make([]domain.Trick, len(h.CompletedTricks))
	for i, t := range h.CompletedTricks {
		out.CompletedTricks[i] = *t.Clone()
	}
	out.CurrentTrick = h.CurrentTrick.Clone()
	return &out
}

// HandSummary is appended to the history when a hand completes.
type HandSummary struct {
	Number    int                  `json:"number"`
	TrumpSuit domain.Suit          `json:"trump_suit"`
	TricksWon [domain.NumSeats]int `json:"tricks_won"`
	Winner    domain.Seat          `json:"winner"`
}

// GameState is the authoritative aggregate. Treat it as a value: Reduce
// never mutates its input and callers replace their copy with the result.
type GameState struct {
	Phase       Phase                    `json:"phase"`
	Players     [domain.NumSeats]*Player `json:"players"`
	Hand        *Hand                    `json:"hand"`
	Rules       []rules.Rule             `json:"rules"`
	Scores      [domain.NumSeats]int     `json:"scores"`
	HandHistory []HandSummary            `json:"hand_history"`
}

// NewState returns the empty waiting table.
func NewState() GameState {
	return GameState{
		Phase:       PhaseWaiting,
		Rules:       []rules.Rule{},
		HandHistory: []HandSummary{},
	}
}

// Clone returns a deep copy.
func (s GameState) Clone() GameState {
	out := s
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	out.Hand = s.Hand.clone()
	out.Rules = make([]rules.Rule, len(s.Rules))
	for i, r := range s.Rules {
		out.Rules[i] = r.Clone()
	}
	out.HandHistory = append([]HandSummary{}, s.HandHistory...)
	return out
}

// Player returns the occupant of seat, or nil.
func (s GameState) Player(seat domain.Seat) *Player {
	if !seat.Valid() {
		return nil
	}
	return s.Players[seat]
}

// SeatOf returns the seat held by player id.
func (s GameState) SeatOf(id string) (domain.Seat, bool) {
	for i, p := range s.Players {
		if p != nil && p.ID == id {
			return domain.Seat(i), true
		}
	}
	return domain.NoSeat, false
}

// IsFull reports whether every seat is taken.
func (s GameState) IsFull() bool {
	for _, p := range s.Players {
		if p == nil {
			return false
		}
	}
	return true
}

// HandNumber is the number of the hand in progress, or of the next one to
// be dealt when between hands.
func (s GameState) HandNumber() int {
	if s.Hand != nil && (s.Phase == PhasePlaying || s.Phase == PhaseHandEnd) {
		return s.Hand.Number
	}
	return len(s.HandHistory) + 1
}

// LastHand returns the most recent hand summary.
func (s GameState) LastHand() (HandSummary, bool) {
	if len(s.HandHistory) == 0 {
		return HandSummary{}, false
	}
	return s.HandHistory[len(s.HandHistory)-1], true
}

// ActiveRules returns the rules still in force, in authoring order.
func (s GameState) ActiveRules() []rules.Rule {
	out := make([]rules.Rule, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}
