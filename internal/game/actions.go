package game

import (
	"whist/internal/domain"
	"whist/internal/rules"
)

// ActionType names a state transition.
type ActionType string

const (
	ActionAddPlayer          ActionType = "ADD_PLAYER"
	ActionRemovePlayer       ActionType = "REMOVE_PLAYER"
	ActionStartHand          ActionType = "START_HAND"
	ActionPlayCard           ActionType = "PLAY_CARD"
	ActionCompleteTrick      ActionType = "COMPLETE_TRICK"
	ActionCompleteHand       ActionType = "COMPLETE_HAND"
	ActionAddRule            ActionType = "ADD_RULE"
	ActionStartNextHand      ActionType = "START_NEXT_HAND"
	ActionEndGame            ActionType = "END_GAME"
	ActionSetPlayerConnected ActionType = "SET_PLAYER_CONNECTED"
)

// Action is one discrete input to Reduce. Only the fields relevant to Type
// are read.
type Action struct {
	Type ActionType  `json:"type"`
	Seat domain.Seat `json:"seat"`

	PlayerID  string `json:"player_id,omitempty"`
	Name      string `json:"name,omitempty"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Connected bool   `json:"connected,omitempty"`

	Trump  domain.Suit     `json:"trump,omitempty"`
	Hands  [][]domain.Card `json:"hands,omitempty"`
	Leader domain.Seat     `json:"leader,omitempty"`

	Card     *domain.Card `json:"card,omitempty"`
	FaceDown bool         `json:"face_down,omitempty"`
	SkipNext bool         `json:"skip_next,omitempty"`

	Winner domain.Seat `json:"winner,omitempty"`
	Rule   *rules.Rule `json:"rule,omitempty"`
}

func AddPlayer(seat domain.Seat, id, name string, isBot bool) Action {
	return Action{Type: ActionAddPlayer, Seat: seat, PlayerID: id, Name: name, IsBot: isBot}
}

func RemovePlayer(seat domain.Seat) Action {
	return Action{Type: ActionRemovePlayer, Seat: seat}
}

// StartHand deals hands (indexed by seat) with the given trump and leader.
func StartHand(trump domain.Suit, hands [domain.NumSeats][]domain.Card, leader domain.Seat) Action {
	copied := make([][]domain.Card, domain.NumSeats)
	for i, h := range hands {
		copied[i] = append([]domain.Card{}, h...)
	}
	return Action{Type: ActionStartHand, Seat: leader, Trump: trump, Hands: copied, Leader: leader}
}

func PlayCard(seat domain.Seat, c domain.Card, faceDown, skipNext bool) Action {
	return Action{Type: ActionPlayCard, Seat: seat, Card: &c, FaceDown: faceDown, SkipNext: skipNext}
}

func CompleteTrick(winner domain.Seat) Action {
	return Action{Type: ActionCompleteTrick, Seat: winner, Winner: winner}
}

func CompleteHand(winner domain.Seat) Action {
	return Action{Type: ActionCompleteHand, Seat: winner, Winner: winner}
}

func AddRule(r rules.Rule) Action {
	r = r.Clone()
	return Action{Type: ActionAddRule, Seat: r.CreatedBy, Rule: &r}
}

func StartNextHand() Action {
	return Action{Type: ActionStartNextHand, Seat: domain.NoSeat}
}

func EndGame() Action {
	return Action{Type: ActionEndGame, Seat: domain.NoSeat}
}

func SetPlayerConnected(seat domain.Seat, connected bool) Action {
	return Action{Type: ActionSetPlayerConnected, Seat: seat, Connected: connected}
}
