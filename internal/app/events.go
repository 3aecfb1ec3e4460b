package app

import (
	"whist/internal/domain"
	"whist/internal/game"
	"whist/internal/rules"
)

// EventKind identifies emitted game events for dispatch.
type EventKind string

const (
	EventPlayerJoined     EventKind = "player_joined"
	EventPlayerLeft       EventKind = "player_left"
	EventPlayerConnection EventKind = "player_connection"
	EventHandStarted      EventKind = "hand_started"
	EventHandDealt        EventKind = "hand_dealt"
	EventCardPlayed       EventKind = "card_played"
	EventTrickCompleted   EventKind = "trick_completed"
	EventHandCompleted    EventKind = "hand_completed"
	EventRuleAdded        EventKind = "rule_added"
	EventRuleTriggered    EventKind = "rule_triggered"
	EventRulesSuspended   EventKind = "rules_suspended"
	EventGameEnded        EventKind = "game_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []domain.Seat // empty means broadcast
}

type PlayerJoinedPayload struct {
	Seat     domain.Seat `json:"seat"`
	PlayerID string      `json:"player_id"`
	Name     string      `json:"name"`
	IsBot    bool        `json:"is_bot"`
}

type PlayerLeftPayload struct {
	Seat     domain.Seat `json:"seat"`
	PlayerID string      `json:"player_id"`
}

type PlayerConnectionPayload struct {
	Seat      domain.Seat `json:"seat"`
	Connected bool        `json:"connected"`
}

type HandStartedPayload struct {
	HandNumber int         `json:"hand_number"`
	TrumpSuit  domain.Suit `json:"trump_suit"`
	Leader     domain.Seat `json:"leader"`
}

type HandDealtPayload struct {
	Seat domain.Seat   `json:"seat"`
	Hand []domain.Card `json:"hand"`
}

// CardPlayedPayload carries no card identity for face-down plays.
type CardPlayedPayload struct {
	Seat        domain.Seat  `json:"seat"`
	Card        *domain.Card `json:"card,omitempty"`
	FaceDown    bool         `json:"face_down"`
	TrickNumber int          `json:"trick_number"`
	NextSeat    domain.Seat  `json:"next_seat"`
}

type TrickCompletedPayload struct {
	TrickNumber int         `json:"trick_number"`
	Winner      domain.Seat `json:"winner"`
	Cards       []TableCard `json:"cards"`
}

type HandCompletedPayload struct {
	HandNumber int                  `json:"hand_number"`
	TricksWon  [domain.NumSeats]int `json:"tricks_won"`
	Winner     domain.Seat          `json:"winner"`
	Scores     [domain.NumSeats]int `json:"scores"`
}

type RuleAddedPayload struct {
	Rule rules.Rule `json:"rule"`
}

type RuleTriggeredPayload struct {
	RuleID   string             `json:"rule_id"`
	RuleName string             `json:"rule_name"`
	Event    rules.EventType    `json:"event"`
	Effects  []rules.EffectKind `json:"effects"`
}

type RulesSuspendedPayload struct {
	Seat    domain.Seat `json:"seat"`
	RuleIDs []string    `json:"rule_ids"`
}

type GameEndedPayload struct {
	Standings []Standing `json:"standings"`
	Phase     game.Phase `json:"phase"`
}

// Standing is one line of the final table.
type Standing struct {
	Rank     int         `json:"rank"`
	Seat     domain.Seat `json:"seat"`
	PlayerID string      `json:"player_id"`
	Name     string      `json:"name"`
	Score    int         `json:"score"`
}
