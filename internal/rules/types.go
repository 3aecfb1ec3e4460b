package rules

import (
	"time"

	"whist/internal/domain"
)

// EventType selects the table event a rule listens to.
type EventType string

const (
	OnPlayAttempt  EventType = "onPlayAttempt"
	OnPlayAccepted EventType = "onPlayAccepted"
	OnTrickEnd     EventType = "onTrickEnd"
	OnHandEnd      EventType = "onHandEnd"
)

func (e EventType) Valid() bool {
	switch e {
	case OnPlayAttempt, OnPlayAccepted, OnTrickEnd, OnHandEnd:
		return true
	}
	return false
}

// Operator compares a context value with a rule literal.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpLt    Operator = "lt"
	OpGte   Operator = "gte"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpIn, OpNotIn:
		return true
	}
	return false
}

func (o Operator) isList() bool { return o == OpIn || o == OpNotIn }

type CardTarget string

const (
	TargetPlayed  CardTarget = "played"
	TargetWinning CardTarget = "winning"
	TargetAny     CardTarget = "any"
)

type CardProperty string

const (
	CardSuit    CardProperty = "suit"
	CardRank    CardProperty = "rank"
	CardValue   CardProperty = "value"
	CardIsTrump CardProperty = "isTrump"
)

type PlayerProperty string

const (
	PlayerPosition    PlayerProperty = "position"
	PlayerTricksWon   PlayerProperty = "tricksWon"
	PlayerCardsInHand PlayerProperty = "cardsInHand"
	PlayerHasSuit     PlayerProperty = "hasSuit"
)

type TrickProperty string

const (
	TrickCardCount   TrickProperty = "cardCount"
	TrickLeadSuit    TrickProperty = "leadSuit"
	TrickHasTrump    TrickProperty = "hasTrump"
	TrickHasDiscard  TrickProperty = "hasDiscard"
	TrickTrickNumber TrickProperty = "trickNumber"
)

// PredicateKind tags a predicate node.
type PredicateKind string

const (
	KindCard   PredicateKind = "card"
	KindPlayer PredicateKind = "player"
	KindTrick  PredicateKind = "trick"
	KindAnd    PredicateKind = "and"
	KindOr     PredicateKind = "or"
	KindNot    PredicateKind = "not"
)

// Predicate is a node of a rule condition tree. The set of implementations
// is closed to this package.
type Predicate interface {
	Kind() PredicateKind
	predicateNode()
}

// CardPredicate tests a property of a card picked by Target.
type CardPredicate struct {
	Target   CardTarget
	Property CardProperty
	Op       Operator
	Value    Literal
}

// PlayerPredicate tests the acting player.
type PlayerPredicate struct {
	Property PlayerProperty
	Op       Operator
	Value    Literal
}

// TrickPredicate tests the trick in progress.
type TrickPredicate struct {
	Property TrickProperty
	Op       Operator
	Value    Literal
}

// And holds when every child holds.
type And struct{ Predicates []Predicate }

// Or holds when at least one child holds.
type Or struct{ Predicates []Predicate }

// Not holds unless every child holds. With several children this is NAND,
// not a negation of each child.
type Not struct{ Predicates []Predicate }

func (CardPredicate) Kind() PredicateKind   { return KindCard }
func (PlayerPredicate) Kind() PredicateKind { return KindPlayer }
func (TrickPredicate) Kind() PredicateKind  { return KindTrick }
func (And) Kind() PredicateKind             { return KindAnd }
func (Or) Kind() PredicateKind              { return KindOr }
func (Not) Kind() PredicateKind             { return KindNot }

func (CardPredicate) predicateNode()   {}
func (PlayerPredicate) predicateNode() {}
func (TrickPredicate) predicateNode()  {}
func (And) predicateNode()             {}
func (Or) predicateNode()              {}
func (Not) predicateNode()             {}

// EffectKind tags an effect node.
type EffectKind string

const (
	KindForbidPlay     EffectKind = "forbidPlay"
	KindRequirePlay    EffectKind = "requirePlay"
	KindForceDiscard   EffectKind = "forceDiscard"
	KindSkipNextPlayer EffectKind = "skipNextPlayer"
	KindReverseOrder   EffectKind = "reverseOrder"
)

// Effect is one consequence of a matching rule.
type Effect interface {
	Kind() EffectKind
	effectNode()
}

// ForbidPlay blocks the play, or only plays matching CardMatcher when set.
type ForbidPlay struct {
	CardMatcher Predicate
	Message     string
}

// RequirePlay forces a matching card whenever the player holds one.
type RequirePlay struct {
	CardMatcher Predicate
	Message     string
}

// ForceDiscard requires the play to go face down.
type ForceDiscard struct{ Message string }

// SkipNextPlayer passes over the next seat once in the current trick.
type SkipNextPlayer struct{}

// ReverseOrder is recorded but not enacted.
type ReverseOrder struct{}

func (ForbidPlay) Kind() EffectKind     { return KindForbidPlay }
func (RequirePlay) Kind() EffectKind    { return KindRequirePlay }
func (ForceDiscard) Kind() EffectKind   { return KindForceDiscard }
func (SkipNextPlayer) Kind() EffectKind { return KindSkipNextPlayer }
func (ReverseOrder) Kind() EffectKind   { return KindReverseOrder }

func (ForbidPlay) effectNode()     {}
func (RequirePlay) effectNode()    {}
func (ForceDiscard) effectNode()   {}
func (SkipNextPlayer) effectNode() {}
func (ReverseOrder) effectNode()   {}

// Draft is a rule as submitted by a player, before it is accepted.
type Draft struct {
	Name        string
	Description string
	Event       EventType
	When        Predicate
	Then        []Effect
}

// Rule is an accepted house rule. Rules never change once created.
type Rule struct {
	ID            string
	Name          string
	Description   string
	CreatedBy     domain.Seat
	CreatedAtHand int
	CreatedAt     time.Time
	Event         EventType
	When          Predicate
	Then          []Effect
	IsActive      bool
}

// Clone copies the effect slice so callers cannot share backing arrays.
// Predicate trees are treated as immutable values.
func (r Rule) Clone() Rule {
	r.Then = append([]Effect(nil), r.Then...)
	return r
}
