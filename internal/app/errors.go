package app

import (
	"errors"
	"fmt"
	"strings"

	"whist/internal/domain"
	"whist/internal/rules"
)

var (
	ErrUnknownSeat          = errors.New("unknown seat")
	ErrSeatOccupied         = errors.New("seat already occupied")
	ErrSeatEmpty            = errors.New("seat is empty")
	ErrDuplicatePlayer      = errors.New("player already seated")
	ErrGameInProgress       = errors.New("game already started")
	ErrTableNotFull         = errors.New("not enough players to start")
	ErrNotDealing           = errors.New("game not ready to deal")
	ErrNotPlaying           = errors.New("game not in playing phase")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrNotRuleCreationPhase = errors.New("game not in rule creation phase")
	ErrNotHandWinner        = errors.New("only the hand winner may add a rule")
	ErrRuleLimitReached     = errors.New("rule limit reached")
	ErrGameOver             = errors.New("game is over")

	ErrIllegalPlay   = errors.New("illegal play")
	ErrRuleViolation = errors.New("play blocked by house rule")
	ErrInvalidRule   = errors.New("invalid rule")
)

// IllegalPlayError is a play rejected by the base rules.
type IllegalPlayError struct {
	Card   domain.Card
	Reason domain.PlayFailure
}

func (e *IllegalPlayError) Error() string {
	return fmt.Sprintf("illegal play %s: %s", e.Card, e.Reason)
}

func (e *IllegalPlayError) Is(target error) bool { return target == ErrIllegalPlay }

// RuleViolationError is a base-legal play blocked by a house rule. Violation
// is the first one; All holds every rule that objected.
type RuleViolationError struct {
	Violation rules.Violation
	All       []rules.Violation
}

func (e *RuleViolationError) Error() string {
	if e.Violation.Message != "" {
		return e.Violation.Message
	}
	return fmt.Sprintf("blocked by rule %q", e.Violation.RuleName)
}

func (e *RuleViolationError) Is(target error) bool { return target == ErrRuleViolation }

// RuleValidationError lists every problem found in a rule draft.
type RuleValidationError struct {
	Problems []string
}

func (e *RuleValidationError) Error() string {
	return "invalid rule: " + strings.Join(e.Problems, "; ")
}

func (e *RuleValidationError) Is(target error) bool { return target == ErrInvalidRule }
