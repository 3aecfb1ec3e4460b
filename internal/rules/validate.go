package rules

import (
	"fmt"
	"strings"
)

const (
	MaxNameLength        = 64
	MaxDescriptionLength = 280
	MaxPredicateDepth    = 8
	MaxEffects           = 8
)

// ValidateRule returns every structural problem with d. An empty result
// means the draft may be accepted.
func ValidateRule(d Draft) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	name := strings.TrimSpace(d.Name)
	switch {
	case name == "":
		add("name is required")
	case len(name) > MaxNameLength:
		add("name exceeds %d characters", MaxNameLength)
	}
	desc := strings.TrimSpace(d.Description)
	switch {
	case desc == "":
		add("description is required")
	case len(desc) > MaxDescriptionLength:
		add("description exceeds %d characters", MaxDescriptionLength)
	}
	if !d.Event.Valid() {
		add("unknown event %q", d.Event)
	}

	if d.When == nil {
		add("when condition is required")
	} else {
		problems = append(problems, checkPredicate(d.When, "when", 1)...)
	}

	switch {
	case len(d.Then) == 0:
		add("at least one effect is required")
	case len(d.Then) > MaxEffects:
		add("at most %d effects are allowed", MaxEffects)
	}
	for i, eff := range d.Then {
		problems = append(problems, checkEffect(eff, fmt.Sprintf("then[%d]", i))...)
	}
	return problems
}

func checkPredicate(p Predicate, path string, depth int) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, path+": "+fmt.Sprintf(format, args...))
	}
	if depth > MaxPredicateDepth {
		add("nested deeper than %d", MaxPredicateDepth)
		return problems
	}

	switch p := p.(type) {
	case CardPredicate:
		switch p.Target {
		case TargetPlayed, TargetWinning, TargetAny:
		default:
			add("unknown card target %q", p.Target)
		}
		switch p.Property {
		case CardSuit, CardRank, CardValue, CardIsTrump:
		default:
			add("unknown card property %q", p.Property)
		}
		problems = append(problems, checkComparison(path, p.Op, p.Value)...)
	case PlayerPredicate:
		switch p.Property {
		case PlayerPosition, PlayerTricksWon, PlayerCardsInHand, PlayerHasSuit:
		default:
			add("unknown player property %q", p.Property)
		}
		problems = append(problems, checkComparison(path, p.Op, p.Value)...)
	case TrickPredicate:
		switch p.Property {
		case TrickCardCount, TrickLeadSuit, TrickHasTrump, TrickHasDiscard, TrickTrickNumber:
		default:
			add("unknown trick property %q", p.Property)
		}
		problems = append(problems, checkComparison(path, p.Op, p.Value)...)
	case And:
		problems = append(problems, checkChildren(p.Predicates, path+".and", depth)...)
	case Or:
		problems = append(problems, checkChildren(p.Predicates, path+".or", depth)...)
	case Not:
		problems = append(problems, checkChildren(p.Predicates, path+".not", depth)...)
	case nil:
		add("missing predicate")
	default:
		add("unsupported predicate %T", p)
	}
	return problems
}

func checkChildren(children []Predicate, path string, depth int) []string {
	if len(children) == 0 {
		return []string{path + ": needs at least one predicate"}
	}
	var problems []string
	for i, child := range children {
		problems = append(problems, checkPredicate(child, fmt.Sprintf("%s[%d]", path, i), depth+1)...)
	}
	return problems
}

func checkComparison(path string, op Operator, value Literal) []string {
	var problems []string
	if !op.Valid() {
		problems = append(problems, fmt.Sprintf("%s: unknown operator %q", path, op))
		return problems
	}
	if value.IsZero() {
		problems = append(problems, path+": value is required")
		return problems
	}
	isList := value.Kind() == LiteralList
	switch {
	case op.isList() && !isList:
		problems = append(problems, fmt.Sprintf("%s: operator %s needs a list value", path, op))
	case !op.isList() && isList:
		problems = append(problems, fmt.Sprintf("%s: operator %s cannot take a list value", path, op))
	}
	return problems
}

func checkEffect(eff Effect, path string) []string {
	switch eff := eff.(type) {
	case ForbidPlay:
		if eff.CardMatcher != nil {
			return checkPredicate(eff.CardMatcher, path+".cardMatcher", 1)
		}
	case RequirePlay:
		if eff.CardMatcher == nil {
			return []string{path + ": requirePlay needs a card matcher"}
		}
		return checkPredicate(eff.CardMatcher, path+".cardMatcher", 1)
	case ForceDiscard, SkipNextPlayer, ReverseOrder:
	case nil:
		return []string{path + ": missing effect"}
	default:
		return []string{fmt.Sprintf("%s: unsupported effect %T", path, eff)}
	}
	return nil
}
