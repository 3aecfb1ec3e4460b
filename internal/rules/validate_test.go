package rules

import (
	"strings"
	"testing"
)

func validDraft() Draft {
	r := oddAfterSeven("")
	return Draft{Name: r.Name, Description: r.Description, Event: r.Event, When: r.When, Then: r.Then}
}

func TestValidateRuleAcceptsValidDraft(t *testing.T) {
	if problems := ValidateRule(validDraft()); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestValidateRuleAggregates(t *testing.T) {
	problems := ValidateRule(Draft{Event: "onShuffle"})
	want := []string{"name is required", "description is required", "unknown event", "when condition is required", "at least one effect"}
	if len(problems) != len(want) {
		t.Fatalf("expected %d problems, got %d: %v", len(want), len(problems), problems)
	}
	for i, w := range want {
		if !strings.Contains(problems[i], w) {
			t.Errorf("problem %d: expected %q in %q", i, w, problems[i])
		}
	}
}

func TestValidateRuleStructure(t *testing.T) {
	deep := Predicate(always)
	for i := 0; i < MaxPredicateDepth; i++ {
		deep = And{Predicates: []Predicate{deep}}
	}

	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   string
	}{
		{name: "blank name", mutate: func(d *Draft) { d.Name = "   " }, want: "name is required"},
		{name: "long name", mutate: func(d *Draft) { d.Name = strings.Repeat("x", MaxNameLength+1) }, want: "name exceeds"},
		{name: "unknown target", mutate: func(d *Draft) {
			d.When = CardPredicate{Target: "under", Property: CardSuit, Op: OpEq, Value: Str("hearts")}
		}, want: "unknown card target"},
		{name: "unknown operator", mutate: func(d *Draft) {
			d.When = PlayerPredicate{Property: PlayerTricksWon, Op: "approx", Value: Int(1)}
		}, want: "unknown operator"},
		{name: "unknown trick property", mutate: func(d *Draft) {
			d.When = TrickPredicate{Property: "color", Op: OpEq, Value: Int(1)}
		}, want: "unknown trick property"},
		{name: "in without list", mutate: func(d *Draft) {
			d.When = CardPredicate{Target: TargetPlayed, Property: CardValue, Op: OpIn, Value: Int(3)}
		}, want: "needs a list value"},
		{name: "eq with list", mutate: func(d *Draft) {
			d.When = CardPredicate{Target: TargetPlayed, Property: CardValue, Op: OpEq, Value: Ints(3)}
		}, want: "cannot take a list value"},
		{name: "missing value", mutate: func(d *Draft) {
			d.When = CardPredicate{Target: TargetPlayed, Property: CardValue, Op: OpEq}
		}, want: "value is required"},
		{name: "empty compound", mutate: func(d *Draft) { d.When = Or{} }, want: "needs at least one predicate"},
		{name: "too deep", mutate: func(d *Draft) { d.When = deep }, want: "nested deeper"},
		{name: "require without matcher", mutate: func(d *Draft) { d.Then = []Effect{RequirePlay{Message: "x"}} }, want: "needs a card matcher"},
		{name: "nil effect", mutate: func(d *Draft) { d.Then = []Effect{nil} }, want: "missing effect"},
		{name: "bad matcher", mutate: func(d *Draft) {
			d.Then = []Effect{ForbidPlay{CardMatcher: Not{}}}
		}, want: "then[0].cardMatcher.not: needs at least one predicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			problems := ValidateRule(d)
			found := false
			for _, p := range problems {
				if strings.Contains(p, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a problem containing %q, got %v", tt.want, problems)
			}
		})
	}
}
