package rules

import "whist/internal/domain"

// Violation describes one rule that blocked a play.
type Violation struct {
	RuleID         string
	RuleName       string
	Message        string
	AttemptedCard  *domain.Card
	SuggestedMoves []domain.Card
}

// Result aggregates every matching rule for one event.
type Result struct {
	Allowed          bool
	Violations       []Violation
	AppliedEffects   []Effect
	MustPlayFaceDown bool
	SkipNextPlayer   bool
	// Matched lists the IDs of rules whose condition held, in order.
	Matched []string
}

// FirstViolation returns the violation callers conventionally surface.
func (r Result) FirstViolation() (Violation, bool) {
	if len(r.Violations) == 0 {
		return Violation{}, false
	}
	return r.Violations[0], true
}

// Engine evaluates house rules for table events.
type Engine struct {
	eval Evaluator
}

// NewEngine returns an engine that resolves isTrump against the context's
// trump suit.
func NewEngine() *Engine {
	return &Engine{eval: Evaluator{Trump: func(c domain.Card, ctx Context) bool {
		return ctx.Game.TrumpSuit != "" && c.Suit == ctx.Game.TrumpSuit
	}}}
}

// Evaluate runs every active rule listening to event in authoring order.
// Unlike a single rule's effects it does not stop at the first violation.
func (en *Engine) Evaluate(event EventType, list []Rule, ctx Context) Result {
	res := Result{Allowed: true}
	for _, r := range list {
		if !r.IsActive || r.Event != event {
			continue
		}
		if !en.eval.Evaluate(r.When, ctx) {
			continue
		}
		res.Matched = append(res.Matched, r.ID)

		out := en.eval.ApplyEffects(r.Then, ctx)
		res.AppliedEffects = append(res.AppliedEffects, out.Applied...)
		res.MustPlayFaceDown = res.MustPlayFaceDown || out.MustPlayFaceDown
		res.SkipNextPlayer = res.SkipNextPlayer || out.SkipNextPlayer
		if out.Allowed {
			continue
		}
		res.Allowed = false
		v := Violation{
			RuleID:         r.ID,
			RuleName:       r.Name,
			Message:        out.Message,
			SuggestedMoves: Suggest(ctx),
		}
		if ctx.Play != nil {
			c := ctx.Play.Card
			v.AttemptedCard = &c
		}
		res.Violations = append(res.Violations, v)
	}
	return res
}

// Suggest lists the cards the base rules allow, leaving out the attempted one.
func Suggest(ctx Context) []domain.Card {
	cards := domain.PlayableCards(ctx.Player.Hand, ctx.Trick.Cards, ctx.Game.TrumpSuit)
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if ctx.Play != nil && c == ctx.Play.Card {
			continue
		}
		out = append(out, c)
	}
	return out
}
