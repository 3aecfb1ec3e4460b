package rules

// EffectResult is the outcome of applying one rule's effects.
type EffectResult struct {
	Allowed          bool
	Message          string
	MustPlayFaceDown bool
	SkipNextPlayer   bool
	Applied          []Effect
}

// ApplyEffects runs effects with the zero Evaluator.
func ApplyEffects(effects []Effect, ctx Context) EffectResult {
	return Evaluator{}.ApplyEffects(effects, ctx)
}

// ApplyEffects applies effects in order and stops at the first one that
// blocks the play.
func (e Evaluator) ApplyEffects(effects []Effect, ctx Context) EffectResult {
	res := EffectResult{Allowed: true}
	for _, eff := range effects {
		if eff == nil {
			continue
		}
		res.Applied = append(res.Applied, eff)

		switch eff := eff.(type) {
		case ForbidPlay:
			if eff.CardMatcher == nil || (ctx.Play != nil && e.Evaluate(eff.CardMatcher, ctx.withPlayed(ctx.Play.Card))) {
				res.Allowed = false
				res.Message = eff.Message
			}
		case RequirePlay:
			if ctx.Play == nil || eff.CardMatcher == nil {
				continue
			}
			if e.holdsMatch(eff.CardMatcher, ctx) && !e.Evaluate(eff.CardMatcher, ctx.withPlayed(ctx.Play.Card)) {
				res.Allowed = false
				res.Message = eff.Message
			}
		case ForceDiscard:
			res.MustPlayFaceDown = true
			if ctx.Play != nil && !ctx.Play.FaceDown {
				res.Allowed = false
				res.Message = eff.Message
			}
		case SkipNextPlayer:
			res.SkipNextPlayer = true
		case ReverseOrder:
		}

		if !res.Allowed {
			return res
		}
	}
	return res
}

func (e Evaluator) holdsMatch(matcher Predicate, ctx Context) bool {
	for _, c := range ctx.Player.Hand {
		if e.Evaluate(matcher, ctx.withPlayed(c)) {
			return true
		}
	}
	return false
}
