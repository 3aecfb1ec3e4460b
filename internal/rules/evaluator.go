package rules

import "whist/internal/domain"

// TrumpResolver decides whether a card counts as trump for isTrump tests.
type TrumpResolver func(card domain.Card, ctx Context) bool

// Evaluator interprets predicate trees. The zero value cannot resolve
// isTrump, so such card tests are always false.
type Evaluator struct {
	Trump TrumpResolver
}

// Evaluate runs p against ctx using the zero Evaluator.
func Evaluate(p Predicate, ctx Context) bool {
	return Evaluator{}.Evaluate(p, ctx)
}

// Evaluate reports whether p holds in ctx. A nil predicate never holds.
func (e Evaluator) Evaluate(p Predicate, ctx Context) bool {
	switch p := p.(type) {
	case CardPredicate:
		return e.card(p, ctx)
	case PlayerPredicate:
		return player(p, ctx)
	case TrickPredicate:
		return trick(p, ctx)
	case And:
		for _, child := range p.Predicates {
			if !e.Evaluate(child, ctx) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range p.Predicates {
			if e.Evaluate(child, ctx) {
				return true
			}
		}
		return false
	case Not:
		for _, child := range p.Predicates {
			if !e.Evaluate(child, ctx) {
				return true
			}
		}
		return false
	}
	return false
}

func (e Evaluator) card(p CardPredicate, ctx Context) bool {
	switch p.Target {
	case TargetPlayed:
		if ctx.Play == nil {
			return false
		}
		return e.cardMatches(ctx.Play.Card, p, ctx)
	case TargetWinning:
		best, ok := domain.CurrentWinner(ctx.Trick.Cards, ctx.Game.TrumpSuit, ctx.Trick.LeadSuit)
		if !ok {
			return false
		}
		return e.cardMatches(best.Card, p, ctx)
	case TargetAny:
		for _, pc := range ctx.Trick.Cards {
			if e.cardMatches(pc.Card, p, ctx) {
				return true
			}
		}
	}
	return false
}

func (e Evaluator) cardMatches(c domain.Card, p CardPredicate, ctx Context) bool {
	var actual Literal
	switch p.Property {
	case CardSuit:
		actual = Str(string(c.Suit))
	case CardRank:
		actual = Str(c.Rank.String())
	case CardValue:
		actual = Int(c.Rank.Value())
	case CardIsTrump:
		if e.Trump == nil {
			return false
		}
		actual = Bool(e.Trump(c, ctx))
	default:
		return false
	}
	return compare(actual, p.Op, p.Value)
}

func player(p PlayerPredicate, ctx Context) bool {
	switch p.Property {
	case PlayerPosition:
		return compare(Str(ctx.Player.Seat.String()), p.Op, p.Value)
	case PlayerTricksWon:
		return compare(Int(ctx.Player.TricksWon), p.Op, p.Value)
	case PlayerCardsInHand:
		return compare(Int(len(ctx.Player.Hand)), p.Op, p.Value)
	case PlayerHasSuit:
		return hasSuit(ctx.Player.Hand, p.Op, p.Value)
	}
	return false
}

// hasSuit treats the operand as the suit (or suits) to look for.
func hasSuit(hand []domain.Card, op Operator, operand Literal) bool {
	holds := func(l Literal) bool {
		for _, c := range hand {
			if equal(Str(string(c.Suit)), l) {
				return true
			}
		}
		return false
	}
	switch op {
	case OpEq:
		return operand.kind != LiteralList && holds(operand)
	case OpNeq:
		return operand.kind != LiteralList && !holds(operand)
	case OpIn, OpNotIn:
		if operand.kind != LiteralList {
			return false
		}
		held := false
		for _, item := range operand.list {
			if holds(item) {
				held = true
				break
			}
		}
		return held == (op == OpIn)
	}
	return false
}

func trick(p TrickPredicate, ctx Context) bool {
	var actual Literal
	switch p.Property {
	case TrickCardCount:
		actual = Int(len(ctx.Trick.Cards))
	case TrickLeadSuit:
		actual = Str(string(ctx.Trick.LeadSuit))
	case TrickHasTrump:
		found := false
		for _, pc := range ctx.Trick.Cards {
			if !pc.FaceDown && ctx.Game.TrumpSuit != "" && pc.Card.Suit == ctx.Game.TrumpSuit {
				found = true
				break
			}
		}
		actual = Bool(found)
	case TrickHasDiscard:
		found := false
		for _, pc := range ctx.Trick.Cards {
			if pc.FaceDown {
				found = true
				break
			}
		}
		actual = Bool(found)
	case TrickTrickNumber:
		actual = Int(ctx.Trick.TrickNumber)
	default:
		return false
	}
	return compare(actual, p.Op, p.Value)
}
