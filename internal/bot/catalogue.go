package bot

import "whist/internal/rules"

// Catalogue returns the house rules bots author, in a fixed order.
func Catalogue() []rules.Draft {
	return []rules.Draft{
		{
			Name:        "Odd after seven",
			Description: "once a seven is on the table, odd cards are forbidden",
			Event:       rules.OnPlayAttempt,
			When:        rules.CardPredicate{Target: rules.TargetAny, Property: rules.CardRank, Op: rules.OpEq, Value: rules.Str("7")},
			Then: []rules.Effect{rules.ForbidPlay{
				CardMatcher: rules.CardPredicate{Target: rules.TargetPlayed, Property: rules.CardValue, Op: rules.OpIn, Value: rules.Ints(3, 5, 7, 9, 11, 13)},
				Message:     "No odd cards after a seven",
			}},
		},
		{
			Name:        "No trump lead",
			Description: "trump may not open a trick",
			Event:       rules.OnPlayAttempt,
			When:        rules.TrickPredicate{Property: rules.TrickCardCount, Op: rules.OpEq, Value: rules.Int(0)},
			Then: []rules.Effect{rules.ForbidPlay{
				CardMatcher: rules.CardPredicate{Target: rules.TargetPlayed, Property: rules.CardIsTrump, Op: rules.OpEq, Value: rules.Bool(true)},
				Message:     "Trump cannot be led",
			}},
		},
		{
			Name:        "Hearts go dark",
			Description: "when hearts are led, a player without hearts must discard",
			Event:       rules.OnPlayAttempt,
			When: rules.And{Predicates: []rules.Predicate{
				rules.TrickPredicate{Property: rules.TrickLeadSuit, Op: rules.OpEq, Value: rules.Str("hearts")},
				rules.PlayerPredicate{Property: rules.PlayerHasSuit, Op: rules.OpNeq, Value: rules.Str("hearts")},
			}},
			Then: []rules.Effect{rules.ForceDiscard{Message: "Void in hearts: discard face down"}},
		},
		{
			Name:        "Leapfrog",
			Description: "a leader with three or more tricks skips the next player",
			Event:       rules.OnPlayAttempt,
			When: rules.And{Predicates: []rules.Predicate{
				rules.TrickPredicate{Property: rules.TrickCardCount, Op: rules.OpEq, Value: rules.Int(0)},
				rules.PlayerPredicate{Property: rules.PlayerTricksWon, Op: rules.OpGte, Value: rules.Int(3)},
			}},
			Then: []rules.Effect{rules.SkipNextPlayer{}},
		},
		{
			Name:        "Kings first",
			Description: "on the first trick a king must be played when held",
			Event:       rules.OnPlayAttempt,
			When:        rules.TrickPredicate{Property: rules.TrickTrickNumber, Op: rules.OpEq, Value: rules.Int(1)},
			Then: []rules.Effect{rules.RequirePlay{
				CardMatcher: rules.CardPredicate{Target: rules.TargetPlayed, Property: rules.CardRank, Op: rules.OpEq, Value: rules.Str("K")},
				Message:     "Play a king on the first trick",
			}},
		},
		{
			Name:        "Low road",
			Description: "face cards and aces are barred from the last two tricks",
			Event:       rules.OnPlayAttempt,
			When:        rules.TrickPredicate{Property: rules.TrickTrickNumber, Op: rules.OpGte, Value: rules.Int(12)},
			Then: []rules.Effect{rules.ForbidPlay{
				CardMatcher: rules.CardPredicate{Target: rules.TargetPlayed, Property: rules.CardValue, Op: rules.OpGte, Value: rules.Int(11)},
				Message:     "No high cards in the last two tricks",
			}},
		},
	}
}
