package bot

import (
	"math/rand"
	"sort"

	"whist/internal/app"
	"whist/internal/bot/brain"
	"whist/internal/domain"
	"whist/internal/rules"
)

// split separates the permitted moves by orientation.
func split(view app.ClientView) (up, down []domain.Card) {
	for _, mv := range view.PermittedMoves {
		if mv.FaceUp {
			up = append(up, mv.Card)
		}
		if mv.FaceDown {
			down = append(down, mv.Card)
		}
	}
	return up, down
}

// strength orders cards for the holder: any trump outranks any plain card.
func strength(c domain.Card, trump domain.Suit) int {
	v := c.Rank.Value()
	if c.Suit == trump {
		v += int(domain.Ace)
	}
	return v
}

func byStrength(cards []domain.Card, trump domain.Suit) []domain.Card {
	out := append([]domain.Card{}, cards...)
	sort.SliceStable(out, func(i, j int) bool { return strength(out[i], trump) < strength(out[j], trump) })
	return out
}

func leading(view app.ClientView) bool {
	return view.Trick == nil || len(view.Trick.Cards) == 0
}

// wins reports whether playing c face up would take the lead in the trick.
func wins(view app.ClientView, c domain.Card) bool {
	if leading(view) {
		return false
	}
	cards := make([]domain.PlayedCard, 0, len(view.Trick.Cards)+1)
	for _, tc := range view.Trick.Cards {
		pc := domain.PlayedCard{PlayedBy: tc.Seat, FaceDown: tc.FaceDown || tc.Card == nil}
		if tc.Card != nil {
			pc.Card = *tc.Card
		}
		cards = append(cards, pc)
	}
	cards = append(cards, domain.PlayedCard{Card: c, PlayedBy: view.Seat})
	best, ok := domain.CurrentWinner(cards, view.TrumpSuit, view.Trick.LeadSuit)
	return ok && best.PlayedBy == view.Seat
}

func winners(view app.ClientView, up []domain.Card) []domain.Card {
	var out []domain.Card
	for _, c := range byStrength(up, view.TrumpSuit) {
		if wins(view, c) {
			out = append(out, c)
		}
	}
	return out
}

// draftFrom offers the catalogue rule at pick, skipping rules already in play.
func draftFrom(view app.ClientView, pick int) (rules.Draft, bool) {
	if !view.CanCreateRule {
		return rules.Draft{}, false
	}
	inPlay := make(map[string]bool, len(view.Rules))
	for _, r := range view.Rules {
		inPlay[r.Name] = true
	}
	catalogue := Catalogue()
	for i := 0; i < len(catalogue); i++ {
		d := catalogue[(pick+i)%len(catalogue)]
		if !inPlay[d.Name] {
			return d, true
		}
	}
	return rules.Draft{}, false
}

// LowestBot plays its lowest permitted card. When void it wins cheaply if it
// can and otherwise discards its lowest card face down.
type LowestBot struct{}

func (b *LowestBot) CalculateMove(view app.ClientView) (Move, error) {
	up, down := split(view)
	if len(up) == 0 && len(down) == 0 {
		return Move{}, ErrNoMove
	}
	if len(down) > 0 {
		if w := winners(view, up); len(w) > 0 {
			return Move{Card: w[0]}, nil
		}
		return Move{Card: byStrength(down, view.TrumpSuit)[0], FaceDown: true}, nil
	}
	return Move{Card: byStrength(up, view.TrumpSuit)[0]}, nil
}

func (b *LowestBot) DraftRule(view app.ClientView) (rules.Draft, bool) {
	return draftFrom(view, view.HandNumber-1)
}

func (b *LowestBot) OnEvent(app.Event) {}

// RandomBot picks uniformly among permitted moves.
type RandomBot struct {
	rng *rand.Rand
}

func NewRandomBot(rng *rand.Rand) *RandomBot {
	return &RandomBot{rng: rng}
}

func (b *RandomBot) CalculateMove(view app.ClientView) (Move, error) {
	var moves []Move
	for _, mv := range view.PermittedMoves {
		if mv.FaceUp {
			moves = append(moves, Move{Card: mv.Card})
		}
		if mv.FaceDown {
			moves = append(moves, Move{Card: mv.Card, FaceDown: true})
		}
	}
	if len(moves) == 0 {
		return Move{}, ErrNoMove
	}
	return moves[b.rng.Intn(len(moves))], nil
}

func (b *RandomBot) DraftRule(view app.ClientView) (rules.Draft, bool) {
	return draftFrom(view, b.rng.Intn(len(Catalogue())))
}

func (b *RandomBot) OnEvent(app.Event) {}

// SmartBot remembers the cards seen this hand. It leads winners nobody can
// trump, takes tricks only with cards that hold, and saves trump when
// discarding.
type SmartBot struct {
	Memory *brain.HandMemory
}

func NewSmartBot() *SmartBot {
	return &SmartBot{Memory: brain.NewMemory()}
}

func (b *SmartBot) OnEvent(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.HandStartedPayload:
		b.Memory.Reset(p.TrumpSuit)
	case app.TrickCompletedPayload:
		b.Memory.RecordTrick(p.Cards)
	}
}

func (b *SmartBot) CalculateMove(view app.ClientView) (Move, error) {
	up, down := split(view)
	if len(up) == 0 && len(down) == 0 {
		return Move{}, ErrNoMove
	}
	mem := b.Memory
	mem.Trump = view.TrumpSuit
	mem.UpdateHand(view.Hand)
	if view.Trick != nil {
		for _, tc := range view.Trick.Cards {
			if tc.Card != nil && !tc.FaceDown {
				mem.MarkPlayed([]domain.Card{*tc.Card})
			}
		}
	}
	trump := view.TrumpSuit

	if leading(view) {
		ordered := byStrength(up, trump)
		for i := len(ordered) - 1; i >= 0; i-- {
			c := ordered[i]
			if c.Suit != trump && mem.IsBoss(c) && !mem.AnyVoid(c.Suit, view.Seat) {
				return Move{Card: c}, nil
			}
		}
		for _, c := range ordered {
			if c.Suit != trump {
				return Move{Card: c}, nil
			}
		}
		return Move{Card: ordered[0]}, nil
	}

	last := len(view.Trick.Cards) == domain.NumSeats-1
	for _, c := range winners(view, up) {
		if last || mem.IsBoss(c) {
			return Move{Card: c}, nil
		}
	}
	if len(down) > 0 {
		return Move{Card: byStrength(down, trump)[0], FaceDown: true}, nil
	}
	return Move{Card: byStrength(up, trump)[0]}, nil
}

// DraftRule picks the first catalogue rule not yet in play.
func (b *SmartBot) DraftRule(view app.ClientView) (rules.Draft, bool) {
	return draftFrom(view, 0)
}
