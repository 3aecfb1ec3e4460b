package domain

// PlayFailure names why a play breaks the base rules.
type PlayFailure string

const (
	FailureNone              PlayFailure = ""
	FailureNotInHand         PlayFailure = "not_in_hand"
	FailureMustFollowSuit    PlayFailure = "must_follow_suit"
	FailureDiscardNotAllowed PlayFailure = "discard_not_allowed"
)

// LegalMove lists the orientations in which a card may be played.
type LegalMove struct {
	Card     Card `json:"card"`
	FaceUp   bool `json:"face_up"`
	FaceDown bool `json:"face_down"`
}

// LegalMoves computes the base-rule options for every card in hand.
// A leader plays anything face up. A follower holding the lead suit must
// play it face up. A void follower may play any card face up or discard
// it face down. Trump is never forced.
func LegalMoves(hand []Card, trick []PlayedCard, trump Suit) []LegalMove {
	moves := make([]LegalMove, 0, len(hand))
	if len(trick) == 0 {
		for _, c := range hand {
			moves = append(moves, LegalMove{Card: c, FaceUp: true})
		}
		return moves
	}
	lead := trick[0].Card.Suit
	canFollow := HasSuit(hand, lead)
	for _, c := range hand {
		switch {
		case canFollow:
			moves = append(moves, LegalMove{Card: c, FaceUp: c.Suit == lead})
		default:
			moves = append(moves, LegalMove{Card: c, FaceUp: true, FaceDown: true})
		}
	}
	return moves
}

// PlayableCards returns the cards allowed in at least one orientation.
func PlayableCards(hand []Card, trick []PlayedCard, trump Suit) []Card {
	out := make([]Card, 0, len(hand))
	for _, m := range LegalMoves(hand, trick, trump) {
		if m.FaceUp || m.FaceDown {
			out = append(out, m.Card)
		}
	}
	return out
}

// IsLegalPlay checks a single play against the base rules.
func IsLegalPlay(hand []Card, trick []PlayedCard, trump Suit, card Card, faceDown bool) (bool, PlayFailure) {
	if !ContainsCard(hand, card) {
		return false, FailureNotInHand
	}
	if len(trick) == 0 {
		if faceDown {
			return false, FailureDiscardNotAllowed
		}
		return true, FailureNone
	}
	lead := trick[0].Card.Suit
	if !HasSuit(hand, lead) {
		return true, FailureNone
	}
	if faceDown {
		return false, FailureDiscardNotAllowed
	}
	if card.Suit != lead {
		return false, FailureMustFollowSuit
	}
	return true, FailureNone
}
