package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// AllSuits lists the suits in deck order.
func AllSuits() []Suit {
	return []Suit{Hearts, Diamonds, Clubs, Spades}
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Symbol returns the unicode pip for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

func (s Suit) letter() string {
	if !s.Valid() {
		return "?"
	}
	return strings.ToUpper(string(s[0]))
}

func parseSuitLetter(b byte) (Suit, bool) {
	switch b {
	case 'H', 'h':
		return Hearts, true
	case 'D', 'd':
		return Diamonds, true
	case 'C', 'c':
		return Clubs, true
	case 'S', 's':
		return Spades, true
	}
	return "", false
}

// Rank is the card rank. Its numeric value runs from 2 up to 14 for the ace.
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Valid reports whether r is within 2..A.
func (r Rank) Valid() bool { return r >= Two && r <= Ace }

// Value is the numeric rank used for ordering.
func (r Rank) Value() int { return int(r) }

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r.Valid() {
		return strconv.Itoa(int(r))
	}
	return "?"
}

// ParseRank accepts "2".."10", "J", "Q", "K" and "A".
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Rank(n).Valid() || n > 10 {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Card is a single playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Valid reports whether both suit and rank are in range.
func (c Card) Valid() bool { return c.Suit.Valid() && c.Rank.Valid() }

// String renders the card as rank and pip, e.g. "7♥".
func (c Card) String() string { return c.Rank.String() + c.Suit.Symbol() }

// Code renders the compact ascii form, e.g. "7H" or "10S".
func (c Card) Code() string { return c.Rank.String() + c.Suit.letter() }

// ParseCard reads the compact form produced by Code.
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit, ok := parseSuitLetter(s[len(s)-1])
	if !ok {
		return Card{}, fmt.Errorf("invalid card %q: unknown suit", s)
	}
	rank, err := ParseRank(s[:len(s)-1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustParseCards parses a list of compact codes and panics on bad input.
// Intended for fixtures.
func MustParseCards(codes ...string) []Card {
	out := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}
