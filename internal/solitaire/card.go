package solitaire

import (
	"fmt"
	"strings"
)

// Card is a single token in a Pontifex deck: 0..51 are the ordinary cards
// (suit*13 + rank-1), 52 and 53 are the two jokers. The jokers are not
// interchangeable; the keystream steps move them by different amounts.
type Card uint8

const (
	JokerA Card = 52
	JokerB Card = 53

	// DeckSize is the number of cards in a full deck, jokers included.
	DeckSize = 54
)

type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

func (s Suit) String() string {
	suits := []string{"C", "D", "H", "S"}
	if int(s) >= len(suits) {
		return "?"
	}
	return suits[s]
}

func (c Card) IsJoker() bool {
	return c == JokerA || c == JokerB
}

// Suit and Rank are only meaningful for non-joker cards.
func (c Card) Suit() Suit {
	return Suit(c / 13)
}

func (c Card) Rank() int {
	return int(c%13) + 1
}

// Number is the classical 1-based card number (A of clubs = 1 ... B joker
// = 54). Everything else in this package is zero-based. Note that when the
// pencil-and-paper descriptions count with a joker they use 53 regardless of
// which joker it is, not this number.
func (c Card) Number() int {
	return int(c) + 1
}

// String renders a card the way the pencil-and-paper descriptions do:
// "AC".."KS" for ordinary cards, "JA"/"JB" for the jokers.
func (c Card) String() string {
	switch c {
	case JokerA:
		return "JA"
	case JokerB:
		return "JB"
	}
	var r string
	switch c.Rank() {
	case 1:
		r = "A"
	case 11:
		r = "J"
	case 12:
		r = "Q"
	case 13:
		r = "K"
	default:
		r = fmt.Sprintf("%d", c.Rank())
	}
	return r + c.Suit().String()
}

// ParseCard is the inverse of Card.String.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	switch s {
	case "JA":
		return JokerA, nil
	case "JB":
		return JokerB, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid card %q", s)
	}
	var suit Suit
	switch s[len(s)-1:] {
	case "C":
		suit = Clubs
	case "D":
		suit = Diamonds
	case "H":
		suit = Hearts
	case "S":
		suit = Spades
	default:
		return 0, fmt.Errorf("invalid suit in %q", s)
	}
	var rank int
	switch rankStr := s[:len(s)-1]; rankStr {
	case "A":
		rank = 1
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		var v int
		if _, err := fmt.Sscanf(rankStr, "%d", &v); err != nil || v < 2 || v > 10 {
			return 0, fmt.Errorf("invalid rank in %q", s)
		}
		rank = v
	}
	return Card(int(suit)*13 + rank - 1), nil
}
