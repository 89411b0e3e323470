package solitaire

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// ErrInvalidDeck means a supplied permutation is not a bijection on [0,53].
// It is a configuration error: nothing downstream attempts to recover from it.
var ErrInvalidDeck = errors.New("invalid deck: must hold each card 0..53 exactly once")

// Deck is an ordered permutation of distinct cards. Position 0 is the top,
// the last position the bottom. A full deck has 54 cards; the step methods
// are written against len(d) so they also work on the short decks the unit
// vectors use.
type Deck []Card

// NewSortedDeck returns the canonical reference deck, tokens 0..53 ascending.
func NewSortedDeck() Deck {
	d := make(Deck, DeckSize)
	for i := range d {
		d[i] = Card(i)
	}
	return d
}

// NewDeck builds a Deck from a caller-supplied permutation (the key).
func NewDeck(perm []int) (Deck, error) {
	if len(perm) != DeckSize {
		return nil, ErrInvalidDeck
	}
	var seen [DeckSize]bool
	d := make(Deck, DeckSize)
	for i, v := range perm {
		if v < 0 || v >= DeckSize || seen[v] {
			return nil, ErrInvalidDeck
		}
		seen[v] = true
		d[i] = Card(v)
	}
	return d, nil
}

// NewRandomDeck deals a fresh key deck with a crypto-secure Fisher-Yates
// shuffle. If crypto/rand fails, we fall back to a time-seeded shuffle as a
// last resort.
func NewRandomDeck() Deck {
	d := NewSortedDeck()
	for i := len(d) - 1; i > 0; i-- {
		nBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			fallbackShuffle(d)
			return d
		}
		j := int(nBig.Int64())
		d[i], d[j] = d[j], d[i]
	}
	return d
}

func fallbackShuffle(d Deck) {
	// Minimal fallback (predictable) used only if crypto/rand fails.
	seed := time.Now().UnixNano()
	for i := len(d) - 1; i > 0; i-- {
		seed = (seed*6364136223846793005 + 1) & 0x7fffffffffffffff
		j := int(seed % int64(i+1))
		d[i], d[j] = d[j], d[i]
	}
}

func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	copy(out, d)
	return out
}

// Ints returns the deck as plain tokens, for serialization.
func (d Deck) Ints() []int {
	out := make([]int, len(d))
	for i, c := range d {
		out[i] = int(c)
	}
	return out
}

func (d Deck) indexOf(c Card) int {
	for i, v := range d {
		if v == c {
			return i
		}
	}
	return -1
}

// advanceJokerA moves Joker A down one position, wrapping from the bottom to
// position 1 (just below the top card).
func (d Deck) advanceJokerA() {
	i := d.indexOf(JokerA)
	last := len(d) - 1
	if i == last {
		copy(d[2:], d[1:last])
		d[1] = JokerA
		return
	}
	d[i], d[i+1] = d[i+1], d[i]
}

// advanceJokerB moves Joker B down two positions. From the bottom it wraps to
// position 2; from one above the bottom it wraps to position 1.
func (d Deck) advanceJokerB() {
	i := d.indexOf(JokerB)
	last := len(d) - 1
	switch i {
	case last:
		copy(d[3:], d[2:last])
		d[2] = JokerB
	case last - 1:
		copy(d[2:i+1], d[1:i])
		d[1] = JokerB
	default:
		d[i], d[i+1] = d[i+1], d[i]
		d[i+1], d[i+2] = d[i+2], d[i+1]
	}
}

// tripleCut swaps the blocks above the first joker and below the second one.
// The middle block, both jokers included, keeps its internal order.
func (d Deck) tripleCut() {
	f := d.indexOf(JokerA)
	l := d.indexOf(JokerB)
	if f > l {
		f, l = l, f
	}
	scratch := make(Deck, 0, len(d))
	scratch = append(scratch, d[l+1:]...)
	scratch = append(scratch, d[f:l+1]...)
	scratch = append(scratch, d[:f]...)
	copy(d, scratch)
}

// countCut reads the bottom card and moves that many cards (value+1, capped
// so the bottom card never leaves its place) from the top to just above the
// bottom card. Either joker on the bottom reads as the cap, making the cut a
// no-op on a full deck.
func (d Deck) countCut() {
	last := len(d) - 1
	bottom := d[last]
	count := int(bottom) + 1
	if count > last {
		count = last
	}
	scratch := make(Deck, 0, len(d))
	scratch = append(scratch, d[count:last]...)
	scratch = append(scratch, d[:count]...)
	scratch = append(scratch, bottom)
	copy(d, scratch)
}

// outputCard reads the keystream candidate for the current deck state: count
// down from the top by the top card's value and return the card there. The
// count is capped at the deck size minus one, the same cap countCut applies,
// which reads jokers on a full deck as 52 and keeps the index on the deck
// for short ones. The deck is not modified.
func (d Deck) outputCard() Card {
	count := int(d[0])
	if count > len(d)-2 {
		count = len(d) - 2
	}
	return d[count+1]
}
