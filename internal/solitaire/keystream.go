package solitaire

// Source supplies keystream cards one at a time: a live Keystream generator,
// or a fixed prearranged sequence such as a LetterSource.
type Source interface {
	Next() (Card, error)
}

// Keystream derives an unbounded pseudorandom card sequence by repeatedly
// permuting an exclusively-owned deck. It is stateful and non-rewindable:
// each Next advances the deck in place, and restarting means seeding a fresh
// generator from a copy of the original deck. Not safe for concurrent use;
// each cipher session owns one generator for its lifetime.
type Keystream struct {
	deck Deck
}

// NewKeystream wraps a deck in a generator. The generator takes ownership of
// the deck; callers that need the original state afterwards should pass a
// Clone.
func NewKeystream(d Deck) *Keystream {
	return &Keystream{deck: d}
}

// cycle runs one full permutation round (advance both jokers, triple cut,
// count cut) and reads the output card, which may still be a joker.
func (k *Keystream) cycle() Card {
	k.deck.advanceJokerA()
	k.deck.advanceJokerB()
	k.deck.tripleCut()
	k.deck.countCut()
	return k.deck.outputCard()
}

// Next returns the next keystream value, a card in [0,51]. Rounds that land
// on a joker emit nothing and the deck keeps advancing, so a single call may
// run more than one round. Values are produced strictly on demand.
func (k *Keystream) Next() (Card, error) {
	for {
		c := k.cycle()
		if !c.IsJoker() {
			return c, nil
		}
	}
}

// Take draws the next n keystream values.
func (k *Keystream) Take(n int) []Card {
	out := make([]Card, n)
	for i := range out {
		out[i], _ = k.Next()
	}
	return out
}

// Deck returns a copy of the generator's current deck state, for callers
// that persist the generator between draws.
func (k *Keystream) Deck() Deck {
	return k.deck.Clone()
}
