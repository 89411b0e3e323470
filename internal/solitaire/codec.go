package solitaire

import "errors"

var (
	// ErrInvalidLetter means a plaintext/ciphertext character was outside
	// A-Z. Input is never coerced; the whole conversion fails.
	ErrInvalidLetter = errors.New("invalid letter: input must be uppercase A-Z")

	// ErrShortKeystream means a fixed keystream ran out before the input did.
	ErrShortKeystream = errors.New("keystream shorter than input")
)

// mod is the always-non-negative remainder; Go's % follows the sign of the
// dividend, which the decrypt formula cannot tolerate.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func letterToIndex(b byte) (int, error) {
	if b < 'A' || b > 'Z' {
		return 0, ErrInvalidLetter
	}
	return int(b - 'A'), nil
}

// indexToLetter reduces its argument mod 26 before converting. The encrypt
// formula's +1 can push an index to 26 (when (p+k) mod 26 == 25), and the
// classical tables wrap that back around to A.
func indexToLetter(i int) byte {
	return byte('A' + mod(i, 26))
}

// encryptLetter combines a zero-based plaintext index with a raw keystream
// value. The +1 bridges the classical 1-based letter convention (A=1..Z=26)
// into this zero-based pipeline.
func encryptLetter(p int, k Card) byte {
	return indexToLetter(mod(p+int(k), 26) + 1)
}

// decryptLetter inverts encryptLetter.
func decryptLetter(c int, k Card) byte {
	return indexToLetter(mod(c-int(k)-1, 26))
}

// Encrypt combines uppercase plaintext with the keystream, consuming exactly
// one keystream value per letter.
func Encrypt(plaintext string, src Source) (string, error) {
	out := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i++ {
		p, err := letterToIndex(plaintext[i])
		if err != nil {
			return "", err
		}
		k, err := src.Next()
		if err != nil {
			return "", err
		}
		out[i] = encryptLetter(p, k)
	}
	return string(out), nil
}

// Decrypt is the inverse of Encrypt, given a keystream source seeded from
// the same initial deck.
func Decrypt(ciphertext string, src Source) (string, error) {
	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i++ {
		c, err := letterToIndex(ciphertext[i])
		if err != nil {
			return "", err
		}
		k, err := src.Next()
		if err != nil {
			return "", err
		}
		out[i] = decryptLetter(c, k)
	}
	return string(out), nil
}

// LetterSource replays a fixed keystream written as letters (A=0..Z=25),
// the form prearranged pads are exchanged in.
type LetterSource struct {
	letters string
	pos     int
}

func NewLetterSource(letters string) (*LetterSource, error) {
	for i := 0; i < len(letters); i++ {
		if _, err := letterToIndex(letters[i]); err != nil {
			return nil, err
		}
	}
	return &LetterSource{letters: letters}, nil
}

func (s *LetterSource) Next() (Card, error) {
	if s.pos >= len(s.letters) {
		return 0, ErrShortKeystream
	}
	v, _ := letterToIndex(s.letters[s.pos])
	s.pos++
	return Card(v), nil
}
