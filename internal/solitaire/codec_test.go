package solitaire

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestEncryptWithExplicitKeystream(t *testing.T) {
	src, err := NewLetterSource("KDWUPONOWT")
	if err != nil {
		t.Fatalf("NewLetterSource: %v", err)
	}
	got, err := Encrypt("DONOTUSEPC", src)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if got != "OSKJJJGTMW" {
		t.Fatalf("Encrypt = %q, want %q", got, "OSKJJJGTMW")
	}
}

func TestDecryptWithExplicitKeystream(t *testing.T) {
	src, err := NewLetterSource("KDWUPONOWT")
	if err != nil {
		t.Fatalf("NewLetterSource: %v", err)
	}
	got, err := Decrypt("OSKJJJGTMW", src)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "DONOTUSEPC" {
		t.Fatalf("Decrypt = %q, want %q", got, "DONOTUSEPC")
	}
}

func TestEncryptWithSortedDeck(t *testing.T) {
	got, err := Encrypt("AAAAAAAAAA", NewKeystream(NewSortedDeck()))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if got != "EXKYIZSGEH" {
		t.Fatalf("Encrypt = %q, want %q", got, "EXKYIZSGEH")
	}
}

func TestDecryptWithSortedDeck(t *testing.T) {
	got, err := Decrypt("EXKYIZSGEH", NewKeystream(NewSortedDeck()))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "AAAAAAAAAA" {
		t.Fatalf("Decrypt = %q, want %q", got, "AAAAAAAAAA")
	}
}

func TestInvalidLetterRejected(t *testing.T) {
	for _, text := range []string{"HELLO WORLD", "hello", "ABC1", "Ä"} {
		if _, err := Encrypt(text, NewKeystream(NewSortedDeck())); !errors.Is(err, ErrInvalidLetter) {
			t.Errorf("Encrypt(%q) err = %v, want ErrInvalidLetter", text, err)
		}
		if _, err := Decrypt(text, NewKeystream(NewSortedDeck())); !errors.Is(err, ErrInvalidLetter) {
			t.Errorf("Decrypt(%q) err = %v, want ErrInvalidLetter", text, err)
		}
	}
}

func TestShortKeystreamRejected(t *testing.T) {
	src, _ := NewLetterSource("AB")
	if _, err := Encrypt("ABC", src); !errors.Is(err, ErrShortKeystream) {
		t.Fatalf("err = %v, want ErrShortKeystream", err)
	}
}

func TestEncryptConsumesExactlyOneValuePerLetter(t *testing.T) {
	src, _ := NewLetterSource("KDWUPONOWT")
	if _, err := Encrypt("DONOT", src); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	// Five letters in, five values consumed: the sixth pad letter O is next.
	k, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if k != Card('O'-'A') {
		t.Fatalf("next keystream value = %d, want %d", k, 'O'-'A')
	}
}

// The encrypt formula's +1 can compute letter index 26 (one past Z) before
// conversion; it must wrap to A and still round-trip.
func TestEncryptIndexBoundaryWrapsToA(t *testing.T) {
	src, _ := NewLetterSource("A")
	got, err := Encrypt("Z", src) // (25+0) mod 26 + 1 == 26
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if got != "A" {
		t.Fatalf("Encrypt = %q, want %q", got, "A")
	}
	src, _ = NewLetterSource("A")
	back, err := Decrypt(got, src)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if back != "Z" {
		t.Fatalf("Decrypt = %q, want %q", back, "Z")
	}
}

func TestRoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 25; trial++ {
		seed := NewRandomDeck()

		var sb strings.Builder
		for i := 0; i < 5+rng.Intn(120); i++ {
			sb.WriteByte(byte('A' + rng.Intn(26)))
		}
		plain := sb.String()

		cipher, err := Encrypt(plain, NewKeystream(seed.Clone()))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		for i := 0; i < len(cipher); i++ {
			if cipher[i] < 'A' || cipher[i] > 'Z' {
				t.Fatalf("ciphertext %q contains non-letter %q", cipher, cipher[i])
			}
		}
		back, err := Decrypt(cipher, NewKeystream(seed.Clone()))
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if back != plain {
			t.Fatalf("round trip: got %q, want %q (deck %v)", back, plain, seed.Ints())
		}
	}
}
