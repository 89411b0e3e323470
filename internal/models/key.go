package models

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"pontifex-go/internal/solitaire"
)

// Key is a named initial deck permutation owned by a user. The stored deck is
// the seed for new cipher sessions and is never mutated by them.
type Key struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Deck      []int     `json:"deck"`
	CreatedAt time.Time `json:"created_at"`
}

// EncodeDeck serializes a deck as comma-separated tokens for storage.
func EncodeDeck(d solitaire.Deck) string {
	parts := make([]string, len(d))
	for i, c := range d {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}

// DecodeDeck parses a stored deck, re-validating the permutation invariant.
// A row that fails here is corrupt, not a user error.
func DecodeDeck(s string) (solitaire.Deck, error) {
	parts := strings.Split(s, ",")
	tokens := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, solitaire.ErrInvalidDeck
		}
		tokens[i] = v
	}
	return solitaire.NewDeck(tokens)
}

func CreateKey(db *sql.DB, userID int64, name string, deck solitaire.Deck) (*Key, error) {
	res, err := db.Exec(
		`INSERT INTO keys(user_id, name, deck) VALUES (?, ?, ?)`,
		userID, name, EncodeDeck(deck),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetKeyByID(db, id)
}

func GetKeyByID(db *sql.DB, id int64) (*Key, error) {
	var k Key
	var deck string
	err := db.QueryRow(
		`SELECT id, user_id, name, deck, created_at FROM keys WHERE id = ?`,
		id,
	).Scan(&k.ID, &k.UserID, &k.Name, &deck, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d, err := DecodeDeck(deck)
	if err != nil {
		return nil, err
	}
	k.Deck = d.Ints()
	return &k, nil
}

func ListKeysByUser(db *sql.DB, userID int64) ([]*Key, error) {
	rows, err := db.Query(
		`SELECT id, user_id, name, deck, created_at FROM keys WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []*Key{}
	for rows.Next() {
		var k Key
		var deck string
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &deck, &k.CreatedAt); err != nil {
			return nil, err
		}
		d, err := DecodeDeck(deck)
		if err != nil {
			return nil, err
		}
		k.Deck = d.Ints()
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func DeleteKey(db *sql.DB, id, userID int64) error {
	res, err := db.Exec(`DELETE FROM keys WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
