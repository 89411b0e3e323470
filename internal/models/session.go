package models

import (
	"database/sql"
	"errors"
	"time"

	"pontifex-go/internal/solitaire"
)

// Session is the persistent form of a keystream generator: one exclusively
// owned deck advanced in place, plus a counter of values emitted so far. The
// row is the single owner of the deck; every draw goes through
// AdvanceSession so no two callers can advance the same deck state twice.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	KeyID     *int64    `json:"key_id,omitempty"`
	Deck      []int     `json:"deck"`
	Emitted   int64     `json:"emitted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CreateSession(db *sql.DB, userID int64, keyID *int64, deck solitaire.Deck) (*Session, error) {
	var kid any
	if keyID != nil {
		kid = *keyID
	}
	res, err := db.Exec(
		`INSERT INTO sessions(user_id, key_id, deck, emitted) VALUES (?, ?, ?, 0)`,
		userID, kid, EncodeDeck(deck),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetSessionByID(db, id)
}

func GetSessionByID(db *sql.DB, id int64) (*Session, error) {
	return scanSession(db.QueryRow(
		`SELECT id, user_id, key_id, deck, emitted, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	))
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	var keyID sql.NullInt64
	var deck string
	err := row.Scan(&s.ID, &s.UserID, &keyID, &deck, &s.Emitted, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if keyID.Valid {
		s.KeyID = &keyID.Int64
	}
	d, err := DecodeDeck(deck)
	if err != nil {
		return nil, err
	}
	s.Deck = d.Ints()
	return &s, nil
}

func ListSessionsByUser(db *sql.DB, userID int64) ([]*Session, error) {
	rows, err := db.Query(
		`SELECT id, user_id, key_id, deck, emitted, created_at, updated_at FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		var s Session
		var keyID sql.NullInt64
		var deck string
		if err := rows.Scan(&s.ID, &s.UserID, &keyID, &deck, &s.Emitted, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if keyID.Valid {
			s.KeyID = &keyID.Int64
		}
		d, err := DecodeDeck(deck)
		if err != nil {
			return nil, err
		}
		s.Deck = d.Ints()
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func DeleteSession(db *sql.DB, id, userID int64) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
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

// AdvanceSession loads the session's deck, hands a generator to advance, and
// persists the new deck state plus emitted count in the same transaction.
// advance reports how many keystream values it drew. The update is guarded on
// the emitted counter read at the start, so a concurrent draw on the same
// session fails with ErrSessionConflict instead of forking the deck state.
func AdvanceSession(db *sql.DB, id int64, advance func(*solitaire.Keystream) (int64, error)) (*Session, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var deck string
	var emitted int64
	err = tx.QueryRow(`SELECT deck, emitted FROM sessions WHERE id = ?`, id).Scan(&deck, &emitted)
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
	k := solitaire.NewKeystream(d)
	drawn, err := advance(k)
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec(
		`UPDATE sessions SET deck = ?, emitted = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND emitted = ?`,
		EncodeDeck(k.Deck()), emitted+drawn, id, emitted,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrSessionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetSessionByID(db, id)
}
