package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"pontifex-go/internal/config"
	"pontifex-go/internal/models"
	"pontifex-go/internal/solitaire"
	"pontifex-go/internal/tracing"

	"github.com/gin-gonic/gin"
)

// maxDrawPerRequest bounds a single keystream draw; sessions are unbounded
// but each advance call should stay cheap.
const maxDrawPerRequest = 1000

type createSessionRequest struct {
	KeyID *int64 `json:"key_id"`
	Deck  []int  `json:"deck"`
}

func CreateSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		// The session gets its own copy of the deck; the key is never
		// mutated by draws.
		var deck solitaire.Deck
		switch {
		case len(req.Deck) > 0:
			d, err := solitaire.NewDeck(req.Deck)
			if err != nil {
				writeAPIError(c, err)
				return
			}
			deck = d
		case req.KeyID != nil:
			k, err := loadOwnedKey(db, strconv.FormatInt(*req.KeyID, 10), uid)
			if err != nil {
				writeAPIError(c, err)
				return
			}
			d, err := solitaire.NewDeck(k.Deck)
			if err != nil {
				writeAPIError(c, err)
				return
			}
			deck = d
		default:
			writeAPIError(c, models.ErrDeckOrKeyRequired)
			return
		}

		s, err := models.CreateSession(db, uid, req.KeyID, deck)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session": s})
	}
}

func ListSessionsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		sessions, err := models.ListSessionsByUser(db, uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	}
}

func GetSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		s, err := loadOwnedSession(db, c.Param("id"), uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": s})
	}
}

func DeleteSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			writeAPIError(c, models.ErrNotFound)
			return
		}
		if err := models.DeleteSession(db, id, uid); err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

type drawRequest struct {
	Count int `json:"count"`
}

func DrawKeystreamHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		_, span := tracing.StartSpan(c.Request.Context(), "handlers.DrawKeystream")
		defer span.End()

		s, err := loadOwnedSession(db, c.Param("id"), uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		var req drawRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		values, updated, err := drawFromSession(db, s.ID, req.Count)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"values":  values,
			"cards":   cardNames(values),
			"emitted": updated.Emitted,
		})
	}
}

type sessionCipherRequest struct {
	Text string `json:"text"`
}

func SessionEncryptHandler(db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return sessionCipherHandler(db, cfg, false)
}

func SessionDecryptHandler(db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return sessionCipherHandler(db, cfg, true)
}

func sessionCipherHandler(db *sql.DB, cfg config.Config, decrypt bool) gin.HandlerFunc {
	op := "handlers.SessionEncrypt"
	if decrypt {
		op = "handlers.SessionDecrypt"
	}
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		_, span := tracing.StartSpan(c.Request.Context(), op)
		defer span.End()

		s, err := loadOwnedSession(db, c.Param("id"), uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		var req sessionCipherRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		if len(req.Text) > cfg.MaxTextChars {
			writeAPIError(c, models.ErrTextTooLong)
			return
		}

		var result string
		updated, err := models.AdvanceSession(db, s.ID, func(k *solitaire.Keystream) (int64, error) {
			var cerr error
			if decrypt {
				result, cerr = solitaire.Decrypt(req.Text, k)
			} else {
				result, cerr = solitaire.Encrypt(req.Text, k)
			}
			return int64(len(req.Text)), cerr
		})
		if err != nil {
			writeAPIError(c, err)
			return
		}

		broadcastSessionEvent(updated.ID, "cipher", gin.H{
			"session_id": updated.ID,
			"letters":    len(req.Text),
			"emitted":    updated.Emitted,
		})
		c.JSON(http.StatusOK, gin.H{"result": result, "emitted": updated.Emitted})
	}
}

// drawFromSession advances the session's persisted deck by count keystream
// values and notifies any watchers. Shared by the HTTP and websocket paths.
func drawFromSession(db *sql.DB, sessionID int64, count int) ([]int, *models.Session, error) {
	if count < 1 || count > maxDrawPerRequest {
		return nil, nil, models.ErrInvalidDrawCount
	}

	var values []int
	updated, err := models.AdvanceSession(db, sessionID, func(k *solitaire.Keystream) (int64, error) {
		for _, card := range k.Take(count) {
			values = append(values, int(card))
		}
		return int64(count), nil
	})
	if err != nil {
		return nil, nil, err
	}

	broadcastSessionEvent(sessionID, "keystream", gin.H{
		"session_id": sessionID,
		"values":     values,
		"emitted":    updated.Emitted,
	})
	return values, updated, nil
}

func broadcastSessionEvent(sessionID int64, typ string, payload any) {
	hub, ok := getHub()
	if !ok {
		return
	}
	hub.Broadcast(sessionRoom(sessionID), typ, payload)
}

func sessionRoom(sessionID int64) string {
	return fmt.Sprintf("session:%d", sessionID)
}

func cardNames(values []int) []string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = solitaire.Card(v).String()
	}
	return names
}

func loadOwnedSession(db *sql.DB, idParam string, uid int64) (*models.Session, error) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, models.ErrNotFound
	}
	s, err := models.GetSessionByID(db, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != uid {
		return nil, models.ErrNotFound
	}
	return s, nil
}
