package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"pontifex-go/internal/models"
	"pontifex-go/internal/solitaire"

	"github.com/gin-gonic/gin"
)

type createKeyRequest struct {
	Name string `json:"name"`
	// Deck is an explicit 54-token permutation; Random asks the server to
	// deal one instead.
	Deck   []int `json:"deck"`
	Random bool  `json:"random"`
}

func CreateKeyHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		var req createKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		nLen := utf8.RuneCountInString(req.Name)
		if nLen < 1 || nLen > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 1-64 characters"})
			return
		}

		var deck solitaire.Deck
		switch {
		case len(req.Deck) > 0:
			d, err := solitaire.NewDeck(req.Deck)
			if err != nil {
				writeAPIError(c, err)
				return
			}
			deck = d
		case req.Random:
			deck = solitaire.NewRandomDeck()
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "deck or random required"})
			return
		}

		k, err := models.CreateKey(db, uid, req.Name, deck)
		if err != nil {
			if models.IsUniqueConstraint(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "key name already taken"})
				return
			}
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": k})
	}
}

func ListKeysHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		keys, err := models.ListKeysByUser(db, uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"keys": keys})
	}
}

func GetKeyHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		k, err := loadOwnedKey(db, c.Param("id"), uid)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": k})
	}
}

func DeleteKeyHandler(db *sql.DB) gin.HandlerFunc {
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
		if err := models.DeleteKey(db, id, uid); err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// loadOwnedKey fetches a key and hides other users' keys behind not-found, so
// key ids don't leak across accounts.
func loadOwnedKey(db *sql.DB, idParam string, uid int64) (*models.Key, error) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, models.ErrNotFound
	}
	k, err := models.GetKeyByID(db, id)
	if err != nil {
		return nil, err
	}
	if k.UserID != uid {
		return nil, models.ErrNotFound
	}
	return k, nil
}
