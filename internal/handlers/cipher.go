package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"pontifex-go/internal/config"
	"pontifex-go/internal/models"
	"pontifex-go/internal/solitaire"
	"pontifex-go/internal/tracing"

	"github.com/gin-gonic/gin"
)

// One-shot cipher: runs a fresh generator and persists nothing. The keystream
// comes from an inline deck, a stored key, or an explicit letter pad.
type cipherRequest struct {
	Text  string `json:"text"`
	Deck  []int  `json:"deck"`
	KeyID *int64 `json:"key_id"`
	Pad   string `json:"pad"`
}

func EncryptHandler(db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return cipherHandler(db, cfg, false)
}

func DecryptHandler(db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return cipherHandler(db, cfg, true)
}

func cipherHandler(db *sql.DB, cfg config.Config, decrypt bool) gin.HandlerFunc {
	op := "handlers.Encrypt"
	if decrypt {
		op = "handlers.Decrypt"
	}
	return func(c *gin.Context) {
		uid, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		_, span := tracing.StartSpan(c.Request.Context(), op)
		defer span.End()

		var req cipherRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		if len(req.Text) > cfg.MaxTextChars {
			writeAPIError(c, models.ErrTextTooLong)
			return
		}

		src, err := keystreamSource(db, uid, req)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		var result string
		if decrypt {
			result, err = solitaire.Decrypt(req.Text, src)
		} else {
			result, err = solitaire.Encrypt(req.Text, src)
		}
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

func keystreamSource(db *sql.DB, uid int64, req cipherRequest) (solitaire.Source, error) {
	switch {
	case req.Pad != "":
		return solitaire.NewLetterSource(req.Pad)
	case len(req.Deck) > 0:
		d, err := solitaire.NewDeck(req.Deck)
		if err != nil {
			return nil, err
		}
		return solitaire.NewKeystream(d), nil
	case req.KeyID != nil:
		k, err := loadOwnedKey(db, strconv.FormatInt(*req.KeyID, 10), uid)
		if err != nil {
			return nil, err
		}
		d, err := solitaire.NewDeck(k.Deck)
		if err != nil {
			return nil, err
		}
		return solitaire.NewKeystream(d), nil
	default:
		return nil, models.ErrDeckOrKeyRequired
	}
}
