package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"pontifex-go/internal/models"
	"pontifex-go/internal/solitaire"

	"github.com/gin-gonic/gin"
)

func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if errors.Is(err, models.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Safe typed validation / conflict errors (do NOT echo raw errors).
	switch {
	case errors.Is(err, models.ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	case errors.Is(err, solitaire.ErrInvalidDeck):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "deck must be a permutation of 0..53"})
		return
	case errors.Is(err, solitaire.ErrInvalidLetter):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text must be uppercase A-Z"})
		return
	case errors.Is(err, solitaire.ErrShortKeystream):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "pad shorter than text"})
		return
	case errors.Is(err, models.ErrDeckOrKeyRequired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "deck, key id, or pad required"})
		return
	case errors.Is(err, models.ErrTextTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text too long"})
		return
	case errors.Is(err, models.ErrInvalidDrawCount):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid draw count"})
		return
	case errors.Is(err, models.ErrSessionConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session was advanced concurrently, retry"})
		return
	}

	log.Printf("internal error: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
